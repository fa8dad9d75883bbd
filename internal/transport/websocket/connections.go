package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iamasit07/connect4-engine/internal/domain"
	"github.com/iamasit07/connect4-engine/internal/service/table"
)

const writeTimeout = 10 * time.Second

var _ table.EventSink = (*ConnectionManager)(nil)

// client is the socket attached to one table. gorilla allows one concurrent
// writer, so every write holds writeMu.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// ConnectionManager maps table IDs to their single presentation client.
type ConnectionManager struct {
	mu      sync.RWMutex
	clients map[string]*client
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{clients: make(map[string]*client)}
}

// AddConnection binds conn to tableID. A client already bound to the table
// is closed and replaced.
func (cm *ConnectionManager) AddConnection(tableID string, conn *websocket.Conn) {
	cm.mu.Lock()
	prev := cm.clients[tableID]
	cm.clients[tableID] = &client{conn: conn}
	cm.mu.Unlock()

	if prev != nil {
		prev.conn.Close()
	}
}

// RemoveConnection closes and unbinds the table's client, if any.
func (cm *ConnectionManager) RemoveConnection(tableID string) {
	cm.detach(tableID, nil)
}

// RemoveConnectionIfMatching unbinds conn only while it is still the table's
// client. A handler whose socket was replaced calls this on exit.
func (cm *ConnectionManager) RemoveConnectionIfMatching(tableID string, conn *websocket.Conn) {
	cm.detach(tableID, conn)
}

func (cm *ConnectionManager) detach(tableID string, only *websocket.Conn) {
	cm.mu.Lock()
	cl, ok := cm.clients[tableID]
	if !ok || (only != nil && cl.conn != only) {
		cm.mu.Unlock()
		return
	}
	delete(cm.clients, tableID)
	cm.mu.Unlock()

	cl.conn.Close()
}

func (cm *ConnectionManager) IsCurrentConnection(tableID string, conn *websocket.Conn) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	cl, ok := cm.clients[tableID]
	return ok && cl.conn == conn
}

func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}

// SendMessage writes message as JSON to the table's client. Tables without a
// client drop the message.
func (cm *ConnectionManager) SendMessage(tableID string, message any) error {
	cm.mu.RLock()
	cl, ok := cm.clients[tableID]
	cm.mu.RUnlock()
	if !ok {
		return nil
	}

	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return cl.conn.WriteJSON(message)
}

// Publish implements table.EventSink. A table_closed event is the last one
// the client sees before it is detached.
func (cm *ConnectionManager) Publish(_ context.Context, event domain.Event) error {
	err := cm.SendMessage(event.TableID, event)
	if event.Type == domain.EventTableClosed {
		cm.RemoveConnection(event.TableID)
	}
	return err
}
