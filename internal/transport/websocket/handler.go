package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/iamasit07/connect4-engine/internal/service/table"
	"github.com/iamasit07/connect4-engine/pkg/auth"
	"github.com/iamasit07/connect4-engine/pkg/httputil"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Handler bridges one hot-seat presentation client to a table.
type Handler struct {
	ConnManager *ConnectionManager
	Tables      *table.Manager
	JWTSecret   string
	Upgrader    websocket.Upgrader
	Logger      zerolog.Logger
}

func NewHandler(cm *ConnectionManager, tables *table.Manager, secret string, allowedOrigins []string, logger zerolog.Logger) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &Handler{
		ConnManager: cm,
		Tables:      tables,
		JWTSecret:   secret,
		Logger:      logger,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// HandleWebSocket upgrades the request and serves the connection until it closes.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	// browsers cannot set headers on an upgrade, so the token may also come as a query param
	queryToken, _ := httputil.GetTokenFromRequest(c.Request)

	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Warn().Err(err).Msg("upgrade error")
		return
	}

	h.handleConnection(conn, queryToken)
}

func (h *Handler) handleConnection(conn *websocket.Conn, queryToken string) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
					return
				}
			}
		}
	}()

	// 1. Wait for init
	t, ok := h.authenticate(conn, queryToken)
	if !ok {
		conn.Close()
		return
	}
	tableID := t.ID
	logger := h.Logger.With().Str("table_id", tableID).Logger()

	h.ConnManager.AddConnection(tableID, conn)
	defer func() {
		logger.Info().Msg("connection closed")
		h.ConnManager.RemoveConnectionIfMatching(tableID, conn)
	}()

	logger.Info().Msg("connection initialized")
	if err := h.ConnManager.SendMessage(tableID, StateMessage{Type: MsgState, State: t.State()}); err != nil {
		return
	}

	// 2. Main message loop
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("client disconnected unexpectedly")
			}
			return
		}

		if !h.ConnManager.IsCurrentConnection(tableID, conn) {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.ConnManager.SendMessage(tableID, newError("invalid_message", "invalid JSON"))
			continue
		}

		h.processMessage(t, msg)
	}
}

// authenticate reads the first message and resolves the table its token names.
func (h *Handler) authenticate(conn *websocket.Conn, queryToken string) (*table.Table, bool) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		h.Logger.Debug().Err(err).Msg("read error during init")
		return nil, false
	}

	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != MsgInit {
		conn.WriteJSON(newError("invalid_message", "first message must be init"))
		return nil, false
	}

	token := msg.Token
	if token == "" {
		token = queryToken
	}

	claims, err := auth.ValidateTableToken(h.JWTSecret, token)
	if err != nil {
		h.Logger.Info().Err(err).Msg("invalid token during init")
		conn.WriteJSON(newError("unauthorized", "invalid or expired table token"))
		return nil, false
	}

	t, ok := h.Tables.Get(claims.TableID)
	if !ok {
		conn.WriteJSON(newError(table.CodeTableNotFound, "table is no longer hosted"))
		return nil, false
	}
	return t, true
}

func (h *Handler) processMessage(t *table.Table, msg ClientMessage) {
	ctx := context.Background()

	switch msg.Type {
	case MsgSelectColumn:
		if msg.Column == nil {
			h.ConnManager.SendMessage(t.ID, newError("invalid_message", "column is required"))
			return
		}
		// the resulting events reach the client through the table's sinks
		if _, err := t.SelectColumn(ctx, *msg.Column); err != nil {
			h.ConnManager.SendMessage(t.ID, newError(table.ErrorCode(err), err.Error()))
		}

	case MsgReset:
		if _, err := t.Reset(ctx); err != nil {
			h.ConnManager.SendMessage(t.ID, newError(table.ErrorCode(err), err.Error()))
		}

	case MsgState:
		h.ConnManager.SendMessage(t.ID, StateMessage{Type: MsgState, State: t.State()})

	default:
		h.ConnManager.SendMessage(t.ID, newError("invalid_message", "unknown message type "+msg.Type))
	}
}
