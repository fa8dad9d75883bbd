package websocket

import "github.com/iamasit07/connect4-engine/internal/domain"

// ClientMessage is everything a presentation client may send.
type ClientMessage struct {
	Type   string `json:"type"`
	Token  string `json:"token,omitempty"`
	Column *int   `json:"column,omitempty"`
}

const (
	MsgInit         = "init"
	MsgSelectColumn = "select_column"
	MsgReset        = "reset"
	MsgState        = "state"
	MsgError        = "error"
)

type StateMessage struct {
	Type  string            `json:"type"`
	State domain.TableState `json:"state"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newError(code, message string) ErrorMessage {
	return ErrorMessage{Type: MsgError, Code: code, Message: message}
}
