package table

import (
	"github.com/pkg/errors"

	"github.com/iamasit07/connect4-engine/internal/domain"
)

// Stable codes for rejections, shared by the HTTP and websocket transports.
const (
	CodeInvalidColumn   = "invalid_column"
	CodeColumnFull      = "column_full"
	CodeGameOver        = "game_over"
	CodeInvalidGeometry = "invalid_geometry"
	CodeInvalidPlayers  = "invalid_players"
	CodeTableNotFound   = "table_not_found"
	CodeInternal        = "internal"
)

// ErrorCode maps an error from this package or the engine to its code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidColumn):
		return CodeInvalidColumn
	case errors.Is(err, domain.ErrColumnFull):
		return CodeColumnFull
	case errors.Is(err, domain.ErrGameAlreadyOver):
		return CodeGameOver
	case errors.Is(err, domain.ErrInvalidGeometry):
		return CodeInvalidGeometry
	case errors.Is(err, domain.ErrInvalidPlayerList):
		return CodeInvalidPlayers
	case errors.Is(err, ErrTableNotFound):
		return CodeTableNotFound
	default:
		return CodeInternal
	}
}
