package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/iamasit07/connect4-engine/internal/domain"
	"github.com/iamasit07/connect4-engine/internal/service/table"
	"github.com/iamasit07/connect4-engine/pkg/auth"
	"github.com/iamasit07/connect4-engine/pkg/uid"
)

type TableHandler struct {
	Tables    *table.Manager
	JWTSecret string
	TokenTTL  time.Duration
	Logger    zerolog.Logger
}

func NewTableHandler(tables *table.Manager, secret string, ttl time.Duration, logger zerolog.Logger) *TableHandler {
	return &TableHandler{Tables: tables, JWTSecret: secret, TokenTTL: ttl, Logger: logger}
}

type createTableResponse struct {
	TableID string            `json:"tableId"`
	Token   string            `json:"token"`
	State   domain.TableState `json:"state"`
}

type moveRequest struct {
	Column *int `json:"column"`
}

type moveResponse struct {
	Move  domain.Move       `json:"move"`
	State domain.TableState `json:"state"`
}

// statusFor picks the HTTP status of a rejected request.
func statusFor(code string) int {
	switch code {
	case table.CodeInvalidColumn, table.CodeInvalidGeometry, table.CodeInvalidPlayers:
		return http.StatusBadRequest
	case table.CodeColumnFull, table.CodeGameOver:
		return http.StatusConflict
	case table.CodeTableNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *TableHandler) fail(c *gin.Context, err error) {
	code := table.ErrorCode(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		h.Logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal error", "code": code})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func (h *TableHandler) CreateTable(c *gin.Context) {
	var setup table.Setup
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&setup); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "code": "invalid_request"})
			return
		}
	}

	t, err := h.Tables.Create(c.Request.Context(), setup)
	if err != nil {
		h.fail(c, err)
		return
	}

	token, err := auth.IssueTableToken(h.JWTSecret, t.ID, h.TokenTTL)
	if err != nil {
		h.Tables.Remove(c.Request.Context(), t.ID)
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, createTableResponse{TableID: t.ID, Token: token, State: t.State()})
}

func (h *TableHandler) ListTables(c *gin.Context) {
	tables := h.Tables.List()
	states := make([]domain.TableState, 0, len(tables))
	for _, t := range tables {
		states = append(states, t.State())
	}
	c.JSON(http.StatusOK, states)
}

func (h *TableHandler) GetTable(c *gin.Context) {
	id := c.Param("id")
	if !uid.IsTableID(id) {
		h.fail(c, table.ErrTableNotFound)
		return
	}

	state, err := h.Tables.State(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *TableHandler) SelectColumn(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Column == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "column is required", "code": "invalid_request"})
		return
	}

	t, ok := h.Tables.Get(c.Param("id"))
	if !ok {
		h.fail(c, table.ErrTableNotFound)
		return
	}

	move, err := t.SelectColumn(c.Request.Context(), *req.Column)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, moveResponse{Move: move, State: t.State()})
}

func (h *TableHandler) ResetTable(c *gin.Context) {
	t, ok := h.Tables.Get(c.Param("id"))
	if !ok {
		h.fail(c, table.ErrTableNotFound)
		return
	}
	state, err := t.Reset(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *TableHandler) DeleteTable(c *gin.Context) {
	if !h.Tables.Remove(c.Request.Context(), c.Param("id")) {
		h.fail(c, table.ErrTableNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TableHandler) HighScores(c *gin.Context) {
	c.JSON(http.StatusOK, h.Tables.HighScores().Entries())
}
