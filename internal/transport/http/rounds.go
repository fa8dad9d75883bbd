package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iamasit07/connect4-engine/internal/domain"
)

const (
	defaultRoundLimit = 20
	maxRoundLimit     = 100
)

type RoundLister interface {
	ListRounds(ctx context.Context, tableID string, limit int) ([]domain.RoundRecord, error)
}

type RoundHandler struct {
	Rounds RoundLister
}

func NewRoundHandler(rounds RoundLister) *RoundHandler {
	return &RoundHandler{Rounds: rounds}
}

type roundItem struct {
	Round           int              `json:"round"`
	Status          string           `json:"status"`
	Winner          domain.Token     `json:"winner,omitempty"`
	WinningLine     *domain.Line     `json:"winningLine,omitempty"`
	Tokens          []domain.Token   `json:"tokens"`
	MoveCount       int              `json:"moveCount"`
	DurationSeconds int              `json:"durationSeconds"`
	Board           [][]domain.Token `json:"board"`
	FinishedAt      time.Time        `json:"finishedAt"`
}

func (h *RoundHandler) ListRounds(c *gin.Context) {
	if h.Rounds == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "round archive is not configured", "code": "unavailable"})
		return
	}

	limit := defaultRoundLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer", "code": "invalid_request"})
			return
		}
		limit = min(n, maxRoundLimit)
	}

	records, err := h.Rounds.ListRounds(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rounds", "code": "internal"})
		return
	}

	items := make([]roundItem, 0, len(records))
	for _, r := range records {
		items = append(items, roundItem{
			Round:           r.Round,
			Status:          string(r.Status),
			Winner:          r.Winner,
			WinningLine:     r.WinningLine,
			Tokens:          r.Tokens,
			MoveCount:       r.MoveCount,
			DurationSeconds: r.DurationSeconds(),
			Board:           r.Board,
			FinishedAt:      r.FinishedAt,
		})
	}
	c.JSON(http.StatusOK, items)
}
