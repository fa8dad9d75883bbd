package cleanup

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iamasit07/connect4-engine/internal/logging"
)

// TableReaper removes tables that have been idle for longer than maxIdle.
type TableReaper interface {
	CleanupIdle(maxIdle time.Duration) []string
}

// Disconnector drops whatever client is attached to a table.
type Disconnector interface {
	RemoveConnection(tableID string)
}

type Worker struct {
	Tables      TableReaper
	Connections Disconnector
	Interval    time.Duration
	MaxIdle     time.Duration
	logger      zerolog.Logger
}

func NewWorker(tables TableReaper, conns Disconnector, interval, maxIdle time.Duration, logger zerolog.Logger) *Worker {
	return &Worker{
		Tables:      tables,
		Connections: conns,
		Interval:    interval,
		MaxIdle:     maxIdle,
		logger:      logging.Component(logger, "cleanup"),
	}
}

// Start runs a cleanup pass immediately and then every Interval until ctx is
// cancelled. It returns once the first pass is done.
func (w *Worker) Start(ctx context.Context) {
	w.RunOnce()

	ticker := time.NewTicker(w.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				w.logger.Info().Msg("background worker stopped")
				return
			case <-ticker.C:
				w.RunOnce()
			}
		}
	}()
	w.logger.Info().Dur("interval", w.Interval).Dur("max_idle", w.MaxIdle).Msg("background worker started")
}

// RunOnce reaps idle tables and drops their clients.
func (w *Worker) RunOnce() int {
	removed := w.Tables.CleanupIdle(w.MaxIdle)
	for _, id := range removed {
		if w.Connections != nil {
			w.Connections.RemoveConnection(id)
		}
	}
	if len(removed) > 0 {
		w.logger.Info().Int("count", len(removed)).Msg("removed idle tables")
	}
	return len(removed)
}
