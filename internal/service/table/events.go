package table

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iamasit07/connect4-engine/internal/domain"
)

// EventSink receives every event of every table. Sinks are called in
// order while the table is locked and must not call back into the table.
type EventSink interface {
	Publish(ctx context.Context, event domain.Event) error
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ctx context.Context, event domain.Event) error

func (f SinkFunc) Publish(ctx context.Context, event domain.Event) error {
	return f(ctx, event)
}

// LogSink writes events to the logger. Column-full advisories and turn
// changes go to debug; round outcomes and closed tables go to info.
type LogSink struct {
	Logger zerolog.Logger
}

func (s LogSink) Publish(_ context.Context, e domain.Event) error {
	ev := s.Logger.Debug()
	if e.Type == domain.EventGameOver || e.Type == domain.EventRoundReset || e.Type == domain.EventTableClosed {
		ev = s.Logger.Info()
	}

	ev = ev.Str("table_id", e.TableID).Str("event", string(e.Type)).Uint64("seq", e.Seq).Int("round", e.Round)
	if e.Cell != nil {
		ev = ev.Stringer("cell", e.Cell)
	}
	if e.Column != nil {
		ev = ev.Int("column", *e.Column)
	}
	if e.Token != domain.NoToken {
		ev = ev.Str("token", string(e.Token))
	}
	if e.Result != nil {
		ev = ev.Str("status", string(e.Result.Status))
	}
	ev.Msg("table event")
	return nil
}
