package table

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/iamasit07/connect4-engine/internal/domain"
)

// Table hosts one game. All access to the game goes through the table lock.
type Table struct {
	ID        string
	Columns   int
	Rows      int
	CreatedAt time.Time

	mu           sync.Mutex
	game         *domain.Game
	round        int
	roundStarted time.Time
	lastActivity time.Time
	seq          uint64
	pending      []domain.Event
	closed       bool

	manager *Manager
	logger  zerolog.Logger
}

// RoundRepository archives finished rounds.
type RoundRepository interface {
	SaveRound(ctx context.Context, record domain.RoundRecord) error
}

// SnapshotCache keeps the last known state of a table, including tables
// that have since been reaped.
type SnapshotCache interface {
	SaveState(ctx context.Context, state domain.TableState) error
	LoadState(ctx context.Context, tableID string) (*domain.TableState, error)
	DeleteState(ctx context.Context, tableID string) error
}

// SelectColumn plays the current player's token into column and delivers the
// resulting events before returning.
func (t *Table) SelectColumn(ctx context.Context, column int) (domain.Move, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return domain.Move{}, t.closedError()
	}

	t.lastActivity = t.manager.now()
	move, err := t.game.ColumnSelected(column)
	t.flush(ctx)
	if err != nil {
		return move, err
	}

	t.cacheState(ctx)
	return move, nil
}

// Reset starts the next round on the same table.
func (t *Table) Reset(ctx context.Context) (domain.TableState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return domain.TableState{}, t.closedError()
	}

	now := t.manager.now()
	t.lastActivity = now
	t.round++
	t.roundStarted = now
	t.emit(domain.Event{Type: domain.EventRoundReset})
	t.game.Reset()
	t.flush(ctx)

	t.cacheState(ctx)
	return t.stateLocked(), nil
}

// close stops the table for good. Later moves and resets fail with
// ErrTableNotFound; sinks get a final table_closed event.
func (t *Table) close(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	t.emit(domain.Event{Type: domain.EventTableClosed})
	t.flush(ctx)
}

func (t *Table) closedError() error {
	return errors.Wrapf(ErrTableNotFound, "table %s was closed", t.ID)
}

func (t *Table) State() domain.TableState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

func (t *Table) LastActivity() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastActivity
}

// Scores returns every player's current score.
func (t *Table) Scores() map[domain.Token]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scoresLocked()
}

func (t *Table) stateLocked() domain.TableState {
	return domain.TableState{
		TableID:   t.ID,
		Round:     t.round,
		Snapshot:  t.game.Snapshot(),
		UpdatedAt: t.lastActivity,
	}
}

func (t *Table) scoresLocked() map[domain.Token]int64 {
	scores := make(map[domain.Token]int64)
	for _, p := range t.game.Players() {
		scores[p.Token] = p.Score()
	}
	return scores
}

func (t *Table) emit(e domain.Event) {
	t.seq++
	e.TableID = t.ID
	e.Seq = t.seq
	e.Round = t.round
	e.At = t.manager.now()
	t.pending = append(t.pending, e)
}

func (t *Table) flush(ctx context.Context) {
	events := t.pending
	t.pending = nil

	sinks := t.manager.eventSinks()
	for _, e := range events {
		for _, sink := range sinks {
			if err := sink.Publish(ctx, e); err != nil {
				t.logger.Warn().Err(err).Str("event", string(e.Type)).Msg("event sink failed")
			}
		}
	}
}

func (t *Table) cacheState(ctx context.Context) {
	cache := t.manager.snapshots
	if cache == nil {
		return
	}
	if err := cache.SaveState(ctx, t.stateLocked()); err != nil {
		t.logger.Warn().Err(err).Msg("failed to cache table state")
	}
}

// onGameOver runs with the table lock held, from inside the engine.
func (t *Table) onGameOver(result domain.Result) {
	event := domain.Event{Type: domain.EventGameOver, Result: &result, Scores: t.scoresLocked()}

	if result.Status == domain.StatusWon {
		score := event.Scores[result.Token]
		if rank := t.manager.highScores.Add(score, string(result.Token)); rank >= 0 {
			event.HighScoreRank = &rank
			t.logger.Info().Str("token", string(result.Token)).Int64("score", score).Int("rank", rank).Msg("new high score")
		}
	}
	t.emit(event)

	snapshot := t.game.Snapshot()
	record := domain.RoundRecord{
		TableID:     t.ID,
		Round:       t.round,
		Status:      result.Status,
		Winner:      result.Token,
		WinningLine: result.Line,
		Tokens:      snapshot.Tokens,
		MoveCount:   snapshot.MoveCount,
		Board:       snapshot.Board,
		StartedAt:   t.roundStarted,
		FinishedAt:  t.manager.now(),
	}
	t.manager.saveRoundAsync(record)
}

// gameNotifier turns engine callbacks into table events.
type gameNotifier struct {
	t *Table
}

func (n gameNotifier) OnCellPlaced(cell domain.Cell, token domain.Token) {
	n.t.emit(domain.Event{Type: domain.EventCellPlaced, Cell: &cell, Token: token})
}

func (n gameNotifier) OnColumnFull(column int) {
	n.t.emit(domain.Event{Type: domain.EventColumnFull, Column: &column})
}

func (n gameNotifier) OnGameOver(result domain.Result) {
	n.t.onGameOver(result)
}

func (n gameNotifier) OnNextTurn(token domain.Token) {
	n.t.emit(domain.Event{Type: domain.EventNextTurn, Token: token})
}

func (n gameNotifier) OnInvariantViolation(err error) {
	n.t.logger.Error().Err(err).Msg("engine invariant violated")
}
