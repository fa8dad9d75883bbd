package table

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/iamasit07/connect4-engine/internal/domain"
	"github.com/iamasit07/connect4-engine/internal/logging"
	"github.com/iamasit07/connect4-engine/pkg/uid"
)

var ErrTableNotFound = errors.New("table not found")

const (
	saveRoundTimeout = 5 * time.Second

	DefaultMaxColumns = 64
	DefaultMaxRows    = 64
)

// Setup describes a table to create. Zero values take the manager's defaults.
type Setup struct {
	Columns int            `json:"columns"`
	Rows    int            `json:"rows"`
	Tokens  []domain.Token `json:"tokens"`
}

type Options struct {
	Defaults Setup
	// MaxColumns and MaxRows bound the boards Create accepts.
	MaxColumns int
	MaxRows    int

	Strict     bool
	HighScores *domain.HighScores
	Rounds     RoundRepository
	Snapshots  SnapshotCache
	Sinks      []EventSink
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Manager owns every live table and the resources they share: one line
// index per geometry and the high-score table.
type Manager struct {
	mu      sync.RWMutex
	tables  map[string]*Table
	indexes map[[2]int]*domain.LineIndex
	sinks   []EventSink

	defaults   Setup
	maxColumns int
	maxRows    int
	strict     bool
	highScores *domain.HighScores
	rounds     RoundRepository
	snapshots  SnapshotCache
	now        func() time.Time
	logger     zerolog.Logger

	archives sync.WaitGroup
}

func NewManager(opts Options) *Manager {
	if opts.Defaults.Columns == 0 {
		opts.Defaults.Columns = domain.DefaultColumns
	}
	if opts.Defaults.Rows == 0 {
		opts.Defaults.Rows = domain.DefaultRows
	}
	if len(opts.Defaults.Tokens) == 0 {
		opts.Defaults.Tokens = []domain.Token{"yellow", "red"}
	}
	if opts.MaxColumns == 0 {
		opts.MaxColumns = DefaultMaxColumns
	}
	if opts.MaxRows == 0 {
		opts.MaxRows = DefaultMaxRows
	}
	if opts.HighScores == nil {
		opts.HighScores = domain.NewHighScores(domain.DefaultHighScoreCapacity)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Manager{
		tables:     make(map[string]*Table),
		indexes:    make(map[[2]int]*domain.LineIndex),
		sinks:      append([]EventSink(nil), opts.Sinks...),
		defaults:   opts.Defaults,
		maxColumns: opts.MaxColumns,
		maxRows:    opts.MaxRows,
		strict:     opts.Strict,
		highScores: opts.HighScores,
		rounds:     opts.Rounds,
		snapshots:  opts.Snapshots,
		now:        opts.Now,
		logger:     logging.Component(opts.Logger, "table"),
	}
}

// AddSink registers a sink for the events of every table.
func (m *Manager) AddSink(sink EventSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, sink)
}

func (m *Manager) eventSinks() []EventSink {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sinks
}

// LineIndex returns the shared index for a geometry, building it on first use.
func (m *Manager) LineIndex(columns, rows int) (*domain.LineIndex, error) {
	key := [2]int{columns, rows}

	m.mu.RLock()
	idx, ok := m.indexes[key]
	m.mu.RUnlock()
	if ok {
		return idx, nil
	}

	idx, err := domain.NewLineIndex(columns, rows)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.indexes[key]; ok {
		return existing, nil
	}
	m.indexes[key] = idx
	return idx, nil
}

func (m *Manager) Create(ctx context.Context, setup Setup) (*Table, error) {
	if setup.Columns == 0 {
		setup.Columns = m.defaults.Columns
	}
	if setup.Rows == 0 {
		setup.Rows = m.defaults.Rows
	}
	if len(setup.Tokens) == 0 {
		setup.Tokens = m.defaults.Tokens
	}

	if setup.Columns > m.maxColumns || setup.Rows > m.maxRows {
		return nil, errors.Wrapf(domain.ErrInvalidGeometry, "%dx%d board, at most %dx%d allowed",
			setup.Columns, setup.Rows, m.maxColumns, m.maxRows)
	}

	idx, err := m.LineIndex(setup.Columns, setup.Rows)
	if err != nil {
		return nil, err
	}

	players := make([]*domain.Player, len(setup.Tokens))
	for i, token := range setup.Tokens {
		players[i] = domain.NewPlayer(token).WithClock(m.now)
	}

	now := m.now()
	id := uid.NewTableID()
	t := &Table{
		ID:           id,
		Columns:      setup.Columns,
		Rows:         setup.Rows,
		CreatedAt:    now,
		round:        1,
		roundStarted: now,
		lastActivity: now,
		manager:      m,
		logger:       m.logger.With().Str("table_id", id).Logger(),
	}

	game, err := domain.NewGame(idx, players, gameNotifier{t: t})
	if err != nil {
		return nil, err
	}
	game.SetStrict(m.strict)
	t.game = game

	m.mu.Lock()
	m.tables[id] = t
	m.mu.Unlock()

	t.mu.Lock()
	t.cacheState(ctx)
	t.mu.Unlock()

	m.logger.Info().Str("table_id", id).Int("columns", setup.Columns).Int("rows", setup.Rows).
		Int("players", len(players)).Msg("created table")
	return t, nil
}

func (m *Manager) Get(id string) (*Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[id]
	return t, ok
}

// State returns a live table's state, or the cached one for a table that is
// no longer hosted.
func (m *Manager) State(ctx context.Context, id string) (*domain.TableState, error) {
	if t, ok := m.Get(id); ok {
		state := t.State()
		return &state, nil
	}
	if m.snapshots != nil {
		state, err := m.snapshots.LoadState(ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "load cached state of table %s", id)
		}
		if state != nil {
			return state, nil
		}
	}
	return nil, errors.Wrap(ErrTableNotFound, id)
}

// Remove closes a table and forgets its cached state. It reports whether
// the table was hosted.
func (m *Manager) Remove(ctx context.Context, id string) bool {
	m.mu.Lock()
	t, ok := m.tables[id]
	delete(m.tables, id)
	m.mu.Unlock()
	if !ok {
		return false
	}

	t.close(ctx)
	if m.snapshots != nil {
		if err := m.snapshots.DeleteState(ctx, id); err != nil {
			m.logger.Warn().Err(err).Str("table_id", id).Msg("failed to delete cached state")
		}
	}
	m.logger.Info().Str("table_id", id).Msg("removed table")
	return true
}

// List returns the live tables, oldest first.
func (m *Manager) List() []*Table {
	m.mu.RLock()
	tables := make([]*Table, 0, len(m.tables))
	for _, t := range m.tables {
		tables = append(tables, t)
	}
	m.mu.RUnlock()

	sort.Slice(tables, func(i, j int) bool {
		return tables[i].CreatedAt.Before(tables[j].CreatedAt)
	})
	return tables
}

// CleanupIdle closes tables without activity for longer than maxIdle and
// returns their IDs. Their cached state is left to expire.
func (m *Manager) CleanupIdle(maxIdle time.Duration) []string {
	cutoff := m.now().Add(-maxIdle)

	var idle []*Table
	for _, t := range m.List() {
		if t.LastActivity().Before(cutoff) {
			idle = append(idle, t)
		}
	}

	m.mu.Lock()
	for _, t := range idle {
		delete(m.tables, t.ID)
	}
	m.mu.Unlock()

	ids := make([]string, len(idle))
	for i, t := range idle {
		t.close(context.Background())
		ids[i] = t.ID
	}

	if len(idle) > 0 {
		m.logger.Info().Int("count", len(idle)).Dur("max_idle", maxIdle).Msg("reaped idle tables")
	}
	return ids
}

func (m *Manager) HighScores() *domain.HighScores {
	return m.highScores
}

// saveRoundAsync archives a round in the background so game_over delivery
// does not wait on the database.
func (m *Manager) saveRoundAsync(record domain.RoundRecord) {
	if m.rounds == nil {
		return
	}

	m.archives.Add(1)
	go func() {
		defer m.archives.Done()

		ctx, cancel := context.WithTimeout(context.Background(), saveRoundTimeout)
		defer cancel()

		roundID := fmt.Sprintf("%s#%d", record.TableID, record.Round)
		if err := m.rounds.SaveRound(ctx, record); err != nil {
			m.logger.Error().Err(err).Str("round", roundID).Msg("failed to save round")
			return
		}
		m.logger.Debug().Str("round", roundID).Msg("round saved")
	}()
}

// Wait blocks until every pending round archive has finished.
func (m *Manager) Wait() {
	m.archives.Wait()
}
