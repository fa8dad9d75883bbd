package domain

import "time"

type EventType string

const (
	EventCellPlaced  EventType = "cell_placed"
	EventColumnFull  EventType = "column_full"
	EventGameOver    EventType = "game_over"
	EventNextTurn    EventType = "next_turn"
	EventRoundReset  EventType = "round_reset"
	EventTableClosed EventType = "table_closed"
)

// Event is a table notification as delivered to presentation clients.
// Seq increases by one per event within a table.
type Event struct {
	Type    EventType `json:"type"`
	TableID string    `json:"tableId"`
	Seq     uint64    `json:"seq"`
	Round   int       `json:"round"`

	Cell   *Cell   `json:"cell,omitempty"`
	Column *int    `json:"column,omitempty"`
	Token  Token   `json:"token,omitempty"`
	Result *Result `json:"result,omitempty"`

	// set on game_over
	Scores        map[Token]int64 `json:"scores,omitempty"`
	HighScoreRank *int            `json:"highScoreRank,omitempty"`

	At time.Time `json:"at"`
}

// TableState is the snapshot of one table, as served and cached.
type TableState struct {
	TableID string `json:"tableId"`
	Round   int    `json:"round"`
	Snapshot
	UpdatedAt time.Time `json:"updatedAt"`
}

// RoundRecord is an archived finished round.
type RoundRecord struct {
	TableID     string
	Round       int
	Status      GameStatus
	Winner      Token
	WinningLine *Line
	Tokens      []Token
	MoveCount   int
	Board       [][]Token
	StartedAt   time.Time
	FinishedAt  time.Time
}

func (r RoundRecord) DurationSeconds() int {
	return int(r.FinishedAt.Sub(r.StartedAt).Seconds())
}
