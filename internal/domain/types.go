package domain

import "fmt"

// Token identifies which player owns a cell. Two tokens are equal iff they
// belong to the same player.
type Token string

// NoToken marks an empty cell.
const NoToken Token = ""

const (
	MinColumns = 4
	MinRows    = 4
	LineLength = 4
)

// Default geometry of a classic board.
const (
	DefaultColumns = 7
	DefaultRows    = 6
)

// Cell is a board coordinate. Row 0 is the bottom of the board.
type Cell struct {
	Column int `json:"column"`
	Row    int `json:"row"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Column, c.Row)
}

type Direction string

const (
	Horizontal         Direction = "horizontal"
	Vertical           Direction = "vertical"
	AscendingDiagonal  Direction = "ascending_diagonal"
	DescendingDiagonal Direction = "descending_diagonal"
)

// Line is a run of LineLength contiguous, collinear cells.
type Line struct {
	Direction Direction        `json:"direction"`
	Cells     [LineLength]Cell `json:"cells"`
}

func (l Line) Contains(cell Cell) bool {
	for _, c := range l.Cells {
		if c == cell {
			return true
		}
	}
	return false
}

// to represent the game status
type GameStatus string

const (
	StatusAwaitingMove GameStatus = "awaiting_move"
	StatusWon          GameStatus = "won"
	StatusDraw         GameStatus = "draw"
)

func (s GameStatus) IsTerminal() bool {
	return s == StatusWon || s == StatusDraw
}

// Result describes the outcome of a round. Line and Token are only set when
// Status is StatusWon.
type Result struct {
	Status GameStatus `json:"status"`
	Line   *Line      `json:"line,omitempty"`
	Token  Token      `json:"token,omitempty"`
}

// basic error that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrInvalidGeometry   Error = "invalid board geometry"
	ErrInvalidPlayerList Error = "invalid player list"
	ErrInvalidColumn     Error = "invalid column"
	ErrColumnFull        Error = "column is full"
	ErrGameAlreadyOver   Error = "game is already over"
	ErrUnknownCell       Error = "unknown cell"
)
