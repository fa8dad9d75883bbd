package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// Notifier receives the engine's notifications after each transition.
type Notifier interface {
	OnCellPlaced(cell Cell, token Token)
	OnColumnFull(column int)
	OnGameOver(result Result)
	OnNextTurn(token Token)
}

// ViolationReporter is an optional Notifier extension for invariant
// violations the engine survives in non-strict mode.
type ViolationReporter interface {
	OnInvariantViolation(err error)
}

type NopNotifier struct{}

func (NopNotifier) OnCellPlaced(Cell, Token) {}
func (NopNotifier) OnColumnFull(int) {}
func (NopNotifier) OnGameOver(Result) {}
func (NopNotifier) OnNextTurn(Token) {}

// Move is the outcome of a successful placement.
type Move struct {
	Cell   Cell   `json:"cell"`
	Token  Token  `json:"token"`
	Result Result `json:"result"`
}

// Game is the turn engine. It is not safe for concurrent use: callers
// serialise moves.
type Game struct {
	index    *LineIndex
	board    *Board
	rotation *PlayerRotation
	notifier Notifier
	status   GameStatus
	result   Result
	strict   bool
}

func NewGame(index *LineIndex, players []*Player, notifier Notifier) (*Game, error) {
	if index == nil {
		return nil, errors.Wrap(ErrInvalidGeometry, "nil line index")
	}
	if len(players) < 2 {
		return nil, errors.Wrapf(ErrInvalidPlayerList, "%d players, need at least 2", len(players))
	}

	rotation, err := NewPlayerRotation(players...)
	if err != nil {
		return nil, err
	}

	board, err := NewBoard(index.Columns(), index.Rows())
	if err != nil {
		return nil, err
	}

	if notifier == nil {
		notifier = NopNotifier{}
	}

	g := &Game{
		index:    index,
		board:    board,
		rotation: rotation,
		notifier: notifier,
		status:   StatusAwaitingMove,
		result:   Result{Status: StatusAwaitingMove},
	}
	g.rotation.Current().StartTurn()
	return g, nil
}

// SetStrict makes invariant violations panic instead of being reported.
func (g *Game) SetStrict(strict bool) { g.strict = strict }

// ColumnSelected plays the current player's token into column.
func (g *Game) ColumnSelected(column int) (Move, error) {
	if g.status.IsTerminal() {
		return Move{}, errors.Wrapf(ErrGameAlreadyOver, "status %s", g.status)
	}

	if column < 0 || column >= g.board.Columns() {
		return Move{}, errors.Wrapf(ErrInvalidColumn, "column %d of %d", column, g.board.Columns())
	}

	if g.board.IsColumnFull(column) {
		g.notifier.OnColumnFull(column)
		return Move{}, errors.Wrapf(ErrColumnFull, "column %d", column)
	}

	player := g.rotation.Current()
	cell, err := g.board.Place(column, player.Token)
	if err != nil {
		return Move{}, err
	}
	player.EndTurn()

	g.notifier.OnCellPlaced(cell, player.Token)
	if g.board.IsColumnFull(column) {
		g.notifier.OnColumnFull(column)
	}

	line, err := WinningLine(g.board, g.index, cell, player.Token)
	if err != nil {
		g.violation(errors.Wrapf(err, "checking lines through %s", cell))
		line = nil
	}

	switch {
	case line != nil:
		g.finish(Result{Status: StatusWon, Line: line, Token: player.Token})
	case g.board.IsBoardFull():
		g.finish(Result{Status: StatusDraw})
	default:
		next := g.rotation.Advance()
		next.StartTurn()
		g.notifier.OnNextTurn(next.Token)
	}

	return Move{Cell: cell, Token: player.Token, Result: g.result}, nil
}

func (g *Game) finish(result Result) {
	g.status = result.Status
	g.result = result
	g.notifier.OnGameOver(result)
}

func (g *Game) violation(err error) {
	if g.strict {
		panic(fmt.Sprintf("invariant violation: %v", err))
	}
	if r, ok := g.notifier.(ViolationReporter); ok {
		r.OnInvariantViolation(err)
	}
}

// Reset starts a new round with the first player to move.
func (g *Game) Reset() {
	g.board.Reset()
	g.rotation.Reset()
	for _, p := range g.rotation.Players() {
		p.ResetStats()
	}
	g.status = StatusAwaitingMove
	g.result = Result{Status: StatusAwaitingMove}

	first := g.rotation.Current()
	first.StartTurn()
	g.notifier.OnNextTurn(first.Token)
}

func (g *Game) Status() GameStatus { return g.status }
func (g *Game) Result() Result { return g.result }
func (g *Game) Current() *Player { return g.rotation.Current() }
func (g *Game) Players() []*Player { return g.rotation.Players() }
func (g *Game) Board() *Board { return g.board }
func (g *Game) Index() *LineIndex { return g.index }

// Snapshot is a serialisable copy of the game state.
type Snapshot struct {
	Columns     int        `json:"columns"`
	Rows        int        `json:"rows"`
	Board       [][]Token  `json:"board"`
	Status      GameStatus `json:"status"`
	Result      Result     `json:"result"`
	CurrentTurn Token      `json:"currentTurn"`
	Tokens      []Token    `json:"tokens"`
	MoveCount   int        `json:"moveCount"`
	FullColumns []int      `json:"fullColumns"`

	// ValidColumns are the columns a move may target; empty once the game is over.
	ValidColumns []int `json:"validColumns"`
}

func (g *Game) Snapshot() Snapshot {
	players := g.rotation.Players()
	tokens := make([]Token, len(players))
	for i, p := range players {
		tokens[i] = p.Token
	}

	full := []int{}
	for c := 0; c < g.board.Columns(); c++ {
		if g.board.IsColumnFull(c) {
			full = append(full, c)
		}
	}

	valid := []int{}
	if !g.status.IsTerminal() {
		valid = g.board.ValidColumns()
	}

	return Snapshot{
		Columns:     g.board.Columns(),
		Rows:        g.board.Rows(),
		Board:       g.board.Snapshot(),
		Status:      g.status,
		Result:      g.result,
		CurrentTurn: g.rotation.Current().Token,
		Tokens:      tokens,
		MoveCount:   g.board.MoveCount(),
		FullColumns: full,

		ValidColumns: valid,
	}
}
