package domain

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events     []string
	results    []Result
	violations []error
}

func (r *recorder) OnCellPlaced(cell Cell, token Token) {
	r.events = append(r.events, fmt.Sprintf("placed %s %s", cell, token))
}

func (r *recorder) OnColumnFull(column int) {
	r.events = append(r.events, fmt.Sprintf("full %d", column))
}

func (r *recorder) OnGameOver(result Result) {
	r.events = append(r.events, fmt.Sprintf("over %s", result.Status))
	r.results = append(r.results, result)
}

func (r *recorder) OnNextTurn(token Token) {
	r.events = append(r.events, fmt.Sprintf("next %s", token))
}

func (r *recorder) OnInvariantViolation(err error) {
	r.violations = append(r.violations, err)
}

func (r *recorder) last(n int) []string {
	return r.events[len(r.events)-n:]
}

func newTestGame(t *testing.T, columns, rows int) (*Game, *recorder) {
	t.Helper()
	idx, err := NewLineIndex(columns, rows)
	require.NoError(t, err)
	rec := &recorder{}
	g, err := NewGame(idx, []*Player{NewPlayer("A"), NewPlayer("B")}, rec)
	require.NoError(t, err)
	return g, rec
}

func play(t *testing.T, g *Game, columns ...int) Move {
	t.Helper()
	var m Move
	for i, c := range columns {
		var err error
		m, err = g.ColumnSelected(c)
		require.NoError(t, err, "move %d (column %d)", i, c)
	}
	return m
}

func TestNewGameRequiresTwoPlayers(t *testing.T) {
	idx, err := NewLineIndex(7, 6)
	require.NoError(t, err)

	_, err = NewGame(idx, []*Player{NewPlayer("A")}, nil)
	assert.ErrorIs(t, err, ErrInvalidPlayerList)

	_, err = NewGame(idx, []*Player{NewPlayer("A"), NewPlayer("A")}, nil)
	assert.ErrorIs(t, err, ErrInvalidPlayerList)

	_, err = NewGame(nil, []*Player{NewPlayer("A"), NewPlayer("B")}, nil)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestMoveNotifiesAndAdvances(t *testing.T) {
	g, rec := newTestGame(t, 7, 6)

	m := play(t, g, 3)
	assert.Equal(t, Cell{3, 0}, m.Cell)
	assert.Equal(t, Token("A"), m.Token)
	assert.Equal(t, StatusAwaitingMove, m.Result.Status)
	assert.Equal(t, []string{"placed (3,0) A", "next B"}, rec.events)
	assert.Equal(t, Token("B"), g.Current().Token)

	m = play(t, g, 3)
	assert.Equal(t, Cell{3, 1}, m.Cell)
	assert.Equal(t, Token("B"), m.Token)
	assert.Equal(t, Token("A"), g.Current().Token)
}

func TestHorizontalWinOnBottomRow(t *testing.T) {
	g, rec := newTestGame(t, 7, 6)

	m := play(t, g, 0, 6, 1, 6, 2, 6, 3)

	want := Line{Direction: Horizontal, Cells: [4]Cell{{0, 0}, {1, 0}, {2, 0}, {3, 0}}}
	assert.Equal(t, StatusWon, g.Status())
	require.NotNil(t, m.Result.Line)
	assert.Equal(t, want, *m.Result.Line)
	assert.Equal(t, Token("A"), m.Result.Token)
	assert.Equal(t, g.Result(), m.Result)

	assert.Equal(t, []string{"placed (3,0) A", "over won"}, rec.last(2))
	require.Len(t, rec.results, 1)
	assert.Equal(t, want, *rec.results[0].Line)

	// the winner keeps the turn
	assert.Equal(t, Token("A"), g.Current().Token)
}

func TestVerticalAndDiagonalWins(t *testing.T) {
	tests := []struct {
		name  string
		moves []int
		token Token
		want  Line
	}{
		{
			name:  "vertical",
			moves: []int{0, 1, 0, 1, 0, 1, 0},
			token: "A",
			want:  Line{Direction: Vertical, Cells: [4]Cell{{0, 0}, {0, 1}, {0, 2}, {0, 3}}},
		},
		{
			name:  "ascending",
			moves: []int{0, 1, 1, 2, 2, 3, 2, 3, 3, 6, 3},
			token: "A",
			want:  Line{Direction: AscendingDiagonal, Cells: [4]Cell{{0, 0}, {1, 1}, {2, 2}, {3, 3}}},
		},
		{
			name:  "descending",
			moves: []int{6, 5, 5, 4, 4, 3, 4, 3, 3, 0, 3},
			token: "A",
			want:  Line{Direction: DescendingDiagonal, Cells: [4]Cell{{6, 0}, {5, 1}, {4, 2}, {3, 3}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGame(t, 7, 6)
			m := play(t, g, tt.moves...)
			require.Equal(t, StatusWon, m.Result.Status)
			assert.Equal(t, tt.token, m.Result.Token)
			assert.Equal(t, tt.want, *m.Result.Line)
		})
	}
}

func TestWinningLinePrefersGenerationOrder(t *testing.T) {
	idx, err := NewLineIndex(7, 6)
	require.NoError(t, err)
	b, err := NewBoard(7, 6)
	require.NoError(t, err)

	// columns 0-2 hold B B B A, column 3 holds A A A; A at (3,3) completes a
	// horizontal and a vertical at once
	for c := 0; c < 3; c++ {
		for _, tok := range []Token{"B", "B", "B", "A"} {
			_, err := b.Place(c, tok)
			require.NoError(t, err)
		}
	}
	for i := 0; i < 3; i++ {
		_, err := b.Place(3, "A")
		require.NoError(t, err)
	}
	cell, err := b.Place(3, "A")
	require.NoError(t, err)
	require.Equal(t, Cell{3, 3}, cell)

	line, err := WinningLine(b, idx, cell, "A")
	require.NoError(t, err)
	require.NotNil(t, line)
	assert.Equal(t, Line{Direction: Horizontal, Cells: [4]Cell{{0, 3}, {1, 3}, {2, 3}, {3, 3}}}, *line)

	line, err = WinningLine(b, idx, cell, "B")
	require.NoError(t, err)
	assert.Nil(t, line)

	_, err = WinningLine(b, idx, Cell{7, 7}, "A")
	assert.ErrorIs(t, err, ErrUnknownCell)
}

func TestDrawOnClassicBoard(t *testing.T) {
	g, rec := newTestGame(t, 7, 6)

	moves := []int{
		5, 3, 2, 3, 1, 5, 3, 1, 0, 1, 4, 1, 2, 5, 0, 5, 6, 6, 2, 0, 6,
		0, 4, 2, 3, 0, 3, 4, 2, 3, 2, 6, 0, 4, 1, 1, 5, 4, 4, 5, 6, 6,
	}
	require.Len(t, moves, 42)

	for i, c := range moves[:41] {
		m, err := g.ColumnSelected(c)
		require.NoError(t, err, "move %d", i)
		require.Equal(t, StatusAwaitingMove, m.Result.Status, "move %d", i)
	}

	m := play(t, g, moves[41])
	assert.Equal(t, StatusDraw, m.Result.Status)
	assert.Nil(t, m.Result.Line)
	assert.Equal(t, StatusDraw, g.Status())
	assert.True(t, g.Board().IsBoardFull())
	assert.Equal(t, "over draw", rec.events[len(rec.events)-1])
}

func TestFullColumnRejected(t *testing.T) {
	g, rec := newTestGame(t, 7, 6)

	play(t, g, 0, 0, 0, 0, 0, 0)
	assert.Equal(t, []string{"placed (0,5) B", "full 0", "next A"}, rec.last(3))

	before := g.Snapshot()
	current := g.Current()

	_, err := g.ColumnSelected(0)
	assert.ErrorIs(t, err, ErrColumnFull)
	assert.Equal(t, "full 0", rec.events[len(rec.events)-1])
	assert.Equal(t, before, g.Snapshot())
	assert.Same(t, current, g.Current())
	assert.Equal(t, StatusAwaitingMove, g.Status())
}

func TestInvalidColumnLeavesStateUnchanged(t *testing.T) {
	g, rec := newTestGame(t, 7, 6)

	for _, c := range []int{-1, 7, 100} {
		_, err := g.ColumnSelected(c)
		assert.ErrorIs(t, err, ErrInvalidColumn)
	}
	assert.Empty(t, rec.events)
	assert.Equal(t, 0, g.Board().MoveCount())
	assert.Equal(t, Token("A"), g.Current().Token)
}

func TestNoMovesAfterWinUntilReset(t *testing.T) {
	g, rec := newTestGame(t, 7, 6)
	play(t, g, 0, 6, 1, 6, 2, 6, 3)

	before := g.Snapshot()
	eventCount := len(rec.events)

	for c := 0; c < 7; c++ {
		_, err := g.ColumnSelected(c)
		require.ErrorIs(t, err, ErrGameAlreadyOver)
	}
	assert.Equal(t, before, g.Snapshot())
	assert.Len(t, rec.events, eventCount)

	g.Reset()
	assert.Equal(t, StatusAwaitingMove, g.Status())
	assert.Equal(t, Token("A"), g.Current().Token)
	assert.False(t, g.Board().IsBoardFull())
	assert.Equal(t, 0, g.Board().MoveCount())
	assert.Equal(t, "next A", rec.events[len(rec.events)-1])

	m := play(t, g, 4)
	assert.Equal(t, Cell{4, 0}, m.Cell)
}

func TestResetAfterBPlayedLastRewindsRotation(t *testing.T) {
	g, _ := newTestGame(t, 7, 6)
	play(t, g, 1)
	require.Equal(t, Token("B"), g.Current().Token)

	g.Reset()
	assert.Equal(t, Token("A"), g.Current().Token)
	for _, p := range g.Players() {
		if p.Token == "A" {
			assert.Equal(t, 1, p.Turns())
		} else {
			assert.Equal(t, 0, p.Turns())
		}
	}
}

func TestSnapshot(t *testing.T) {
	g, _ := newTestGame(t, 4, 4)
	play(t, g, 1, 1, 1, 1)

	s := g.Snapshot()
	assert.Equal(t, 4, s.Columns)
	assert.Equal(t, 4, s.Rows)
	assert.Equal(t, []Token{"A", "B", "A", "B"}, s.Board[1])
	assert.Equal(t, []Token{"A", "B"}, s.Tokens)
	assert.Equal(t, Token("A"), s.CurrentTurn)
	assert.Equal(t, 4, s.MoveCount)
	assert.Equal(t, []int{1}, s.FullColumns)
	assert.Equal(t, []int{0, 2, 3}, s.ValidColumns)
	assert.Equal(t, StatusAwaitingMove, s.Status)

	play(t, g, 0, 2, 0, 2, 0, 2, 0)
	s = g.Snapshot()
	require.Equal(t, StatusWon, s.Status)
	assert.Empty(t, s.ValidColumns)
}

func TestViolationHandling(t *testing.T) {
	g, rec := newTestGame(t, 7, 6)
	boom := errors.Wrap(ErrUnknownCell, "boom")

	g.violation(boom)
	require.Len(t, rec.violations, 1)
	assert.ErrorIs(t, rec.violations[0], ErrUnknownCell)

	g.SetStrict(true)
	assert.Panics(t, func() { g.violation(boom) })
}
