package domain

import "github.com/pkg/errors"

// Column is a bounded stack of tokens filled from row 0 upward.
// Tokens are only ever appended.
type Column struct {
	capacity int
	tokens   []Token
}

func NewColumn(capacity int) *Column {
	return &Column{
		capacity: capacity,
		tokens:   make([]Token, 0, capacity),
	}
}

func (c *Column) Len() int { return len(c.tokens) }

// Next is the row the next token will land in.
func (c *Column) Next() int { return len(c.tokens) }

func (c *Column) IsFull() bool { return len(c.tokens) == c.capacity }

// At returns the token at row, or NoToken when nothing has landed there yet.
func (c *Column) At(row int) Token {
	if row < 0 || row >= len(c.tokens) {
		return NoToken
	}
	return c.tokens[row]
}

// Place appends token and returns the row it landed in.
func (c *Column) Place(token Token) (int, error) {
	if c.IsFull() {
		return -1, ErrColumnFull
	}
	row := len(c.tokens)
	c.tokens = append(c.tokens, token)
	return row, nil
}

func (c *Column) reset() {
	c.tokens = c.tokens[:0]
}

// Board is W columns of H rows. It only holds state: win detection lives in Game.
type Board struct {
	rows    int
	columns []*Column
}

func NewBoard(columns, rows int) (*Board, error) {
	if err := ValidateGeometry(columns, rows); err != nil {
		return nil, err
	}

	b := &Board{
		rows:    rows,
		columns: make([]*Column, columns),
	}
	for i := range b.columns {
		b.columns[i] = NewColumn(rows)
	}
	return b, nil
}

func (b *Board) Columns() int { return len(b.columns) }
func (b *Board) Rows() int { return b.rows }

func (b *Board) validColumn(column int) bool {
	return column >= 0 && column < len(b.columns)
}

// Place drops token into column and returns the cell where it landed.
// On error the board is unchanged.
func (b *Board) Place(column int, token Token) (Cell, error) {
	if !b.validColumn(column) {
		return Cell{}, errors.Wrapf(ErrInvalidColumn, "column %d of %d", column, len(b.columns))
	}

	row, err := b.columns[column].Place(token)
	if err != nil {
		return Cell{}, errors.Wrapf(err, "column %d", column)
	}
	return Cell{Column: column, Row: row}, nil
}

// TokenAt returns NoToken for cells above the column's fill level.
func (b *Board) TokenAt(cell Cell) (Token, error) {
	if !b.validColumn(cell.Column) || cell.Row < 0 || cell.Row >= b.rows {
		return NoToken, errors.Wrapf(ErrUnknownCell, "cell %s", cell)
	}
	return b.columns[cell.Column].At(cell.Row), nil
}

// IsColumnFull reports false for columns outside the board.
func (b *Board) IsColumnFull(column int) bool {
	if !b.validColumn(column) {
		return false
	}
	return b.columns[column].IsFull()
}

func (b *Board) IsBoardFull() bool {
	for _, c := range b.columns {
		if !c.IsFull() {
			return false
		}
	}
	return true
}

// MoveCount is the number of tokens on the board.
func (b *Board) MoveCount() int {
	n := 0
	for _, c := range b.columns {
		n += c.Len()
	}
	return n
}

// ValidColumns returns the columns that can still take a token.
func (b *Board) ValidColumns() []int {
	valid := []int{}
	for i, c := range b.columns {
		if !c.IsFull() {
			valid = append(valid, i)
		}
	}
	return valid
}

func (b *Board) Reset() {
	for _, c := range b.columns {
		c.reset()
	}
}

// Snapshot returns a column-major copy of the board, each column listed from
// the bottom row up and padded with NoToken to the full height.
func (b *Board) Snapshot() [][]Token {
	out := make([][]Token, len(b.columns))
	for i, c := range b.columns {
		out[i] = make([]Token, b.rows)
		copy(out[i], c.tokens)
	}
	return out
}
