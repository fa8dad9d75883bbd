package domain

import "github.com/pkg/errors"

func ValidateGeometry(columns, rows int) error {
	if columns < MinColumns || rows < MinRows {
		return errors.Wrapf(ErrInvalidGeometry, "%dx%d board, need at least %dx%d", columns, rows, MinColumns, MinRows)
	}
	return nil
}

// ExpectedLineCount is the number of four-in-a-row lines on a columns x rows board.
func ExpectedLineCount(columns, rows int) int {
	c, r := columns-(LineLength-1), rows-(LineLength-1)
	return c*rows + columns*r + 2*c*r
}

// LineIndex maps every cell of a board to the lines passing through it.
// It is built once per geometry and never mutated, so one index can be shared
// by any number of games and goroutines.
type LineIndex struct {
	columns int
	rows    int
	lines   []Line
	// byCell[column*rows+row] holds offsets into lines, in generation order.
	byCell [][]int
}

func NewLineIndex(columns, rows int) (*LineIndex, error) {
	if err := ValidateGeometry(columns, rows); err != nil {
		return nil, err
	}

	idx := &LineIndex{
		columns: columns,
		rows:    rows,
		lines:   make([]Line, 0, ExpectedLineCount(columns, rows)),
	}
	idx.addHorizontals()
	idx.addVerticals()
	idx.addDiagonals()
	idx.mapCells()

	return idx, nil
}

func (idx *LineIndex) addHorizontals() {
	for row := 0; row < idx.rows; row++ {
		for col := 0; col <= idx.columns-LineLength; col++ {
			var l Line
			l.Direction = Horizontal
			for i := 0; i < LineLength; i++ {
				l.Cells[i] = Cell{Column: col + i, Row: row}
			}
			idx.lines = append(idx.lines, l)
		}
	}
}

func (idx *LineIndex) addVerticals() {
	for col := 0; col < idx.columns; col++ {
		for row := 0; row <= idx.rows-LineLength; row++ {
			var l Line
			l.Direction = Vertical
			for i := 0; i < LineLength; i++ {
				l.Cells[i] = Cell{Column: col, Row: row + i}
			}
			idx.lines = append(idx.lines, l)
		}
	}
}

// addDiagonals emits the ascending diagonal starting at (col, row) followed by
// its mirror image, which descends from the right edge.
func (idx *LineIndex) addDiagonals() {
	for col := 0; col <= idx.columns-LineLength; col++ {
		for row := 0; row <= idx.rows-LineLength; row++ {
			asc := Line{Direction: AscendingDiagonal}
			desc := Line{Direction: DescendingDiagonal}
			for i := 0; i < LineLength; i++ {
				asc.Cells[i] = Cell{Column: col + i, Row: row + i}
				desc.Cells[i] = Cell{Column: idx.columns - 1 - col - i, Row: row + i}
			}
			idx.lines = append(idx.lines, asc, desc)
		}
	}
}

func (idx *LineIndex) mapCells() {
	idx.byCell = make([][]int, idx.columns*idx.rows)
	for offset, l := range idx.lines {
		for _, c := range l.Cells {
			k := idx.key(c)
			idx.byCell[k] = append(idx.byCell[k], offset)
		}
	}
}

func (idx *LineIndex) key(c Cell) int {
	return c.Column*idx.rows + c.Row
}

func (idx *LineIndex) Contains(c Cell) bool {
	return c.Column >= 0 && c.Column < idx.columns && c.Row >= 0 && c.Row < idx.rows
}

// LinesThrough returns the candidate lines for a cell in generation order.
// The returned slice is a copy and may be modified by the caller.
func (idx *LineIndex) LinesThrough(c Cell) ([]Line, error) {
	if !idx.Contains(c) {
		return nil, errors.Wrapf(ErrUnknownCell, "cell %s on a %dx%d board", c, idx.columns, idx.rows)
	}

	offsets := idx.byCell[idx.key(c)]
	out := make([]Line, len(offsets))
	for i, off := range offsets {
		out[i] = idx.lines[off]
	}
	return out, nil
}

func (idx *LineIndex) Len() int { return len(idx.lines) }
func (idx *LineIndex) Columns() int { return idx.columns }
func (idx *LineIndex) Rows() int { return idx.rows }
