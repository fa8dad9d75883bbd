package domain

// WinningLine returns the first line through cell, in index generation order,
// whose four cells all hold token. Unplayed cells never match.
func WinningLine(board *Board, index *LineIndex, cell Cell, token Token) (*Line, error) {
	candidates, err := index.LinesThrough(cell)
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		if lineHeldBy(board, candidates[i], token) {
			line := candidates[i]
			return &line, nil
		}
	}
	return nil, nil
}

func lineHeldBy(board *Board, line Line, token Token) bool {
	for _, c := range line.Cells {
		t, err := board.TokenAt(c)
		if err != nil || t != token {
			return false
		}
	}
	return true
}
