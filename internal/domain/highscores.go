package domain

import "sync"

const DefaultHighScoreCapacity = 10

type HighScore struct {
	Score    int64  `json:"score"`
	Initials string `json:"initials"`
}

// HighScores keeps the best scores in ascending order: a lower score is a
// better one. It lives in memory only.
type HighScores struct {
	mu       sync.RWMutex
	capacity int
	entries  []HighScore
}

func NewHighScores(capacity int) *HighScores {
	if capacity <= 0 {
		capacity = DefaultHighScoreCapacity
	}
	return &HighScores{capacity: capacity}
}

// IsHighScore reports whether score would make it onto the table.
func (h *HighScores) IsHighScore(score int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.entries) < h.capacity {
		return true
	}
	return score <= h.entries[len(h.entries)-1].Score
}

// Add inserts score ahead of any existing equal scores and drops entries past
// capacity. It returns the zero-based position, or -1 if the score fell off.
func (h *HighScores) Add(score int64, initials string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	pos := 0
	for pos < len(h.entries) && h.entries[pos].Score < score {
		pos++
	}
	if pos >= h.capacity {
		return -1
	}

	h.entries = append(h.entries, HighScore{})
	copy(h.entries[pos+1:], h.entries[pos:])
	h.entries[pos] = HighScore{Score: score, Initials: initials}

	if len(h.entries) > h.capacity {
		h.entries = h.entries[:h.capacity]
	}
	return pos
}

func (h *HighScores) Entries() []HighScore {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]HighScore, len(h.entries))
	copy(out, h.entries)
	return out
}
