package domain

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// ScoreTicksPerSecond converts elapsed turn time into score ticks.
const ScoreTicksPerSecond = 250

// Player is a token plus the turn statistics used for scoring. The statistics
// never affect whether a move is legal.
type Player struct {
	Token Token

	turns        int
	elapsedTicks int64
	turnStart    time.Time
	now          func() time.Time
}

func NewPlayer(token Token) *Player {
	return &Player{Token: token, now: time.Now}
}

// WithClock replaces the wall clock, mainly for tests.
func (p *Player) WithClock(now func() time.Time) *Player {
	p.now = now
	return p
}

func (p *Player) clock() time.Time {
	if p.now == nil {
		return time.Now()
	}
	return p.now()
}

func (p *Player) StartTurn() {
	p.turns++
	p.turnStart = p.clock()
}

// EndTurn is a no-op when no turn was started.
func (p *Player) EndTurn() {
	if p.turnStart.IsZero() {
		return
	}
	elapsed := p.clock().Sub(p.turnStart)
	p.elapsedTicks += int64(math.Round(elapsed.Seconds() * ScoreTicksPerSecond))
	p.turnStart = time.Time{}
}

func (p *Player) Turns() int { return p.turns }
func (p *Player) ElapsedTicks() int64 { return p.elapsedTicks }

// Score multiplies turns by elapsed ticks, both counted from one, so a
// player who never moved still scores 1. Lower is better.
func (p *Player) Score() int64 {
	return int64(p.turns+1) * (p.elapsedTicks + 1)
}

func (p *Player) ResetStats() {
	p.turns = 0
	p.elapsedTicks = 0
	p.turnStart = time.Time{}
}

// PlayerRotation cycles through a fixed list of players.
type PlayerRotation struct {
	players []*Player
	current int
}

func NewPlayerRotation(players ...*Player) (*PlayerRotation, error) {
	if len(players) == 0 {
		return nil, errors.Wrap(ErrInvalidPlayerList, "no players")
	}

	seen := make(map[Token]bool, len(players))
	for i, p := range players {
		if p == nil || p.Token == NoToken {
			return nil, errors.Wrapf(ErrInvalidPlayerList, "player %d has no token", i)
		}
		if seen[p.Token] {
			return nil, errors.Wrapf(ErrInvalidPlayerList, "duplicate token %q", p.Token)
		}
		seen[p.Token] = true
	}

	list := make([]*Player, len(players))
	copy(list, players)
	return &PlayerRotation{players: list}, nil
}

func (r *PlayerRotation) Current() *Player { return r.players[r.current] }

// Advance moves to the next player, wrapping to the first after the last.
func (r *PlayerRotation) Advance() *Player {
	r.current = (r.current + 1) % len(r.players)
	return r.players[r.current]
}

func (r *PlayerRotation) Reset() { r.current = 0 }

func (r *PlayerRotation) Index() int { return r.current }
func (r *PlayerRotation) Len() int { return len(r.players) }

func (r *PlayerRotation) Players() []*Player {
	out := make([]*Player, len(r.players))
	copy(out, r.players)
	return out
}
