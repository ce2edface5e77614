// Package domain contains the core types of the ranking engine: candidates,
// the pool that owns them, and the verdicts produced by a judge.
// The package has no dependencies on infrastructure and holds no I/O.
package domain

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Candidate is one generated item under ranking.
// Its identity and text are fixed at creation; only the win counter moves,
// and only through Pool.RecordWin.
type Candidate struct {
	// ID uniquely identifies this candidate within a pool.
	ID string `json:"id"`

	// Text is the content being ranked.
	Text string `json:"text"`

	// wins counts the comparison groups this candidate has won.
	// It is atomic so concurrent group evaluations within a round
	// never lose an increment.
	wins atomic.Int64
}

// Wins returns the number of groups this candidate has won so far.
func (c *Candidate) Wins() int { return int(c.wins.Load()) }

// Pool is the append-only collection of candidates for one ranking run.
// Candidates are never removed; the only mutation after Add is the per-
// candidate win counter. All methods are safe for concurrent use.
type Pool struct {
	mu    sync.RWMutex
	order []*Candidate
	byID  map[string]*Candidate
}

// NewPool creates an empty candidate pool.
func NewPool() *Pool {
	return &Pool{byID: make(map[string]*Candidate)}
}

// Add creates a candidate for text with a fresh unique id and zero wins,
// appends it to the pool, and returns it.
func (p *Pool) Add(text string) *Candidate {
	c := &Candidate{ID: uuid.NewString(), Text: text}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.order = append(p.order, c)
	p.byID[c.ID] = c
	return c
}

// All returns the candidates in insertion order.
// The returned slice is a copy; the candidates themselves are shared.
func (p *Pool) All() []*Candidate {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Candidate, len(p.order))
	copy(out, p.order)
	return out
}

// Len returns the number of candidates in the pool.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.order)
}

// RecordWin increments the win counter of the identified candidate by one.
// It returns ErrCandidateNotFound if no candidate has the given id.
func (p *Pool) RecordWin(id string) error {
	p.mu.RLock()
	c, ok := p.byID[id]
	p.mu.RUnlock()
	if !ok {
		return ErrCandidateNotFound
	}
	c.wins.Add(1)
	return nil
}

// Ranked returns all candidates ordered by descending win count.
// The sort is stable, so candidates with equal wins keep insertion order
// and the ranking is deterministic given deterministic win counts.
func (p *Pool) Ranked() []*Candidate {
	ranked := p.All()
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Wins() > ranked[j].Wins()
	})
	return ranked
}
