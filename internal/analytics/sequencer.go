package analytics

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type seqKey struct {
	user uuid.UUID
	view string
}

// Sequencer orders concurrent requests for the same user and view. Each
// request gets a generation; starting a newer one cancels the older request's
// context, and results from a generation that is no longer current must be
// discarded.
type Sequencer struct {
	mu      sync.Mutex
	counter uint64
	current map[seqKey]*Generation
}

// Generation is one request's claim on a (user, view) slot.
type Generation struct {
	seq    *Sequencer
	key    seqKey
	n      uint64
	cancel context.CancelFunc
}

func NewSequencer() *Sequencer {
	return &Sequencer{current: make(map[seqKey]*Generation)}
}

// Begin starts a new generation and cancels the one it supersedes. The
// returned context is cancelled when a newer generation begins or Done is
// called.
func (s *Sequencer) Begin(ctx context.Context, userID uuid.UUID, view string) (context.Context, *Generation) {
	ctx, cancel := context.WithCancel(ctx)
	key := seqKey{user: userID, view: view}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	g := &Generation{seq: s, key: key, n: s.counter, cancel: cancel}
	if prev, ok := s.current[key]; ok {
		prev.cancel()
	}
	s.current[key] = g
	return ctx, g
}

// Current reports whether no newer generation has begun.
func (g *Generation) Current() bool {
	g.seq.mu.Lock()
	defer g.seq.mu.Unlock()
	cur, ok := g.seq.current[g.key]
	return ok && cur == g
}

// Number is the generation's sequence number. Numbers increase across all
// slots.
func (g *Generation) Number() uint64 {
	return g.n
}

// Done releases the generation and its context.
func (g *Generation) Done() {
	g.cancel()
	g.seq.mu.Lock()
	defer g.seq.mu.Unlock()
	if cur, ok := g.seq.current[g.key]; ok && cur == g {
		delete(g.seq.current, g.key)
	}
}
