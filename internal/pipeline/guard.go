package pipeline

import "sync"

// Guard prevents concurrent runs for the same prompt. Webhooks and the cron
// scheduler can both fire for one prompt at the same moment; only the first
// caller gets to run it.
type Guard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewGuard creates an empty Guard.
func NewGuard() *Guard {
	return &Guard{inflight: make(map[string]struct{})}
}

// TryAcquire marks promptID as in flight. Returns false when a run for the
// prompt is already active.
func (g *Guard) TryAcquire(promptID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.inflight[promptID]; ok {
		return false
	}
	g.inflight[promptID] = struct{}{}
	return true
}

// Release clears the in-flight mark for promptID.
func (g *Guard) Release(promptID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, promptID)
}

// InFlight reports how many prompts are currently running.
func (g *Guard) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inflight)
}
