package browser

import (
	"context"
	"sync"
	"time"
)

// networkQuietWindow is how long no request may be in flight before the
// network counts as idle. Matches playwright's networkidle definition.
const networkQuietWindow = 500 * time.Millisecond

// networkTracker counts in-flight requests from CDP network events.
type networkTracker struct {
	mu       sync.Mutex
	inflight map[string]struct{}
	lastBusy time.Time
	now      func() time.Time
}

func newNetworkTracker(now func() time.Time) *networkTracker {
	return &networkTracker{
		inflight: make(map[string]struct{}),
		lastBusy: now(),
		now:      now,
	}
}

func (t *networkTracker) started(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight[id] = struct{}{}
	t.lastBusy = t.now()
}

func (t *networkTracker) finished(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.inflight[id]; !ok {
		return
	}
	delete(t.inflight, id)
	t.lastBusy = t.now()
}

// idle reports whether nothing is in flight and nothing has changed for the
// quiet window.
func (t *networkTracker) idle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight) == 0 && t.now().Sub(t.lastBusy) >= networkQuietWindow
}

func (t *networkTracker) waitIdle(ctx context.Context, poll time.Duration) error {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		if t.idle() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
