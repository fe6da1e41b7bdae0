// Package ratelimit keeps the per-source request budgets persisted in the
// configuration record.
package ratelimit

import (
	"time"

	"github.com/genricoloni/visuals/internal/domain"
	"golang.org/x/time/rate"
)

// Window is the persisted counter of one source
type Window struct {
	Used        int       `json:"used"`
	WindowStart time.Time `json:"window_start,omitzero"`
}

// Budget applies a source's limits to its Window
type Budget struct {
	Limit    int
	Capacity int
	Period   time.Duration
}

// BudgetFor returns the budget described by d
func BudgetFor(d domain.SourceDescriptor) Budget {
	return Budget{Limit: d.Limit, Capacity: d.Capacity, Period: d.Window}
}

// Unmetered reports whether the source has no budget at all
func (b Budget) Unmetered() bool {
	return b.Period <= 0 || b.Capacity <= 0
}

// Refresh normalizes a loaded window: out-of-range counters are treated
// as corrupted and reset, elapsed windows start over.
func (b Budget) Refresh(w Window, now time.Time) Window {
	if b.Unmetered() {
		return Window{}
	}
	if w.Used < 0 || w.Used > b.Capacity {
		w.Used = 0
	}
	if w.WindowStart.IsZero() || !now.Before(w.WindowStart.Add(b.Period)) {
		return Window{Used: 0, WindowStart: now}
	}
	return w
}

// Exhausted reports whether no request may be made in the current window
func (b Budget) Exhausted(w Window, now time.Time) bool {
	if b.Unmetered() {
		return false
	}
	w = b.Refresh(w, now)
	return w.Used >= b.Capacity
}

// Remaining returns the number of requests left in the current window
func (b Budget) Remaining(w Window, now time.Time) int {
	if b.Unmetered() {
		return -1
	}
	w = b.Refresh(w, now)
	return b.Capacity - w.Used
}

// ResetIn returns the time until the current window elapses
func (b Budget) ResetIn(w Window, now time.Time) time.Duration {
	if b.Unmetered() || w.WindowStart.IsZero() {
		return 0
	}
	d := w.WindowStart.Add(b.Period).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Consume records n requests, saturating at capacity
func (b Budget) Consume(w Window, n int, now time.Time) Window {
	if b.Unmetered() || n <= 0 {
		return w
	}
	w = b.Refresh(w, now)
	if n > b.Capacity-w.Used {
		w.Used = b.Capacity
		return w
	}
	w.Used += n
	return w
}

// Sync adopts the provider-reported remaining quota
func (b Budget) Sync(w Window, remaining int, now time.Time) Window {
	if b.Unmetered() || remaining < 0 {
		return w
	}
	w = b.Refresh(w, now)
	used := b.Limit - remaining
	switch {
	case used < 0:
		used = 0
	case used > b.Capacity:
		used = b.Capacity
	}
	w.Used = used
	return w
}

// Limiter returns a token bucket refilling at the provider's rate. The
// burst is the whole window capacity, so a fresh process is only ever
// stopped by the persisted budget, never made to wait.
func (b Budget) Limiter() *rate.Limiter {
	if b.Unmetered() || b.Limit <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(b.Period/time.Duration(b.Limit)), max(b.Capacity, 1))
}
