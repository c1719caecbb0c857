package clock

import (
	"sync"
	"time"
)

// Clock is the time source used by the floor scheduler and vote ledger
type Clock interface {
	Now() time.Time
}

// System returns wall-clock time in UTC
type System struct{}

// Now returns the current UTC time
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fake is a manually advanced clock for tests and simulations
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake creates a fake clock frozen at start
func NewFake(start time.Time) *Fake {
	return &Fake{now: start.UTC()}
}

// Now returns the frozen time
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set moves the clock to t
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t.UTC()
}
