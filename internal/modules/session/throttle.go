package session

import (
	"sync"
	"time"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Throttle remembers when each subject was last validated so expensive
// checks run at most once per interval. Owned by its caller; there is no
// package-level state.
type Throttle struct {
	clock    Clock
	interval time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

func NewThrottle(clock Clock, interval time.Duration) *Throttle {
	if clock == nil {
		clock = systemClock{}
	}
	return &Throttle{clock: clock, interval: interval, last: map[string]time.Time{}}
}

// Due reports whether subject needs a fresh validation.
func (t *Throttle) Due(subject string) bool {
	if t.interval <= 0 {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.last[subject]
	return !ok || t.clock.Now().Sub(last) >= t.interval
}

// Mark records a successful validation of subject.
func (t *Throttle) Mark(subject string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[subject] = t.clock.Now()
}

// Forget drops subject so the next request validates again.
func (t *Throttle) Forget(subject string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.last, subject)
}

// ExpiringSoon reports whether exp falls within skew of now.
func ExpiringSoon(clock Clock, exp time.Time, skew time.Duration) bool {
	if clock == nil {
		clock = systemClock{}
	}
	return !clock.Now().Add(skew).Before(exp)
}
