package giveaway

import (
	"sync"
	"time"
)

// Timers maps giveaway id to its single scheduled wake-up. Scheduling the
// same id again supersedes the previous timer. The wake-up is only a
// trigger; End checks the persisted status before acting.
type Timers struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewTimers() *Timers {
	return &Timers{timers: make(map[string]*time.Timer)}
}

func (t *Timers) Schedule(id string, endAt time.Time, fire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.timers[id]; ok {
		old.Stop()
	}
	delay := time.Until(endAt)
	if delay < 0 {
		delay = 0
	}
	t.timers[id] = time.AfterFunc(delay, func() {
		t.Cancel(id)
		fire()
	})
}

func (t *Timers) Cancel(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.timers[id]; ok {
		old.Stop()
		delete(t.timers, id)
	}
}

func (t *Timers) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}
