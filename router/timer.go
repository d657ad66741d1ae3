package router

import (
	"sync"
	"time"

	"github.com/abhishen/click/element"
)

// TimerWheel is a single-threaded, time.Timer-backed implementation of
// the timer collaborator run_timer hooks are bound to. It is not a real
// wheel (no bucketing) — just enough to let an element schedule a
// RunTimer callback after a delay, which is all the processing model
// needs from it.
type TimerWheel struct {
	mu      sync.Mutex
	timers  map[*element.Element]*time.Timer
}

// NewTimerWheel creates an empty wheel.
func NewTimerWheel() *TimerWheel {
	return &TimerWheel{timers: make(map[*element.Element]*time.Timer)}
}

// ScheduleAfter arranges for e.Hooks.RunTimer to be called once, after d.
// A second call for the same element replaces any timer still pending.
func (w *TimerWheel) ScheduleAfter(e *element.Element, d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if existing, ok := w.timers[e]; ok {
		existing.Stop()
	}
	w.timers[e] = time.AfterFunc(d, func() {
		e.Hooks.RunTimer()
	})
}

// Unschedule cancels any pending timer for e.
func (w *TimerWheel) Unschedule(e *element.Element) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if existing, ok := w.timers[e]; ok {
		existing.Stop()
		delete(w.timers, e)
	}
}

// Close cancels every pending timer.
func (w *TimerWheel) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for e, timer := range w.timers {
		timer.Stop()
		delete(w.timers, e)
	}
}
