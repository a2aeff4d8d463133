// Package progress carries percentage updates from long-running sync
// operations to whoever is watching them.
package progress

import (
	"sync"
)

// Func receives a percentage in 0..100 and a short message.
type Func func(percent int, message string)

// Nop discards updates.
func Nop(int, string) {}

// Tracker forwards updates to a Func, clamping them to 0..100 and never
// letting the reported percentage go down within one run.
type Tracker struct {
	mu   sync.Mutex
	fn   Func
	last int
}

func NewTracker(fn Func) *Tracker {
	if fn == nil {
		fn = Nop
	}
	return &Tracker{fn: fn}
}

func (t *Tracker) Report(percent int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent < t.last {
		percent = t.last
	}
	t.last = percent
	t.fn(percent, message)
}

// Step reports item i (0-based) of n as a position between from and to.
func (t *Tracker) Step(from, to, i, n int, message string) {
	if n <= 0 {
		t.Report(to, message)
		return
	}
	t.Report(from+(to-from)*i/n, message)
}

func (t *Tracker) Last() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Event is one recorded update.
type Event struct {
	Percent int
	Message string
}

// Recorder keeps every update it receives.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Func() Func {
	return func(p int, m string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, Event{Percent: p, Message: m})
	}
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Monotonic reports whether recorded percentages never decrease.
func (r *Recorder) Monotonic() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 1; i < len(r.events); i++ {
		if r.events[i].Percent < r.events[i-1].Percent {
			return false
		}
	}
	return true
}

// Scale maps 0..100 reported to the returned Func onto from..to of fn.
func Scale(fn Func, from, to int) Func {
	if fn == nil {
		fn = Nop
	}
	return func(percent int, message string) {
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		fn(from+(to-from)*percent/100, message)
	}
}
