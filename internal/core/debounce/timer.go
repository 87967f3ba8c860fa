// Package debounce provides per-path stability timer: settle fires once
// no poke happened for the whole quiet period.
package debounce

import (
	"fmt"
	"sync"
	"time"
)

type State int

const (
	// Idle - no countdown running
	Idle State = iota
	// Pending - countdown running, restarted by every poke
	Pending
	// Disposed - terminal, pokes are ignored
	Disposed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Disposed:
		return "disposed"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

type Timer struct {
	quiet    time.Duration
	onSettle func()

	mu       sync.Mutex
	state    State
	timer    *time.Timer
	lastPoke time.Time
	// gen is bumped on every poke and cancel, so countdown
	// started before can recognize it is stale
	gen uint64

	// fire serializes settles and lets Cancel wait for in-flight one
	fire sync.Mutex
}

func New(quiet time.Duration, onSettle func()) *Timer {
	return &Timer{
		quiet:    quiet,
		onSettle: onSettle,
		state:    Idle,
	}
}

// Poke (re)starts the countdown. Returns false if timer is disposed.
func (t *Timer) Poke() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == Disposed {
		return false
	}

	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.state = Pending
	t.lastPoke = time.Now()
	t.timer = time.AfterFunc(t.quiet, func() { t.settle(gen) })
	return true
}

func (t *Timer) settle(gen uint64) {
	t.fire.Lock()
	defer t.fire.Unlock()

	t.mu.Lock()
	if t.state != Pending || t.gen != gen {
		t.mu.Unlock()
		return
	}
	t.state = Idle
	t.timer = nil
	t.mu.Unlock()

	t.onSettle()
}

// Cancel stops running countdown without firing and disposes timer.
// It waits for settle callback running at the moment, so it must not be
// called from inside onSettle.
func (t *Timer) Cancel() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
	t.state = Disposed
	t.mu.Unlock()

	t.fire.Lock()
	t.fire.Unlock() //nolint:staticcheck // waiting for in-flight settle
}

func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// LastPoke returns time of the latest poke, zero if never poked.
func (t *Timer) LastPoke() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastPoke
}
