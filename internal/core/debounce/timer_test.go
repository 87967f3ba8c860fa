package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/shoenig/test"
)

const _quiet = 50 * time.Millisecond

type counter struct {
	n    atomic.Int32
	last atomic.Int64
}

func (c *counter) settle() {
	c.last.Store(time.Now().UnixNano())
	c.n.Add(1)
}

func (c *counter) count() int { return int(c.n.Load()) }

func TestSinglePoke(t *testing.T) {
	t.Parallel()

	var c counter
	timer := New(_quiet, c.settle)
	test.EqOp(t, Idle, timer.State())

	test.True(t, timer.Poke())
	test.EqOp(t, Pending, timer.State())
	test.EqOp(t, 0, c.count())

	time.Sleep(3 * _quiet)
	test.EqOp(t, 1, c.count())
	test.EqOp(t, Idle, timer.State())
}

func TestBurstSettlesOnceAfterLastPoke(t *testing.T) {
	t.Parallel()

	var c counter
	timer := New(_quiet, c.settle)

	for range 5 {
		test.True(t, timer.Poke())
		time.Sleep(_quiet / 5)
	}
	lastPoke := timer.LastPoke()

	time.Sleep(3 * _quiet)
	test.EqOp(t, 1, c.count())
	settledAt := time.Unix(0, c.last.Load())
	test.True(t, settledAt.Sub(lastPoke) >= _quiet, test.Sprintf("settled %v after last poke", settledAt.Sub(lastPoke)))
}

func TestSeparatedPokesSettleTwice(t *testing.T) {
	t.Parallel()

	var c counter
	timer := New(_quiet, c.settle)

	timer.Poke()
	time.Sleep(3 * _quiet)
	timer.Poke()
	time.Sleep(3 * _quiet)

	test.EqOp(t, 2, c.count())
}

func TestCancel(t *testing.T) {
	t.Parallel()

	var c counter
	timer := New(_quiet, c.settle)

	timer.Poke()
	timer.Cancel()
	test.EqOp(t, Disposed, timer.State())

	test.False(t, timer.Poke())
	test.EqOp(t, Disposed, timer.State())

	time.Sleep(3 * _quiet)
	test.EqOp(t, 0, c.count())

	// second cancel is no-op
	timer.Cancel()
	test.EqOp(t, Disposed, timer.State())
}

func TestCancelWaitsForInflightSettle(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	timer := New(time.Millisecond, func() {
		close(entered)
		<-release
	})

	timer.Poke()
	<-entered

	cancelled := make(chan struct{})
	go func() {
		timer.Cancel()
		close(cancelled)
	}()

	select {
	case <-cancelled:
		t.Fatal("cancel returned while settle callback was running")
	case <-time.After(3 * _quiet):
	}

	close(release)
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("cancel did not return after settle callback finished")
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	test.EqOp(t, "idle", Idle.String())
	test.EqOp(t, "pending", Pending.String())
	test.EqOp(t, "disposed", Disposed.String())
	test.EqOp(t, "UNKNOWN(7)", State(7).String())
}
