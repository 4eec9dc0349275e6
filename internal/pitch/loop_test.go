package pitch

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// manualScheduler queues frames until the test fires them.
type manualScheduler struct {
	mu        sync.Mutex
	next      FrameID
	pending   map[FrameID]func(time.Time)
	cancelled int
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{pending: make(map[FrameID]func(time.Time))}
}

func (s *manualScheduler) RequestFrame(cb func(now time.Time)) FrameID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.pending[s.next] = cb
	return s.next
}

func (s *manualScheduler) CancelFrame(id FrameID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[id]; ok {
		delete(s.pending, id)
		s.cancelled++
	}
}

// Fire runs every queued frame once.
func (s *manualScheduler) Fire(now time.Time) int {
	s.mu.Lock()
	frames := make([]func(time.Time), 0, len(s.pending))
	for id, cb := range s.pending {
		frames = append(frames, cb)
		delete(s.pending, id)
	}
	s.mu.Unlock()

	for _, cb := range frames {
		cb(now)
	}
	return len(frames)
}

func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func TestLoopReschedulesItself(t *testing.T) {
	clock := newMockClock()
	sched := newManualScheduler()
	sim := New(DefaultConfig(), WithClock(clock), WithRand(fixedRand{value: 0.5}))
	sim.Init(5, 5, 10)

	var frames int32
	loop := NewLoop(sim, sched, func(Snapshot) { atomic.AddInt32(&frames, 1) })
	loop.Start()
	loop.Start() // second Start is a no-op

	if sched.Pending() != 1 {
		t.Fatalf("pending frames = %d, want 1", sched.Pending())
	}
	for i := 0; i < 5; i++ {
		if n := sched.Fire(clock.Advance(16 * time.Millisecond)); n != 1 {
			t.Fatalf("frame %d: fired %d callbacks", i, n)
		}
	}

	if got := loop.Snapshot().Tick; got != 5 {
		t.Fatalf("ticks = %d, want 5", got)
	}
	if atomic.LoadInt32(&frames) != 5 {
		t.Fatalf("observer saw %d frames", frames)
	}
}

func TestLoopStopCancelsOutstandingFrame(t *testing.T) {
	clock := newMockClock()
	sched := newManualScheduler()
	sim := New(DefaultConfig(), WithClock(clock), WithRand(fixedRand{value: 0.5}))
	sim.Init(3, 3, 10)

	loop := NewLoop(sim, sched, nil)
	loop.Start()
	sched.Fire(clock.Advance(16 * time.Millisecond))
	loop.Stop()

	if sched.Pending() != 0 {
		t.Fatalf("pending frames after stop = %d", sched.Pending())
	}
	if sched.cancelled != 1 {
		t.Fatalf("cancelled = %d, want 1", sched.cancelled)
	}
	if loop.Running() {
		t.Fatal("loop should report stopped")
	}

	before := loop.Snapshot().Tick
	sched.Fire(clock.Advance(16 * time.Millisecond))
	if loop.Snapshot().Tick != before {
		t.Fatal("stopped loop kept ticking")
	}
}

func TestLoopIgnoresStaleCallback(t *testing.T) {
	clock := newMockClock()
	sched := newManualScheduler()
	sim := New(DefaultConfig(), WithClock(clock), WithRand(fixedRand{value: 0.5}))
	sim.Init(3, 3, 10)

	loop := NewLoop(sim, sched, nil)
	loop.Start()

	// Grab the queued callback as if the runtime had already dequeued it.
	sched.mu.Lock()
	var stale func(time.Time)
	for _, cb := range sched.pending {
		stale = cb
	}
	sched.mu.Unlock()

	loop.Stop()
	stale(clock.Advance(16 * time.Millisecond))

	if got := loop.Snapshot().Tick; got != 0 {
		t.Fatalf("stale callback ticked the simulation %d times", got)
	}
	if sched.Pending() != 0 {
		t.Fatal("stale callback rescheduled itself")
	}
}

func TestLoopResetReinitializesAndRestarts(t *testing.T) {
	clock := newMockClock()
	sched := newManualScheduler()
	sim := New(DefaultConfig(), WithClock(clock), WithRand(fixedRand{value: 0.5}))
	sim.Init(5, 5, 10)

	loop := NewLoop(sim, sched, nil)
	loop.Start()
	sched.Fire(clock.Advance(16 * time.Millisecond))

	loop.Reset(2, 4, 10)

	snap := loop.Snapshot()
	if snap.TeamA != 2 || snap.TeamB != 4 || snap.Tick != 0 {
		t.Fatalf("after reset: %+v", snap)
	}
	if !loop.Running() || sched.Pending() != 1 {
		t.Fatalf("reset should restart the loop (running=%v pending=%d)", loop.Running(), sched.Pending())
	}
	if countHolders(snap.Players) != 1 {
		t.Fatalf("holders after reset = %d", countHolders(snap.Players))
	}
}

func TestLoopResetWhileStoppedStaysStopped(t *testing.T) {
	sched := newManualScheduler()
	sim := New(DefaultConfig(), WithRand(fixedRand{}))
	loop := NewLoop(sim, sched, nil)

	loop.Reset(3, 3, 10)
	if loop.Running() || sched.Pending() != 0 {
		t.Fatal("reset must not start a stopped loop")
	}
}

func TestTimerSchedulerStopLeavesNoTimers(t *testing.T) {
	sched := NewTimerScheduler(time.Millisecond, nil)
	sim := New(DefaultConfig())
	sim.Init(5, 5, 10)

	loop := NewLoop(sim, sched, nil)
	loop.Start()

	deadline := time.Now().Add(2 * time.Second)
	for loop.Snapshot().Tick < 3 {
		if time.Now().After(deadline) {
			t.Fatal("timer scheduler never fired")
		}
		time.Sleep(2 * time.Millisecond)
	}

	loop.Stop()
	if sched.Pending() != 0 {
		t.Fatalf("pending timers after stop = %d", sched.Pending())
	}

	ticks := loop.Snapshot().Tick
	time.Sleep(20 * time.Millisecond)
	if got := loop.Snapshot().Tick; got != ticks {
		t.Fatalf("loop ticked after stop: %d -> %d", ticks, got)
	}
}
