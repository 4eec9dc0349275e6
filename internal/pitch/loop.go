package pitch

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type FrameID uint64

// FrameScheduler requests a single callback on the next frame, the way a
// browser's requestAnimationFrame does. Cancelled frames never fire.
type FrameScheduler interface {
	RequestFrame(cb func(now time.Time)) FrameID
	CancelFrame(id FrameID)
}

// Loop drives a Simulator with a self-rescheduling frame callback. Every
// mutation of the simulator happens under mu.
type Loop struct {
	mu      sync.Mutex
	sim     *Simulator
	sched   FrameScheduler
	frame   FrameID
	running bool
	gen     uint64
	onFrame func(Snapshot)
}

// NewLoop wires sim to sched. onFrame, when set, receives a snapshot after
// every tick outside the loop lock.
func NewLoop(sim *Simulator, sched FrameScheduler, onFrame func(Snapshot)) *Loop {
	return &Loop{sim: sim, sched: sched, onFrame: onFrame}
}

func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.startLocked()
}

// Stop cancels the outstanding frame. A callback the runtime already
// dequeued sees a stale generation and returns without touching state.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

// Reset re-initializes the simulation for new team sizes and restarts it if
// it was running.
func (l *Loop) Reset(teamA, teamB, maxPlayers int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	wasRunning := l.running
	l.stopLocked()
	l.sim.Init(teamA, teamB, maxPlayers)
	log.Debug().
		Str("component", "pitch_loop").
		Int("team_a", teamA).
		Int("team_b", teamB).
		Int("max_players", maxPlayers).
		Msg("Pitch simulation reset")
	if wasRunning {
		l.startLocked()
	}
}

func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sim.Snapshot()
}

func (l *Loop) Explain() Explanation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sim.Explain()
}

func (l *Loop) startLocked() {
	if l.running {
		return
	}
	l.running = true
	l.gen++
	l.frame = l.sched.RequestFrame(l.callback(l.gen))
}

func (l *Loop) stopLocked() {
	if !l.running {
		return
	}
	l.running = false
	l.gen++
	l.sched.CancelFrame(l.frame)
	l.frame = 0
}

func (l *Loop) callback(gen uint64) func(time.Time) {
	return func(now time.Time) {
		l.mu.Lock()
		if !l.running || gen != l.gen {
			l.mu.Unlock()
			return
		}
		l.sim.Tick(now)
		var snap Snapshot
		if l.onFrame != nil {
			snap = l.sim.Snapshot()
		}
		l.frame = l.sched.RequestFrame(l.callback(gen))
		l.mu.Unlock()

		if l.onFrame != nil {
			l.onFrame(snap)
		}
	}
}

// TimerScheduler fires frames from time.AfterFunc at a fixed interval.
type TimerScheduler struct {
	interval time.Duration
	clock    Clock
	mu       sync.Mutex
	next     FrameID
	timers   map[FrameID]*time.Timer
}

func NewTimerScheduler(interval time.Duration, clock Clock) *TimerScheduler {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	if clock == nil {
		clock = realClock{}
	}
	return &TimerScheduler{
		interval: interval,
		clock:    clock,
		timers:   make(map[FrameID]*time.Timer),
	}
}

func (s *TimerScheduler) RequestFrame(cb func(now time.Time)) FrameID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	id := s.next
	s.timers[id] = time.AfterFunc(s.interval, func() {
		s.mu.Lock()
		_, pending := s.timers[id]
		delete(s.timers, id)
		s.mu.Unlock()
		if !pending {
			return
		}
		cb(s.clock.Now())
	})
	return id
}

func (s *TimerScheduler) CancelFrame(id FrameID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// Pending reports how many frames are scheduled and not yet fired.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
