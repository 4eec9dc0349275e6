package room

import (
	"sync"
	"time"

	"github.com/codr1/PitchMatch/internal/pitch"
)

// Room is one event's live pitch: a running simulation loop plus the
// viewers receiving its frames.
type Room struct {
	EventID string

	loop           *pitch.Loop
	clock          pitch.Clock
	broadcastEvery int

	// resizeMu orders resizes so the loop ends up with the counts stored last.
	resizeMu sync.Mutex

	mu         sync.Mutex
	subs       map[chan pitch.Snapshot]struct{}
	frames     int
	teamA      int
	teamB      int
	maxPlayers int
	idleSince  time.Time
	closed     bool
}

func newRoom(eventID string, cfg Config, rng pitch.Rand, teamA, teamB, maxPlayers int) *Room {
	r := &Room{
		EventID:        eventID,
		clock:          cfg.Clock,
		broadcastEvery: cfg.BroadcastEvery,
		subs:           make(map[chan pitch.Snapshot]struct{}),
		teamA:          teamA,
		teamB:          teamB,
		maxPlayers:     maxPlayers,
		idleSince:      cfg.Clock.Now(),
	}
	if r.broadcastEvery <= 0 {
		r.broadcastEvery = 1
	}

	sim := pitch.New(pitch.Config{GameSpeed: cfg.GameSpeed}, pitch.WithClock(cfg.Clock), pitch.WithRand(rng))
	sim.Init(teamA, teamB, maxPlayers)
	r.loop = pitch.NewLoop(sim, cfg.NewScheduler(), r.publish)
	return r
}

func (r *Room) start() {
	r.loop.Start()
}

// Snapshot returns the latest simulation state.
func (r *Room) Snapshot() pitch.Snapshot {
	return r.loop.Snapshot()
}

// Explain returns the simulation's current pass decision.
func (r *Room) Explain() pitch.Explanation {
	return r.loop.Explain()
}

// Subscribe registers a viewer. Frames are dropped for viewers that fall
// behind; the returned cancel func is safe to call more than once.
func (r *Room) Subscribe() (<-chan pitch.Snapshot, func()) {
	ch := make(chan pitch.Snapshot, 8)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	r.subs[ch] = struct{}{}
	r.idleSince = time.Time{}
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { r.unsubscribe(ch) })
	}
}

func (r *Room) unsubscribe(ch chan pitch.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[ch]; !ok {
		return
	}
	delete(r.subs, ch)
	close(ch)
	if len(r.subs) == 0 {
		r.idleSince = r.clock.Now()
	}
}

func (r *Room) Viewers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// resize re-initializes the simulation when the team counts changed and
// reports whether it did.
func (r *Room) resize(teamA, teamB int) bool {
	r.resizeMu.Lock()
	defer r.resizeMu.Unlock()

	r.mu.Lock()
	if r.closed || (r.teamA == teamA && r.teamB == teamB) {
		r.mu.Unlock()
		return false
	}
	r.teamA, r.teamB = teamA, teamB
	maxPlayers := r.maxPlayers
	r.mu.Unlock()

	r.loop.Reset(teamA, teamB, maxPlayers)
	return true
}

func (r *Room) idleFor(now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.subs) > 0 || r.idleSince.IsZero() {
		return 0
	}
	return now.Sub(r.idleSince)
}

func (r *Room) close() {
	r.loop.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for ch := range r.subs {
		close(ch)
		delete(r.subs, ch)
	}
}

func (r *Room) publish(snap pitch.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.frames++
	if r.frames%r.broadcastEvery != 0 {
		return
	}
	for ch := range r.subs {
		select {
		case ch <- snap:
		default:
			// Viewer is lagging; the next frame supersedes this one.
		}
	}
}
