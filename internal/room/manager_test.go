package room

import (
	"sync"
	"testing"
	"time"

	"github.com/codr1/PitchMatch/internal/pitch"
)

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

type halfRand struct{}

func (halfRand) Float64() float64 { return 0.5 }
func (halfRand) IntN(int) int     { return 0 }

// stepScheduler holds at most one queued frame per room.
type stepScheduler struct {
	mu   sync.Mutex
	next pitch.FrameID
	cbs  map[pitch.FrameID]func(time.Time)
}

func (s *stepScheduler) RequestFrame(cb func(time.Time)) pitch.FrameID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.cbs[s.next] = cb
	return s.next
}

func (s *stepScheduler) CancelFrame(id pitch.FrameID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cbs, id)
}

func (s *stepScheduler) fire(now time.Time) {
	s.mu.Lock()
	cbs := s.cbs
	s.cbs = make(map[pitch.FrameID]func(time.Time))
	s.mu.Unlock()
	for _, cb := range cbs {
		cb(now)
	}
}

func (s *stepScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cbs)
}

func newTestManager(t *testing.T, broadcastEvery int) (*Manager, *mockClock, *[]*stepScheduler) {
	t.Helper()
	clock := newMockClock()
	var scheds []*stepScheduler
	m := NewManager(Config{
		BroadcastEvery: broadcastEvery,
		Clock:          clock,
		Rand:           func() pitch.Rand { return halfRand{} },
		NewScheduler: func() pitch.FrameScheduler {
			s := &stepScheduler{cbs: make(map[pitch.FrameID]func(time.Time))}
			scheds = append(scheds, s)
			return s
		},
	})
	t.Cleanup(m.CloseAll)
	return m, clock, &scheds
}

func TestOpenIsIdempotent(t *testing.T) {
	m, _, scheds := newTestManager(t, 1)

	first := m.Open("evt-1", 4, 3, 10)
	second := m.Open("evt-1", 4, 3, 10)
	if first != second {
		t.Fatal("Open should return the existing room")
	}
	if len(*scheds) != 1 {
		t.Fatalf("schedulers created = %d, want 1", len(*scheds))
	}
	if (*scheds)[0].pending() != 1 {
		t.Fatal("room loop should be running")
	}
	if len(m.ListRooms()) != 1 {
		t.Fatalf("rooms = %+v", m.ListRooms())
	}
}

func TestSubscribeReceivesFrames(t *testing.T) {
	m, clock, scheds := newTestManager(t, 2)
	m.Open("evt-1", 5, 5, 10)

	ch, cancel, err := m.Subscribe("evt-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	sched := (*scheds)[0]
	for i := 0; i < 4; i++ {
		sched.fire(clock.Advance(16 * time.Millisecond))
	}

	got := 0
	for {
		select {
		case snap := <-ch:
			got++
			if len(snap.Players) != 10 {
				t.Fatalf("snapshot players = %d", len(snap.Players))
			}
			continue
		default:
		}
		break
	}
	if got != 2 {
		t.Fatalf("frames received = %d, want 2 (every second frame)", got)
	}
}

func TestSubscribeUnknownRoom(t *testing.T) {
	m, _, _ := newTestManager(t, 1)
	if _, _, err := m.Subscribe("missing"); err != ErrRoomNotFound {
		t.Fatalf("err = %v, want ErrRoomNotFound", err)
	}
	if _, err := m.Snapshot("missing"); err != ErrRoomNotFound {
		t.Fatalf("err = %v, want ErrRoomNotFound", err)
	}
}

func TestResizeOnlyOnCountChange(t *testing.T) {
	m, clock, scheds := newTestManager(t, 1)
	m.Open("evt-1", 4, 3, 10)
	(*scheds)[0].fire(clock.Advance(16 * time.Millisecond))

	if m.Resize("evt-1", 4, 3) {
		t.Fatal("unchanged counts should not resize")
	}
	if snap, _ := m.Snapshot("evt-1"); snap.Tick != 1 {
		t.Fatalf("tick = %d, simulation was reset", snap.Tick)
	}

	if !m.Resize("evt-1", 5, 2) {
		t.Fatal("changed counts should resize")
	}
	snap, _ := m.Snapshot("evt-1")
	if snap.TeamA != 5 || snap.TeamB != 2 || snap.Tick != 0 {
		t.Fatalf("after resize: %+v", snap)
	}
	if (*scheds)[0].pending() != 1 {
		t.Fatalf("resized room should keep exactly one frame queued, got %d", (*scheds)[0].pending())
	}

	if m.Resize("other", 1, 1) {
		t.Fatal("resizing a missing room should be a no-op")
	}
}

func TestConcurrentResizesLeaveLoopInSync(t *testing.T) {
	m, _, _ := newTestManager(t, 1)
	r := m.Open("evt-1", 1, 1, 10)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				m.Resize("evt-1", i%5+1, (i/5)%5+1)
			} else {
				m.Open("evt-1", (i/5)%5+1, i%5+1, 10)
			}
		}(i)
	}
	wg.Wait()

	r.mu.Lock()
	wantA, wantB := r.teamA, r.teamB
	r.mu.Unlock()
	snap := r.Snapshot()
	if snap.TeamA != wantA || snap.TeamB != wantB {
		t.Fatalf("simulation has %d/%d, room recorded %d/%d", snap.TeamA, snap.TeamB, wantA, wantB)
	}
}

func TestCloseStopsLoopAndClosesViewers(t *testing.T) {
	m, clock, scheds := newTestManager(t, 1)
	m.Open("evt-1", 3, 3, 10)
	ch, _, err := m.Subscribe("evt-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if !m.Close("evt-1") {
		t.Fatal("close should report the room existed")
	}
	if (*scheds)[0].pending() != 0 {
		t.Fatal("closed room left a frame queued")
	}
	(*scheds)[0].fire(clock.Advance(16 * time.Millisecond))

	for range ch {
	}
	if m.Close("evt-1") {
		t.Fatal("second close should be a no-op")
	}
}

func TestReapIdle(t *testing.T) {
	m, clock, _ := newTestManager(t, 1)
	m.Open("idle", 2, 2, 10)
	m.Open("watched", 2, 2, 10)
	_, cancel, err := m.Subscribe("watched")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if n := m.ReapIdle(clock.Advance(time.Minute), 5*time.Minute); n != 0 {
		t.Fatalf("reaped %d rooms too early", n)
	}
	if n := m.ReapIdle(clock.Advance(5*time.Minute), 5*time.Minute); n != 1 {
		t.Fatalf("reaped %d rooms, want 1", n)
	}
	if _, ok := m.Get("idle"); ok {
		t.Fatal("idle room should be closed")
	}

	cancel()
	cancel()
	if n := m.ReapIdle(clock.Advance(4*time.Minute), 5*time.Minute); n != 0 {
		t.Fatal("room became idle only four minutes ago")
	}
	if n := m.ReapIdle(clock.Advance(time.Minute), 5*time.Minute); n != 1 {
		t.Fatal("watched room should be reaped after its viewer left")
	}
}
