// Package room keeps one live pitch simulation per event and fans its frames
// out to viewers.
package room

import (
	"errors"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/PitchMatch/internal/pitch"
)

var ErrRoomNotFound = errors.New("pitch room not found")

type Config struct {
	FrameInterval  time.Duration
	BroadcastEvery int
	GameSpeed      float64

	// Clock, Rand and NewScheduler default to wall time, a time-seeded
	// source and a pitch.TimerScheduler.
	Clock        pitch.Clock
	Rand         func() pitch.Rand
	NewScheduler func() pitch.FrameScheduler
}

// RoomInfo is returned by the API for the room list.
type RoomInfo struct {
	EventID string `json:"eventId"`
	Viewers int    `json:"viewers"`
	TeamA   int    `json:"teamA"`
	TeamB   int    `json:"teamB"`
}

// Manager holds rooms by event ID. Rooms are opened on demand and closed
// explicitly or by ReapIdle.
type Manager struct {
	cfg   Config
	mu    sync.RWMutex
	rooms map[string]*Room
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func NewManager(cfg Config) *Manager {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = 16 * time.Millisecond
	}
	if cfg.BroadcastEvery <= 0 {
		cfg.BroadcastEvery = 1
	}
	if cfg.GameSpeed <= 0 {
		cfg.GameSpeed = 1
	}
	if cfg.Clock == nil {
		cfg.Clock = wallClock{}
	}
	if cfg.Rand == nil {
		cfg.Rand = func() pitch.Rand {
			return rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
		}
	}
	if cfg.NewScheduler == nil {
		interval, clock := cfg.FrameInterval, cfg.Clock
		cfg.NewScheduler = func() pitch.FrameScheduler {
			return pitch.NewTimerScheduler(interval, clock)
		}
	}
	return &Manager{
		cfg:   cfg,
		rooms: make(map[string]*Room),
	}
}

// Open returns the event's room, starting a simulation for the given team
// sizes when none is running. An existing room is resized instead.
func (m *Manager) Open(eventID string, teamA, teamB, maxPlayers int) *Room {
	if eventID == "" {
		return nil
	}

	m.mu.Lock()
	if r, ok := m.rooms[eventID]; ok {
		m.mu.Unlock()
		r.resize(teamA, teamB)
		return r
	}
	r := newRoom(eventID, m.cfg, m.cfg.Rand(), teamA, teamB, maxPlayers)
	m.rooms[eventID] = r
	m.mu.Unlock()

	r.start()
	log.Info().
		Str("component", "pitch_rooms").
		Str("event_id", eventID).
		Int("team_a", teamA).
		Int("team_b", teamB).
		Msg("Pitch room opened")
	return r
}

func (m *Manager) Get(eventID string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[eventID]
	return r, ok
}

// Resize feeds new team sizes into a running room. It is a no-op when the
// event has no room or the counts did not change.
func (m *Manager) Resize(eventID string, teamA, teamB int) bool {
	r, ok := m.Get(eventID)
	if !ok {
		return false
	}
	resized := r.resize(teamA, teamB)
	if resized {
		log.Debug().
			Str("component", "pitch_rooms").
			Str("event_id", eventID).
			Int("team_a", teamA).
			Int("team_b", teamB).
			Msg("Pitch room resized")
	}
	return resized
}

func (m *Manager) Snapshot(eventID string) (pitch.Snapshot, error) {
	r, ok := m.Get(eventID)
	if !ok {
		return pitch.Snapshot{}, ErrRoomNotFound
	}
	return r.Snapshot(), nil
}

func (m *Manager) Explain(eventID string) (pitch.Explanation, error) {
	r, ok := m.Get(eventID)
	if !ok {
		return pitch.Explanation{}, ErrRoomNotFound
	}
	return r.Explain(), nil
}

func (m *Manager) Subscribe(eventID string) (<-chan pitch.Snapshot, func(), error) {
	r, ok := m.Get(eventID)
	if !ok {
		return nil, nil, ErrRoomNotFound
	}
	ch, cancel := r.Subscribe()
	return ch, cancel, nil
}

func (m *Manager) Close(eventID string) bool {
	m.mu.Lock()
	r, ok := m.rooms[eventID]
	delete(m.rooms, eventID)
	m.mu.Unlock()
	if !ok {
		return false
	}
	r.close()
	log.Info().Str("component", "pitch_rooms").Str("event_id", eventID).Msg("Pitch room closed")
	return true
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	rooms := m.rooms
	m.rooms = make(map[string]*Room)
	m.mu.Unlock()
	for _, r := range rooms {
		r.close()
	}
}

// ReapIdle closes rooms that have had no viewers for at least idleAfter and
// returns how many were closed.
func (m *Manager) ReapIdle(now time.Time, idleAfter time.Duration) int {
	m.mu.RLock()
	var idle []string
	for id, r := range m.rooms {
		if r.idleFor(now) >= idleAfter && r.Viewers() == 0 {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()

	closed := 0
	for _, id := range idle {
		if m.Close(id) {
			closed++
		}
	}
	return closed
}

// ListRooms returns all open rooms ordered by event ID.
func (m *Manager) ListRooms() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for id, r := range m.rooms {
		snap := r.Snapshot()
		out = append(out, RoomInfo{EventID: id, Viewers: r.Viewers(), TeamA: snap.TeamA, TeamB: snap.TeamB})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out
}
