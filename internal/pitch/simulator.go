package pitch

import (
	"math/rand/v2"
	"time"
)

// Clock is the monotonic time source driving the simulation.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Rand is the subset of *rand.Rand the simulation draws from. Tests inject a
// seeded or scripted source.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type Config struct {
	// GameSpeed scales pass flight duration; 2 flies the ball twice as fast.
	GameSpeed float64
}

func DefaultConfig() Config {
	return Config{GameSpeed: 1}
}

type Option func(*Simulator)

func WithClock(c Clock) Option {
	return func(s *Simulator) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithRand(r Rand) Option {
	return func(s *Simulator) {
		if r != nil {
			s.rng = r
		}
	}
}

// Simulator owns player and ball positions. It is single-writer: Loop
// serializes Init and Tick.
type Simulator struct {
	cfg      Config
	clock    Clock
	rng      Rand
	players  []Player
	ball     Ball
	flight   *flight
	lastPass time.Time
	ticks    int
	teamA    int
	teamB    int
}

func New(cfg Config, opts ...Option) *Simulator {
	if cfg.GameSpeed <= 0 {
		cfg.GameSpeed = 1
	}
	s := &Simulator{
		cfg:   cfg,
		clock: realClock{},
		rng:   rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		ball:  Ball{X: Center, Y: Center},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init lays out up to five players per side on their formation slots and
// hands the ball to a random Team A player. With no players the ball idles
// at the centre spot.
func (s *Simulator) Init(teamA, teamB, maxPlayers int) {
	nA := displayCount(teamA, maxPlayers)
	nB := displayCount(teamB, maxPlayers)

	s.players = s.players[:0]
	s.flight = nil
	s.ticks = 0
	s.teamA, s.teamB = nA, nB
	s.lastPass = s.clock.Now()
	s.ball = Ball{X: Center, Y: Center}

	id := 1
	for _, side := range []struct {
		team  Team
		count int
	}{{SideA, nA}, {SideB, nB}} {
		for i := 0; i < side.count; i++ {
			home := formationSlot(side.team, i)
			s.players = append(s.players, Player{
				ID:    id,
				Team:  side.team,
				X:     home.X,
				Y:     home.Y,
				BaseX: home.X,
				BaseY: home.Y,
			})
			id++
		}
	}

	if len(s.players) == 0 {
		return
	}

	// Kick-off belongs to Team A; an empty Team A hands it to Team B.
	var kicker int
	if nA > 0 {
		kicker = s.rng.IntN(nA)
	} else {
		kicker = s.rng.IntN(nB)
	}
	s.players[kicker].HasBall = true
	s.ball = Ball{X: s.players[kicker].X, Y: s.players[kicker].Y}
}

// Tick advances the simulation to now.
func (s *Simulator) Tick(now time.Time) {
	s.ticks++

	holder := s.holderIndex()
	if holder < 0 {
		return
	}

	if s.flight != nil {
		s.advanceFlight(now)
		holder = s.holderIndex()
	} else if s.tryPass(now, holder) {
		return
	}

	s.move(now, holder)
}

// Snapshot copies the current state.
func (s *Simulator) Snapshot() Snapshot {
	players := make([]Player, len(s.players))
	copy(players, s.players)
	snap := Snapshot{
		Tick:     s.ticks,
		Players:  players,
		Ball:     s.ball,
		InFlight: s.flight != nil,
		TeamA:    s.teamA,
		TeamB:    s.teamB,
	}
	if idx := s.holderIndex(); idx >= 0 {
		snap.HolderID = s.players[idx].ID
	}
	return snap
}

// TeamSizes returns the displayed (clamped) counts.
func (s *Simulator) TeamSizes() (int, int) {
	return s.teamA, s.teamB
}

func (s *Simulator) holderIndex() int {
	for i := range s.players {
		if s.players[i].HasBall {
			return i
		}
	}
	return -1
}

func (s *Simulator) indexByID(id int) int {
	for i := range s.players {
		if s.players[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Simulator) jitter(amplitude float64) float64 {
	return (s.rng.Float64()*2 - 1) * amplitude
}

func (s *Simulator) move(now time.Time, holder int) {
	h := s.players[holder]
	hx, hy := h.X, h.Y

	for i := range s.players {
		p := &s.players[i]
		if now.Sub(p.LastMoveTime) < MoveThrottle {
			continue
		}
		p.LastMoveTime = now

		switch {
		case i == holder:
			p.IsDefending = false
			p.X += p.Team.AttackDir() * HolderDrift
			p.Y += s.jitter(HolderJitter)

		case p.Team != h.Team:
			if distance(p.X, p.Y, hx, hy) < PursuitRadius {
				p.IsDefending = true
				p.X, p.Y = stepToward(p.X, p.Y, hx, hy, PursuitStep)
			} else {
				p.IsDefending = false
				p.X, p.Y = stepToward(p.X, p.Y, p.BaseX, p.BaseY, OpponentRecover)
			}

		default:
			p.IsDefending = false
			d := distance(p.X, p.Y, hx, hy)
			if d >= SupportMin && d <= SupportMax {
				tx := clamp(p.BaseX+p.Team.AttackDir()*SupportForward, BandMin, BandMax)
				ty := p.BaseY + s.jitter(SupportJitter)
				p.X, p.Y = stepToward(p.X, p.Y, tx, ty, SupportStep)
			} else {
				p.X, p.Y = stepToward(p.X, p.Y, p.BaseX, p.BaseY, TeammateRecover)
			}
		}

		p.X, p.Y = inbounds(p.X, p.Y)
	}

	if s.flight == nil {
		s.ball = Ball{X: s.players[holder].X, Y: s.players[holder].Y}
	}
}
