package pitch

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"
)

// mockClock is a controllable clock for testing.
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

// fixedRand returns the same draw every time.
type fixedRand struct {
	value float64
	index int
}

func (r fixedRand) Float64() float64 { return r.value }
func (r fixedRand) IntN(n int) int {
	if r.index >= n {
		return n - 1
	}
	return r.index
}

func countHolders(players []Player) int {
	n := 0
	for _, p := range players {
		if p.HasBall {
			n++
		}
	}
	return n
}

func TestInitClampsCounts(t *testing.T) {
	tests := []struct {
		name       string
		teamA      int
		teamB      int
		maxPlayers int
		wantA      int
		wantB      int
	}{
		{"formation cap", 7, 3, 14, 5, 3},
		{"half capacity cap", 5, 5, 6, 3, 3},
		{"odd capacity", 4, 4, 7, 3, 3},
		{"negative", -2, 2, 10, 0, 2},
		{"no capacity", 3, 3, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := New(DefaultConfig(), WithRand(fixedRand{}))
			sim.Init(tt.teamA, tt.teamB, tt.maxPlayers)
			gotA, gotB := sim.TeamSizes()
			if gotA != tt.wantA || gotB != tt.wantB {
				t.Fatalf("team sizes = %d/%d, want %d/%d", gotA, gotB, tt.wantA, tt.wantB)
			}
			if len(sim.Snapshot().Players) != tt.wantA+tt.wantB {
				t.Fatalf("players = %d", len(sim.Snapshot().Players))
			}
		})
	}
}

func TestInitFormationSlots(t *testing.T) {
	sim := New(DefaultConfig(), WithRand(fixedRand{}))
	sim.Init(5, 5, 10)

	for _, p := range sim.Snapshot().Players {
		if p.X != p.BaseX || p.Y != p.BaseY {
			t.Fatalf("player %d starts off its slot: (%v,%v) vs (%v,%v)", p.ID, p.X, p.Y, p.BaseX, p.BaseY)
		}
		if p.Team == SideA && p.BaseX >= Center {
			t.Fatalf("team A player %d based in the opposing half", p.ID)
		}
		if p.Team == SideB && p.BaseX <= Center {
			t.Fatalf("team B player %d based in the opposing half", p.ID)
		}
	}
}

func TestInitGivesBallToOneTeamAPlayer(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		sim := New(DefaultConfig(), WithRand(rand.New(rand.NewPCG(seed, seed+1))))
		sim.Init(5, 5, 10)

		snap := sim.Snapshot()
		if countHolders(snap.Players) != 1 {
			t.Fatalf("seed %d: %d holders", seed, countHolders(snap.Players))
		}
		for _, p := range snap.Players {
			if !p.HasBall {
				continue
			}
			if p.Team != SideA {
				t.Fatalf("seed %d: kick-off given to team %s", seed, p.Team)
			}
			if snap.Ball.X != p.X || snap.Ball.Y != p.Y {
				t.Fatalf("seed %d: ball %+v not on holder (%v,%v)", seed, snap.Ball, p.X, p.Y)
			}
			if snap.HolderID != p.ID {
				t.Fatalf("seed %d: holder id %d, want %d", seed, snap.HolderID, p.ID)
			}
		}
	}
}

func TestInitFallsBackToTeamB(t *testing.T) {
	sim := New(DefaultConfig(), WithRand(fixedRand{}))
	sim.Init(0, 3, 10)

	snap := sim.Snapshot()
	if countHolders(snap.Players) != 1 {
		t.Fatalf("holders = %d", countHolders(snap.Players))
	}
	if snap.Players[0].Team != SideB || !snap.Players[0].HasBall {
		t.Fatalf("expected first team B player to hold the ball: %+v", snap.Players[0])
	}
}

func TestEmptySimulationIdles(t *testing.T) {
	clock := newMockClock()
	sim := New(DefaultConfig(), WithClock(clock), WithRand(fixedRand{}))
	sim.Init(0, 0, 10)

	for i := 0; i < 10; i++ {
		sim.Tick(clock.Advance(100 * time.Millisecond))
	}

	snap := sim.Snapshot()
	if snap.Ball.X != Center || snap.Ball.Y != Center {
		t.Fatalf("ball = %+v, want centre", snap.Ball)
	}
	if snap.HolderID != 0 || len(snap.Players) != 0 {
		t.Fatalf("unexpected state %+v", snap)
	}
}

func TestTicksKeepSingleOwnerAndBounds(t *testing.T) {
	clock := newMockClock()
	sim := New(Config{GameSpeed: 1.5}, WithClock(clock), WithRand(rand.New(rand.NewPCG(7, 11))))
	sim.Init(5, 5, 10)

	for i := 0; i < 20000; i++ {
		sim.Tick(clock.Advance(16 * time.Millisecond))
		snap := sim.Snapshot()
		if n := countHolders(snap.Players); n != 1 {
			t.Fatalf("tick %d: %d holders", i, n)
		}
		for _, p := range snap.Players {
			if p.X < FieldMin || p.X > FieldMax || p.Y < FieldMin || p.Y > FieldMax {
				t.Fatalf("tick %d: player %d out of bounds at (%v,%v)", i, p.ID, p.X, p.Y)
			}
		}
		if !snap.InFlight {
			for _, p := range snap.Players {
				if p.HasBall && (snap.Ball.X != p.X || snap.Ball.Y != p.Y) {
					t.Fatalf("tick %d: ball %+v detached from holder %d", i, snap.Ball, p.ID)
				}
			}
		}
	}
}

func TestScorePassForwardBonus(t *testing.T) {
	tests := []struct {
		name   string
		holder Player
	}{
		{"team A attacks right", Player{Team: SideA, X: 50, Y: 50}},
		{"team B attacks left", Player{Team: SideB, X: 50, Y: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.holder.Team.AttackDir()
			ahead := Player{Team: tt.holder.Team, X: 50 + 12*dir, Y: 50}
			behind := Player{Team: tt.holder.Team, X: 50 - 12*dir, Y: 50}

			diff := ScorePass(tt.holder, ahead) - ScorePass(tt.holder, behind)
			if diff != ForwardBonus {
				t.Fatalf("forward advantage = %v, want %v", diff, ForwardBonus)
			}
			if got := ScorePass(tt.holder, ahead); got != 108 {
				t.Fatalf("ahead score = %v, want 108", got)
			}
		})
	}
}

func TestScorePassDistanceCap(t *testing.T) {
	holder := Player{Team: SideA, X: 5, Y: 5}
	far := Player{Team: SideA, X: 5, Y: 95}
	veryFar := Player{Team: SideA, X: 95, Y: 95}

	if got := ScorePass(holder, far); got != 100-PassScoreCap {
		t.Fatalf("far score = %v", got)
	}
	// Capped distance plus the forward bonus.
	if got := ScorePass(holder, veryFar); got != 100-PassScoreCap+ForwardBonus {
		t.Fatalf("very far score = %v", got)
	}
}

// placePlayers overrides positions after Init so tests control geometry.
func placePlayers(sim *Simulator, positions map[int][2]float64) {
	for i := range sim.players {
		if pos, ok := positions[sim.players[i].ID]; ok {
			sim.players[i].X = pos[0]
			sim.players[i].Y = pos[1]
		}
	}
	if idx := sim.holderIndex(); idx >= 0 {
		sim.ball = Ball{X: sim.players[idx].X, Y: sim.players[idx].Y}
	}
}

func TestExplainPassDecision(t *testing.T) {
	clock := newMockClock()
	sim := New(DefaultConfig(), WithClock(clock), WithRand(fixedRand{value: 0}))
	sim.Init(3, 1, 10)
	placePlayers(sim, map[int][2]float64{
		1: {30, 50},
		2: {50, 50}, // 20 ahead: 80 + 20
		3: {20, 50}, // 10 behind: 90
		4: {85, 85},
	})

	clock.Advance(500 * time.Millisecond)
	ex := sim.Explain()
	if ex.HolderID != 1 || ex.InFlight {
		t.Fatalf("explain = %+v", ex)
	}
	if ex.CooldownMs != 1500 {
		t.Fatalf("cooldown = %dms, want 1500", ex.CooldownMs)
	}
	if len(ex.Candidates) != 2 || ex.Candidates[0].Score != 100 || ex.Candidates[1].Score != 90 {
		t.Fatalf("candidates = %+v", ex.Candidates)
	}
	if ex.PickID != 2 {
		t.Fatalf("pick = %d, want 2", ex.PickID)
	}

	clock.Advance(2 * time.Second)
	if ex := sim.Explain(); ex.CooldownMs != 0 {
		t.Fatalf("cooldown after wait = %dms", ex.CooldownMs)
	}
}

func TestExplainWithoutPlayers(t *testing.T) {
	sim := New(DefaultConfig(), WithClock(newMockClock()))
	sim.Init(0, 0, 10)
	ex := sim.Explain()
	if ex.HolderID != 0 || ex.PickID != 0 || len(ex.Candidates) != 0 {
		t.Fatalf("explain = %+v", ex)
	}
}

func TestPassScenarioAfterCooldown(t *testing.T) {
	clock := newMockClock()
	start := clock.Now()
	sim := New(DefaultConfig(), WithClock(clock), WithRand(fixedRand{value: 0}))
	sim.Init(2, 1, 10)
	// Player 1 holds, player 2 is 20 units ahead, player 3 (team B) far away.
	placePlayers(sim, map[int][2]float64{
		1: {30, 50},
		2: {50, 50},
		3: {85, 85},
	})

	candidates := sim.Explain().Candidates
	if len(candidates) != 1 || candidates[0].PlayerID != 2 || !candidates[0].Forward {
		t.Fatalf("candidates = %+v", candidates)
	}

	kickAt := start.Add(2001 * time.Millisecond)
	sim.Tick(kickAt)
	snap := sim.Snapshot()
	if !snap.InFlight {
		t.Fatal("expected pass to be in flight")
	}
	if snap.HolderID != 1 {
		t.Fatalf("holder during flight = %d, want 1", snap.HolderID)
	}
	// The kick tick skips movement.
	if snap.Players[1].X != 50 || snap.Players[1].Y != 50 {
		t.Fatalf("receiver moved on kick tick: %+v", snap.Players[1])
	}

	sim.Tick(kickAt.Add(250 * time.Millisecond))
	mid := sim.Snapshot()
	if !mid.InFlight || mid.HolderID != 1 {
		t.Fatalf("mid flight state = %+v", mid)
	}
	if math.Abs(mid.Ball.X-40) > 1e-9 {
		t.Fatalf("mid flight ball x = %v, want 40", mid.Ball.X)
	}
	if math.Abs(mid.Ball.Y-(50-FlightArc)) > 1e-9 {
		t.Fatalf("mid flight ball y = %v, want %v", mid.Ball.Y, 50-FlightArc)
	}

	sim.Tick(kickAt.Add(499 * time.Millisecond))
	if sim.Snapshot().HolderID != 1 {
		t.Fatal("possession changed before the flight landed")
	}

	sim.Tick(kickAt.Add(500 * time.Millisecond))
	landed := sim.Snapshot()
	if landed.InFlight {
		t.Fatal("flight should have landed")
	}
	if landed.HolderID != 2 {
		t.Fatalf("holder after landing = %d, want 2", landed.HolderID)
	}
	if countHolders(landed.Players) != 1 {
		t.Fatalf("holders after landing = %d", countHolders(landed.Players))
	}
	receiver := landed.Players[1]
	if landed.Ball.X != receiver.X || landed.Ball.Y != receiver.Y {
		t.Fatalf("ball %+v not on receiver (%v,%v)", landed.Ball, receiver.X, receiver.Y)
	}
}

func TestPassRespectsCooldown(t *testing.T) {
	clock := newMockClock()
	start := clock.Now()
	sim := New(DefaultConfig(), WithClock(clock), WithRand(fixedRand{value: 0}))
	sim.Init(2, 0, 10)
	placePlayers(sim, map[int][2]float64{1: {30, 50}, 2: {50, 50}})

	sim.Tick(start.Add(1999 * time.Millisecond))
	if sim.Snapshot().InFlight {
		t.Fatal("pass kicked before cooldown elapsed")
	}
}

func TestPassRequiresProbabilityDraw(t *testing.T) {
	clock := newMockClock()
	start := clock.Now()
	sim := New(DefaultConfig(), WithClock(clock), WithRand(fixedRand{value: PassChance}))
	sim.Init(2, 0, 10)
	placePlayers(sim, map[int][2]float64{1: {30, 50}, 2: {50, 50}})

	sim.Tick(start.Add(5 * time.Second))
	if sim.Snapshot().InFlight {
		t.Fatal("pass kicked although the draw failed")
	}
}

func TestTightlyMarkedTeammateIsSkipped(t *testing.T) {
	clock := newMockClock()
	start := clock.Now()
	sim := New(DefaultConfig(), WithClock(clock), WithRand(fixedRand{value: 0}))
	sim.Init(2, 1, 10)
	placePlayers(sim, map[int][2]float64{
		1: {30, 50},
		2: {50, 50},
		3: {55, 52},
	})

	if got := sim.Explain().Candidates; len(got) != 0 {
		t.Fatalf("candidates = %+v, want none", got)
	}

	sim.Tick(start.Add(3 * time.Second))
	snap := sim.Snapshot()
	if snap.InFlight {
		t.Fatal("pass kicked to a tightly marked teammate")
	}
	if snap.HolderID != 1 {
		t.Fatalf("holder = %d", snap.HolderID)
	}
	// No pass means the holder moved this tick.
	if snap.Players[0].X <= 30 {
		t.Fatalf("holder did not drift forward: %v", snap.Players[0].X)
	}
}

func TestPassPicksBestScoreFirstOnTies(t *testing.T) {
	clock := newMockClock()
	start := clock.Now()
	sim := New(DefaultConfig(), WithClock(clock), WithRand(fixedRand{value: 0}))
	sim.Init(4, 0, 10)
	placePlayers(sim, map[int][2]float64{
		1: {40, 50},
		2: {55, 50}, // 15 ahead: 105
		3: {40, 65}, // 15 lateral: 85
		4: {55, 50}, // tie with 2
	})

	sim.Tick(start.Add(2 * time.Second))
	if sim.flight == nil {
		t.Fatal("expected a pass")
	}
	if sim.flight.toID != 2 {
		t.Fatalf("receiver = %d, want 2", sim.flight.toID)
	}
}

func TestGameSpeedShortensFlight(t *testing.T) {
	clock := newMockClock()
	start := clock.Now()
	sim := New(Config{GameSpeed: 2}, WithClock(clock), WithRand(fixedRand{value: 0}))
	sim.Init(2, 0, 10)
	placePlayers(sim, map[int][2]float64{1: {30, 50}, 2: {50, 50}})

	kickAt := start.Add(2 * time.Second)
	sim.Tick(kickAt)
	sim.Tick(kickAt.Add(250 * time.Millisecond))
	if got := sim.Snapshot().HolderID; got != 2 {
		t.Fatalf("holder = %d, want 2 after a 250ms flight", got)
	}
}

func TestMovementThrottle(t *testing.T) {
	clock := newMockClock()
	sim := New(DefaultConfig(), WithClock(clock), WithRand(fixedRand{value: 0.5}))
	sim.Init(1, 0, 10)

	first := clock.Advance(10 * time.Millisecond)
	sim.Tick(first)
	x1 := sim.Snapshot().Players[0].X

	sim.Tick(first.Add(MoveThrottle - time.Millisecond))
	if x := sim.Snapshot().Players[0].X; x != x1 {
		t.Fatalf("holder moved inside the throttle window: %v -> %v", x1, x)
	}

	sim.Tick(first.Add(MoveThrottle))
	if x := sim.Snapshot().Players[0].X; math.Abs(x-(x1+HolderDrift)) > 1e-9 {
		t.Fatalf("holder x = %v, want %v", x, x1+HolderDrift)
	}
}

func TestOpponentPursuesAndRecovers(t *testing.T) {
	clock := newMockClock()
	sim := New(DefaultConfig(), WithClock(clock), WithRand(fixedRand{value: 0.5}))
	sim.Init(1, 1, 10)
	placePlayers(sim, map[int][2]float64{1: {50, 50}, 2: {70, 50}})

	sim.Tick(clock.Advance(10 * time.Millisecond))
	opp := sim.Snapshot().Players[1]
	if !opp.IsDefending {
		t.Fatal("opponent within pursuit radius should defend")
	}
	// 5% of the 20 unit gap to the holder's pre-tick position.
	if math.Abs(opp.X-69) > 1e-9 {
		t.Fatalf("opponent x = %v, want 69", opp.X)
	}

	placePlayers(sim, map[int][2]float64{1: {10, 50}, 2: {70, 50}})
	sim.Tick(clock.Advance(100 * time.Millisecond))
	opp = sim.Snapshot().Players[1]
	if opp.IsDefending {
		t.Fatal("distant opponent should stop defending")
	}
	want := 70 + (opp.BaseX-70)*OpponentRecover
	if math.Abs(opp.X-want) > 1e-9 {
		t.Fatalf("opponent x = %v, want %v", opp.X, want)
	}
}

func TestTeammateSupportingRun(t *testing.T) {
	clock := newMockClock()
	sim := New(DefaultConfig(), WithClock(clock), WithRand(fixedRand{value: 0.5}))
	sim.Init(2, 0, 10)
	placePlayers(sim, map[int][2]float64{1: {25, 30}, 2: {25, 50}})
	mate := sim.Snapshot().Players[1]

	sim.Tick(clock.Advance(10 * time.Millisecond))
	got := sim.Snapshot().Players[1]

	targetX := clamp(mate.BaseX+SupportForward, BandMin, BandMax)
	wantX := 25 + (targetX-25)*SupportStep
	wantY := 50 + (mate.BaseY-50)*SupportStep
	if math.Abs(got.X-wantX) > 1e-9 || math.Abs(got.Y-wantY) > 1e-9 {
		t.Fatalf("teammate at (%v,%v), want (%v,%v)", got.X, got.Y, wantX, wantY)
	}
}
