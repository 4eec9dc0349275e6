package roster

import (
	"fmt"
	"testing"
)

// members flattens the groups in Team A, Team B, reserve order.
func members(a *Allocator) []Player {
	out := make([]Player, 0, len(a.teamA)+len(a.teamB)+len(a.reserve))
	out = append(out, a.teamA...)
	out = append(out, a.teamB...)
	out = append(out, a.reserve...)
	return out
}

func scenarioPlayers() []Player {
	players := make([]Player, 0, 12)
	for i := 1; i <= 12; i++ {
		players = append(players, Player{
			ID:          fmt.Sprintf("p%d", i),
			Name:        fmt.Sprintf("P%d", i),
			IsConfirmed: i <= 7,
		})
	}
	return players
}

func names(players []Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Name
	}
	return out
}

func assertNames(t *testing.T, label string, got []Player, want ...string) {
	t.Helper()
	gotNames := names(got)
	if len(gotNames) != len(want) {
		t.Fatalf("%s = %v, want %v", label, gotNames, want)
	}
	for i := range want {
		if gotNames[i] != want[i] {
			t.Fatalf("%s = %v, want %v", label, gotNames, want)
		}
	}
}

type recordingNotifier struct {
	notes []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.notes = append(r.notes, n)
}

func TestInitializeScenario(t *testing.T) {
	a := NewAllocator(nil)
	a.Initialize(scenarioPlayers())

	assertNames(t, "team A", a.TeamA(), "P1", "P2", "P3", "P4")
	assertNames(t, "team B", a.TeamB(), "P5", "P6", "P7")
	assertNames(t, "reserve", a.Reserve(), "P8", "P9", "P10", "P11", "P12")
}

func TestInitializeSplitRule(t *testing.T) {
	for n := 0; n <= 23; n++ {
		players := make([]Player, n)
		for i := range players {
			players[i] = Player{ID: fmt.Sprintf("c%d", i), IsConfirmed: true}
		}
		a := NewAllocator(nil)
		a.Initialize(players)

		wantA := (n + 1) / 2
		if len(a.TeamA()) != wantA || len(a.TeamB()) != n-wantA {
			t.Fatalf("n=%d: team sizes %d/%d, want %d/%d", n, len(a.TeamA()), len(a.TeamB()), wantA, n-wantA)
		}
	}
}

func TestInitializePartitionInvariant(t *testing.T) {
	tests := []struct {
		name    string
		pattern []bool
	}{
		{"empty", nil},
		{"all reserve", []bool{false, false, false}},
		{"all confirmed", []bool{true, true, true, true, true}},
		{"interleaved", []bool{true, false, true, false, true, false, true}},
		{"single confirmed", []bool{false, true, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			players := make([]Player, len(tt.pattern))
			for i, confirmed := range tt.pattern {
				players[i] = Player{ID: fmt.Sprintf("id-%d", i), IsConfirmed: confirmed}
			}
			a := NewAllocator(nil)
			a.Initialize(players)

			seen := make(map[string]int)
			for _, p := range members(a) {
				seen[p.ID]++
			}
			if len(seen) != len(players) {
				t.Fatalf("got %d distinct ids, want %d", len(seen), len(players))
			}
			for id, count := range seen {
				if count != 1 {
					t.Fatalf("player %s appears %d times", id, count)
				}
			}
			for _, p := range a.Reserve() {
				if p.IsConfirmed {
					t.Fatalf("reserve player %s is confirmed", p.ID)
				}
			}
		})
	}
}

func TestCompleteMoveReserveToTeamA(t *testing.T) {
	notes := &recordingNotifier{}
	a := NewAllocator(notes)
	a.Initialize(scenarioPlayers())

	a.BeginMove("p8", Reserve)
	if !a.CompleteMove(TeamA) {
		t.Fatal("expected move to happen")
	}

	assertNames(t, "team A", a.TeamA(), "P1", "P2", "P3", "P4", "P8")
	assertNames(t, "team B", a.TeamB(), "P5", "P6", "P7")
	assertNames(t, "reserve", a.Reserve(), "P9", "P10", "P11", "P12")

	moved := a.TeamA()[4]
	if !moved.IsConfirmed {
		t.Fatal("moved player should be confirmed")
	}

	if len(notes.notes) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notes.notes))
	}
	note := notes.notes[0]
	if note.PlayerID != "p8" || note.From != Reserve || note.To != TeamA {
		t.Fatalf("unexpected notification %+v", note)
	}
	if note.Message() != "P8 moved to Team A" {
		t.Fatalf("message = %q", note.Message())
	}
}

func TestCompleteMoveToReserveUnconfirms(t *testing.T) {
	a := NewAllocator(nil)
	a.Initialize(scenarioPlayers())

	if !a.Move("p5", TeamB, Reserve) {
		t.Fatal("expected move to happen")
	}
	reserve := a.Reserve()
	last := reserve[len(reserve)-1]
	if last.ID != "p5" || last.IsConfirmed {
		t.Fatalf("reserve tail = %+v, want unconfirmed p5", last)
	}
	if len(members(a)) != 12 {
		t.Fatalf("total players = %d, want 12", len(members(a)))
	}
}

func TestCompleteMoveIgnoredCases(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(a *Allocator)
		target Group
	}{
		{
			name:   "same group",
			setup:  func(a *Allocator) { a.BeginMove("p1", TeamA) },
			target: TeamA,
		},
		{
			name:   "unknown player",
			setup:  func(a *Allocator) { a.BeginMove("nobody", Reserve) },
			target: TeamA,
		},
		{
			name:   "stale source",
			setup:  func(a *Allocator) { a.BeginMove("p1", TeamB) },
			target: Reserve,
		},
		{
			name:   "no pending move",
			setup:  func(a *Allocator) {},
			target: TeamB,
		},
		{
			name: "cancelled move",
			setup: func(a *Allocator) {
				a.BeginMove("p9", Reserve)
				a.CancelMove()
			},
			target: TeamB,
		},
		{
			name:   "invalid target",
			setup:  func(a *Allocator) { a.BeginMove("p9", Reserve) },
			target: Group("sideline"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := &recordingNotifier{}
			a := NewAllocator(notes)
			a.Initialize(scenarioPlayers())
			before := a.Snapshot()

			tt.setup(a)
			if a.CompleteMove(tt.target) {
				t.Fatal("expected no-op")
			}

			after := a.Snapshot()
			assertNames(t, "team A", after.TeamA, names(before.TeamA)...)
			assertNames(t, "team B", after.TeamB, names(before.TeamB)...)
			assertNames(t, "reserve", after.Reserve, names(before.Reserve)...)
			if len(notes.notes) != 0 {
				t.Fatalf("unexpected notifications: %+v", notes.notes)
			}
		})
	}
}

func TestCompleteMoveConsumesPayload(t *testing.T) {
	a := NewAllocator(nil)
	a.Initialize(scenarioPlayers())

	a.BeginMove("p9", Reserve)
	if !a.CompleteMove(TeamB) {
		t.Fatal("first drop should move the player")
	}
	// A duplicate drop event from the UI must not move anyone else.
	if a.CompleteMove(TeamA) {
		t.Fatal("duplicate drop should be ignored")
	}
	if g, ok := a.Locate("p9"); !ok || g != TeamB {
		t.Fatalf("p9 located in %q (%v), want team_b", g, ok)
	}
}

func TestEmptyingATeam(t *testing.T) {
	a := NewAllocator(nil)
	a.Initialize([]Player{{ID: "solo", Name: "Solo", IsConfirmed: true}})

	if !a.Move("solo", TeamA, TeamB) {
		t.Fatal("expected move")
	}
	if len(a.TeamA()) != 0 {
		t.Fatalf("team A should be empty, got %v", names(a.TeamA()))
	}
	sizeA, sizeB := a.TeamSizes()
	if sizeA != 0 || sizeB != 1 {
		t.Fatalf("team sizes = %d/%d", sizeA, sizeB)
	}
}

func TestAllocatorHasNoCapacityLimit(t *testing.T) {
	players := make([]Player, 30)
	for i := range players {
		players[i] = Player{ID: fmt.Sprintf("r%d", i)}
	}
	a := NewAllocator(nil)
	a.Initialize(players)
	for _, p := range players {
		a.Move(p.ID, Reserve, TeamA)
	}
	if len(a.TeamA()) != 30 {
		t.Fatalf("team A size = %d, want 30", len(a.TeamA()))
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	a := NewAllocator(nil)
	a.Initialize(scenarioPlayers())
	snap := a.Snapshot()
	snap.TeamA[0].Name = "changed"
	if a.TeamA()[0].Name != "P1" {
		t.Fatal("snapshot mutation leaked into allocator")
	}
}

func TestCapacity(t *testing.T) {
	tests := []struct {
		max   int
		wantA int
		wantB int
	}{
		{0, 0, 0},
		{1, 1, 0},
		{10, 5, 5},
		{11, 6, 5},
		{14, 7, 7},
	}
	for _, tt := range tests {
		a, b := Capacity(tt.max)
		if a != tt.wantA || b != tt.wantB {
			t.Errorf("Capacity(%d) = %d/%d, want %d/%d", tt.max, a, b, tt.wantA, tt.wantB)
		}
	}
}

func TestParseGroup(t *testing.T) {
	tests := []struct {
		input   string
		want    Group
		wantErr bool
	}{
		{"team_a", TeamA, false},
		{"A", TeamA, false},
		{"b", TeamB, false},
		{"reserve", Reserve, false},
		{"bench", Reserve, false},
		{"", "", true},
		{"goalie", "", true},
	}
	for _, tt := range tests {
		got, err := ParseGroup(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseGroup(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseGroup(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
