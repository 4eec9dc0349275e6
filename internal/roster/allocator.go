package roster

type pendingMove struct {
	playerID string
	source   Group
}

// Allocator holds the three disjoint player groups of one event. It is not
// safe for concurrent use; callers serialize access.
type Allocator struct {
	teamA    []Player
	teamB    []Player
	reserve  []Player
	pending  *pendingMove
	notifier Notifier
}

func NewAllocator(notifier Notifier) *Allocator {
	return &Allocator{notifier: notifier}
}

// Initialize rebuilds all three groups from players. Confirmed players are
// split in order: the first ceil(n/2) go to Team A, the rest to Team B.
func (a *Allocator) Initialize(players []Player) {
	confirmed := make([]Player, 0, len(players))
	reserve := make([]Player, 0, len(players))
	for _, p := range players {
		if p.IsConfirmed {
			confirmed = append(confirmed, p)
		} else {
			reserve = append(reserve, p)
		}
	}

	half := (len(confirmed) + 1) / 2
	a.teamA = append([]Player(nil), confirmed[:half]...)
	a.teamB = append([]Player(nil), confirmed[half:]...)
	a.reserve = reserve
	a.pending = nil
}

// BeginMove records the drag payload. Lists are untouched until CompleteMove.
func (a *Allocator) BeginMove(playerID string, source Group) {
	a.pending = &pendingMove{playerID: playerID, source: source}
}

// CancelMove drops a pending payload, e.g. when a drag ends outside a target.
func (a *Allocator) CancelMove() {
	a.pending = nil
}

// Pending returns the payload recorded by BeginMove, if any.
func (a *Allocator) Pending() (playerID string, source Group, ok bool) {
	if a.pending == nil {
		return "", "", false
	}
	return a.pending.playerID, a.pending.source, true
}

// CompleteMove drops the pending player onto target. Identical source and
// target, a missing payload or a player that is no longer in the source list
// are all ignored. It reports whether a player actually moved.
func (a *Allocator) CompleteMove(target Group) bool {
	move := a.pending
	a.pending = nil
	if move == nil || !target.Valid() || move.source == target {
		return false
	}

	src := a.list(move.source)
	if src == nil {
		return false
	}
	idx := indexOf(*src, move.playerID)
	if idx < 0 {
		return false
	}

	player := (*src)[idx]
	*src = append((*src)[:idx:idx], (*src)[idx+1:]...)

	player.IsConfirmed = target.Confirmed()
	dst := a.list(target)
	*dst = append(*dst, player)

	if a.notifier != nil {
		a.notifier.Notify(Notification{
			PlayerID:   player.ID,
			PlayerName: player.Name,
			From:       move.source,
			To:         target,
		})
	}
	return true
}

// Move is BeginMove followed by CompleteMove.
func (a *Allocator) Move(playerID string, source, target Group) bool {
	a.BeginMove(playerID, source)
	return a.CompleteMove(target)
}

// Locate returns the group currently holding playerID.
func (a *Allocator) Locate(playerID string) (Group, bool) {
	for _, g := range []Group{TeamA, TeamB, Reserve} {
		if indexOf(*a.list(g), playerID) >= 0 {
			return g, true
		}
	}
	return "", false
}

func (a *Allocator) TeamA() []Player   { return clonePlayers(a.teamA) }
func (a *Allocator) TeamB() []Player   { return clonePlayers(a.teamB) }
func (a *Allocator) Reserve() []Player { return clonePlayers(a.reserve) }

func (a *Allocator) Snapshot() Snapshot {
	return Snapshot{
		TeamA:   a.TeamA(),
		TeamB:   a.TeamB(),
		Reserve: a.Reserve(),
	}
}

// TeamSizes is what the pitch simulation consumes: counts, not identities.
func (a *Allocator) TeamSizes() (int, int) {
	return len(a.teamA), len(a.teamB)
}

func (a *Allocator) list(g Group) *[]Player {
	switch g {
	case TeamA:
		return &a.teamA
	case TeamB:
		return &a.teamB
	case Reserve:
		return &a.reserve
	default:
		return nil
	}
}

func indexOf(players []Player, id string) int {
	for i, p := range players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func clonePlayers(players []Player) []Player {
	out := make([]Player, len(players))
	copy(out, players)
	return out
}
