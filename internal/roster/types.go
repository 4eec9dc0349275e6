// Package roster splits an event's players into Team A, Team B and the
// reserve bench and moves players between those groups.
package roster

import "fmt"

type Group string

const (
	TeamA   Group = "team_a"
	TeamB   Group = "team_b"
	Reserve Group = "reserve"
)

// ParseGroup accepts the wire names plus the short "a"/"b" aliases used by
// drop targets on the roster board.
func ParseGroup(raw string) (Group, error) {
	switch raw {
	case string(TeamA), "a", "A":
		return TeamA, nil
	case string(TeamB), "b", "B":
		return TeamB, nil
	case string(Reserve), "bench":
		return Reserve, nil
	default:
		return "", fmt.Errorf("unknown roster group %q", raw)
	}
}

func (g Group) Valid() bool {
	return g == TeamA || g == TeamB || g == Reserve
}

// Confirmed reports the confirmation flag a player carries while in g.
func (g Group) Confirmed() bool {
	return g == TeamA || g == TeamB
}

func (g Group) Label() string {
	switch g {
	case TeamA:
		return "Team A"
	case TeamB:
		return "Team B"
	case Reserve:
		return "the reserve"
	default:
		return string(g)
	}
}

type Player struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsConfirmed bool   `json:"isConfirmed"`
	IsAdmin     bool   `json:"isAdmin"`
	Avatar      string `json:"avatar,omitempty"`
}

// Notification describes a completed move. It is handed to the Notifier
// after the lists have been updated.
type Notification struct {
	PlayerID   string
	PlayerName string
	From       Group
	To         Group
}

func (n Notification) Message() string {
	return fmt.Sprintf("%s moved to %s", n.PlayerName, n.To.Label())
}

type Notifier interface {
	Notify(Notification)
}

type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type Snapshot struct {
	TeamA   []Player `json:"teamA"`
	TeamB   []Player `json:"teamB"`
	Reserve []Player `json:"reserve"`
}

// Capacity returns the number of slots a renderer should draw for each team.
// The allocator itself never enforces it.
func Capacity(maxPlayers int) (teamA, teamB int) {
	if maxPlayers <= 0 {
		return 0, 0
	}
	return (maxPlayers + 1) / 2, maxPlayers / 2
}
