package board

import (
	"fmt"
	"time"

	"github.com/codr1/PitchMatch/internal/events"
	"github.com/codr1/PitchMatch/internal/roster"
)

// Board is the template-facing view of an event's roster.
type Board struct {
	Event  events.Event
	Roster events.RosterView
}

func NewBoard(event events.Event, view events.RosterView) Board {
	return Board{Event: event, Roster: view}
}

type Column struct {
	Group    roster.Group
	Title    string
	Players  []roster.Player
	Capacity int
}

// CountLabel renders "3/4" for teams and the plain size for the reserve.
func (c Column) CountLabel() string {
	if c.Group == roster.Reserve {
		return fmt.Sprintf("%d", len(c.Players))
	}
	return fmt.Sprintf("%d/%d", len(c.Players), c.Capacity)
}

func (b Board) Columns() []Column {
	return []Column{
		{Group: roster.TeamA, Title: "Team A", Players: b.Roster.TeamA, Capacity: b.Roster.CapacityA},
		{Group: roster.TeamB, Title: "Team B", Players: b.Roster.TeamB, Capacity: b.Roster.CapacityB},
		{Group: roster.Reserve, Title: "Reserve", Players: b.Roster.Reserve},
	}
}

func (b Board) IsPending(playerID string) bool {
	return b.Roster.Pending != nil && b.Roster.Pending.PlayerID == playerID
}

func (b Board) KickoffLabel() string {
	return b.Event.StartsAt.UTC().Format("Mon Jan 2, 15:04 MST")
}

func (b Board) Cancelled() bool {
	return b.Event.Status == events.StatusCancelled
}

// Initials is shown when a player has no avatar.
func Initials(name string) string {
	var out []rune
	start := true
	for _, r := range name {
		if r == ' ' {
			start = true
			continue
		}
		if start {
			out = append(out, r)
			start = false
			if len(out) == 2 {
				break
			}
		}
	}
	return string(out)
}

func kickoffIn(now, startsAt time.Time) string {
	d := startsAt.Sub(now).Round(time.Minute)
	if d <= 0 {
		return "kicked off"
	}
	if d < time.Hour {
		return fmt.Sprintf("in %d min", int(d.Minutes()))
	}
	return fmt.Sprintf("in %dh %02dm", int(d.Hours()), int(d.Minutes())%60)
}
