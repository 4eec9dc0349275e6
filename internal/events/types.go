package events

import (
	"time"

	"github.com/codr1/PitchMatch/internal/db"
	"github.com/codr1/PitchMatch/internal/roster"
)

const (
	StatusOpen      = "open"
	StatusCancelled = "cancelled"
)

type Event struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	FieldID        *int64    `json:"fieldId,omitempty"`
	StartsAt       time.Time `json:"startsAt"`
	MaxPlayers     int       `json:"maxPlayers"`
	HostName       string    `json:"hostName"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	PlayerCount    int       `json:"playerCount"`
	ConfirmedCount int       `json:"confirmedCount"`
}

type Player struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"-"`
	Phone       string    `json:"-"`
	IsConfirmed bool      `json:"isConfirmed"`
	IsAdmin     bool      `json:"isAdmin"`
	Avatar      string    `json:"avatar,omitempty"`
	InvitedBy   string    `json:"invitedBy,omitempty"`
	JoinedAt    time.Time `json:"joinedAt"`
}

func (p Player) RosterPlayer() roster.Player {
	return roster.Player{
		ID:          p.ID,
		Name:        p.Name,
		IsConfirmed: p.IsConfirmed,
		IsAdmin:     p.IsAdmin,
		Avatar:      p.Avatar,
	}
}

type CreateEventParams struct {
	Title      string
	FieldID    *int64
	StartsAt   time.Time
	MaxPlayers int
	HostName   string
	HostEmail  string
}

type JoinParams struct {
	Name   string
	Email  string
	Phone  string
	Avatar string
}

// PendingMove is the drag payload currently held by the event's allocator.
type PendingMove struct {
	PlayerID string       `json:"playerId"`
	Source   roster.Group `json:"source"`
}

type RosterView struct {
	EventID    string          `json:"eventId"`
	MaxPlayers int             `json:"maxPlayers"`
	CapacityA  int             `json:"capacityA"`
	CapacityB  int             `json:"capacityB"`
	TeamA      []roster.Player `json:"teamA"`
	TeamB      []roster.Player `json:"teamB"`
	Reserve    []roster.Player `json:"reserve"`
	Pending    *PendingMove    `json:"pending,omitempty"`
}

func rosterView(eventID string, er *eventRoster) RosterView {
	snap := er.alloc.Snapshot()
	capA, capB := roster.Capacity(er.maxPlayers)
	view := RosterView{
		EventID:    eventID,
		MaxPlayers: er.maxPlayers,
		CapacityA:  capA,
		CapacityB:  capB,
		TeamA:      snap.TeamA,
		TeamB:      snap.TeamB,
		Reserve:    snap.Reserve,
	}
	if id, src, ok := er.alloc.Pending(); ok {
		view.Pending = &PendingMove{PlayerID: id, Source: src}
	}
	return view
}

func eventFromRow(row db.Event) Event {
	ev := Event{
		ID:         row.ID,
		Title:      row.Title,
		StartsAt:   row.StartsAt.UTC(),
		MaxPlayers: int(row.MaxPlayers),
		HostName:   row.HostName,
		Status:     row.Status,
		CreatedAt:  row.CreatedAt.UTC(),
	}
	if row.FieldID.Valid {
		id := row.FieldID.Int64
		ev.FieldID = &id
	}
	return ev
}

func playerFromRow(row db.EventPlayer) Player {
	return Player{
		ID:          row.ID,
		Name:        row.Name,
		Email:       row.Email.String,
		Phone:       row.Phone.String,
		IsConfirmed: row.IsConfirmed,
		IsAdmin:     row.IsAdmin,
		Avatar:      row.Avatar.String,
		InvitedBy:   row.InvitedBy.String,
		JoinedAt:    row.JoinedAt.UTC(),
	}
}
