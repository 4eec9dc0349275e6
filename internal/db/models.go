package db

import (
	"database/sql"
	"time"
)

type Field struct {
	ID        int64          `json:"id"`
	Slug      string         `json:"slug"`
	Name      string         `json:"name"`
	Address   string         `json:"address"`
	Surface   string         `json:"surface"`
	Format    string         `json:"format"`
	SourceURL sql.NullString `json:"-"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type Event struct {
	ID         string
	Title      string
	FieldID    sql.NullInt64
	StartsAt   time.Time
	MaxPlayers int64
	HostName   string
	HostEmail  sql.NullString
	Status     string
	CreatedAt  time.Time
}

type EventPlayer struct {
	ID          string
	EventID     string
	Name        string
	Email       sql.NullString
	Phone       sql.NullString
	IsConfirmed bool
	IsAdmin     bool
	Avatar      sql.NullString
	InvitedBy   sql.NullString
	JoinedAt    time.Time
	Position    int64
}

type RosterMove struct {
	ID        int64
	EventID   string
	PlayerID  string
	FromGroup string
	ToGroup   string
	CreatedAt time.Time
}

// ReminderRecipient is a confirmed player with an email address whose event
// starts inside the reminder window.
type ReminderRecipient struct {
	EventID     string
	EventTitle  string
	StartsAt    time.Time
	FieldName   sql.NullString
	PlayerID    string
	PlayerName  string
	PlayerEmail string
}
