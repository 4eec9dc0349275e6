package db

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx so Queries can run inside or
// outside a transaction.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Fields

const upsertField = `
INSERT INTO fields (slug, name, address, surface, format, source_url, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (slug) DO UPDATE SET
    name = excluded.name,
    address = excluded.address,
    surface = excluded.surface,
    format = excluded.format,
    source_url = excluded.source_url,
    updated_at = excluded.updated_at
RETURNING id, slug, name, address, surface, format, source_url, updated_at
`

type UpsertFieldParams struct {
	Slug      string
	Name      string
	Address   string
	Surface   string
	Format    string
	SourceURL sql.NullString
	UpdatedAt time.Time
}

func (q *Queries) UpsertField(ctx context.Context, arg UpsertFieldParams) (Field, error) {
	row := q.db.QueryRowContext(ctx, upsertField,
		arg.Slug, arg.Name, arg.Address, arg.Surface, arg.Format, arg.SourceURL, arg.UpdatedAt,
	)
	return scanField(row)
}

const getField = `
SELECT id, slug, name, address, surface, format, source_url, updated_at
FROM fields WHERE id = ?
`

func (q *Queries) GetField(ctx context.Context, id int64) (Field, error) {
	return scanField(q.db.QueryRowContext(ctx, getField, id))
}

const getFieldBySlug = `
SELECT id, slug, name, address, surface, format, source_url, updated_at
FROM fields WHERE slug = ?
`

func (q *Queries) GetFieldBySlug(ctx context.Context, slug string) (Field, error) {
	return scanField(q.db.QueryRowContext(ctx, getFieldBySlug, slug))
}

const listFields = `
SELECT id, slug, name, address, surface, format, source_url, updated_at
FROM fields ORDER BY name, id
`

func (q *Queries) ListFields(ctx context.Context) ([]Field, error) {
	rows, err := q.db.QueryContext(ctx, listFields)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Field
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanField(row rowScanner) (Field, error) {
	var f Field
	err := row.Scan(&f.ID, &f.Slug, &f.Name, &f.Address, &f.Surface, &f.Format, &f.SourceURL, &f.UpdatedAt)
	return f, err
}

// Events

const createEvent = `
INSERT INTO events (id, title, field_id, starts_at, max_players, host_name, host_email, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, 'open', ?)
RETURNING id, title, field_id, starts_at, max_players, host_name, host_email, status, created_at
`

type CreateEventParams struct {
	ID         string
	Title      string
	FieldID    sql.NullInt64
	StartsAt   time.Time
	MaxPlayers int64
	HostName   string
	HostEmail  sql.NullString
	CreatedAt  time.Time
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	row := q.db.QueryRowContext(ctx, createEvent,
		arg.ID, arg.Title, arg.FieldID, arg.StartsAt, arg.MaxPlayers, arg.HostName, arg.HostEmail, arg.CreatedAt,
	)
	return scanEvent(row)
}

const getEvent = `
SELECT id, title, field_id, starts_at, max_players, host_name, host_email, status, created_at
FROM events WHERE id = ?
`

func (q *Queries) GetEvent(ctx context.Context, id string) (Event, error) {
	return scanEvent(q.db.QueryRowContext(ctx, getEvent, id))
}

const listUpcomingEvents = `
SELECT id, title, field_id, starts_at, max_players, host_name, host_email, status, created_at
FROM events
WHERE starts_at >= ? AND status = 'open'
ORDER BY starts_at, id
LIMIT ?
`

type ListUpcomingEventsParams struct {
	From  time.Time
	Limit int64
}

func (q *Queries) ListUpcomingEvents(ctx context.Context, arg ListUpcomingEventsParams) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, listUpcomingEvents, arg.From, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const updateEventStatus = `UPDATE events SET status = ? WHERE id = ?`

func (q *Queries) UpdateEventStatus(ctx context.Context, id, status string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateEventStatus, status, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanEvent(row rowScanner) (Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Title, &e.FieldID, &e.StartsAt, &e.MaxPlayers, &e.HostName, &e.HostEmail, &e.Status, &e.CreatedAt)
	return e, err
}

// Players

const createEventPlayer = `
INSERT INTO event_players (id, event_id, name, email, phone, is_confirmed, is_admin, avatar, invited_by, joined_at, position)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
    (SELECT COALESCE(MAX(position), 0) + 1 FROM event_players WHERE event_id = ?))
RETURNING id, event_id, name, email, phone, is_confirmed, is_admin, avatar, invited_by, joined_at, position
`

type CreateEventPlayerParams struct {
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
}

// CreateEventPlayer appends the player after the event's current last
// position.
func (q *Queries) CreateEventPlayer(ctx context.Context, arg CreateEventPlayerParams) (EventPlayer, error) {
	row := q.db.QueryRowContext(ctx, createEventPlayer,
		arg.ID, arg.EventID, arg.Name, arg.Email, arg.Phone, arg.IsConfirmed, arg.IsAdmin,
		arg.Avatar, arg.InvitedBy, arg.JoinedAt, arg.EventID,
	)
	return scanEventPlayer(row)
}

const getEventPlayer = `
SELECT id, event_id, name, email, phone, is_confirmed, is_admin, avatar, invited_by, joined_at, position
FROM event_players WHERE event_id = ? AND id = ?
`

func (q *Queries) GetEventPlayer(ctx context.Context, eventID, playerID string) (EventPlayer, error) {
	return scanEventPlayer(q.db.QueryRowContext(ctx, getEventPlayer, eventID, playerID))
}

const listEventPlayers = `
SELECT id, event_id, name, email, phone, is_confirmed, is_admin, avatar, invited_by, joined_at, position
FROM event_players WHERE event_id = ?
ORDER BY position
`

func (q *Queries) ListEventPlayers(ctx context.Context, eventID string) ([]EventPlayer, error) {
	rows, err := q.db.QueryContext(ctx, listEventPlayers, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []EventPlayer
	for rows.Next() {
		p, err := scanEventPlayer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const countEventPlayers = `
SELECT
    COUNT(*),
    COALESCE(SUM(CASE WHEN is_confirmed THEN 1 ELSE 0 END), 0)
FROM event_players WHERE event_id = ?
`

type EventPlayerCounts struct {
	Total     int64
	Confirmed int64
}

func (q *Queries) CountEventPlayers(ctx context.Context, eventID string) (EventPlayerCounts, error) {
	var c EventPlayerCounts
	err := q.db.QueryRowContext(ctx, countEventPlayers, eventID).Scan(&c.Total, &c.Confirmed)
	return c, err
}

const updatePlayerConfirmed = `
UPDATE event_players SET is_confirmed = ? WHERE event_id = ? AND id = ?
`

type UpdatePlayerConfirmedParams struct {
	EventID     string
	PlayerID    string
	IsConfirmed bool
}

func (q *Queries) UpdatePlayerConfirmed(ctx context.Context, arg UpdatePlayerConfirmedParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updatePlayerConfirmed, arg.IsConfirmed, arg.EventID, arg.PlayerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteEventPlayer = `DELETE FROM event_players WHERE event_id = ? AND id = ?`

func (q *Queries) DeleteEventPlayer(ctx context.Context, eventID, playerID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEventPlayer, eventID, playerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanEventPlayer(row rowScanner) (EventPlayer, error) {
	var p EventPlayer
	err := row.Scan(&p.ID, &p.EventID, &p.Name, &p.Email, &p.Phone, &p.IsConfirmed, &p.IsAdmin,
		&p.Avatar, &p.InvitedBy, &p.JoinedAt, &p.Position)
	return p, err
}

// Roster moves

const createRosterMove = `
INSERT INTO roster_moves (event_id, player_id, from_group, to_group, created_at)
VALUES (?, ?, ?, ?, ?)
`

type CreateRosterMoveParams struct {
	EventID   string
	PlayerID  string
	FromGroup string
	ToGroup   string
	CreatedAt time.Time
}

func (q *Queries) CreateRosterMove(ctx context.Context, arg CreateRosterMoveParams) error {
	_, err := q.db.ExecContext(ctx, createRosterMove, arg.EventID, arg.PlayerID, arg.FromGroup, arg.ToGroup, arg.CreatedAt)
	return err
}

const listRosterMoves = `
SELECT id, event_id, player_id, from_group, to_group, created_at
FROM roster_moves WHERE event_id = ?
ORDER BY id
`

func (q *Queries) ListRosterMoves(ctx context.Context, eventID string) ([]RosterMove, error) {
	rows, err := q.db.QueryContext(ctx, listRosterMoves, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RosterMove
	for rows.Next() {
		var m RosterMove
		if err := rows.Scan(&m.ID, &m.EventID, &m.PlayerID, &m.FromGroup, &m.ToGroup, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// Reminders

const listReminderRecipients = `
SELECT e.id, e.title, e.starts_at, f.name, p.id, p.name, p.email
FROM events e
JOIN event_players p ON p.event_id = e.id
LEFT JOIN fields f ON f.id = e.field_id
LEFT JOIN event_reminders r ON r.event_id = e.id AND r.player_id = p.id
WHERE e.status = 'open'
  AND e.starts_at >= ? AND e.starts_at <= ?
  AND p.is_confirmed = 1
  AND p.email IS NOT NULL AND p.email != ''
  AND r.player_id IS NULL
ORDER BY e.starts_at, p.position
`

type ListReminderRecipientsParams struct {
	From time.Time
	To   time.Time
}

func (q *Queries) ListReminderRecipients(ctx context.Context, arg ListReminderRecipientsParams) ([]ReminderRecipient, error) {
	rows, err := q.db.QueryContext(ctx, listReminderRecipients, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ReminderRecipient
	for rows.Next() {
		var r ReminderRecipient
		if err := rows.Scan(&r.EventID, &r.EventTitle, &r.StartsAt, &r.FieldName,
			&r.PlayerID, &r.PlayerName, &r.PlayerEmail); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const markReminderSent = `
INSERT INTO event_reminders (event_id, player_id, sent_at)
VALUES (?, ?, ?)
ON CONFLICT (event_id, player_id) DO NOTHING
`

func (q *Queries) MarkReminderSent(ctx context.Context, eventID, playerID string, sentAt time.Time) error {
	_, err := q.db.ExecContext(ctx, markReminderSent, eventID, playerID, sentAt)
	return err
}
