// Package events manages match events, their players and the per-event
// roster allocator.
package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/PitchMatch/internal/db"
	"github.com/codr1/PitchMatch/internal/notify"
	"github.com/codr1/PitchMatch/internal/phone"
	"github.com/codr1/PitchMatch/internal/roster"
)

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrEventFull      = errors.New("event is full")
	ErrEventClosed    = errors.New("event is not open")
	ErrInvalidInput   = errors.New("invalid input")
)

const (
	MinPlayers = 2
	MaxPlayers = 22

	// Guests added by friends may fill the reserve up to this multiple of
	// maxPlayers.
	friendCapacityFactor = 2
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RoomResizer receives new team sizes after roster changes.
type RoomResizer interface {
	Resize(eventID string, teamA, teamB int) bool
}

type Config struct {
	// DefaultRegion is used to parse national phone numbers.
	DefaultRegion string
	Clock         Clock
}

type Service struct {
	db     *db.DB
	sink   notify.Sink
	rooms  RoomResizer
	clock  Clock
	region string
	logger zerolog.Logger

	mu      sync.Mutex
	rosters map[string]*eventRoster
}

// eventRoster is the cached allocator of one event. mu serializes every
// roster operation of the event, including the database writes that go
// with it.
type eventRoster struct {
	mu         sync.Mutex
	alloc      *roster.Allocator
	maxPlayers int
	notes      []roster.Notification
}

// NewService wires the service. sink and rooms may be nil.
func NewService(database *db.DB, sink notify.Sink, rooms RoomResizer, cfg Config) *Service {
	if cfg.Clock == nil {
		cfg.Clock = realClock{}
	}
	if cfg.DefaultRegion == "" {
		cfg.DefaultRegion = "GB"
	}
	return &Service{
		db:      database,
		sink:    sink,
		rooms:   rooms,
		clock:   cfg.Clock,
		region:  cfg.DefaultRegion,
		logger:  log.With().Str("component", "events").Logger(),
		rosters: make(map[string]*eventRoster),
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Create stores a new event with the host as its first confirmed admin.
func (s *Service) Create(ctx context.Context, params CreateEventParams) (Event, error) {
	title := strings.TrimSpace(params.Title)
	hostName := strings.TrimSpace(params.HostName)
	hostEmail := normalizeEmail(params.HostEmail)
	now := s.clock.Now().UTC()

	switch {
	case title == "":
		return Event{}, invalid("title is required")
	case hostName == "":
		return Event{}, invalid("host name is required")
	case params.MaxPlayers < MinPlayers || params.MaxPlayers > MaxPlayers:
		return Event{}, invalid("max players must be between %d and %d", MinPlayers, MaxPlayers)
	case !params.StartsAt.After(now):
		return Event{}, invalid("kickoff must be in the future")
	}

	var fieldID sql.NullInt64
	if params.FieldID != nil {
		fieldID = sql.NullInt64{Int64: *params.FieldID, Valid: true}
	}

	var created db.Event
	err := s.db.RunInTx(ctx, func(tx *db.DB) error {
		if fieldID.Valid {
			if _, err := tx.Queries.GetField(ctx, fieldID.Int64); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return invalid("field %d does not exist", fieldID.Int64)
				}
				return fmt.Errorf("load field: %w", err)
			}
		}

		var err error
		created, err = tx.Queries.CreateEvent(ctx, db.CreateEventParams{
			ID:         uuid.NewString(),
			Title:      title,
			FieldID:    fieldID,
			StartsAt:   params.StartsAt.UTC().Truncate(time.Second),
			MaxPlayers: int64(params.MaxPlayers),
			HostName:   hostName,
			HostEmail:  nullString(hostEmail),
			CreatedAt:  now.Truncate(time.Second),
		})
		if err != nil {
			return fmt.Errorf("create event: %w", err)
		}

		_, err = tx.Queries.CreateEventPlayer(ctx, db.CreateEventPlayerParams{
			ID:          uuid.NewString(),
			EventID:     created.ID,
			Name:        hostName,
			Email:       nullString(hostEmail),
			IsConfirmed: true,
			IsAdmin:     true,
			JoinedAt:    now.Truncate(time.Second),
		})
		if err != nil {
			return fmt.Errorf("create host player: %w", err)
		}
		return nil
	})
	if err != nil {
		return Event{}, err
	}

	s.logger.Info().
		Str("event_id", created.ID).
		Int64("max_players", created.MaxPlayers).
		Time("starts_at", created.StartsAt).
		Msg("Event created")

	return s.Get(ctx, created.ID)
}

// Get returns an event with its player counts.
func (s *Service) Get(ctx context.Context, eventID string) (Event, error) {
	row, err := s.db.Queries.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Event{}, ErrEventNotFound
		}
		return Event{}, fmt.Errorf("load event: %w", err)
	}
	return s.withCounts(ctx, row)
}

func (s *Service) withCounts(ctx context.Context, row db.Event) (Event, error) {
	counts, err := s.db.Queries.CountEventPlayers(ctx, row.ID)
	if err != nil {
		return Event{}, fmt.Errorf("count players: %w", err)
	}
	ev := eventFromRow(row)
	ev.PlayerCount = int(counts.Total)
	ev.ConfirmedCount = int(counts.Confirmed)
	return ev, nil
}

// ListUpcoming returns open events starting at or after from, soonest first.
func (s *Service) ListUpcoming(ctx context.Context, from time.Time, limit int) ([]Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.db.Queries.ListUpcomingEvents(ctx, db.ListUpcomingEventsParams{
		From:  from.UTC(),
		Limit: int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]Event, 0, len(rows))
	for _, row := range rows {
		ev, err := s.withCounts(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

// Cancel marks the event cancelled and forgets its roster.
func (s *Service) Cancel(ctx context.Context, eventID string) error {
	s.mu.Lock()
	er, cached := s.rosters[eventID]
	s.mu.Unlock()
	if cached {
		// Wait out roster changes that already passed requireOpen.
		er.mu.Lock()
		defer er.mu.Unlock()
	}

	n, err := s.db.Queries.UpdateEventStatus(ctx, eventID, StatusCancelled)
	if err != nil {
		return fmt.Errorf("cancel event: %w", err)
	}
	if n == 0 {
		return ErrEventNotFound
	}
	s.mu.Lock()
	delete(s.rosters, eventID)
	s.mu.Unlock()
	s.logger.Info().Str("event_id", eventID).Msg("Event cancelled")
	return nil
}

// Players returns the event's players in join order.
func (s *Service) Players(ctx context.Context, eventID string) ([]Player, error) {
	if _, err := s.db.Queries.GetEvent(ctx, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("load event: %w", err)
	}
	rows, err := s.db.Queries.ListEventPlayers(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	out := make([]Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerFromRow(row))
	}
	return out, nil
}

// Join adds a player. The player is confirmed while the confirmed count is
// below maxPlayers and goes to the reserve otherwise; joining never fails
// for capacity.
func (s *Service) Join(ctx context.Context, eventID string, params JoinParams) (Player, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return Player{}, invalid("name is required")
	}
	var phoneNumber string
	if raw := strings.TrimSpace(params.Phone); raw != "" {
		normalized, err := phone.Normalize(raw, s.region)
		if err != nil {
			return Player{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		phoneNumber = normalized
	}

	er, err := s.roster(ctx, eventID)
	if err != nil {
		return Player{}, err
	}
	er.mu.Lock()
	defer er.mu.Unlock()

	var created db.EventPlayer
	err = s.db.RunInTx(ctx, func(tx *db.DB) error {
		if err := requireOpen(ctx, tx.Queries, eventID); err != nil {
			return err
		}
		counts, err := tx.Queries.CountEventPlayers(ctx, eventID)
		if err != nil {
			return fmt.Errorf("count players: %w", err)
		}
		created, err = tx.Queries.CreateEventPlayer(ctx, db.CreateEventPlayerParams{
			ID:          uuid.NewString(),
			EventID:     eventID,
			Name:        name,
			Email:       nullString(normalizeEmail(params.Email)),
			Phone:       nullString(phoneNumber),
			IsConfirmed: counts.Confirmed < int64(er.maxPlayers),
			Avatar:      nullString(strings.TrimSpace(params.Avatar)),
			JoinedAt:    s.clock.Now().UTC().Truncate(time.Second),
		})
		if err != nil {
			return fmt.Errorf("create player: %w", err)
		}
		return nil
	})
	if err != nil {
		return Player{}, err
	}

	player := playerFromRow(created)
	msg := fmt.Sprintf("%s joined", player.Name)
	if !player.IsConfirmed {
		msg = fmt.Sprintf("%s joined the reserve", player.Name)
	}
	s.afterListChange(ctx, eventID, er, notify.Toast{Kind: notify.KindJoin, PlayerID: player.ID, Message: msg})
	return player, nil
}

// Leave removes a player from the event.
func (s *Service) Leave(ctx context.Context, eventID, playerID string) error {
	er, err := s.roster(ctx, eventID)
	if err != nil {
		return err
	}
	er.mu.Lock()
	defer er.mu.Unlock()

	var name string
	err = s.db.RunInTx(ctx, func(tx *db.DB) error {
		if err := requireOpen(ctx, tx.Queries, eventID); err != nil {
			return err
		}
		p, err := tx.Queries.GetEventPlayer(ctx, eventID, playerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrPlayerNotFound
			}
			return fmt.Errorf("load player: %w", err)
		}
		name = p.Name
		if _, err := tx.Queries.DeleteEventPlayer(ctx, eventID, playerID); err != nil {
			return fmt.Errorf("delete player: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.afterListChange(ctx, eventID, er, notify.Toast{Kind: notify.KindLeave, PlayerID: playerID, Message: name + " left"})
	return nil
}

// AddFriend adds an unconfirmed guest invited by hostPlayerID.
func (s *Service) AddFriend(ctx context.Context, eventID, hostPlayerID, name string) (Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Player{}, invalid("friend name is required")
	}

	er, err := s.roster(ctx, eventID)
	if err != nil {
		return Player{}, err
	}
	er.mu.Lock()
	defer er.mu.Unlock()

	var created db.EventPlayer
	var hostName string
	err = s.db.RunInTx(ctx, func(tx *db.DB) error {
		if err := requireOpen(ctx, tx.Queries, eventID); err != nil {
			return err
		}
		host, err := tx.Queries.GetEventPlayer(ctx, eventID, hostPlayerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrPlayerNotFound
			}
			return fmt.Errorf("load inviting player: %w", err)
		}
		hostName = host.Name

		counts, err := tx.Queries.CountEventPlayers(ctx, eventID)
		if err != nil {
			return fmt.Errorf("count players: %w", err)
		}
		if counts.Total >= int64(er.maxPlayers*friendCapacityFactor) {
			return ErrEventFull
		}

		created, err = tx.Queries.CreateEventPlayer(ctx, db.CreateEventPlayerParams{
			ID:        uuid.NewString(),
			EventID:   eventID,
			Name:      name,
			InvitedBy: sql.NullString{String: hostPlayerID, Valid: true},
			JoinedAt:  s.clock.Now().UTC().Truncate(time.Second),
		})
		if err != nil {
			return fmt.Errorf("create guest: %w", err)
		}
		return nil
	})
	if err != nil {
		return Player{}, err
	}

	player := playerFromRow(created)
	s.afterListChange(ctx, eventID, er, notify.Toast{
		Kind:     notify.KindFriend,
		PlayerID: player.ID,
		Message:  fmt.Sprintf("%s added %s to the reserve", hostName, player.Name),
	})
	return player, nil
}

// Roster returns the current three groups of the event.
func (s *Service) Roster(ctx context.Context, eventID string) (RosterView, error) {
	er, err := s.roster(ctx, eventID)
	if err != nil {
		return RosterView{}, err
	}
	er.mu.Lock()
	defer er.mu.Unlock()
	return rosterView(eventID, er), nil
}

// BeginMove records the drag payload for the event.
func (s *Service) BeginMove(ctx context.Context, eventID, playerID string, source roster.Group) error {
	er, err := s.roster(ctx, eventID)
	if err != nil {
		return err
	}
	er.mu.Lock()
	defer er.mu.Unlock()
	if err := requireOpen(ctx, s.db.Queries, eventID); err != nil {
		return err
	}
	er.alloc.BeginMove(playerID, source)
	return nil
}

// CancelMove drops the pending drag payload.
func (s *Service) CancelMove(ctx context.Context, eventID string) error {
	er, err := s.roster(ctx, eventID)
	if err != nil {
		return err
	}
	er.mu.Lock()
	defer er.mu.Unlock()
	er.alloc.CancelMove()
	return nil
}

// CompleteMove drops the pending payload on target. It reports whether a
// player moved; stale payloads are not errors.
func (s *Service) CompleteMove(ctx context.Context, eventID string, target roster.Group) (bool, error) {
	er, err := s.roster(ctx, eventID)
	if err != nil {
		return false, err
	}
	er.mu.Lock()
	defer er.mu.Unlock()

	if err := requireOpen(ctx, s.db.Queries, eventID); err != nil {
		return false, err
	}
	moved := er.alloc.CompleteMove(target)
	return moved, s.commitMoves(ctx, eventID, er)
}

// Move is BeginMove followed by CompleteMove.
func (s *Service) Move(ctx context.Context, eventID, playerID string, source, target roster.Group) (bool, error) {
	er, err := s.roster(ctx, eventID)
	if err != nil {
		return false, err
	}
	er.mu.Lock()
	defer er.mu.Unlock()

	if err := requireOpen(ctx, s.db.Queries, eventID); err != nil {
		return false, err
	}
	moved := er.alloc.Move(playerID, source, target)
	return moved, s.commitMoves(ctx, eventID, er)
}

// commitMoves persists the notifications the allocator emitted, then
// publishes them and resizes the live pitch. Caller holds er.mu.
func (s *Service) commitMoves(ctx context.Context, eventID string, er *eventRoster) error {
	notes := er.notes
	er.notes = nil
	if len(notes) == 0 {
		return nil
	}

	now := s.clock.Now().UTC()
	err := s.db.RunInTx(ctx, func(tx *db.DB) error {
		for _, n := range notes {
			if _, err := tx.Queries.UpdatePlayerConfirmed(ctx, db.UpdatePlayerConfirmedParams{
				EventID:     eventID,
				PlayerID:    n.PlayerID,
				IsConfirmed: n.To.Confirmed(),
			}); err != nil {
				return fmt.Errorf("update player: %w", err)
			}
			if err := tx.Queries.CreateRosterMove(ctx, db.CreateRosterMoveParams{
				EventID:   eventID,
				PlayerID:  n.PlayerID,
				FromGroup: string(n.From),
				ToGroup:   string(n.To),
				CreatedAt: now,
			}); err != nil {
				return fmt.Errorf("record move: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		// The allocator already moved the player; rebuild it from storage.
		if reloadErr := s.reload(ctx, eventID, er); reloadErr != nil {
			s.logger.Error().Err(reloadErr).Str("event_id", eventID).Msg("Failed to reload roster after move error")
		}
		return err
	}

	for _, n := range notes {
		s.publish(ctx, notify.MoveToast(eventID, n, now))
	}
	s.resize(eventID, er)
	return nil
}

// roster returns the cached allocator for the event, loading it on first
// use.
func (s *Service) roster(ctx context.Context, eventID string) (*eventRoster, error) {
	s.mu.Lock()
	er, ok := s.rosters[eventID]
	s.mu.Unlock()
	if ok {
		return er, nil
	}

	event, err := s.db.Queries.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("load event: %w", err)
	}

	er = &eventRoster{maxPlayers: int(event.MaxPlayers)}
	er.alloc = roster.NewAllocator(roster.NotifierFunc(func(n roster.Notification) {
		er.notes = append(er.notes, n)
	}))
	if err := s.reload(ctx, eventID, er); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another request may have loaded it meanwhile; keep the first.
	if existing, ok := s.rosters[eventID]; ok {
		return existing, nil
	}
	s.rosters[eventID] = er
	return er, nil
}

// reload re-derives the teams from the stored player list.
func (s *Service) reload(ctx context.Context, eventID string, er *eventRoster) error {
	rows, err := s.db.Queries.ListEventPlayers(ctx, eventID)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	players := make([]roster.Player, 0, len(rows))
	for _, row := range rows {
		players = append(players, playerFromRow(row).RosterPlayer())
	}
	er.alloc.Initialize(players)
	er.notes = nil
	return nil
}

func (s *Service) afterListChange(ctx context.Context, eventID string, er *eventRoster, toast notify.Toast) {
	if err := s.reload(ctx, eventID, er); err != nil {
		s.logger.Error().Err(err).Str("event_id", eventID).Msg("Failed to reload roster")
		s.mu.Lock()
		delete(s.rosters, eventID)
		s.mu.Unlock()
	}
	toast.EventID = eventID
	toast.At = s.clock.Now().UTC()
	s.publish(ctx, toast)
	s.resize(eventID, er)
}

func (s *Service) publish(ctx context.Context, toast notify.Toast) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Send(ctx, toast); err != nil {
		s.logger.Warn().Err(err).Str("event_id", toast.EventID).Str("kind", string(toast.Kind)).Msg("Toast delivery failed")
	}
}

func (s *Service) resize(eventID string, er *eventRoster) {
	if s.rooms == nil {
		return
	}
	a, b := er.alloc.TeamSizes()
	s.rooms.Resize(eventID, a, b)
}

// TeamSizes reports the event's current team sizes and maxPlayers. Cancelled
// events return ErrEventClosed.
func (s *Service) TeamSizes(ctx context.Context, eventID string) (teamA, teamB, maxPlayers int, err error) {
	er, err := s.roster(ctx, eventID)
	if err != nil {
		return 0, 0, 0, err
	}
	er.mu.Lock()
	defer er.mu.Unlock()
	if err := requireOpen(ctx, s.db.Queries, eventID); err != nil {
		return 0, 0, 0, err
	}
	a, b := er.alloc.TeamSizes()
	return a, b, er.maxPlayers, nil
}

// PlayerGroup reports which group the player currently sits in.
func (s *Service) PlayerGroup(ctx context.Context, eventID, playerID string) (roster.Group, bool, error) {
	er, err := s.roster(ctx, eventID)
	if err != nil {
		return "", false, err
	}
	er.mu.Lock()
	defer er.mu.Unlock()
	g, ok := er.alloc.Locate(playerID)
	return g, ok, nil
}

func requireOpen(ctx context.Context, q *db.Queries, eventID string) error {
	event, err := q.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		return fmt.Errorf("load event: %w", err)
	}
	if event.Status != StatusOpen {
		return ErrEventClosed
	}
	return nil
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
