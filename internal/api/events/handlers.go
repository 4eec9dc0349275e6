// internal/api/events/handlers.go
package events

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/codr1/PitchMatch/internal/api"
	"github.com/codr1/PitchMatch/internal/api/apiutil"
	eventsvc "github.com/codr1/PitchMatch/internal/events"
	"github.com/codr1/PitchMatch/internal/notify"
	"github.com/codr1/PitchMatch/internal/ratelimit"
	"github.com/codr1/PitchMatch/internal/roster"
)

const (
	eventsQueryTimeout = 5 * time.Second
	defaultListLimit   = 50
	maxListLimit       = 200
)

// RoomCloser stops an event's live simulation.
type RoomCloser interface {
	Close(eventID string) bool
}

type Options struct {
	Limiter    *ratelimit.Limiter
	TrustProxy bool
	Toasts     *notify.Broadcaster
	Rooms      RoomCloser
	// Location interprets kickoff times sent without an offset.
	Location *time.Location
}

type Handler struct {
	svc  *eventsvc.Service
	opts Options
	now  func() time.Time
}

func NewHandler(svc *eventsvc.Service, opts Options) *Handler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Handler{svc: svc, opts: opts, now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	limit := func(action string) func(http.Handler) http.Handler {
		return api.WithRateLimit(h.opts.Limiter, action, h.opts.TrustProxy)
	}

	r.Route("/api/v1/events", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.With(limit("create_event")).Post("/", h.handleCreate)

		r.Route("/{eventID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.With(limit("cancel_event")).Delete("/", h.handleCancel)
			r.Get("/roster", h.handleRoster)
			r.Get("/players", h.handlePlayers)
			r.With(limit("join")).Post("/players", h.handleJoin)
			r.With(limit("leave")).Delete("/players/{playerID}", h.handleLeave)
			r.With(limit("add_friend")).Post("/players/{playerID}/friends", h.handleAddFriend)

			r.Group(func(r chi.Router) {
				r.Use(limit("move"))
				r.Post("/moves/begin", h.handleBeginMove)
				r.Post("/moves/complete", h.handleCompleteMove)
				r.Post("/moves", h.handleMove)
				r.Delete("/moves", h.handleCancelMove)
			})

			r.Get("/toasts", h.handleToasts)
		})
	})

	r.Get("/events/{eventID}", h.handleBoard)
}

type createEventRequest struct {
	Title      string `json:"title" validate:"required,max=100"`
	FieldID    *int64 `json:"fieldId" validate:"omitempty,gt=0"`
	StartsAt   string `json:"startsAt" validate:"required"`
	MaxPlayers int    `json:"maxPlayers" validate:"required,min=2,max=22"`
	HostName   string `json:"hostName" validate:"required,max=60"`
	HostEmail  string `json:"hostEmail" validate:"omitempty,email"`
}

type joinRequest struct {
	Name   string `json:"name" validate:"required,max=60"`
	Email  string `json:"email" validate:"omitempty,email"`
	Phone  string `json:"phone" validate:"omitempty,max=32"`
	Avatar string `json:"avatar" validate:"omitempty,max=512"`
}

type friendRequest struct {
	Name string `json:"name" validate:"required,max=60"`
}

type beginMoveRequest struct {
	PlayerID string `json:"playerId" validate:"required"`
	Source   string `json:"source" validate:"required"`
}

type completeMoveRequest struct {
	Target string `json:"target" validate:"required"`
}

type moveRequest struct {
	PlayerID string `json:"playerId" validate:"required"`
	Source   string `json:"source" validate:"required"`
	Target   string `json:"target" validate:"required"`
}

type moveResponse struct {
	Moved  bool                `json:"moved"`
	Roster eventsvc.RosterView `json:"roster"`
}

// GET /api/v1/events
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, err := apiutil.ParseLimit(r.URL.Query().Get("limit"), defaultListLimit, maxListLimit)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err.Error(), err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), eventsQueryTimeout)
	defer cancel()

	list, err := h.svc.ListUpcoming(ctx, h.now().UTC(), limit)
	if err != nil {
		apiutil.WriteError(w, r, serviceError(err))
		return
	}
	if list == nil {
		list = []eventsvc.Event{}
	}
	writeJSON(w, r, http.StatusOK, list)
}

// POST /api/v1/events
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	startsAt, err := apiutil.ParseKickoff(req.StartsAt, h.opts.Location)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err.Error(), err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), eventsQueryTimeout)
	defer cancel()

	event, err := h.svc.Create(ctx, eventsvc.CreateEventParams{
		Title:      req.Title,
		FieldID:    req.FieldID,
		StartsAt:   startsAt,
		MaxPlayers: req.MaxPlayers,
		HostName:   req.HostName,
		HostEmail:  req.HostEmail,
	})
	if err != nil {
		apiutil.WriteError(w, r, serviceError(err))
		return
	}
	log.Ctx(r.Context()).Info().Str("event_id", event.ID).Int("max_players", event.MaxPlayers).Msg("Event created")
	writeJSON(w, r, http.StatusCreated, event)
}

// GET /api/v1/events/{eventID}
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), eventsQueryTimeout)
	defer cancel()

	event, err := h.svc.Get(ctx, chi.URLParam(r, "eventID"))
	if err != nil {
		apiutil.WriteError(w, r, serviceError(err))
		return
	}
	writeJSON(w, r, http.StatusOK, event)
}

// DELETE /api/v1/events/{eventID}
func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	ctx, cancel := context.WithTimeout(r.Context(), eventsQueryTimeout)
	defer cancel()

	if err := h.svc.Cancel(ctx, eventID); err != nil {
		apiutil.WriteError(w, r, serviceError(err))
		return
	}
	if h.opts.Rooms != nil {
		h.opts.Rooms.Close(eventID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/events/{eventID}/roster
func (h *Handler) handleRoster(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), eventsQueryTimeout)
	defer cancel()

	view, err := h.svc.Roster(ctx, chi.URLParam(r, "eventID"))
	if err != nil {
		apiutil.WriteError(w, r, serviceError(err))
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

// GET /api/v1/events/{eventID}/players
func (h *Handler) handlePlayers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), eventsQueryTimeout)
	defer cancel()

	players, err := h.svc.Players(ctx, chi.URLParam(r, "eventID"))
	if err != nil {
		apiutil.WriteError(w, r, serviceError(err))
		return
	}
	if players == nil {
		players = []eventsvc.Player{}
	}
	writeJSON(w, r, http.StatusOK, players)
}

// POST /api/v1/events/{eventID}/players
func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), eventsQueryTimeout)
	defer cancel()

	player, err := h.svc.Join(ctx, chi.URLParam(r, "eventID"), eventsvc.JoinParams{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Avatar: req.Avatar,
	})
	if err != nil {
		apiutil.WriteError(w, r, serviceError(err))
		return
	}
	writeJSON(w, r, http.StatusCreated, player)
}

// DELETE /api/v1/events/{eventID}/players/{playerID}
func (h *Handler) handleLeave(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), eventsQueryTimeout)
	defer cancel()

	if err := h.svc.Leave(ctx, chi.URLParam(r, "eventID"), chi.URLParam(r, "playerID")); err != nil {
		apiutil.WriteError(w, r, serviceError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/events/{eventID}/players/{playerID}/friends
func (h *Handler) handleAddFriend(w http.ResponseWriter, r *http.Request) {
	var req friendRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), eventsQueryTimeout)
	defer cancel()

	guest, err := h.svc.AddFriend(ctx, chi.URLParam(r, "eventID"), chi.URLParam(r, "playerID"), req.Name)
	if err != nil {
		apiutil.WriteError(w, r, serviceError(err))
		return
	}
	writeJSON(w, r, http.StatusCreated, guest)
}

// POST /api/v1/events/{eventID}/moves/begin
func (h *Handler) handleBeginMove(w http.ResponseWriter, r *http.Request) {
	var req beginMoveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	source, ok := parseGroup(w, r, "source", req.Source)
	if !ok {
		return
	}

	eventID := chi.URLParam(r, "eventID")
	ctx, cancel := context.WithTimeout(r.Context(), eventsQueryTimeout)
	defer cancel()

	if err := h.svc.BeginMove(ctx, eventID, req.PlayerID, source); err != nil {
		apiutil.WriteError(w, r, serviceError(err))
		return
	}
	h.writeRoster(ctx, w, r, eventID, http.StatusOK)
}

// POST /api/v1/events/{eventID}/moves/complete
func (h *Handler) handleCompleteMove(w http.ResponseWriter, r *http.Request) {
	var req completeMoveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	target, ok := parseGroup(w, r, "target", req.Target)
	if !ok {
		return
	}

	eventID := chi.URLParam(r, "eventID")
	ctx, cancel := context.WithTimeout(r.Context(), eventsQueryTimeout)
	defer cancel()

	moved, err := h.svc.CompleteMove(ctx, eventID, target)
	if err != nil {
		apiutil.WriteError(w, r, serviceError(err))
		return
	}
	h.writeMove(ctx, w, r, eventID, moved)
}

// POST /api/v1/events/{eventID}/moves
func (h *Handler) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	source, ok := parseGroup(w, r, "source", req.Source)
	if !ok {
		return
	}
	target, ok := parseGroup(w, r, "target", req.Target)
	if !ok {
		return
	}

	eventID := chi.URLParam(r, "eventID")
	ctx, cancel := context.WithTimeout(r.Context(), eventsQueryTimeout)
	defer cancel()

	moved, err := h.svc.Move(ctx, eventID, req.PlayerID, source, target)
	if err != nil {
		apiutil.WriteError(w, r, serviceError(err))
		return
	}
	h.writeMove(ctx, w, r, eventID, moved)
}

// DELETE /api/v1/events/{eventID}/moves
func (h *Handler) handleCancelMove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), eventsQueryTimeout)
	defer cancel()

	if err := h.svc.CancelMove(ctx, chi.URLParam(r, "eventID")); err != nil {
		apiutil.WriteError(w, r, serviceError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeMove(ctx context.Context, w http.ResponseWriter, r *http.Request, eventID string, moved bool) {
	view, err := h.svc.Roster(ctx, eventID)
	if err != nil {
		apiutil.WriteError(w, r, serviceError(err))
		return
	}
	writeJSON(w, r, http.StatusOK, moveResponse{Moved: moved, Roster: view})
}

func (h *Handler) writeRoster(ctx context.Context, w http.ResponseWriter, r *http.Request, eventID string, status int) {
	view, err := h.svc.Roster(ctx, eventID)
	if err != nil {
		apiutil.WriteError(w, r, serviceError(err))
		return
	}
	writeJSON(w, r, status, view)
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := apiutil.DecodeJSON(r, dst); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("Invalid request body", err))
		return false
	}
	if err := apiutil.ValidateRequest(r.Context(), dst); err != nil {
		apiutil.WriteError(w, r, err)
		return false
	}
	return true
}

func parseGroup(w http.ResponseWriter, r *http.Request, field, raw string) (roster.Group, bool) {
	g, err := roster.ParseGroup(strings.TrimSpace(raw))
	if err != nil {
		ferr := apiutil.FieldError{Field: field, Reason: "must be one of team_a, team_b, reserve"}
		apiutil.WriteError(w, r, apiutil.BadRequest(ferr.Error(), err))
		return "", false
	}
	return g, true
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := apiutil.WriteJSON(w, status, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write JSON response")
	}
}

// serviceError maps events service errors onto HTTP statuses.
func serviceError(err error) error {
	switch {
	case errors.Is(err, eventsvc.ErrEventNotFound), errors.Is(err, eventsvc.ErrPlayerNotFound):
		return apiutil.HandlerError{Status: http.StatusNotFound, Message: err.Error(), Err: err}
	case errors.Is(err, eventsvc.ErrInvalidInput):
		return apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err}
	case errors.Is(err, eventsvc.ErrEventFull), errors.Is(err, eventsvc.ErrEventClosed):
		return apiutil.HandlerError{Status: http.StatusConflict, Message: err.Error(), Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return apiutil.HandlerError{Status: http.StatusServiceUnavailable, Message: "Request timed out", Err: err}
	default:
		return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Internal Server Error", Err: err}
	}
}
