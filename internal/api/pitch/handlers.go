// internal/api/pitch/handlers.go
package pitch

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/codr1/PitchMatch/internal/api/apiutil"
	"github.com/codr1/PitchMatch/internal/events"
	"github.com/codr1/PitchMatch/internal/pitch"
	"github.com/codr1/PitchMatch/internal/room"
)

const (
	pitchQueryTimeout = 5 * time.Second
	wsWriteWait       = 10 * time.Second
	wsPongWait        = 60 * time.Second
	wsPingPeriod      = 25 * time.Second
)

// TeamSizer reports an event's current team sizes.
type TeamSizer interface {
	TeamSizes(ctx context.Context, eventID string) (teamA, teamB, maxPlayers int, err error)
}

type Handler struct {
	rooms    *room.Manager
	teams    TeamSizer
	upgrader websocket.Upgrader
}

// NewHandler serves the live simulation endpoints. checkOrigin may be nil to
// accept same-host websocket upgrades only.
func NewHandler(rooms *room.Manager, teams TeamSizer, checkOrigin func(r *http.Request) bool) *Handler {
	return &Handler{
		rooms: rooms,
		teams: teams,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/v1/pitch/rooms", h.handleListRooms)
	r.Route("/api/v1/events/{eventID}/pitch", func(r chi.Router) {
		r.Post("/", h.handleOpen)
		r.Get("/", h.handleSnapshot)
		r.Delete("/", h.handleClose)
		r.Get("/explain", h.handleExplain)
		r.Get("/ws", h.handleStream)
	})
}

type openResponse struct {
	EventID  string         `json:"eventId"`
	Snapshot pitch.Snapshot `json:"snapshot"`
}

// POST /api/v1/events/{eventID}/pitch
func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	ctx, cancel := context.WithTimeout(r.Context(), pitchQueryTimeout)
	defer cancel()

	teamA, teamB, maxPlayers, err := h.teams.TeamSizes(ctx, eventID)
	if err != nil {
		switch {
		case errors.Is(err, events.ErrEventNotFound):
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusNotFound, Message: "Event not found", Err: err})
		case errors.Is(err, events.ErrEventClosed):
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusConflict, Message: "Event is cancelled", Err: err})
		default:
			apiutil.WriteError(w, r, err)
		}
		return
	}

	rm := h.rooms.Open(eventID, teamA, teamB, maxPlayers)
	if rm == nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("Event ID is required", nil))
		return
	}
	log.Ctx(r.Context()).Info().Str("event_id", eventID).Int("team_a", teamA).Int("team_b", teamB).Msg("Pitch simulation opened")
	writeJSON(w, r, http.StatusCreated, openResponse{EventID: eventID, Snapshot: rm.Snapshot()})
}

// GET /api/v1/events/{eventID}/pitch
func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.rooms.Snapshot(chi.URLParam(r, "eventID"))
	if err != nil {
		apiutil.WriteError(w, r, roomError(err))
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

// GET /api/v1/events/{eventID}/pitch/explain
func (h *Handler) handleExplain(w http.ResponseWriter, r *http.Request) {
	ex, err := h.rooms.Explain(chi.URLParam(r, "eventID"))
	if err != nil {
		apiutil.WriteError(w, r, roomError(err))
		return
	}
	writeJSON(w, r, http.StatusOK, ex)
}

// DELETE /api/v1/events/{eventID}/pitch
func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	if !h.rooms.Close(chi.URLParam(r, "eventID")) {
		apiutil.WriteError(w, r, roomError(room.ErrRoomNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/pitch/rooms
func (h *Handler) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.rooms.ListRooms())
}

// GET /api/v1/events/{eventID}/pitch/ws
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	logger := log.Ctx(r.Context()).With().Str("event_id", eventID).Logger()

	frames, unsubscribe, err := h.rooms.Subscribe(eventID)
	if err != nil {
		apiutil.WriteError(w, r, roomError(err))
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()
	logger.Debug().Msg("Pitch viewer connected")

	// Viewers only listen; the read loop exists to notice disconnects and
	// answer pings.
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			logger.Debug().Msg("Pitch viewer disconnected")
			return
		case <-r.Context().Done():
			return
		case snap, ok := <-frames:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "room closed"))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(snap); err != nil {
				logger.Debug().Err(err).Msg("Pitch frame write failed")
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func roomError(err error) error {
	if errors.Is(err, room.ErrRoomNotFound) {
		return apiutil.HandlerError{Status: http.StatusNotFound, Message: "No live simulation for this event", Err: err}
	}
	return err
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := apiutil.WriteJSON(w, status, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write JSON response")
	}
}
