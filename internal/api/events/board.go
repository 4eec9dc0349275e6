package events

import (
	"bytes"
	"context"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/codr1/PitchMatch/internal/api/apiutil"
	"github.com/codr1/PitchMatch/internal/api/htmx"
	boardtempl "github.com/codr1/PitchMatch/internal/templates/components/board"
	"github.com/codr1/PitchMatch/internal/templates/layouts"
)

// GET /events/{eventID}
func (h *Handler) handleBoard(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	ctx, cancel := context.WithTimeout(r.Context(), eventsQueryTimeout)
	defer cancel()

	event, err := h.svc.Get(ctx, eventID)
	if err != nil {
		apiutil.WriteError(w, r, serviceError(err))
		return
	}
	view, err := h.svc.Roster(ctx, eventID)
	if err != nil {
		apiutil.WriteError(w, r, serviceError(err))
		return
	}
	board := boardtempl.NewBoard(event, view)

	htmx.VaryOnRequest(w)
	if htmx.IsRequest(r) {
		renderHTMLComponent(r.Context(), w, boardtempl.Fragment(board), "Failed to render roster board")
		return
	}
	page := layouts.Base(event.Title, boardtempl.Page(board, h.now()), nil)
	renderHTMLComponent(r.Context(), w, page, "Failed to render event page")
}

func renderHTMLComponent(ctx context.Context, w http.ResponseWriter, component templ.Component, logMsg string) bool {
	logger := log.Ctx(ctx)
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		logger.Error().Err(err).Msg(logMsg)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return false
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Error().Err(err).Msg("Failed to write response")
	}
	return true
}
