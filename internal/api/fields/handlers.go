// internal/api/fields/handlers.go
package fields

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/codr1/PitchMatch/internal/api/apiutil"
	"github.com/codr1/PitchMatch/internal/fields"
)

const fieldsQueryTimeout = 5 * time.Second

type Handler struct {
	dir *fields.Directory
}

func NewHandler(dir *fields.Directory) *Handler {
	return &Handler{dir: dir}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/fields", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{fieldID}", h.handleGet)
	})
}

// GET /api/v1/fields
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), fieldsQueryTimeout)
	defer cancel()

	list, err := h.dir.List(ctx)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if list == nil {
		list = []fields.Field{}
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, list); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write JSON response")
	}
}

// GET /api/v1/fields/{fieldID}
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.ParsePositiveInt64Field(chi.URLParam(r, "fieldID"), "fieldID")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err.Error(), err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), fieldsQueryTimeout)
	defer cancel()

	field, err := h.dir.Get(ctx, id)
	if err != nil {
		if errors.Is(err, fields.ErrFieldNotFound) {
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusNotFound, Message: "Field not found", Err: err})
			return
		}
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, field); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write JSON response")
	}
}
