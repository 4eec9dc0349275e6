package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/codr1/PitchMatch/internal/api/apiutil"
	"github.com/codr1/PitchMatch/internal/notify"
)

const toastKeepAlive = 25 * time.Second

// GET /api/v1/events/{eventID}/toasts
func (h *Handler) handleToasts(w http.ResponseWriter, r *http.Request) {
	if h.opts.Toasts == nil {
		http.Error(w, "Toasts are not enabled", http.StatusNotFound)
		return
	}
	eventID := chi.URLParam(r, "eventID")
	logger := log.Ctx(r.Context()).With().Str("event_id", eventID).Logger()

	ctx, cancel := context.WithTimeout(r.Context(), eventsQueryTimeout)
	_, err := h.svc.Get(ctx, eventID)
	cancel()
	if err != nil {
		apiutil.WriteError(w, r, serviceError(err))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Subscribe before the headers go out so a client that has seen the
	// response cannot miss a toast.
	toasts, unsubscribe := h.opts.Toasts.Subscribe(eventID)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	logger.Debug().Msg("Toast stream opened")

	keepAlive := time.NewTicker(toastKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Msg("Toast stream closed")
			return
		case toast, ok := <-toasts:
			if !ok {
				return
			}
			if err := writeToast(w, toast); err != nil {
				logger.Debug().Err(err).Msg("Toast stream write failed")
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeToast(w io.Writer, toast notify.Toast) error {
	data, err := json.Marshal(toast)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: toast\ndata: %s\n\n", data)
	return err
}
