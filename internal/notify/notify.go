// Package notify delivers roster toasts to viewers, logs and email.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/codr1/PitchMatch/internal/roster"
)

type Kind string

const (
	KindMove   Kind = "roster_move"
	KindJoin   Kind = "player_joined"
	KindLeave  Kind = "player_left"
	KindFriend Kind = "friend_added"
)

// Toast is a short user-facing message about an event's roster.
type Toast struct {
	EventID  string       `json:"eventId"`
	Kind     Kind         `json:"kind"`
	Message  string       `json:"message"`
	PlayerID string       `json:"playerId,omitempty"`
	From     roster.Group `json:"from,omitempty"`
	To       roster.Group `json:"to,omitempty"`
	At       time.Time    `json:"at"`
}

// MoveToast converts an allocator notification into a toast.
func MoveToast(eventID string, n roster.Notification, at time.Time) Toast {
	return Toast{
		EventID:  eventID,
		Kind:     KindMove,
		Message:  n.Message(),
		PlayerID: n.PlayerID,
		From:     n.From,
		To:       n.To,
		At:       at,
	}
}

type Sink interface {
	Send(ctx context.Context, toast Toast) error
}

// Multi fans a toast out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Send(ctx context.Context, toast Toast) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Send(ctx, toast); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes toasts to a zerolog logger.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "toasts").Logger()}
}

func (s *LogSink) Send(_ context.Context, toast Toast) error {
	evt := s.logger.Info().
		Str("event_id", toast.EventID).
		Str("kind", string(toast.Kind)).
		Str("player_id", toast.PlayerID)
	if toast.From != "" {
		evt = evt.Str("from", string(toast.From)).Str("to", string(toast.To))
	}
	evt.Msg(toast.Message)
	return nil
}
