package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/codr1/PitchMatch/internal/email"
)

// Recipient is what the email sink needs to know about a moved player.
type Recipient struct {
	Name       string
	Email      string
	EventTitle string
	FieldName  string
	StartsAt   time.Time
}

// RecipientLookup resolves a player's contact details. ok is false when the
// player has no email address.
type RecipientLookup interface {
	Recipient(ctx context.Context, eventID, playerID string) (r Recipient, ok bool, err error)
}

// EmailSink emails players when an organizer moves them between groups.
type EmailSink struct {
	sender email.EmailSender
	lookup RecipientLookup
	from   string
	logger zerolog.Logger
}

func NewEmailSink(sender email.EmailSender, lookup RecipientLookup, from string, logger zerolog.Logger) *EmailSink {
	return &EmailSink{
		sender: sender,
		lookup: lookup,
		from:   from,
		logger: logger.With().Str("component", "toast_email").Logger(),
	}
}

func (s *EmailSink) Send(ctx context.Context, toast Toast) error {
	if s.sender == nil || toast.Kind != KindMove || toast.PlayerID == "" {
		return nil
	}
	r, ok, err := s.lookup.Recipient(ctx, toast.EventID, toast.PlayerID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	date, timeRange := email.FormatDateTimeRange(r.StartsAt, r.StartsAt.Add(time.Hour))
	msg := email.BuildTeamChangeEmail(email.TeamChangeDetails{
		PlayerName: r.Name,
		EventTitle: r.EventTitle,
		FieldName:  r.FieldName,
		Date:       date,
		TimeRange:  timeRange,
		Group:      toast.To.Label(),
	})

	logger := s.logger.With().Str("event_id", toast.EventID).Str("player_id", toast.PlayerID).Logger()
	email.SendAsync(ctx, s.sender, r.Email, msg, s.from, &logger)
	return nil
}
