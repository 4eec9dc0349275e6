package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/codr1/PitchMatch/internal/db"
	"github.com/codr1/PitchMatch/internal/notify"
)

// Recipients resolves player contact details for email toasts.
type Recipients struct {
	q *db.Queries
}

func NewRecipients(database *db.DB) *Recipients {
	return &Recipients{q: database.Queries}
}

func (r *Recipients) Recipient(ctx context.Context, eventID, playerID string) (notify.Recipient, bool, error) {
	player, err := r.q.GetEventPlayer(ctx, eventID, playerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notify.Recipient{}, false, nil
		}
		return notify.Recipient{}, false, fmt.Errorf("load player: %w", err)
	}
	if !player.Email.Valid || player.Email.String == "" {
		return notify.Recipient{}, false, nil
	}

	event, err := r.q.GetEvent(ctx, eventID)
	if err != nil {
		return notify.Recipient{}, false, fmt.Errorf("load event: %w", err)
	}
	rec := notify.Recipient{
		Name:       player.Name,
		Email:      player.Email.String,
		EventTitle: event.Title,
		StartsAt:   event.StartsAt,
	}
	if event.FieldID.Valid {
		if field, err := r.q.GetField(ctx, event.FieldID.Int64); err == nil {
			rec.FieldName = field.Name
		}
	}
	return rec, true, nil
}
