package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/codr1/PitchMatch/internal/db"
	"github.com/codr1/PitchMatch/internal/email"
	"github.com/codr1/PitchMatch/internal/roster"
)

// matchLength is the kickoff window shown in reminder emails.
const matchLength = time.Hour

// TeamLocator resolves the group a player currently sits in.
type TeamLocator interface {
	PlayerGroup(ctx context.Context, eventID, playerID string) (roster.Group, bool, error)
}

type ReminderJobConfig struct {
	Cron string
	Lead time.Duration
	From string
}

// RegisterReminderJob registers the kickoff reminder task.
func RegisterReminderJob(database *db.DB, sender email.EmailSender, teams TeamLocator, cfg ReminderJobConfig) error {
	if database == nil {
		return fmt.Errorf("reminder job requires database")
	}

	jobName := "kickoff_reminders"
	jobLogger := log.With().
		Str("component", "kickoff_reminders_job").
		Str("job_name", jobName).
		Str("cron", cfg.Cron).
		Logger()

	_, err := AddJob(jobName, cfg.Cron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		if sender == nil {
			jobLogger.Debug().Msg("Reminder job skipped: email client not configured")
			return
		}
		sent, err := SendKickoffReminders(ctx, database, sender, teams, cfg.Lead, cfg.From, time.Now().UTC())
		if err != nil {
			jobLogger.Error().Err(err).Msg("Kickoff reminder run failed")
			return
		}
		if sent > 0 {
			jobLogger.Info().Int("sent", sent).Msg("Kickoff reminders sent")
		}
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add kickoff reminder job: %w", err)
	}

	jobLogger.Info().Msg("Kickoff reminder job registered")
	return nil
}

// SendKickoffReminders emails every confirmed player whose event kicks off
// within lead of now and who has not been reminded yet. It returns how many
// reminders went out.
func SendKickoffReminders(ctx context.Context, database *db.DB, sender email.EmailSender, teams TeamLocator, lead time.Duration, from string, now time.Time) (int, error) {
	if database == nil {
		return 0, fmt.Errorf("kickoff reminders require database")
	}
	now = now.UTC()

	recipients, err := database.Queries.ListReminderRecipients(ctx, db.ListReminderRecipientsParams{
		From: now,
		To:   now.Add(lead),
	})
	if err != nil {
		return 0, fmt.Errorf("list reminder recipients: %w", err)
	}

	logger := log.Ctx(ctx)
	sent := 0
	for _, r := range recipients {
		playerLogger := logger.With().Str("event_id", r.EventID).Str("player_id", r.PlayerID).Logger()

		var team string
		if teams != nil {
			group, ok, err := teams.PlayerGroup(ctx, r.EventID, r.PlayerID)
			if err != nil {
				playerLogger.Warn().Err(err).Msg("Failed to resolve team for reminder")
			} else if ok && group.Confirmed() {
				team = group.Label()
			}
		}

		start := r.StartsAt.UTC()
		date, timeRange := email.FormatDateTimeRange(start, start.Add(matchLength))
		message := email.BuildKickoffReminderEmail(email.KickoffReminderDetails{
			PlayerName: r.PlayerName,
			EventTitle: r.EventTitle,
			FieldName:  r.FieldName.String,
			Date:       date,
			TimeRange:  timeRange,
			Team:       team,
		})

		if err := email.Deliver(ctx, sender, r.PlayerEmail, message, from); err != nil {
			playerLogger.Error().Err(err).Msg("Failed to send kickoff reminder")
			continue
		}
		if err := database.Queries.MarkReminderSent(ctx, r.EventID, r.PlayerID, now); err != nil {
			playerLogger.Error().Err(err).Msg("Failed to record kickoff reminder")
			continue
		}
		sent++
	}
	return sent, nil
}
