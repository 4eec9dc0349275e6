package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// IdleReaper closes pitch rooms nobody is watching.
type IdleReaper interface {
	ReapIdle(now time.Time, idleAfter time.Duration) int
}

// FieldImporter refreshes the field directory from a listing page.
type FieldImporter interface {
	Import(ctx context.Context, sourceURL string) (int, error)
}

// RegisterRoomReaperJob closes rooms that have had no viewers for idleAfter.
func RegisterRoomReaperJob(rooms IdleReaper, cronExpr string, idleAfter time.Duration) error {
	if rooms == nil {
		return fmt.Errorf("room reaper job requires a room manager")
	}
	if idleAfter <= 0 {
		log.Info().Msg("Room reaper disabled")
		return nil
	}

	jobName := "room_reaper"
	jobLogger := log.With().Str("component", "room_reaper_job").Str("job_name", jobName).Logger()

	_, err := AddJob(jobName, cronExpr, func() {
		if closed := rooms.ReapIdle(time.Now(), idleAfter); closed > 0 {
			jobLogger.Info().Int("closed", closed).Msg("Closed idle pitch rooms")
		}
	}, gocron.WithSingletonMode(gocron.LimitModeReschedule))
	if err != nil {
		return fmt.Errorf("add room reaper job: %w", err)
	}
	return nil
}

// RegisterFieldsRefreshJob re-imports the field directory from sourceURL.
// An empty sourceURL registers nothing.
func RegisterFieldsRefreshJob(importer FieldImporter, cronExpr, sourceURL string) error {
	if strings.TrimSpace(sourceURL) == "" {
		log.Info().Msg("Field directory refresh disabled: no source URL")
		return nil
	}
	if importer == nil {
		return fmt.Errorf("fields refresh job requires an importer")
	}

	jobName := "fields_refresh"
	jobLogger := log.With().
		Str("component", "fields_refresh_job").
		Str("job_name", jobName).
		Str("source_url", sourceURL).
		Logger()

	_, err := AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		n, err := importer.Import(ctx, sourceURL)
		if err != nil {
			jobLogger.Error().Err(err).Msg("Field directory refresh failed")
			return
		}
		jobLogger.Info().Int("fields", n).Msg("Field directory refreshed")
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add fields refresh job: %w", err)
	}
	return nil
}
