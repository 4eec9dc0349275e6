package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/PitchMatch/internal/config"
	"github.com/codr1/PitchMatch/internal/db"
	"github.com/codr1/PitchMatch/internal/email"
	"github.com/codr1/PitchMatch/internal/events"
	"github.com/codr1/PitchMatch/internal/fields"
	"github.com/codr1/PitchMatch/internal/notify"
	"github.com/codr1/PitchMatch/internal/ratelimit"
	"github.com/codr1/PitchMatch/internal/room"
	"github.com/codr1/PitchMatch/internal/scheduler"
)

// app holds the long-lived services shared by the HTTP handlers and the
// scheduled jobs.
type app struct {
	db       *db.DB
	rooms    *room.Manager
	toasts   *notify.Broadcaster
	events   *events.Service
	fields   *fields.Directory
	importer *fields.Importer
	limiter  *ratelimit.Limiter
	mailer   email.EmailSender
}

func newApp(cfg *config.Config) (*app, error) {
	database, err := db.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &app{
		db: database,
		rooms: room.NewManager(room.Config{
			FrameInterval:  cfg.Pitch.FrameInterval,
			BroadcastEvery: cfg.Pitch.BroadcastEvery,
			GameSpeed:      cfg.Pitch.GameSpeed,
		}),
		toasts: notify.NewBroadcaster(),
		fields: fields.NewDirectory(database),
		limiter: ratelimit.New(&ratelimit.Config{
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
			Cooldown: cfg.RateLimit.Cooldown,
		}),
	}
	a.importer = fields.NewImporter(a.fields, &http.Client{Timeout: 30 * time.Second})

	sinks := notify.Multi{
		notify.NewLogSink(log.Logger),
		a.toasts,
	}
	if cfg.Email.Enabled() {
		ses, err := email.NewSESClient(cfg.Email.AccessKeyID, cfg.Email.SecretAccessKey, cfg.Email.Region, cfg.Email.Sender)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create ses client: %w", err)
		}
		a.mailer = ses
		sinks = append(sinks, notify.NewEmailSink(ses, events.NewRecipients(database), cfg.Email.NoticeSender, log.Logger))
		log.Info().Str("region", cfg.Email.Region).Msg("SES email enabled")
	} else {
		log.Info().Msg("Email disabled: AWS credentials not configured")
	}

	a.events = events.NewService(database, sinks, a.rooms, events.Config{
		DefaultRegion: cfg.App.DefaultRegion,
	})

	if err := a.registerJobs(cfg); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) registerJobs(cfg *config.Config) error {
	if err := scheduler.Init(); err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	if cfg.Features.EnableReminders {
		if err := scheduler.RegisterReminderJob(a.db, a.mailer, a.events, reminderConfig(cfg)); err != nil {
			return err
		}
	}
	if err := scheduler.RegisterRoomReaperJob(a.rooms, cfg.Scheduler.RoomReaper, cfg.Pitch.IdleAfter); err != nil {
		return err
	}
	return scheduler.RegisterFieldsRefreshJob(a.importer, cfg.Scheduler.FieldsRefresh, cfg.Fields.SourceURL)
}

func reminderConfig(cfg *config.Config) scheduler.ReminderJobConfig {
	return scheduler.ReminderJobConfig{
		Cron: cfg.Scheduler.Reminders,
		Lead: cfg.Scheduler.ReminderLead,
		From: cfg.Email.NoticeSender,
	}
}

// sameOrigin accepts websocket upgrades from the configured base URL or the
// request's own host.
func sameOrigin(baseURL string) func(r *http.Request) bool {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if base != "" && strings.EqualFold(origin, base) {
			return true
		}
		return strings.EqualFold(origin, "http://"+r.Host) || strings.EqualFold(origin, "https://"+r.Host)
	}
}

func (a *app) Close() {
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}
}
