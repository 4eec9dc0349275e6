// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

// PitchConfig tunes the live simulation rooms.
type PitchConfig struct {
	FrameInterval  time.Duration `yaml:"frame_interval"`
	BroadcastEvery int           `yaml:"broadcast_every"`
	GameSpeed      float64       `yaml:"game_speed"`
	IdleAfter      time.Duration `yaml:"idle_after"`
}

// SchedulerConfig holds standard 5-field cron expressions for background jobs.
type SchedulerConfig struct {
	Reminders     string        `yaml:"reminders"`
	ReminderLead  time.Duration `yaml:"reminder_lead"`
	RoomReaper    string        `yaml:"room_reaper"`
	FieldsRefresh string        `yaml:"fields_refresh"`
}

type EmailConfig struct {
	Region          string `yaml:"region"`
	Sender          string `yaml:"sender"`
	NoticeSender    string `yaml:"notice_sender"` // team changes and reminders; defaults to Sender
	AccessKeyID     string `yaml:"-"` // Loaded from environment
	SecretAccessKey string `yaml:"-"` // Loaded from environment
}

// Enabled reports whether SES credentials were provided.
func (e EmailConfig) Enabled() bool {
	return e.AccessKeyID != "" && e.SecretAccessKey != ""
}

type FieldsConfig struct {
	SourceURL string `yaml:"source_url"`
}

type RateLimitConfig struct {
	Requests   int           `yaml:"requests"`
	Window     time.Duration `yaml:"window"`
	Cooldown   time.Duration `yaml:"cooldown"`
	TrustProxy bool          `yaml:"trust_proxy"`
}

type Config struct {
	App struct {
		Name          string `yaml:"name"`
		Environment   string `yaml:"environment"`
		Port          int    `yaml:"port"`
		BaseURL       string `yaml:"base_url"`
		DefaultRegion string `yaml:"default_region"`
	} `yaml:"app"`

	Database  DatabaseConfig  `yaml:"database"`
	Pitch     PitchConfig     `yaml:"pitch"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Email     EmailConfig     `yaml:"email"`
	Fields    FieldsConfig    `yaml:"fields"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Features struct {
		EnableDebug     bool `yaml:"enable_debug"`
		EnableReminders bool `yaml:"enable_reminders"`
	} `yaml:"features"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and environment secrets, and validates
// the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.applyDefaults()

	// Load sensitive values from environment
	cfg.Email.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.Email.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.App.DefaultRegion == "" {
		c.App.DefaultRegion = "GB"
	}
	if c.Pitch.FrameInterval == 0 {
		c.Pitch.FrameInterval = 16 * time.Millisecond
	}
	if c.Pitch.BroadcastEvery == 0 {
		c.Pitch.BroadcastEvery = 2
	}
	if c.Pitch.GameSpeed == 0 {
		c.Pitch.GameSpeed = 1
	}
	if c.Pitch.IdleAfter == 0 {
		c.Pitch.IdleAfter = 5 * time.Minute
	}
	if c.Scheduler.Reminders == "" {
		c.Scheduler.Reminders = "*/15 * * * *"
	}
	if c.Scheduler.ReminderLead == 0 {
		c.Scheduler.ReminderLead = 2 * time.Hour
	}
	if c.Scheduler.RoomReaper == "" {
		c.Scheduler.RoomReaper = "* * * * *"
	}
	if c.Scheduler.FieldsRefresh == "" {
		c.Scheduler.FieldsRefresh = "0 4 * * *"
	}
	if c.Email.Region == "" {
		c.Email.Region = "eu-west-2"
	}
	if c.Email.NoticeSender == "" {
		c.Email.NoticeSender = c.Email.Sender
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = 20
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.RateLimit.Cooldown == 0 {
		c.RateLimit.Cooldown = time.Minute
	}
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Pitch.FrameInterval < time.Millisecond {
		return fmt.Errorf("pitch frame_interval must be at least 1ms")
	}
	if c.Pitch.BroadcastEvery < 1 {
		return fmt.Errorf("pitch broadcast_every must be positive")
	}
	if c.Pitch.GameSpeed <= 0 || c.Pitch.GameSpeed > 10 {
		return fmt.Errorf("pitch game_speed must be in (0, 10]")
	}
	if c.Pitch.IdleAfter < 0 {
		return fmt.Errorf("pitch idle_after must not be negative")
	}

	for name, spec := range map[string]string{
		"reminders":      c.Scheduler.Reminders,
		"room_reaper":    c.Scheduler.RoomReaper,
		"fields_refresh": c.Scheduler.FieldsRefresh,
	} {
		if err := ValidateCron(spec); err != nil {
			return fmt.Errorf("scheduler %s: %w", name, err)
		}
	}

	if c.Fields.SourceURL != "" {
		u, err := url.Parse(c.Fields.SourceURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("fields source_url must be an absolute http(s) URL")
		}
	}

	if c.Email.Enabled() && c.Email.Sender == "" {
		return fmt.Errorf("email sender is required when SES credentials are set")
	}

	if c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit requests and window must be positive")
	}
	return nil
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCron checks a standard 5-field cron expression.
func ValidateCron(spec string) error {
	if _, err := cronParser.Parse(spec); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return nil
}
