package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"

	"github.com/ykvlv/daily-report-notifier/internal/domain"
	"github.com/ykvlv/daily-report-notifier/internal/push"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	DBPath   string `envconfig:"DB_PATH" default:"./data/notifier.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"` // trigger surface + healthz

	TZOffset      Offset   `envconfig:"TZ_OFFSET" default:"+07:00"`
	RequiredKinds []string `envconfig:"REQUIRED_KINDS" default:"wake_up,sleep,worship,healthy_eating,exercise,school,learning,socializing"`
	BatchLimit    int      `envconfig:"PUSH_BATCH_LIMIT" default:"500"`

	PushGateway      string  `envconfig:"PUSH_GATEWAY" default:"log"` // log|telegram
	TelegramBotToken string  `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramRPS      float64 `envconfig:"TELEGRAM_RPS" default:"25"`

	SchedulerEnabled  bool   `envconfig:"SCHEDULER_ENABLED" default:"true"`
	SleepReminderCron string `envconfig:"SLEEP_REMINDER_CRON" default:"0 21 * * *"`
	WakeUpCheckCron   string `envconfig:"WAKE_UP_CHECK_CRON" default:"0 6 * * *"`
	DailyReminderCron string `envconfig:"DAILY_REMINDER_CRON" default:"0 19 * * *"`
	GuardianCron      string `envconfig:"GUARDIAN_REPORT_CRON" default:"0 20 * * *"`
}

// Offset is a fixed UTC offset such as "+07:00".
type Offset struct {
	Raw string
	Loc *time.Location
}

// Decode implements envconfig.Decoder.
func (o *Offset) Decode(value string) error {
	loc, err := domain.ParseOffset(value)
	if err != nil {
		return err
	}
	o.Raw, o.Loc = value, loc
	return nil
}

// Load reads an optional .env file and then environment variables into Config.
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c Config) Validate() error {
	var errs []error
	if c.TZOffset.Loc == nil {
		errs = append(errs, errors.New("TZ_OFFSET is required"))
	}
	if _, err := c.Kinds(); err != nil {
		errs = append(errs, fmt.Errorf("REQUIRED_KINDS: %w", err))
	}
	if c.BatchLimit < 1 || c.BatchLimit > push.MaxBatch {
		errs = append(errs, fmt.Errorf("PUSH_BATCH_LIMIT must be within 1..%d, got %d", push.MaxBatch, c.BatchLimit))
	}
	switch c.PushGateway {
	case "log":
	case "telegram":
		if c.TelegramBotToken == "" {
			errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required for the telegram gateway"))
		}
	default:
		errs = append(errs, fmt.Errorf("PUSH_GATEWAY must be log or telegram, got %q", c.PushGateway))
	}
	for name, spec := range c.CronSpecs() {
		if _, err := cron.ParseStandard(spec); err != nil {
			errs = append(errs, fmt.Errorf("%s cron %q: %w", name, spec, err))
		}
	}
	return errors.Join(errs...)
}

// Kinds returns the validated required kind set.
func (c Config) Kinds() ([]domain.Kind, error) {
	return domain.ParseKinds(c.RequiredKinds)
}

// Location returns the configured local zone.
func (c Config) Location() *time.Location {
	return c.TZOffset.Loc
}

// CronSpecs maps job names to their cron expressions.
func (c Config) CronSpecs() map[string]string {
	return map[string]string{
		"sleep_reminder":  c.SleepReminderCron,
		"wake_up_check":   c.WakeUpCheckCron,
		"daily_reminder":  c.DailyReminderCron,
		"guardian_report": c.GuardianCron,
	}
}
