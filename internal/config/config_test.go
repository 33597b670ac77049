package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykvlv/daily-report-notifier/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir()) // no .env
	cfg, err := Load()
	require.NoError(t, err)

	_, off := time.Date(2025, 1, 1, 0, 0, 0, 0, cfg.Location()).Zone()
	assert.Equal(t, 7*3600, off)
	assert.Equal(t, 500, cfg.BatchLimit)
	assert.Equal(t, "log", cfg.PushGateway)

	kinds, err := cfg.Kinds()
	require.NoError(t, err)
	assert.Equal(t, domain.AllKinds(), kinds)
	assert.Equal(t, "0 21 * * *", cfg.CronSpecs()["sleep_reminder"])
}

func TestLoad_Overrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TZ_OFFSET", "+08:00")
	t.Setenv("REQUIRED_KINDS", "wake_up,sleep")
	t.Setenv("PUSH_BATCH_LIMIT", "100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "+08:00", cfg.TZOffset.Raw)
	kinds, err := cfg.Kinds()
	require.NoError(t, err)
	assert.Equal(t, []domain.Kind{domain.KindWakeUp, domain.KindSleep}, kinds)
	assert.Equal(t, 100, cfg.BatchLimit)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"TZ_OFFSET":           "Asia/Jakarta",
		"REQUIRED_KINDS":      "wake_up,gaming",
		"PUSH_BATCH_LIMIT":    "501",
		"PUSH_GATEWAY":        "telegram",
		"DAILY_REMINDER_CRON": "at seven",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(key, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+): it changes the working
// directory for the duration of the test and restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
