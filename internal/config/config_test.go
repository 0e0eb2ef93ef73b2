package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
jwt:
  secret: a-very-long-test-secret
scheduling:
  timezone: Asia/Riyadh
outbox:
  poll_interval: 3s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Outbox.PollInterval)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 14, cfg.Subscription.TrialDays)
	assert.Equal(t, "trial", cfg.Subscription.TrialPlanCode)
	assert.Equal(t, 30, cfg.Subscription.ApprovalDays)
	assert.Equal(t, "Asia/Riyadh", cfg.Scheduling.Location().String())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: file-secret-that-is-long
database:
  password: from-file
`)
	t.Setenv("BOOKING_SERVER_PORT", "7070")
	t.Setenv("BOOKING_DB_PASSWORD", "from-env")
	t.Setenv("BOOKING_JWT_SECRET", "env-secret-that-is-long")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "env-secret-that-is-long", cfg.JWT.Secret)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"short secret", "jwt:\n  secret: short\n"},
		{"unknown driver", "jwt:\n  secret: a-very-long-test-secret\ndatabase:\n  driver: mysql\n"},
		{"bad timezone", "jwt:\n  secret: a-very-long-test-secret\nscheduling:\n  timezone: Mars/Olympus\n"},
		{"zero trial", "jwt:\n  secret: a-very-long-test-secret\nsubscription:\n  trial_days: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
