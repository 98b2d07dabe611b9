package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, cfg.Engine.FillWait)
		assert.Equal(t, 20*time.Second, cfg.Engine.EmergencySellWait)
		assert.Equal(t, PrerequisitePolicyProceed, cfg.Engine.PrerequisitePolicy)
		assert.Equal(t, ":5555", cfg.Server.Address)
	})

	t.Run("yaml overrides defaults", func(t *testing.T) {
		// arrange
		path := filepath.Join(t.TempDir(), "config.yaml")
		body := `
database:
  driver: memory
brokerage:
  kind: simulator
engine:
  fill_wait: 0s
  settle_wait: 250ms
  prerequisite_policy: block
notifier:
  kinds: [log, slack]
  slack:
    webhook_url: http://hooks.example/abc
`
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

		// act
		cfg, err := Load(path)

		// assert
		require.NoError(t, err)
		assert.Equal(t, "memory", cfg.Database.Driver)
		assert.Equal(t, "simulator", cfg.Brokerage.Kind)
		assert.Equal(t, time.Duration(0), cfg.Engine.FillWait)
		assert.Equal(t, 250*time.Millisecond, cfg.Engine.SettleWait)
		assert.Equal(t, 3*time.Second, cfg.Engine.FinalSettleWait)
		assert.Equal(t, PrerequisitePolicyBlock, cfg.Engine.PrerequisitePolicy)
		assert.Equal(t, []string{"log", "slack"}, cfg.Notifier.Kinds)
		assert.Equal(t, "http://hooks.example/abc", cfg.Notifier.Slack.WebhookURL)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("engine:\n  prerequisite_policy: maybe\n"), 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	env := map[string]string{
		"TRADEBOX_TRADIER_TOKEN":   "secret",
		"TRADEBOX_NOTIFIERS":       "pushover, email",
		"TRADEBOX_DATABASE_DRIVER": "memory",
	}

	cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "secret", cfg.Brokerage.Token)
	assert.Equal(t, []string{"pushover", "email"}, cfg.Notifier.Kinds)
	assert.Equal(t, "memory", cfg.Database.Driver)
	require.NoError(t, cfg.Validate())

	cfg.Engine.CleanupInterval = -time.Second
	assert.Error(t, cfg.Validate())
}
