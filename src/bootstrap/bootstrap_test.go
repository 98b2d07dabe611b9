package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/tradebox/src/brokerage"
	"github.com/jiaming2012/tradebox/src/config"
	"github.com/jiaming2012/tradebox/src/data"
	"github.com/jiaming2012/tradebox/src/eventmodels"
	"github.com/jiaming2012/tradebox/src/notifier"
)

func TestNewNotifier(t *testing.T) {
	t.Run("defaults to the log notifier", func(t *testing.T) {
		n, err := NewNotifier(config.NotifierConfig{})
		require.NoError(t, err)
		assert.IsType(t, notifier.LogNotifier{}, n)
	})

	t.Run("fans out several kinds", func(t *testing.T) {
		n, err := NewNotifier(config.NotifierConfig{
			Kinds: []string{"log", "slack"},
			Slack: config.SlackConfig{WebhookURL: "https://hooks.slack.com/services/x"},
		})
		require.NoError(t, err)
		assert.IsType(t, &notifier.Fanout{}, n)
	})

	t.Run("missing settings are rejected", func(t *testing.T) {
		_, err := NewNotifier(config.NotifierConfig{Kinds: []string{"telegram"}})
		assert.Error(t, err)
	})
}

func TestNewRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		repo, err := NewRepository(ctx, config.DatabaseConfig{Driver: "memory"})
		require.NoError(t, err)
		assert.IsType(t, &data.MemoryRepository{}, repo)
	})

	t.Run("sqlite", func(t *testing.T) {
		repo, err := NewRepository(ctx, config.DatabaseConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "db.sqlite3")})
		require.NoError(t, err)
		defer repo.Close()

		assert.IsType(t, &data.SQLiteRepository{}, repo)
	})
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	cfg.Database.Driver = "memory"
	cfg.Brokerage.Kind = "simulator"
	cfg.Logging.Dir = ""

	app, err := New(ctx, cfg, true)
	require.NoError(t, err)
	defer app.Close(ctx)

	session, ok := app.Gateway.Session()
	require.True(t, ok)
	assert.Equal(t, "paper", session.AccountID)

	order, err := app.Orders.Create(ctx, &eventmodels.CreateOrderRequest{
		Side:             eventmodels.OrderSideBuy,
		Symbol:           "SPY",
		OptionType:       eventmodels.Put,
		Strike:           440,
		Expiration:       "2024-06-21",
		Quantity:         1,
		Active:           true,
		MaxOrderAttempts: 1,
	})
	require.NoError(t, err)

	sim, ok := app.Gateway.(*brokerage.SimulatedGateway)
	require.True(t, ok)
	assert.Equal(t, 1, sim.CallCount("LookupInstrument"))
	assert.Equal(t, "SPY240621P00440000", order.Instrument.ID)
}
