package bootstrap

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otellogrus"
	"go.opentelemetry.io/otel"

	"github.com/jiaming2012/tradebox/src/brokerage"
	"github.com/jiaming2012/tradebox/src/config"
	"github.com/jiaming2012/tradebox/src/data"
	"github.com/jiaming2012/tradebox/src/dbutils"
	"github.com/jiaming2012/tradebox/src/engine"
	"github.com/jiaming2012/tradebox/src/eventconsumers"
	"github.com/jiaming2012/tradebox/src/eventpubsub"
	"github.com/jiaming2012/tradebox/src/logger"
	"github.com/jiaming2012/tradebox/src/notifier"
	"github.com/jiaming2012/tradebox/src/orders"
	"github.com/jiaming2012/tradebox/src/utils"
)

// App holds the collaborators of a running process.
type App struct {
	Config   *config.Config
	Repo     data.Repository
	Gateway  brokerage.Gateway
	Notifier notifier.Notifier
	Bus      *eventpubsub.Bus
	Engine   *engine.Engine
	Orders   *orders.Service

	closers []func(context.Context) error
}

type Options struct {
	ConfigPath string
	// EnvDir and GoEnv select the .env files loaded before the config.
	EnvDir string
	GoEnv  string
	// Login authenticates the gateway at startup when credentials exist.
	Login bool
}

func Setup(ctx context.Context, opts Options) (*App, error) {
	if opts.EnvDir != "" {
		if err := utils.InitEnvironmentVariables(opts.EnvDir, opts.GoEnv); err != nil {
			return nil, fmt.Errorf("bootstrap.Setup: %w", err)
		}
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("bootstrap.Setup: %w", err)
	}

	return New(ctx, cfg, opts.Login)
}

// New builds the app from an already loaded configuration.
func New(ctx context.Context, cfg *config.Config, login bool) (*App, error) {
	app := &App{Config: cfg}

	hook, err := logger.Setup(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Dir: cfg.Logging.Dir})
	if err != nil {
		return nil, fmt.Errorf("bootstrap.New: %w", err)
	}

	if hook != nil {
		app.closers = append(app.closers, func(context.Context) error { return hook.Close() })
	}

	if cfg.Telemetry.Enabled {
		shutdown, err := utils.SetupOTelSDK(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			app.Close(ctx)
			return nil, fmt.Errorf("bootstrap.New: failed to set up telemetry: %w", err)
		}

		app.closers = append(app.closers, shutdown)

		log.AddHook(otellogrus.NewHook(otellogrus.WithLevels(
			log.PanicLevel,
			log.FatalLevel,
			log.ErrorLevel,
			log.WarnLevel,
			log.InfoLevel,
		)))
	}

	if app.Repo, err = NewRepository(ctx, cfg.Database); err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("bootstrap.New: %w", err)
	}

	app.closers = append(app.closers, func(context.Context) error { return app.Repo.Close() })

	if app.Gateway, err = NewGateway(cfg.Brokerage); err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("bootstrap.New: %w", err)
	}

	if login {
		creds := Credentials(cfg.Brokerage)
		if _, err := app.Gateway.Authenticate(ctx, creds); err != nil {
			// the console can retry with "li"
			log.Warnf("bootstrap.New: brokerage login failed: %v", err)
		}
	}

	if app.Notifier, err = NewNotifier(cfg.Notifier); err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("bootstrap.New: %w", err)
	}

	app.Bus = eventpubsub.New()

	if err := eventconsumers.NewAuditConsumer(log.StandardLogger()).Start(app.Bus); err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("bootstrap.New: %w", err)
	}

	metrics, err := eventconsumers.NewMetricsConsumer(otel.Meter("tradebox"))
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("bootstrap.New: %w", err)
	}

	if err := metrics.Start(app.Bus); err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("bootstrap.New: %w", err)
	}

	app.Engine = engine.New(app.Repo, app.Gateway, app.Notifier, app.Bus, engine.NewConfig(cfg.Engine))
	app.Orders = orders.NewService(app.Repo, app.Gateway)

	return app, nil
}

// Close waits for dispatched executions and event consumers, then releases
// resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	if a.Engine != nil {
		a.Engine.Wait()
	}

	if a.Bus != nil {
		a.Bus.WaitAsync()
	}

	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, a.closers[i](ctx))
	}
	a.closers = nil

	return err
}

func NewRepository(ctx context.Context, cfg config.DatabaseConfig) (data.Repository, error) {
	switch cfg.Driver {
	case "memory":
		return data.NewMemoryRepository(), nil
	case "sqlite":
		db, err := dbutils.InitSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("NewRepository: %w", err)
		}

		repo, err := data.NewSQLiteRepository(ctx, db)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("NewRepository: %w", err)
		}

		return repo, nil
	case "postgres":
		db, err := dbutils.InitPostgresWithUrl(cfg.PostgresURL, data.Models()...)
		if err != nil {
			return nil, fmt.Errorf("NewRepository: %w", err)
		}

		return data.NewGormRepository(db), nil
	}

	return nil, fmt.Errorf("NewRepository: unknown driver %q", cfg.Driver)
}

func NewGateway(cfg config.BrokerageConfig) (brokerage.Gateway, error) {
	ticks := brokerage.TickSizes{BelowTick: cfg.BelowTick, AboveTick: cfg.AboveTick, CutoffPrice: cfg.TickCutoff}

	switch cfg.Kind {
	case "tradier":
		return brokerage.NewTradierGateway(cfg.BaseURL, cfg.Timeout, ticks), nil
	case "simulator":
		return brokerage.NewSimulatedGateway(brokerage.WithTickSizes(ticks)), nil
	}

	return nil, fmt.Errorf("NewGateway: unknown brokerage kind %q", cfg.Kind)
}

func Credentials(cfg config.BrokerageConfig) brokerage.Credentials {
	accountID := cfg.AccountID
	if accountID == "" && cfg.Kind == "simulator" {
		accountID = "paper"
	}

	return brokerage.Credentials{AccountID: accountID, Token: cfg.Token}
}

// NewNotifier builds one notifier per configured kind, fanned out when there
// is more than one.
func NewNotifier(cfg config.NotifierConfig) (notifier.Notifier, error) {
	var notifiers []notifier.Notifier

	for _, kind := range cfg.Kinds {
		switch kind {
		case "log":
			notifiers = append(notifiers, notifier.LogNotifier{})
		case "slack":
			if cfg.Slack.WebhookURL == "" {
				return nil, fmt.Errorf("NewNotifier: slack.webhook_url is required")
			}
			notifiers = append(notifiers, notifier.NewSlackNotifier(cfg.Slack.WebhookURL))
		case "pushover":
			if cfg.Pushover.APIToken == "" || cfg.Pushover.UserToken == "" {
				return nil, fmt.Errorf("NewNotifier: pushover.api_token and pushover.user_token are required")
			}
			notifiers = append(notifiers, notifier.NewPushoverNotifier(notifier.PushoverURL, cfg.Pushover.APIToken, cfg.Pushover.UserToken))
		case "telegram":
			if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "" {
				return nil, fmt.Errorf("NewNotifier: telegram.bot_token and telegram.chat_id are required")
			}
			notifiers = append(notifiers, notifier.NewTelegramNotifier(notifier.TelegramURL, cfg.Telegram.BotToken, cfg.Telegram.ChatID))
		case "email":
			e := cfg.Email
			if e.Host == "" || e.To == "" {
				return nil, fmt.Errorf("NewNotifier: email.host and email.to are required")
			}
			notifiers = append(notifiers, notifier.NewEmailNotifier(e.Host, e.Port, e.Username, e.Password, e.From, e.To))
		default:
			return nil, fmt.Errorf("NewNotifier: unknown notifier kind %q", kind)
		}
	}

	switch len(notifiers) {
	case 0:
		return notifier.LogNotifier{}, nil
	case 1:
		return notifiers[0], nil
	}

	return notifier.NewFanout(notifiers...), nil
}
