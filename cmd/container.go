package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"transfer-ledger/app"
	"transfer-ledger/authz"
	"transfer-ledger/bus"
	"transfer-ledger/config"
	"transfer-ledger/metrics"
	"transfer-ledger/notification"
	"transfer-ledger/projection"
	"transfer-ledger/shared"
	"transfer-ledger/store"
)

// container holds the wired application. It is built once per process so
// REPL commands share in-memory state.
type container struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *metrics.Collector
	events    store.EventStore
	accounts  store.AccountStore
	customers store.CustomerStore
	notifier  *notification.Service
	eventBus  *bus.EventBus
	commands  *bus.CommandBus
	queries   *app.AccountQueries

	closers []func()
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Env == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func buildContainer(ctx context.Context, cfg *config.Config) (*container, error) {
	c := &container{cfg: cfg, logger: newLogger(cfg), metrics: metrics.New()}
	slog.SetDefault(c.logger)

	var redisClient *redis.Client
	if cfg.UsesRedis() {
		client, err := store.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		redisClient = client
		c.closers = append(c.closers, func() { _ = client.Close() })
	}

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := store.ConnectPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.closers = append(c.closers, pool.Close)
		pg := store.NewPostgresEventStore(pool)
		customers := store.NewPostgresCustomerStore(pool)
		if cfg.Store.ApplySchema {
			if err := pg.ApplySchema(ctx); err != nil {
				c.Close()
				return nil, err
			}
			if err := customers.ApplySchema(ctx); err != nil {
				c.Close()
				return nil, err
			}
		}
		c.events = pg
		c.customers = customers
	default:
		c.events = store.NewInMemoryEventStore()
		c.customers = store.NewInMemoryCustomerStore()
	}
	c.accounts = store.NewEventSourcedAccountStore(c.events)

	var views store.SnapshotStore = store.NewInMemorySnapshotStore()
	if cfg.Projection.Cache == config.CacheRedis {
		views = store.NewRedisSnapshotStore(redisClient, cfg.Projection.TTL)
	}

	var sink notification.Store
	switch cfg.Notification.Sink {
	case config.SinkMemory:
		sink = notification.NewMemoryStore()
	case config.SinkRedis:
		sink = notification.NewRedisStreamStore(redisClient, cfg.Notification.Stream)
	case config.SinkWebhook:
		sink = notification.NewWebhookStore(cfg.Notification.WebhookURL, cfg.Notification.WebhookTimeout,
			cfg.Notification.RatePerSecond, cfg.Notification.Burst)
	default:
		sink = notification.NewLogStore(c.logger)
	}
	c.notifier = notification.NewService(sink,
		notification.WithMaxAttempts(cfg.Notification.MaxAttempts),
		notification.WithLogger(c.logger),
		notification.WithMetrics(c.metrics))

	var authorizer authz.Authorizer
	switch cfg.Authorization.Mode {
	case config.AuthzHTTP:
		authorizer = authz.NewHTTPAuthorizer(cfg.Authorization.URL, cfg.Authorization.Timeout)
	case config.AuthzDeny:
		authorizer = authz.Static(false)
	default:
		authorizer = authz.Static(true)
	}

	c.eventBus = bus.NewEventBus(bus.WithLogger(c.logger), bus.WithMetrics(c.metrics))
	projector := projection.NewProjector(views, c.events, c.logger)
	if err := projector.Register(c.eventBus); err != nil {
		c.Close()
		return nil, err
	}
	c.queries = app.NewAccountQueries(c.events, projector)

	handlerOpts := []app.Option{
		app.WithLogger(c.logger),
		app.WithMetrics(c.metrics),
		app.WithEventPublisher(c.eventBus),
	}
	c.commands = bus.NewCommandBus(bus.WithLogger(c.logger), bus.WithMetrics(c.metrics))
	c.commands.MustRegister(shared.OpenAccountCommandName, app.NewOpenAccountHandler(c.accounts, handlerOpts...))
	c.commands.MustRegister(shared.TransferCommandName, app.NewTransferHandler(c.accounts, authorizer, c.notifier, handlerOpts...))
	c.commands.MustRegister(shared.RegisterCustomerCommandName, app.NewRegisterCustomerHandler(c.customers, handlerOpts...))
	if err := c.commands.Verify(shared.OpenAccountCommandName, shared.TransferCommandName, shared.RegisterCustomerCommandName); err != nil {
		c.Close()
		return nil, fmt.Errorf("command bus incomplete: %w", err)
	}

	c.logger.Debug("container ready",
		"store", cfg.Store.Driver,
		"notification_sink", cfg.Notification.Sink,
		"authorization", cfg.Authorization.Mode,
		"view_cache", cfg.Projection.Cache)
	return c, nil
}

func (c *container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
