package app

import (
	"context"
	"docauth/internal/cache/redis"
	"docauth/internal/config"
	"docauth/internal/dbs/postgres"
	"docauth/internal/http/server"
	"docauth/internal/metrics"
	cachedocsrepo "docauth/internal/repositories/cache/docs"
	cachesessionrepo "docauth/internal/repositories/cache/session"
	documentrepo "docauth/internal/repositories/db/document"
	grantrepo "docauth/internal/repositories/db/grant"
	outboxrepo "docauth/internal/repositories/db/outbox"
	userrepo "docauth/internal/repositories/db/user"
	filerepo "docauth/internal/repositories/storage/file"
	authservice "docauth/internal/services/auth"
	documentservice "docauth/internal/services/document"
	expirationservice "docauth/internal/services/expiration"
	outboxservice "docauth/internal/services/outbox"
	userservice "docauth/internal/services/user"
	verificationservice "docauth/internal/services/verification"
	"docauth/internal/sinks/kafka"
	"docauth/internal/sinks/logsink"
	"docauth/internal/tracing"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

type App struct {
	log *slog.Logger
	cfg *config.Config

	AuthService         *authservice.AuthService
	UserService         *userservice.UserService
	DocumentService     *documentservice.DocumentService
	VerificationService *verificationservice.Coordinator
	Sweeper             *expirationservice.Sweeper
	Dispatcher          *outboxservice.Dispatcher
	Metrics             *metrics.Metrics

	closers []func(ctx context.Context) error
}

type eventSink interface {
	outboxservice.AuditSink
	outboxservice.NotificationSink
}

func NewApp(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	a := &App{log: log, cfg: cfg}

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Error("failed to set up tracing", "err", err)
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	a.closers = append(a.closers, shutdownTracing)

	db, err := postgres.New(ctx, postgres.Config{
		Addr:            cfg.DB.Addr,
		Port:            cfg.DB.Port,
		User:            cfg.DB.User,
		Password:        cfg.DB.Password,
		DB:              cfg.DB.DB,
		SSLMode:         cfg.DB.SSLMode,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		log.Error("failed connect to db", "err", err)
		a.Close(ctx)
		return nil, fmt.Errorf("failed connect to db: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return db.Close() })

	cache, err := redis.New(ctx, redis.Config{Addr: cfg.Cache.Addr, Password: cfg.Cache.Password, DB: cfg.Cache.DB})
	if err != nil {
		log.Error("failed connect to cache", "err", err)
		a.Close(ctx)
		return nil, fmt.Errorf("failed connect to cache: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return cache.Close() })

	sink, err := a.newEventSink()
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Metrics = metrics.New(nil)

	a.wire(db, cache, sink)

	return a, nil
}

func (a *App) wire(db *sqlx.DB, cache *redis.Client, sink eventSink) {
	cfg := a.cfg

	userRepo := userrepo.NewRepository(db)
	docRepo := documentrepo.NewRepository(db)
	grantRepo := grantrepo.NewRepository(db)
	outboxRepo := outboxrepo.NewRepository(db)
	transactor := postgres.NewTransactor(db)

	sessionCacheRepo := cachesessionrepo.New(cache, cfg.Cache.SessionTTL)
	documentCacheRepo := cachedocsrepo.New(cache, cfg.Cache.DocumentsTTL)

	fileStorage := filerepo.NewRepository(cfg.FileStorage.Path)

	a.UserService = userservice.New(a.log, userRepo, userRepo)

	a.AuthService = authservice.New(a.log, a.UserService, sessionCacheRepo, cfg.AdminToken)

	a.VerificationService = verificationservice.New(
		a.log,
		verificationservice.Config{
			MaxAttempts: cfg.Verification.MaxAttempts,
			BaseDelay:   cfg.Verification.BaseDelay,
		},
		docRepo,
		grantRepo,
		outboxRepo,
		transactor,
		documentCacheRepo,
		a.Metrics,
	)

	a.DocumentService = documentservice.New(a.log, docRepo, a.VerificationService, documentCacheRepo, fileStorage)

	a.Sweeper = expirationservice.New(
		a.log,
		expirationservice.Config{
			Interval:  cfg.Sweeper.Interval,
			BatchSize: cfg.Sweeper.BatchSize,
			LockTTL:   cfg.Sweeper.LockTTL,
		},
		docRepo,
		a.VerificationService,
		cache,
		a.Metrics,
	)

	a.Dispatcher = outboxservice.New(
		a.log,
		outboxservice.Config{
			Consumer:      cfg.Outbox.Consumer,
			PollInterval:  cfg.Outbox.PollInterval,
			LeaseTTL:      cfg.Outbox.LeaseTTL,
			BatchSize:     cfg.Outbox.BatchSize,
			MaxAttempts:   cfg.Outbox.MaxAttempts,
			RetryBackoff:  cfg.Outbox.RetryBackoff,
			RetryMaxDelay: cfg.Outbox.RetryMaxDelay,
		},
		outboxRepo,
		sink,
		sink,
		a.Metrics,
	)
}

// newEventSink publishes to Kafka when brokers are configured and to the
// application log otherwise.
func (a *App) newEventSink() (eventSink, error) {
	if len(a.cfg.Kafka.Brokers) == 0 {
		a.log.Info("no kafka brokers configured, events go to the log")
		return logsink.New(a.log), nil
	}

	sink, err := kafka.New(kafka.Config{
		Brokers:           a.cfg.Kafka.Brokers,
		ClientID:          a.cfg.Kafka.ClientID,
		AuditTopic:        a.cfg.Kafka.AuditTopic,
		NotificationTopic: a.cfg.Kafka.NotificationTopic,
	})
	if err != nil {
		a.log.Error("failed to create kafka sink", "err", err)
		return nil, fmt.Errorf("failed to create kafka sink: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error {
		sink.Close()
		return nil
	})

	return sink, nil
}

// Run serves HTTP and runs the background workers until ctx is cancelled
// or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.StartServer(ctx, &a.cfg.HTTPServer, a.log,
			a.DocumentService, a.VerificationService, a.AuthService, a.Metrics)
	})

	if a.cfg.Sweeper.Enabled {
		g.Go(func() error {
			return a.Sweeper.Run(ctx)
		})
	}

	g.Go(func() error {
		return a.Dispatcher.Run(ctx)
	})

	return g.Wait()
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
