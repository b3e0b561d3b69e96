// Package app owns the process lifecycle: connect, migrate, schedule, serve.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/Ramsey-B/magnolia/config"
	"github.com/Ramsey-B/magnolia/internal/downstream"
	"github.com/Ramsey-B/magnolia/internal/repositories/entitystore"
	importlogrepo "github.com/Ramsey-B/magnolia/internal/repositories/importlog"
	"github.com/Ramsey-B/magnolia/internal/repositories/wrglrepo"
	"github.com/Ramsey-B/magnolia/pkg/database"
	"github.com/Ramsey-B/magnolia/pkg/events"
	"github.com/Ramsey-B/magnolia/pkg/kafka"
	"github.com/Ramsey-B/magnolia/pkg/orchestrator"
	"github.com/Ramsey-B/magnolia/pkg/redis"
	"github.com/Ramsey-B/magnolia/pkg/routes/health"
	"github.com/Ramsey-B/magnolia/pkg/scheduler"
	"github.com/Ramsey-B/magnolia/pkg/server"
	"github.com/Ramsey-B/magnolia/pkg/snapshot"
	"github.com/Ramsey-B/magnolia/pkg/startup"
)

// Version is set at build time
var Version = "dev"

// App assembles and runs the importer service
type App struct {
	cfg     *config.Config
	logger  ectologger.Logger
	startup *startup.Startup

	db        database.DB
	redis     *redis.Client
	producer  *kafka.Producer
	scheduler *scheduler.Scheduler
	server    *server.Server
	checker   *health.Checker
}

// New creates the app and registers its startup dependencies
func New(cfg *config.Config, logger ectologger.Logger) *App {
	a := &App{
		cfg:    cfg,
		logger: logger,
	}

	s := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	s.AddDependency(&dependency{name: "database", start: a.startDatabase, stop: a.stopDatabase})
	s.AddDependency(&dependency{name: "redis", start: a.startRedis, stop: a.stopRedis})
	s.AddDependency(&dependency{name: "kafka_producer", start: a.startProducer, stop: a.stopProducer})
	s.AddDependency(&dependency{
		name:      "scheduler",
		dependsOn: []string{"database", "redis", "kafka_producer"},
		start:     a.startScheduler,
		stop:      a.stopScheduler,
	})
	s.AddDependency(&dependency{
		name:      "http_server",
		dependsOn: []string{"database", "redis"},
		start:     a.startServer,
		stop:      a.stopServer,
	})
	a.startup = s

	return a
}

// Start brings up every dependency in order
func (a *App) Start(ctx context.Context) error {
	if err := a.startup.Start(ctx); err != nil {
		return err
	}
	a.checker.SetReady(true)
	a.logger.WithField("version", Version).Info("Importer started")
	return nil
}

// Stop shuts everything down in reverse order
func (a *App) Stop(ctx context.Context) error {
	if a.checker != nil {
		a.checker.SetReady(false)
	}
	return a.startup.Stop(ctx)
}

func (a *App) startDatabase(ctx context.Context) error {
	cfg := a.cfg
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)

	db, err := sqlx.ConnectContext(ctx, cfg.DatabaseDriver, dsn)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return err
	}

	migrations := database.NewMigrationService(a.logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
		return err
	}

	a.db = database.NewDatabaseInstance(db, a.logger)
	return nil
}

func (a *App) stopDatabase(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) startRedis(ctx context.Context) error {
	client, err := redis.NewClient(redis.Config{
		Host:     a.cfg.RedisHost,
		Port:     a.cfg.RedisPort,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	}, a.logger)
	if err != nil {
		return err
	}
	a.redis = client
	return nil
}

func (a *App) stopRedis(ctx context.Context) error {
	if a.redis == nil {
		return nil
	}
	return a.redis.Close()
}

func (a *App) startProducer(ctx context.Context) error {
	a.producer = kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      a.cfg.KafkaBrokers,
		Topic:        a.cfg.KafkaOutputTopic,
		BatchSize:    a.cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(a.cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: a.cfg.KafkaRequiredAcks,
		Compression:  a.cfg.KafkaCompression,
	}, a.logger)
	return nil
}

func (a *App) stopProducer(ctx context.Context) error {
	if a.producer == nil {
		return nil
	}
	return a.producer.Close()
}

func (a *App) startScheduler(ctx context.Context) error {
	cfg := a.cfg

	store := entitystore.NewRepository(a.db, a.logger)
	logs := importlogrepo.NewRepository(a.db, a.logger)
	commits := wrglrepo.NewRepository(a.db, a.logger)
	source := snapshot.NewFileSource(cfg.SnapshotRootDir, a.logger)

	importers := orchestrator.Importers(store, logs, commits, source, a.logger)
	locker := orchestrator.NewRedisLocker(redis.NewLocker(a.redis, ""))
	recomputes := downstream.NewService(a.db, a.producer, a.logger)
	emitter := events.NewEmitter(a.producer, a.logger)

	orch := orchestrator.New(importers, locker, recomputes, emitter, orchestrator.Config{
		LockKey: cfg.ImportLockKey,
		LockTTL: cfg.ImportLockTTL,
	}, a.logger)

	a.scheduler = scheduler.NewScheduler(orch, scheduler.Config{
		Interval:   cfg.ImportInterval,
		RunOnStart: cfg.ImportRunOnStart,
	}, a.logger)

	return a.scheduler.Start(ctx)
}

func (a *App) stopScheduler(ctx context.Context) error {
	if a.scheduler == nil {
		return nil
	}
	return a.scheduler.Stop(ctx)
}

func (a *App) startServer(ctx context.Context) error {
	a.checker = health.NewChecker(a.db, a.redis, Version)
	a.server = server.New(a.cfg, a.checker, a.logger)

	go func() {
		if err := a.server.Start(); err != nil && err != http.ErrServerClosed {
			a.logger.WithError(err).Error("HTTP server stopped unexpectedly")
		}
	}()

	return nil
}

func (a *App) stopServer(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// dependency adapts start/stop closures to the startup graph
type dependency struct {
	name      string
	dependsOn []string
	start     func(ctx context.Context) error
	stop      func(ctx context.Context) error
}

func (d *dependency) GetName() string {
	return d.name
}

func (d *dependency) DependsOn() []string {
	return d.dependsOn
}

func (d *dependency) Start(ctx context.Context) error {
	return d.start(ctx)
}

func (d *dependency) Stop(ctx context.Context) error {
	return d.stop(ctx)
}
