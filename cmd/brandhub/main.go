package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/brandhub/pkg/api"
	"github.com/platinummonkey/brandhub/pkg/audit"
	"github.com/platinummonkey/brandhub/pkg/auth"
	"github.com/platinummonkey/brandhub/pkg/businesses"
	"github.com/platinummonkey/brandhub/pkg/config"
	"github.com/platinummonkey/brandhub/pkg/notify"
	"github.com/platinummonkey/brandhub/pkg/observability"
)

var version = "dev"

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "Run database migrations and exit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	if err := run(cfg, logger, *migrateOnly); err != nil {
		logger.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger, migrateOnly bool) error {
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := businesses.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("database migrations applied")

	if migrateOnly {
		return nil
	}

	// Notifier: Redis pub/sub when configured, structured log otherwise
	var notifier notify.Notifier
	if cfg.Notify.RedisURL != "" {
		redisNotifier, err := notify.NewRedisNotifier(cfg.Notify.RedisURL, cfg.Notify.Channel)
		if err != nil {
			return fmt.Errorf("failed to connect notifier: %w", err)
		}
		notifier = redisNotifier
		logger.WithField("channel", cfg.Notify.Channel).Info("redis notifier enabled")
	} else {
		notifier = notify.NewLogNotifier(logger)
	}
	defer notifier.Close()

	recorder, err := audit.NewDBRecorder(db)
	if err != nil {
		return fmt.Errorf("failed to create audit recorder: %w", err)
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	service := businesses.NewCachedService(businesses.NewPostgresService(db), cfg.Team.PermissionCacheTTL)
	tokens := auth.NewTokenManager(db)
	users := auth.NewUserManager(db)

	server := api.NewServer(service, tokens, users, logger, api.Options{
		Metrics:  metrics,
		Notifier: notifier,
		Recorder: recorder,
	})

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics on a separate port for k8s probes
	var redisClient = redisClientOf(notifier)
	health := observability.NewHealthChecker(db, redisClient, version)
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", health.Liveness)
	healthMux.HandleFunc("/readyz", health.Readiness)
	if metrics != nil {
		healthMux.Handle("/metrics", metrics.Handler())
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	// Background jobs: prune stale expired invitations and sample pool stats
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Team.PruneSchedule, func() {
		pruned, err := service.PruneExpiredInvitations(cfg.Team.PruneRetention)
		if err != nil {
			logger.WithError(err).Error("invitation pruning failed")
			return
		}
		if pruned > 0 {
			logger.WithField("count", pruned).Info("pruned expired invitations")
		}
		if metrics != nil {
			metrics.InvitationsPruned.Add(float64(pruned))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule invitation pruning: %w", err)
	}
	scheduler.Start()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("API server listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	if metrics != nil {
		group.Go(func() error {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-groupCtx.Done():
					return nil
				case <-ticker.C:
					metrics.CollectDBStats(db)
				}
			}
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")

		cronCtx := scheduler.Stop()
		<-cronCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("api server shutdown")
		}
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("health server shutdown")
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

// redisClientOf unwraps the redis client for health checks, nil for the
// log-backed notifier.
func redisClientOf(n notify.Notifier) *redis.Client {
	if rn, ok := n.(*notify.RedisNotifier); ok {
		return rn.Client()
	}
	return nil
}
