package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // schedule timezones on hosts without zoneinfo

	"appointease/internal/api"
	"appointease/internal/appointments"
	"appointease/internal/booking"
	"appointease/internal/catalog"
	"appointease/internal/clock"
	"appointease/internal/config"
	"appointease/internal/database"
	"appointease/internal/events"
	"appointease/internal/identity"
	"appointease/internal/metrics"
	"appointease/internal/models"
	"appointease/internal/query"
	"appointease/internal/report"
	"appointease/internal/slots"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg("no .env file found, using environment variables")
	}

	cfg, err := config.Load(os.Getenv("APPOINTEASE_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid timezone")
	}
	clk := clock.NewSystem(loc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services := catalog.DefaultServices
	if cfg.Catalog.Path != "" {
		if services, err = config.LoadServices(cfg.Catalog.Path); err != nil {
			logger.Fatal().Err(err).Msg("failed to load service catalog")
		}
	}
	cat, err := catalog.New(services)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid service catalog")
	}

	bus := events.NewEventBus()
	bus.OnError(func(e events.Event, err error) {
		logger.Warn().Err(err).Str("event", e.Type).Msg("event handler failed")
	})
	metrics.Register()
	metrics.Subscribe(bus)

	var journal *database.Journal
	if cfg.Journal.Enabled {
		journal, err = database.NewJournal(cfg.Journal.Path, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("open journal error")
		}
		defer journal.Close()
		journal.Subscribe(bus)

		backup := database.NewBackupService(journal, database.BackupConfig{
			Enabled:       cfg.Backup.Enabled,
			Interval:      cfg.BackupInterval(),
			StoragePath:   backupPath(cfg),
			RetentionDays: cfg.Backup.RetentionDays,
		}, &logger)
		go backup.Start(ctx)
	}

	engine := booking.NewEngine(cat, slots.NewStore(), appointments.NewStore(clk), clk, bus,
		booking.Options{CancelNotice: cfg.CancelNotice()}, &logger)
	if _, err := engine.Seed(clk.Now(), cfg.Schedule.SeedDays, cfg.BusinessHours(), cfg.SlotInterval()); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed slots")
	}

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}
	resolver := buildIdentity(ctx, cfg, rdb, &logger)

	var (
		exporter *report.Exporter
		history  api.History
	)
	if journal != nil {
		exporter = report.NewExporter(journal, &logger)
		history = journal
	} else {
		exporter = report.NewExporter(nil, &logger)
	}

	projector := query.NewProjector(engine, resolver, &logger)
	server := api.NewHTTPServer(engine, projector, resolver, exporter, history, api.Options{
		Port:          cfg.Server.Port,
		APIKey:        cfg.Server.APIKey,
		RatePerMinute: cfg.Server.RatePerMinute,
		RateBurst:     cfg.Server.RateBurst,
	}, &logger)
	go server.PruneRateLimits(ctx, 10*time.Minute, 30*time.Minute)

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, journal, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.Monitoring.GRPCHealthPort > 0 {
		go startGRPCHealth(ctx, cfg.Monitoring.GRPCHealthPort, &logger)
	}

	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			logger.Error().Err(err).Msg("api shutdown error")
		}
	}()

	logger.Info().Int("port", cfg.Server.Port).Str("timezone", loc.String()).Msg("appointease started")
	if err := server.Start(); err != nil {
		logger.Fatal().Err(err).Msg("api server error")
	}
	logger.Info().Msg("appointease stopped")
}

// buildIdentity chains the local user directory with the remote identity API when configured.
func buildIdentity(ctx context.Context, cfg *config.Config, rdb *redis.Client, logger *zerolog.Logger) identity.Resolver {
	directory := identity.NewDirectory(identity.DefaultUsers)
	if path := cfg.Identity.DirectoryPath; path != "" {
		err := config.WatchUsers(ctx, path, cfg.IdentityWatchInterval(), func(users []models.User) {
			directory.Replace(users)
			logger.Info().Int("users", len(users)).Time("reloaded_at", time.Now()).Msg("user directory loaded")
		}, func(err error) {
			logger.Warn().Err(err).Str("path", path).Msg("user directory reload failed")
		})
		if err != nil {
			logger.Error().Err(err).Msg("user directory watch failed; using default users")
		}
	}

	if cfg.Identity.BaseURL == "" {
		return directory
	}
	client := identity.NewClient(cfg.Identity.BaseURL, cfg.Identity.APIKey)
	if rdb != nil {
		client.UseRedisCache(rdb, cfg.IdentityCacheTTL())
	}
	return identity.Chain{directory, client}
}

func backupPath(cfg *config.Config) string {
	if cfg.Backup.Path == "" {
		return "backups"
	}
	return cfg.Backup.Path
}
