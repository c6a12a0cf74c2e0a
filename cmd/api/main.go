package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shareit/internal/api"
	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/google"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/notify"
	"shareit/internal/repository"
	"shareit/internal/service"
	"shareit/internal/storage"
	"shareit/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout     = 10 * time.Second
	healthCheckInterval = 15 * time.Second
	sheetsCacheRefresh  = 10 * time.Minute
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := pflag.StringP("config", "c", envOr("CONFIG_PATH", "configs/config.yaml"), "path to the YAML config file")
	migrateOnly := pflag.Bool("migrate-only", false, "apply database migrations and exit")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	logger := logging.Component(baseLogger, "main")

	db, err := database.Open(cfg.Database, logging.Component(baseLogger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("init database")
		return err
	}
	defer db.Close()

	if *migrateOnly {
		logger.Info().Msg("migrations applied")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	eventBus := events.NewEventBus(logging.Component(baseLogger, "events"))
	initTelegram(cfg, eventBus, baseLogger, logger)

	g, gctx := errgroup.WithContext(ctx)

	var syncWorker domain.SyncWorker
	if sheetsWorker := initSheetsWorker(gctx, g, cfg, db, redisClient, baseLogger, logger); sheetsWorker != nil {
		syncWorker = sheetsWorker
	}

	svc := api.Services{
		Users:    service.NewUserService(db, logging.Component(baseLogger, "users")),
		Items:    service.NewItemService(db, logging.Component(baseLogger, "items")),
		Requests: service.NewRequestService(db, logging.Component(baseLogger, "requests")),
		Bookings: service.NewBookingService(db, eventBus, syncWorker, cfg.Booking.PreventOverlap, logging.Component(baseLogger, "bookings")),
		Comments: service.NewCommentService(db, eventBus, logging.Component(baseLogger, "comments")),
	}

	httpServer := api.NewHTTPServer(cfg.API, svc, db, userRateLimitStore(redisClient, baseLogger), logging.Component(baseLogger, "http"))
	g.Go(httpServer.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.API.GRPC.Enabled {
		grpcServer, err := api.NewGRPCServer(cfg.API, db, baseLogger)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		g.Go(grpcServer.Serve)
		g.Go(func() error {
			grpcServer.WatchHealth(gctx, healthCheckInterval)
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			grpcServer.Shutdown(shutdownCtx)
			return nil
		})
	}

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		g.Go(func() error { return serveMetrics(gctx, cfg.Monitoring.PrometheusPort, logger) })
	}

	if cfg.Backup.Enabled {
		backups, err := initBackups(ctx, cfg, db, baseLogger)
		if err != nil {
			logger.Warn().Err(err).Msg("backup uploader init failed, keeping backups local")
		}
		g.Go(func() error {
			backups.Start(gctx)
			return nil
		})
	}

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Bool("grpc", cfg.API.GRPC.Enabled).Msg("shareit started")

	err = g.Wait()
	logger.Info().Msg("shareit stopped")
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// userRateLimitStore prefers shared redis counters and falls back to local
// memory while redis is unreachable.
func userRateLimitStore(client *redis.Client, baseLogger *zerolog.Logger) domain.RateLimitStore {
	memory := repository.NewMemoryRateLimitStore()
	if client == nil {
		return memory
	}
	return repository.NewFailoverRateLimitStore(
		repository.NewRedisRateLimitStore(client, "shareit:ratelimit"),
		memory,
		logging.Component(baseLogger, "ratelimit"),
	)
}

func initTelegram(cfg *config.Config, bus *events.EventBus, baseLogger, logger *zerolog.Logger) {
	if cfg.Telegram.BotToken == "" || len(cfg.Telegram.NotifyChatIDs) == 0 {
		return
	}
	bot, err := notify.NewBotAPI(cfg.Telegram)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return
	}
	notify.NewTelegramNotifier(bot, cfg.Telegram.NotifyChatIDs, logging.Component(baseLogger, "telegram")).Subscribe(bus)
	logger.Info().Int("chats", len(cfg.Telegram.NotifyChatIDs)).Msg("telegram notifications enabled")
}

func initSheetsWorker(
	ctx context.Context,
	g *errgroup.Group,
	cfg *config.Config,
	db *database.DB,
	redisClient *redis.Client,
	baseLogger, logger *zerolog.Logger,
) *worker.SheetsWorker {
	if !cfg.Google.Enabled() {
		return nil
	}

	sheetsLogger := logging.Component(baseLogger, "sheets")
	sheets, err := google.NewSheetsService(ctx, cfg.Google.CredentialsFile, cfg.Google.BookingSpreadSheetID, sheetsLogger)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := sheets.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets unreachable, continuing without sheets")
		return nil
	}
	if err := sheets.EnsureHeader(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets header check failed")
	}

	w := worker.NewSheetsWorker(db, sheets, redisClient, worker.RetryPolicy{}, sheetsLogger)
	g.Go(func() error {
		w.Start(ctx)
		return nil
	})
	g.Go(func() error {
		sheets.StartCacheRefresh(ctx, sheetsCacheRefresh)
		return nil
	})

	logger.Info().Msg("google sheets sync enabled")
	return w
}

// initBackups always returns a usable service; a failed S3 setup only drops
// the upload step.
func initBackups(ctx context.Context, cfg *config.Config, db *database.DB, baseLogger *zerolog.Logger) (*database.BackupService, error) {
	backupLogger := logging.Component(baseLogger, "backup")
	if cfg.Backup.S3.Bucket == "" {
		return database.NewBackupService(db, cfg.Backup, nil, backupLogger), nil
	}

	uploader, err := storage.NewS3Uploader(ctx, cfg.Backup.S3)
	if err != nil {
		return database.NewBackupService(db, cfg.Backup, nil, backupLogger), err
	}
	return database.NewBackupService(db, cfg.Backup, uploader, backupLogger), nil
}

func serveMetrics(ctx context.Context, port int, logger *zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Int("port", port).Msg("metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
