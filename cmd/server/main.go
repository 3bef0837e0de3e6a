package main // Entry point package

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/learnpulse/learnpulse/internal/config"
	"github.com/learnpulse/learnpulse/internal/database"
	"github.com/learnpulse/learnpulse/internal/generation"
	"github.com/learnpulse/learnpulse/internal/handler"
	"github.com/learnpulse/learnpulse/internal/llm"
	"github.com/learnpulse/learnpulse/internal/middleware"
	"github.com/learnpulse/learnpulse/internal/queue"
	"github.com/learnpulse/learnpulse/internal/repository"
	"github.com/learnpulse/learnpulse/internal/router"
	queue_publisher "github.com/learnpulse/learnpulse/internal/service"
	"github.com/learnpulse/learnpulse/internal/telemetry"
	"github.com/learnpulse/learnpulse/internal/ticket"
	"github.com/learnpulse/learnpulse/internal/transcript"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment

	log := newLogger()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBMaxOpenConns, cfg.DBConnLifetime)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer func() { _ = db.Close() }()

	schemaCtx, schemaCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(schemaCtx, db); err != nil {
		schemaCancel()
		log.Fatal().Err(err).Msg("ensure schema")
	}
	schemaCancel()

	// Redis accelerates caching and rate limiting but is never a
	// correctness dependency; a nil client disables both middlewares.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable, response cache and rate limiting disabled")
	}

	// Repositories.
	lockRepo := repository.NewLockRepo(db, cfg.LockTTL)
	subjectRepo := repository.NewWatchSubjectRepo(db)
	sessionRepo := repository.NewSessionTicketRepo(db)
	eventRepo := repository.NewWatchEventRepo(db)
	questionRepo := repository.NewQuestionSetRepo(db)
	summaryRepo := repository.NewSummaryRepo(db)

	// Domain services.
	seq := ticket.NewSequencer(subjectRepo, sessionRepo)
	recorder := telemetry.NewRecorder(seq, eventRepo, subjectRepo, log)
	publisher := queue_publisher.NewPublisher(queue.BrokerURL(), log)
	orch := generation.NewOrchestrator(
		lockRepo,
		transcript.NewClientFromEnv(),
		llm.NewClientFromEnv(),
		questionRepo,
		summaryRepo,
		publisher,
		generation.Config{
			QuestionAttempts: cfg.QuestionAttempts,
			SummaryAttempts:  cfg.SummaryAttempts,
			BackoffBase:      cfg.BackoffBase,
			BackoffCap:       cfg.BackoffCap,
			ChunkWindow:      cfg.ChunkWindow,
			JobTimeout:       cfg.JobTimeout,
		},
		log,
	)

	// Background loops: the lock reaper sweeps leases left behind by
	// crashed workers, the consumer records completion events.
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	go runLockReaper(reaperCtx, lockRepo, cfg.ReaperInterval, log)
	go queue.StartGenerationConsumer(log)

	// HTTP surface.
	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAPI(e,
		handler.NewStudyHandler(orch),
		handler.NewTelemetryHandler(recorder),
		handler.NewStatsHandler(subjectRepo, eventRepo, questionRepo, summaryRepo, lockRepo),
		cfg.JWTSecret,
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	)

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil {
			log.Info().Err(err).Msg("http server stopped")
		}
	}()

	// Wait for a termination signal, then drain: stop accepting
	// requests, stop the reaper, and let in-flight generation workers
	// finish so no lock row outlives its owner unnecessarily.
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	stopReaper()
	orch.Wait()
	log.Info().Msg("bye")
}

// newLogger builds the process-wide zerolog logger. LOG_LEVEL selects
// verbosity; APP_ENV=dev switches to the human-readable console writer.
func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", "learnpulse").Logger()
	if os.Getenv("APP_ENV") == "dev" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return log
}

// runLockReaper periodically deletes expired generation locks so a
// crashed worker's lease frees itself after the TTL.
func runLockReaper(ctx context.Context, locks *repository.LockRepo, interval time.Duration, log zerolog.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			n, err := locks.ExpireLocks(sweepCtx)
			cancel()
			if err != nil {
				log.Warn().Err(err).Msg("lock reaper sweep failed")
				continue
			}
			if n > 0 {
				log.Info().Int64("expired", n).Msg("reaped expired generation locks")
			}
		}
	}
}
