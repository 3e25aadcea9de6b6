package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/restaurant-phone-agent/internal/agent"
	"github.com/iliyamo/restaurant-phone-agent/internal/booking"
	"github.com/iliyamo/restaurant-phone-agent/internal/call"
	"github.com/iliyamo/restaurant-phone-agent/internal/config"
	"github.com/iliyamo/restaurant-phone-agent/internal/database"
	"github.com/iliyamo/restaurant-phone-agent/internal/handler"
	"github.com/iliyamo/restaurant-phone-agent/internal/llm"
	"github.com/iliyamo/restaurant-phone-agent/internal/metrics"
	"github.com/iliyamo/restaurant-phone-agent/internal/middleware"
	"github.com/iliyamo/restaurant-phone-agent/internal/quality"
	"github.com/iliyamo/restaurant-phone-agent/internal/queue"
	"github.com/iliyamo/restaurant-phone-agent/internal/repository"
	"github.com/iliyamo/restaurant-phone-agent/internal/router"
	"github.com/iliyamo/restaurant-phone-agent/internal/service"
	"github.com/iliyamo/restaurant-phone-agent/internal/validation"
)

func main() {
	_ = godotenv.Load() // .env is optional outside development

	cfg := config.Load()
	logger, err := config.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	agentCfg := config.LoadAgentConfig()
	llmCfg := config.LoadLLMConfig()
	queueCfg := config.LoadQueueConfig()
	cacheCfg := config.LoadCacheConfig()

	db, err := database.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := config.NewRedisClient(config.LoadRedisConfig(), logger)
	if rdb != nil {
		defer rdb.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// ---- storage ----
	reservations := repository.NewReservationRepo(db)
	tables := repository.NewTableRepo(db)
	calls := repository.NewCallRepo(db)

	// ---- domain ----
	publisher := service.NewPublisher(queueCfg, logger.Named("publisher"))
	bookingSvc := booking.NewService(reservations,
		booking.WithSuggester(booking.NewSuggester(agentCfg.OpenHour, agentCfg.CloseHour)),
		booking.WithThreshold(agentCfg.FuzzyThreshold),
		booking.WithNotifier(publisher),
		booking.WithMetrics(m),
		booking.WithLogger(logger.Named("booking")),
	)

	model := llm.NewClient(llm.Config{
		APIKey:      llmCfg.APIKey,
		Model:       llmCfg.Model,
		MaxTokens:   llmCfg.MaxTokens,
		Temperature: llmCfg.Temperature,
		Timeout:     llmCfg.Timeout,
	}, m, logger.Named("llm"))
	if llmCfg.APIKey == "" {
		logger.Warn("ANTHROPIC_API_KEY not set, callers will only hear the apology reply")
	}

	var judge quality.Judge
	if llmCfg.JudgeEnabled {
		judge = model
	}
	scorer := quality.NewScorer(judge, logger.Named("quality"))
	qualitySvc := quality.NewService(calls, scorer, m, logger.Named("quality"))

	tools := agent.NewTools(bookingSvc, m, logger.Named("tools"))
	phoneAgent := agent.New(model, tools, agent.Settings{
		Restaurant: agentCfg.Restaurant,
		HopLimit:   agentCfg.HopLimit,
	}, m, logger.Named("agent"))

	var announcer call.Announcer
	if queueCfg.Enabled {
		announcer = publisher
	} else {
		logger.Info("queue disabled, judged scores come from agentctl score --pending")
	}
	finalizer := call.NewFinalizer(calls, qualitySvc, announcer, m, logger.Named("calls"))

	purge := func(ctx context.Context) error { return middleware.PurgeCache(ctx, rdb, cacheCfg.Prefix) }

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.Echo{}
	e.Use(middleware.RequestLogger(logger.Named("http")))
	e.Use(middleware.Recover(logger.Named("http")))

	router.RegisterRoutes(e, db, reg)
	router.RegisterCalls(e,
		handler.NewCallHandler(phoneAgent, finalizer, agentCfg.Variants, logger.Named("calls")),
		middleware.NewTokenBucket(config.LoadRateLimitConfig("CALL_RATE_LIMIT", config.CallRateLimitDefaults), rdb, logger),
	)
	resHandler := handler.NewReservationHandler(bookingSvc)
	router.RegisterReservations(e, resHandler,
		middleware.NewTokenBucket(config.LoadRateLimitConfig("RATE_LIMIT", config.PublicRateLimitDefaults), rdb, logger))
	analytics := handler.NewAnalyticsHandler(calls, qualitySvc, logger.Named("analytics"))
	analytics.Invalidate = purge
	router.RegisterStaff(e, router.Staff{
		Analytics:    analytics,
		Tables:       handler.NewTableHandler(tables),
		Reservations: resHandler,
	}, cfg.JWTSecret, middleware.NewRedisCache(cacheCfg, rdb, logger))

	// ---- run ----
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	addr := ":" + cfg.Port
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if queueCfg.Enabled {
		bookingLog := queue.NewBookingLog(envDir())
		rescorer := queue.NewRescorer(qualitySvc, llmCfg.JudgeEnabled)
		consumers := []*queue.Consumer{
			queue.NewConsumer(queueCfg.URL, queueCfg.ReservationQueue, queueCfg.Prefetch,
				bookingLog.Handle, m, logger.Named("booking-consumer")),
			queue.NewConsumer(queueCfg.URL, queueCfg.CallQueue, queueCfg.Prefetch,
				func(ctx context.Context, body []byte) error {
					if err := rescorer.Handle(ctx, body); err != nil {
						return err
					}
					if err := purge(ctx); err != nil {
						logger.Warn("cache purge failed", zap.Error(err))
					}
					return nil
				}, m, logger.Named("rescore-consumer")),
		}
		for _, c := range consumers {
			c := c
			g.Go(func() error { return c.Run(gctx) })
		}
	}

	return g.Wait()
}

// envDir is where the booking log is written.
func envDir() string {
	if d := os.Getenv("BOOKING_LOG_DIR"); d != "" {
		return d
	}
	return "logs"
}
