package main // Entry point package

import (
	"context"   // cancellation for background workers and shutdown
	"errors"    // distinguishing a clean server close
	"log/slog"  // request log attributes
	"net/http"  // http.ErrServerClosed
	"os"        // process exit
	"os/signal" // graceful shutdown on SIGINT/SIGTERM
	"syscall"   // SIGTERM
	"time"      // timeouts

	"github.com/joho/godotenv"                      // .env loading for local development
	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // Recover, request logging, CORS
	"github.com/redis/go-redis/v9"                  // shared Redis client

	"github.com/iliyamo/atom-referral-tracker/internal/config"     // Internal config loader
	"github.com/iliyamo/atom-referral-tracker/internal/database"   // document store selection
	"github.com/iliyamo/atom-referral-tracker/internal/handler"    // HTTP handlers
	"github.com/iliyamo/atom-referral-tracker/internal/jobs"       // cron jobs
	"github.com/iliyamo/atom-referral-tracker/internal/logger"     // structured logging
	"github.com/iliyamo/atom-referral-tracker/internal/middleware" // rate limiting and caching
	"github.com/iliyamo/atom-referral-tracker/internal/notify"     // notification sinks
	"github.com/iliyamo/atom-referral-tracker/internal/queue"      // RabbitMQ notification queue
	"github.com/iliyamo/atom-referral-tracker/internal/ratelimit"  // limiter backends
	"github.com/iliyamo/atom-referral-tracker/internal/router"     // Internal router setup
	"github.com/iliyamo/atom-referral-tracker/internal/service"    // business rules
)

func main() {
	_ = godotenv.Load() // a missing .env is fine outside development
	cfg := config.Load()
	logger.Initialize(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := database.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer func() { _ = closeStore() }()

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	scheduler := jobs.NewScheduler()
	rlCfg := config.LoadRateLimitConfig()
	limiter := newLimiter(rdb, rlCfg, scheduler)

	notifier, closeNotifier := newNotifier(ctx, cfg)
	defer closeNotifier()
	dispatcher := notify.NewDispatcher(notifier, 10*time.Second)

	svc := service.New(store, dispatcher, service.Options{
		AdminKey:     cfg.AdminKey,
		AdminEmail:   cfg.AdminEmail,
		JWTSecret:    cfg.JWTSecret,
		AccessTTLMin: cfg.AccessTTLMin,
		BcryptCost:   cfg.BcryptCost,
		UPIPayeeVPA:  cfg.UPIPayeeVPA,
		UPIPayeeName: cfg.UPIPayeeName,
	})

	jobsCfg := config.LoadJobsConfig()
	if jobsCfg.Enabled {
		if err := scheduler.Register("payment-reminders", jobsCfg.PaymentReminders, jobs.PaymentReminders(svc)); err != nil {
			logger.Error("failed to register job", "error", err)
		}
	}
	scheduler.Start()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("2M")) // proofs may carry an inline screenshot
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURIPath:  true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Get().LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("path", v.URIPath),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("ip", v.RemoteIP),
			)
			return nil
		},
	}))

	router.RegisterRoutes(e)
	deps := router.Deps{
		Limiter:   middleware.NewRateLimiter(limiter, rlCfg),
		JWTSecret: cfg.JWTSecret,
	}
	if rdb != nil {
		deps.DashboardCache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	}
	router.RegisterAPI(e, handler.New(svc), deps)

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env, "mysql", cfg.UseMySQL(), "redis", rdb != nil)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	scheduler.Stop()
	dispatcher.Wait()
}

// newLimiter prefers Redis so limits hold across instances. The in-process
// fallback is pruned by a cron job.
func newLimiter(rdb *redis.Client, cfg config.RateLimitConfig, s *jobs.Scheduler) ratelimit.Limiter {
	if rdb != nil {
		return ratelimit.NewRedisLimiter(rdb, cfg.Prefix)
	}
	logger.Warn("redis not configured, rate limits are per instance")
	mem := ratelimit.NewMemoryLimiter()
	if err := s.Register("prune-rate-limits", cfg.PruneEvery, jobs.PruneRateLimits(mem)); err != nil {
		logger.Error("failed to register job", "error", err)
	}
	return mem
}

// newNotifier returns the sink the service dispatches to. With a broker the
// HTTP path only enqueues and a consumer goroutine delivers the email.
func newNotifier(ctx context.Context, cfg config.Config) (notify.Notifier, func()) {
	var mailer notify.Notifier = notify.LogNotifier{}
	if cfg.SendGridKey != "" {
		mailer = notify.NewSendGridMailer(cfg.SendGridKey, cfg.MailFrom, cfg.MailFromName)
	} else {
		logger.Warn("SENDGRID_API_KEY not set, emails are logged only")
	}
	if cfg.RabbitMQURL == "" {
		return mailer, func() {}
	}
	pub := queue.NewPublisher(cfg.RabbitMQURL)
	go func() {
		if err := queue.StartNotificationConsumer(ctx, cfg.RabbitMQURL, mailer); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("notification consumer stopped", "error", err)
		}
	}()
	return pub, func() { _ = pub.Close() }
}
