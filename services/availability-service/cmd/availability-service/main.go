package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/conferences/libs/config"
	"github.com/md-rashed-zaman/conferences/libs/db"
	"github.com/md-rashed-zaman/conferences/libs/grpcx"
	"github.com/md-rashed-zaman/conferences/libs/httpx"
	"github.com/md-rashed-zaman/conferences/libs/kafkax"
	"github.com/md-rashed-zaman/conferences/libs/metrics"
	otelx "github.com/md-rashed-zaman/conferences/libs/otel"
	"github.com/md-rashed-zaman/conferences/libs/runtime"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/booking"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/calendar"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/handlers"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/outbox"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	_ "time/tzdata"
)

func main() {
	service := config.String("SERVICE_NAME", "availability-service")
	logger, err := runtime.NewLogger(service, config.String("LOG_LEVEL", "info"))
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger, service); err != nil {
		logger.Fatal("service stopped", zap.Error(err))
	}
}

func run(logger *zap.Logger, service string) error {
	port, err := config.Port("PORT", "8080")
	if err != nil {
		return err
	}
	grpcPort, err := config.Port("GRPC_PORT", "9090")
	if err != nil {
		return err
	}
	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		return err
	}

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	pool, err := db.Open(ctx, dbURL, db.PoolOptions{
		MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	schedules := storage.NewScheduleRepository(pool)
	bookings := storage.NewBookingRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	busy := calendar.Instrument("bookings", calendar.StoredBookings(bookings))
	if credentials := config.String("GOOGLE_CREDENTIALS_FILE", ""); credentials != "" {
		google, err := calendar.NewGoogleOracle(ctx, logger, option.WithCredentialsFile(credentials))
		if err != nil {
			return err
		}
		busy = calendar.Merge(calendar.Instrument("google_calendar", google), busy)
	} else {
		logger.Warn("GOOGLE_CREDENTIALS_FILE not set; only stored bookings count as busy")
	}

	svc := booking.NewService(schedules, bookings, outboxRepo, busy, logger, booking.Config{
		CalendarTimeout: config.Duration("CALENDAR_TIMEOUT", 5*time.Second),
		MaxRangeDays:    config.Int("MAX_RANGE_DAYS", 366),
	})

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}

	brokers := config.String("KAFKA_BROKERS", "")
	if brokers != "" {
		writer := kafkax.NewWriter(brokers)
		defer func() { _ = writer.Close() }()
		publisher := outbox.NewPublisher(outboxRepo, writer, logger, outbox.PublisherConfig{
			PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
			BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
		})
		go publisher.Run(ctx)
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	} else {
		logger.Warn("KAFKA_BROKERS not set; outbox events stay unpublished")
	}

	limiter := httpx.NewRateLimiter(config.Int("RATE_LIMIT_PER_MINUTE", 120), time.Minute).Middleware()
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		defer func() { _ = rdb.Close() }()
		limiter = httpx.NewRedisRateLimiter(rdb, config.Int("RATE_LIMIT_PER_MINUTE", 120), time.Minute, service).
			Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	}

	router := chi.NewRouter()
	runtime.MountHealth(router, checks...)
	router.Handle("/metrics", metrics.Handler())
	router.Group(func(r chi.Router) {
		r.Use(
			limiter,
			httpx.WithBodyLimit(64<<10),
			httpx.WithTimeout(config.Duration("HTTP_HANDLER_TIMEOUT", 15*time.Second)),
		)
		handlers.New(svc, logger).Routes(r)
	})

	httpHandler := httpx.Chain(router,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{AllowedOrigins: config.List("CORS_ALLOWED_ORIGINS"), MaxAge: 10 * time.Minute}),
	)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           otelhttp.NewHandler(httpHandler, "availability"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcSrv, health := grpcx.NewServer(logger)
	lis, err := net.Listen("tcp", ":"+grpcPort)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("grpc health server starting", zap.String("addr", lis.Addr().String()))
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}
	grpcSrv.GracefulStop()
	logger.Info("servers stopped")
	return nil
}
