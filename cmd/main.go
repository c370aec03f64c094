package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/sellora/marketplace-service/internal/application"
	"github.com/sellora/marketplace-service/internal/config"
	"github.com/sellora/marketplace-service/internal/kafka"
	"github.com/sellora/marketplace-service/internal/logger"
	"github.com/sellora/marketplace-service/internal/migrate"
	"github.com/sellora/marketplace-service/internal/presentation"
	"github.com/sellora/marketplace-service/internal/repository"
	"github.com/sellora/marketplace-service/internal/session"
)

func main() {
	logger.Init()
	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Warn("config load failed", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB pool
	pool, err := pgxpool.New(ctx, cfg.DB_STRING)
	if err != nil {
		logger.Warn("pgxpool new failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	backoff := retry.WithMaxRetries(5, retry.NewFibonacci(500*time.Millisecond))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		return retry.RetryableError(pool.Ping(ctx))
	}); err != nil {
		logger.Warn("db ping failed", "err", err)
		os.Exit(1)
	}
	logger.Info("db connected")

	if err := migrate.Up(cfg.DB_STRING); err != nil {
		logger.Warn("migrations failed", "err", err)
		os.Exit(1)
	}

	// Kafka producer for lifecycle events
	prod := kafka.NewProducer(cfg.KAFKA_BROKERS, cfg.KAFKA_TOPIC)
	defer prod.Close()

	// Redis pusher for live session signals
	pusher := session.NewPusher(cfg.REDIS_ADDR)
	defer pusher.Close()

	// Wiring
	orderRepo := repository.NewOrderRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	rateRepo := repository.NewRateRepository(pool)
	returnRepo := repository.NewReturnRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	notifRepo := repository.NewNotificationRepository(pool)

	outbox := application.NewOutbox(cfg.OUTBOX_BUFFER_SIZE)
	outbox.Start(ctx)

	auditSvc := application.NewAuditService(auditRepo)
	auditSvc.StartRetentionSweeper(ctx, cfg.AUDIT_RETENTION)

	notifSvc := application.NewNotificationsService(notifRepo, pusher, prod)
	ratesSvc := application.NewRatesService(rateRepo, outbox, auditSvc)
	pricingSvc := application.NewPricingService(ratesSvc)
	ordersSvc := application.NewOrdersService(orderRepo, productRepo, pricingSvc, outbox, auditSvc, notifSvc)
	returnsSvc := application.NewReturnsService(returnRepo, orderRepo, productRepo, outbox, auditSvc, notifSvc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API
	h := presentation.NewHandler(pricingSvc, ordersSvc, returnsSvc, ratesSvc, auditSvc, notifSvc)
	h.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	addr := ":" + cfg.HTTP_PORT
	logger.Info("starting http", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Warn("http server crashed", "err", err)
		os.Exit(1)
	}
}
