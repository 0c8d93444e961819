package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/otpless/invoice-service/internal/app"
	"github.com/otpless/invoice-service/internal/auth"
	"github.com/otpless/invoice-service/internal/document"
	"github.com/otpless/invoice-service/internal/invoice"
	invoicehttp "github.com/otpless/invoice-service/internal/invoice/http"
	"github.com/otpless/invoice-service/internal/notify"
	"github.com/otpless/invoice-service/internal/observability"
	"github.com/otpless/invoice-service/internal/platform/cache"
	"github.com/otpless/invoice-service/internal/platform/db"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	invoiceCfg, err := cfg.InvoiceConfig()
	if err != nil {
		logger.Error("invoice config", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()
	notifier := notify.NewAsynqNotifier(asynqClient, logger)

	repo := invoice.NewRepository(pool, invoiceCfg)
	invoiceService := invoice.NewService(invoiceCfg, repo, repo, notifier, logger)

	gotenberg := document.NewGotenbergClient(cfg.GotenbergURL)
	if err := gotenberg.Ping(ctx); err != nil {
		logger.Warn("gotenberg ping", slog.Any("error", err))
	}
	storage, err := document.NewS3Storage(cfg.S3Region, cfg.S3Bucket)
	if err != nil {
		logger.Error("document storage", slog.Any("error", err))
		os.Exit(1)
	}
	urlCache := document.NewURLCache(redisClient, cfg.SignedURLTTL-time.Minute)
	documentService := document.NewService(gotenberg, storage, urlCache, document.TemplateConfig{
		CompanyLogo: cfg.CompanyLogo,
		CompanyDetails: document.CompanyDetails{
			Name:    cfg.CompanyName,
			Address: cfg.CompanyAddress,
			TaxID:   cfg.CompanyTaxID,
		},
		DraftWatermark: cfg.DraftWatermark,
	}, cfg.SignedURLTTL, logger)

	authService := auth.NewService(auth.NewRepository(pool))
	metrics := observability.NewMetrics()

	handler := invoicehttp.NewHandler(logger, invoiceService, documentService, metrics)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		AuthService:    authService,
		InvoiceHandler: handler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
