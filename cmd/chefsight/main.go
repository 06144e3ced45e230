package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chefsight/internal/amqp"
	"chefsight/internal/cli"
	apphttp "chefsight/internal/http"
	"chefsight/internal/receipts"
	"chefsight/internal/services"
	"chefsight/internal/source"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitStorage(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// AMQP is optional; without it refreshes simply go unannounced.
	var publisher services.RefreshPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	fetcher := source.NewFetcher(cfg.CSVSourceURL, cfg.FallbackDelay)
	refreshSvc := services.NewRefreshService(fetcher, repo, publisher)
	dashboardSvc := services.NewDashboardService(repo, cfg.CacheSize, cfg.CacheTTL)

	var pipeline apphttp.ReceiptPipeline
	if cfg.ReceiptsAPIURL != "" {
		pipeline = receipts.NewClient(cfg.ReceiptsAPIURL)
		logger.Info("Receipt pipeline client initialized", "url", cfg.ReceiptsAPIURL)
	} else {
		logger.Info("Receipt pipeline disabled - no RECEIPTS_API_URL provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, dashboardSvc, refreshSvc, pipeline, repo)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Populate the store on startup so the dashboard is never empty.
	go func() {
		startCtx, startCancel := context.WithTimeout(ctx, 30*time.Second)
		defer startCancel()
		if result, err := refreshSvc.Refresh(startCtx); err != nil {
			logger.Error("Initial refresh failed", "error", err)
		} else {
			logger.Info("Initial refresh complete",
				"snapshot_id", result.SnapshotID,
				"records", result.RecordCount,
				"source", result.Source)
		}
	}()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting chefsight server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
