// Command ingest runs a single refresh cycle: fetch the CSV source,
// parse it and replace the stored snapshot. Useful from cron or for
// seeding a fresh database.
package main

import (
	"context"
	"os"
	"time"

	"chefsight/internal/amqp"
	"chefsight/internal/cli"
	"chefsight/internal/services"
	"chefsight/internal/source"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitStorage(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var publisher services.RefreshPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
	}

	fetcher := source.NewFetcher(cfg.CSVSourceURL, cfg.FallbackDelay)
	refreshSvc := services.NewRefreshService(fetcher, repo, publisher)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	result, err := refreshSvc.Refresh(ctx)
	if err != nil {
		logger.Error("Refresh failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Refresh complete",
		"snapshot_id", result.SnapshotID,
		"records", result.RecordCount,
		"source", result.Source)
}
