// Package services wires the pure analytics in core to storage, the
// record source and the message broker.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"chefsight/internal/core"
)

type (
	// TextFetcher acquires raw CSV text and reports which source
	// produced it.
	TextFetcher interface {
		Fetch(ctx context.Context) (text string, source string, err error)
	}

	// RecordStore persists the record set wholesale.
	RecordStore interface {
		ReplaceAll(ctx context.Context, records []core.ExpenseRecord, source string) (snapshotID string, err error)
	}

	// RefreshPublisher notifies downstream consumers that a new
	// snapshot is available.
	RefreshPublisher interface {
		PublishRecordsRefreshed(ctx context.Context, snapshotID string, recordCount int, source string) error
	}

	RefreshResult struct {
		SnapshotID  string `json:"snapshot_id"`
		RecordCount int    `json:"record_count"`
		Source      string `json:"source"`
	}

	RefreshService struct {
		fetcher   TextFetcher
		store     RecordStore
		publisher RefreshPublisher
	}
)

// NewRefreshService builds a refresh service. publisher may be nil
// when no broker is configured; refreshes then complete without
// notifying anyone.
func NewRefreshService(fetcher TextFetcher, store RecordStore, publisher RefreshPublisher) *RefreshService {
	return &RefreshService{
		fetcher:   fetcher,
		store:     store,
		publisher: publisher,
	}
}

// Refresh fetches the CSV text, parses it and replaces the stored
// record set. A publish failure is logged but does not fail the
// refresh; the snapshot is already durable at that point.
func (s *RefreshService) Refresh(ctx context.Context) (*RefreshResult, error) {
	text, source, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch record source: %w", err)
	}

	records := core.ParseRecords(text)
	snapshotID, err := s.store.ReplaceAll(ctx, records, source)
	if err != nil {
		return nil, fmt.Errorf("store record snapshot: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishRecordsRefreshed(ctx, snapshotID, len(records), source); err != nil {
			slog.ErrorContext(ctx, "Failed to publish refresh notification",
				"error", err,
				"snapshot_id", snapshotID)
		}
	}

	return &RefreshResult{
		SnapshotID:  snapshotID,
		RecordCount: len(records),
		Source:      source,
	}, nil
}
