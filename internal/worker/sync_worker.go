// Package worker reacts to snapshot refresh notifications by exporting
// the new record set to the configured spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"chefsight/internal/amqp"
	"chefsight/internal/core"
	"chefsight/internal/sheets"
)

type (
	// SnapshotReader loads the current record set from storage.
	SnapshotReader interface {
		ListRecords(ctx context.Context) (records []core.ExpenseRecord, snapshotID string, err error)
	}

	// SyncWorker mirrors each refreshed snapshot into a spreadsheet.
	SyncWorker struct {
		storage SnapshotReader
		writer  sheets.RecordWriter
	}
)

func NewSyncWorker(storage SnapshotReader, writer sheets.RecordWriter) *SyncWorker {
	return &SyncWorker{
		storage: storage,
		writer:  writer,
	}
}

// HandleRefreshMessage processes one refresh notification. The record
// set is re-read from storage rather than trusted from the message, so
// a delayed delivery still exports the latest data.
func (w *SyncWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.RecordsRefreshedMessage) error {
	slog.InfoContext(ctx, "Processing refresh message",
		"snapshot_id", msg.SnapshotID,
		"records", msg.RecordCount,
		"source", msg.Source)

	if w.writer == nil {
		slog.WarnContext(ctx, "No record writer configured, skipping sheet export",
			"snapshot_id", msg.SnapshotID)
		return nil
	}

	records, snapshotID, err := w.storage.ListRecords(ctx)
	if err != nil {
		return fmt.Errorf("load records for export: %w", err)
	}

	if snapshotID != msg.SnapshotID {
		slog.InfoContext(ctx, "Snapshot superseded since message was published, exporting latest",
			"message_snapshot", msg.SnapshotID,
			"current_snapshot", snapshotID)
	}

	if err := w.writer.WriteRecords(ctx, records); err != nil {
		return fmt.Errorf("export records to sheet: %w", err)
	}

	slog.InfoContext(ctx, "Exported snapshot",
		"snapshot_id", snapshotID,
		"records", len(records))

	return nil
}
