// Package storage persists the latest parsed record snapshot in SQLite.
// The record set is replaced wholesale on every refresh cycle, never
// patched row by row; the snapshot table tracks a fingerprint of the
// current set so view caches can key on it.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"chefsight/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// SnapshotInfo describes the currently stored record set.
type SnapshotInfo struct {
	ID          string
	Source      string
	RecordCount int
	RefreshedAt time.Time
}

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

// Ready reports whether the database is reachable.
func (r *Repository) Ready(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReplaceAll swaps the stored record set for the given one in a single
// transaction and returns the new snapshot fingerprint.
func (r *Repository) ReplaceAll(ctx context.Context, records []core.ExpenseRecord, source string) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return "", fmt.Errorf("clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (record_id, date, store, item, total_cost_cents, units, unit_type, cost_per_unit_cents, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			rec.ID,
			rec.Date.Format(dateLayout),
			rec.Store,
			rec.Item,
			rec.TotalCost.Cents,
			rec.Units,
			rec.UnitType,
			rec.CostPerUnit.Cents,
			rec.Category,
		)
		if err != nil {
			return "", fmt.Errorf("insert record %s: %w", rec.ID, err)
		}
	}

	now := time.Now().UTC()
	snapshotID := strconv.FormatInt(now.UnixNano(), 10)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshot (key, snapshot_id, source, record_count, refreshed_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			snapshot_id = excluded.snapshot_id,
			source = excluded.source,
			record_count = excluded.record_count,
			refreshed_at = excluded.refreshed_at`,
		snapshotID, source, len(records), now.Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("update snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Record snapshot replaced",
		"snapshot_id", snapshotID,
		"records", len(records),
		"source", source)

	return snapshotID, nil
}

// ListRecords returns the stored record set in insertion order along
// with its snapshot fingerprint. An empty store yields an empty slice
// and an empty fingerprint.
func (r *Repository) ListRecords(ctx context.Context) ([]core.ExpenseRecord, string, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return nil, "", err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT record_id, date, store, item, total_cost_cents, units, unit_type, cost_per_unit_cents, category
		FROM records ORDER BY seq`)
	if err != nil {
		return nil, "", fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []core.ExpenseRecord
	for rows.Next() {
		var rec core.ExpenseRecord
		var date string
		if err := rows.Scan(&rec.ID, &date, &rec.Store, &rec.Item,
			&rec.TotalCost.Cents, &rec.Units, &rec.UnitType,
			&rec.CostPerUnit.Cents, &rec.Category); err != nil {
			return nil, "", fmt.Errorf("scan record: %w", err)
		}
		rec.Date, err = time.Parse(dateLayout, date)
		if err != nil {
			return nil, "", fmt.Errorf("parse stored date %q: %w", date, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterate records: %w", err)
	}

	return records, snap.ID, nil
}

// Snapshot returns metadata for the current record set. A store that
// has never been refreshed yields a zero-valued SnapshotInfo.
func (r *Repository) Snapshot(ctx context.Context) (SnapshotInfo, error) {
	var info SnapshotInfo
	var refreshedAt string
	err := r.db.QueryRowContext(ctx, `
		SELECT snapshot_id, source, record_count, refreshed_at FROM snapshot WHERE key = 1`).
		Scan(&info.ID, &info.Source, &info.RecordCount, &refreshedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotInfo{}, nil
	}
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("query snapshot: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, refreshedAt); err == nil {
		info.RefreshedAt = t
	}
	return info, nil
}
