package sheets

import (
	"context"

	"chefsight/internal/core"
)

// RecordWriter exports a full record snapshot to an external sheet.
// Snapshots replace each other wholesale, so implementations overwrite
// rather than append.
type RecordWriter interface {
	WriteRecords(ctx context.Context, records []core.ExpenseRecord) error
}
