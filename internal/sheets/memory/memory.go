// Package memory is an in-memory RecordWriter used in tests and local
// development when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"chefsight/internal/core"
)

type Store struct {
	mu      sync.Mutex
	records []core.ExpenseRecord
	writes  int
}

func New() *Store {
	return &Store{}
}

// WriteRecords replaces the stored snapshot with a copy of records.
func (s *Store) WriteRecords(_ context.Context, records []core.ExpenseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]core.ExpenseRecord(nil), records...)
	s.writes++
	return nil
}

// Records returns a copy of the last written snapshot.
func (s *Store) Records() []core.ExpenseRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ExpenseRecord(nil), s.records...)
}

// Writes returns how many snapshots have been written.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
