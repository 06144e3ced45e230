package core

import "time"

// FilterByRange returns the records whose date falls inside r,
// evaluated against now. The cutoff is computed once per call on
// calendar dates in UTC. There is no upper bound, so future-dated
// records always pass. An unknown range behaves like AllTime. The
// input slice is never mutated and order is preserved.
func FilterByRange(records []ExpenseRecord, r TimeRange, now time.Time) []ExpenseRecord {
	var cutoff time.Time
	switch r {
	case Last30Days:
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		cutoff = midnight.AddDate(0, 0, -30)
	case YearToDate:
		cutoff = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return append([]ExpenseRecord(nil), records...)
	}

	filtered := make([]ExpenseRecord, 0, len(records))
	for _, rec := range records {
		if !rec.Date.Before(cutoff) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
