package core

import (
	"fmt"
	"strconv"
	"time"
)

// TimeRange selects which slice of history an analytical view covers.
type TimeRange string

const (
	// Last30Days covers records dated on or after midnight thirty days ago.
	Last30Days TimeRange = "30_days"
	// YearToDate covers records dated on or after January 1 of the current year.
	YearToDate TimeRange = "ytd"
	// AllTime applies no date filtering.
	AllTime TimeRange = "all_time"
)

// Valid reports whether r is one of the known range selectors.
func (r TimeRange) Valid() bool {
	switch r {
	case Last30Days, YearToDate, AllTime:
		return true
	}
	return false
}

// Money is a monetary amount in integer cents. Keeping cents as an
// integer avoids float drift in the running sums the aggregators
// maintain.
type Money struct {
	Cents int64
}

// Dollars returns the amount as a float for display purposes only.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(m.Cents, 10)), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	cents, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("parse money cents: %w", err)
	}
	m.Cents = cents
	return nil
}

// ExpenseRecord is one purchase line from the source CSV. Store, item
// and category are opaque case-sensitive grouping keys.
type ExpenseRecord struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Store       string    `json:"store"`
	Item        string    `json:"item"`
	TotalCost   Money     `json:"total_cost_cents"`
	Units       float64   `json:"units"`
	UnitType    string    `json:"unit_type"`
	CostPerUnit Money     `json:"cost_per_unit_cents"`
	Category    string    `json:"category"`
}
