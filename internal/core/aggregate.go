package core

import (
	"sort"
	"time"
)

// topDrivers is how many items the cost-driver ranking keeps.
const topDrivers = 10

// CategoryTotal is one row of the category view.
type CategoryTotal struct {
	Category string `json:"category"`
	Total    Money  `json:"total_cents"`
}

// CashFlowPoint is one day of spending with the running total through
// that day.
type CashFlowPoint struct {
	Date       time.Time `json:"date"`
	DailyTotal Money     `json:"daily_total_cents"`
	Cumulative Money     `json:"cumulative_cents"`
}

// CostDriver is one row of the top-spend-by-item ranking.
type CostDriver struct {
	Item  string `json:"item"`
	Total Money  `json:"total_cents"`
}

// CategoryTotals sums total cost per category, descending by sum.
// Equal sums keep first-seen input order. Categories absent from the
// input do not appear.
func CategoryTotals(records []ExpenseRecord) []CategoryTotal {
	sums := make(map[string]int64)
	var order []string
	for _, rec := range records {
		if _, seen := sums[rec.Category]; !seen {
			order = append(order, rec.Category)
		}
		sums[rec.Category] += rec.TotalCost.Cents
	}

	totals := make([]CategoryTotal, 0, len(order))
	for _, cat := range order {
		totals = append(totals, CategoryTotal{Category: cat, Total: Money{Cents: sums[cat]}})
	}
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Total.Cents > totals[j].Total.Cents
	})
	return totals
}

// CashFlowSeries groups records by exact date, sums each day and emits
// the days in ascending order with a running cumulative total. Days
// with no activity are absent, never zero-filled.
func CashFlowSeries(records []ExpenseRecord) []CashFlowPoint {
	daily := make(map[time.Time]int64)
	for _, rec := range records {
		daily[rec.Date] += rec.TotalCost.Cents
	}

	dates := make([]time.Time, 0, len(daily))
	for d := range daily {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	series := make([]CashFlowPoint, 0, len(dates))
	var running int64
	for _, d := range dates {
		running += daily[d]
		series = append(series, CashFlowPoint{
			Date:       d,
			DailyTotal: Money{Cents: daily[d]},
			Cumulative: Money{Cents: running},
		})
	}
	return series
}

// TopCostDrivers sums total cost per item and returns at most the ten
// highest, descending. Equal sums keep first-seen input order; fewer
// than ten distinct items yields fewer rows.
func TopCostDrivers(records []ExpenseRecord) []CostDriver {
	sums := make(map[string]int64)
	var order []string
	for _, rec := range records {
		if _, seen := sums[rec.Item]; !seen {
			order = append(order, rec.Item)
		}
		sums[rec.Item] += rec.TotalCost.Cents
	}

	drivers := make([]CostDriver, 0, len(order))
	for _, item := range order {
		drivers = append(drivers, CostDriver{Item: item, Total: Money{Cents: sums[item]}})
	}
	sort.SliceStable(drivers, func(i, j int) bool {
		return drivers[i].Total.Cents > drivers[j].Total.Cents
	})
	if len(drivers) > topDrivers {
		drivers = drivers[:topDrivers]
	}
	return drivers
}
