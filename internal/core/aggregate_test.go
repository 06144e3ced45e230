package core

import (
	"fmt"
	"testing"
)

func TestCashFlowSeriesExample(t *testing.T) {
	records := []ExpenseRecord{
		rec("2024-01-01", "A", "Steak", 10000, 2000, "Proteins"),
		rec("2024-01-01", "B", "Steak", 5000, 1000, "Proteins"),
		rec("2024-01-02", "A", "Fish", 2000, 700, "Proteins"),
	}

	series := CashFlowSeries(records)
	if len(series) != 2 {
		t.Fatalf("expected 2 points, got %d", len(series))
	}
	if series[0].DailyTotal.Cents != 15000 || series[0].Cumulative.Cents != 15000 {
		t.Errorf("day 1 = %d/%d, want 15000/15000",
			series[0].DailyTotal.Cents, series[0].Cumulative.Cents)
	}
	if series[1].DailyTotal.Cents != 2000 || series[1].Cumulative.Cents != 17000 {
		t.Errorf("day 2 = %d/%d, want 2000/17000",
			series[1].DailyTotal.Cents, series[1].Cumulative.Cents)
	}
}

func TestCashFlowSeriesCollapsesNonAdjacentDates(t *testing.T) {
	records := []ExpenseRecord{
		rec("2024-01-02", "A", "Fish", 2000, 700, "Proteins"),
		rec("2024-01-01", "A", "Steak", 10000, 2000, "Proteins"),
		rec("2024-01-02", "B", "Bread", 500, 50, "Dry Goods"),
		rec("2024-01-01", "B", "Steak", 5000, 1000, "Proteins"),
	}

	series := CashFlowSeries(records)
	if len(series) != 2 {
		t.Fatalf("expected 2 points, got %d", len(series))
	}
	if !series[0].Date.Before(series[1].Date) {
		t.Error("series not in ascending date order")
	}
	if series[0].DailyTotal.Cents != 15000 || series[1].DailyTotal.Cents != 2500 {
		t.Errorf("daily totals = %d, %d",
			series[0].DailyTotal.Cents, series[1].DailyTotal.Cents)
	}
	if series[1].Cumulative.Cents != 17500 {
		t.Errorf("final cumulative = %d, want 17500", series[1].Cumulative.Cents)
	}
}

func TestCategoryTotalsConservation(t *testing.T) {
	records := ParseRecords(sampleText)
	totals := CategoryTotals(records)

	var recordSum, categorySum int64
	for _, r := range records {
		recordSum += r.TotalCost.Cents
	}
	for _, c := range totals {
		categorySum += c.Total.Cents
	}
	if recordSum != categorySum {
		t.Errorf("category sum %d != record sum %d", categorySum, recordSum)
	}

	for i := 1; i < len(totals); i++ {
		if totals[i].Total.Cents > totals[i-1].Total.Cents {
			t.Errorf("totals ascending at %d", i)
		}
	}
}

func TestCategoryTotalsTiesKeepFirstSeenOrder(t *testing.T) {
	records := []ExpenseRecord{
		rec("2024-01-01", "A", "Steak", 1000, 100, "Proteins"),
		rec("2024-01-02", "A", "Milk", 1000, 100, "Dairy"),
		rec("2024-01-03", "A", "Kale", 1000, 100, "Produce"),
	}
	totals := CategoryTotals(records)
	want := []string{"Proteins", "Dairy", "Produce"}
	for i, w := range want {
		if totals[i].Category != w {
			t.Errorf("totals[%d] = %q, want %q", i, totals[i].Category, w)
		}
	}
}

func TestTopCostDriversTruncatesToTen(t *testing.T) {
	var records []ExpenseRecord
	for i := 0; i < 12; i++ {
		cents := int64(1000 + i*100)
		if i == 0 {
			cents = 5100
		}
		records = append(records,
			rec("2024-01-01", "A", fmt.Sprintf("item-%d", i), cents, 100, "Misc"))
	}

	drivers := TopCostDrivers(records)
	if len(drivers) != 10 {
		t.Fatalf("expected 10 drivers, got %d", len(drivers))
	}
	if drivers[0].Item != "item-0" {
		t.Errorf("top driver = %q, want item-0", drivers[0].Item)
	}
	for i := 1; i < len(drivers); i++ {
		if drivers[i].Total.Cents > drivers[i-1].Total.Cents {
			t.Errorf("ranking ascending at %d", i)
		}
	}
}

func TestTopCostDriversFewItemsNoPadding(t *testing.T) {
	records := []ExpenseRecord{
		rec("2024-01-01", "A", "Steak", 1000, 100, "Proteins"),
		rec("2024-01-02", "A", "Milk", 500, 100, "Dairy"),
	}
	drivers := TopCostDrivers(records)
	if len(drivers) != 2 {
		t.Fatalf("expected 2 drivers, got %d", len(drivers))
	}
}

func TestAggregatorsEmptyInput(t *testing.T) {
	if got := CategoryTotals(nil); len(got) != 0 {
		t.Errorf("CategoryTotals(nil) = %v", got)
	}
	if got := CashFlowSeries(nil); len(got) != 0 {
		t.Errorf("CashFlowSeries(nil) = %v", got)
	}
	if got := TopCostDrivers(nil); len(got) != 0 {
		t.Errorf("TopCostDrivers(nil) = %v", got)
	}
	report := VendorVolatility(nil)
	if len(report.Items) != 0 || len(report.Vendors) != 0 {
		t.Errorf("VendorVolatility(nil) = %+v", report)
	}
}
