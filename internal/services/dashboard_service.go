package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"chefsight/internal/cache"
	"chefsight/internal/core"
)

type (
	// RecordSource reads the stored record set together with its
	// snapshot fingerprint.
	RecordSource interface {
		ListRecords(ctx context.Context) (records []core.ExpenseRecord, snapshotID string, err error)
	}

	// Dashboard is the full set of views for one time range.
	Dashboard struct {
		Range        core.TimeRange        `json:"range"`
		TotalSpend   core.Money            `json:"total_spend_cents"`
		Transactions int                   `json:"transactions"`
		Categories   []core.CategoryTotal  `json:"categories"`
		CashFlow     []core.CashFlowPoint  `json:"cash_flow"`
		CostDrivers  []core.CostDriver     `json:"cost_drivers"`
		Volatility   core.VolatilityReport `json:"volatility"`
	}

	DashboardService struct {
		source RecordSource
		views  *cache.LRU[Dashboard]
	}
)

// NewDashboardService builds a dashboard service memoizing computed
// views in an LRU keyed on snapshot fingerprint and range, so a cached
// view can never outlive the record set it was derived from.
func NewDashboardService(source RecordSource, cacheSize int, cacheTTL time.Duration) *DashboardService {
	return &DashboardService{
		source: source,
		views:  cache.New[Dashboard](cacheSize, cacheTTL),
	}
}

// Dashboard computes every view for the given range, relative to now.
// The four aggregators run concurrently over the shared filtered set;
// each writes only its own result field.
func (s *DashboardService) Dashboard(ctx context.Context, rng core.TimeRange, now time.Time) (Dashboard, error) {
	records, snapshotID, err := s.source.ListRecords(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load records: %w", err)
	}

	key := snapshotID + "|" + string(rng) + "|" + now.UTC().Format("2006-01-02")
	if view, ok := s.views.Get(key); ok {
		return view, nil
	}

	filtered := core.FilterByRange(records, rng, now)

	view := Dashboard{
		Range:        rng,
		Transactions: len(filtered),
	}
	for _, rec := range filtered {
		view.TotalSpend.Cents += rec.TotalCost.Cents
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		view.Categories = core.CategoryTotals(filtered)
		return nil
	})
	g.Go(func() error {
		view.CashFlow = core.CashFlowSeries(filtered)
		return nil
	})
	g.Go(func() error {
		view.CostDrivers = core.TopCostDrivers(filtered)
		return nil
	})
	g.Go(func() error {
		view.Volatility = core.VendorVolatility(filtered)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	s.views.Set(key, view)
	return view, nil
}

// Records returns the filtered record set for the given range, for
// callers that want the raw rows rather than aggregated views.
func (s *DashboardService) Records(ctx context.Context, rng core.TimeRange, now time.Time) ([]core.ExpenseRecord, error) {
	records, _, err := s.source.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	return core.FilterByRange(records, rng, now), nil
}
