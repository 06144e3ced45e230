package core

import "sort"

// topVolatilityItems is how many high-frequency items the volatility
// table tracks.
const topVolatilityItems = 5

// ItemPricing compares what each vendor charges per unit for one item.
// ByVendor holds the rounded mean cost per unit; vendors that never
// sold the item are absent, not zero-filled.
type ItemPricing struct {
	Item      string           `json:"item"`
	Purchases int              `json:"purchases"`
	ByVendor  map[string]Money `json:"by_vendor"`
}

// VolatilityReport lists per-vendor unit pricing for the most
// frequently purchased items. Vendors carries every distinct vendor
// seen across the selected items, in first-seen order, so consumers
// can build a consistent series set.
type VolatilityReport struct {
	Items   []ItemPricing `json:"items"`
	Vendors []string      `json:"vendors"`
}

type vendorAgg struct {
	sum   int64
	count int64
}

// VendorVolatility selects the five items with the highest transaction
// count (ties broken by first-seen order) and computes, per item and
// vendor, the mean cost per unit rounded half-up to whole cents. Fewer
// than five distinct items selects all of them.
func VendorVolatility(records []ExpenseRecord) VolatilityReport {
	counts := make(map[string]int)
	var order []string
	for _, rec := range records {
		if _, seen := counts[rec.Item]; !seen {
			order = append(order, rec.Item)
		}
		counts[rec.Item]++
	}

	ranked := append([]string(nil), order...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})
	if len(ranked) > topVolatilityItems {
		ranked = ranked[:topVolatilityItems]
	}

	selected := make(map[string]bool, len(ranked))
	for _, item := range ranked {
		selected[item] = true
	}

	perItem := make(map[string]map[string]*vendorAgg, len(ranked))
	for _, item := range ranked {
		perItem[item] = make(map[string]*vendorAgg)
	}

	var report VolatilityReport
	seenVendor := make(map[string]bool)
	for _, rec := range records {
		if !selected[rec.Item] {
			continue
		}
		agg := perItem[rec.Item][rec.Store]
		if agg == nil {
			agg = &vendorAgg{}
			perItem[rec.Item][rec.Store] = agg
		}
		agg.sum += rec.CostPerUnit.Cents
		agg.count++
		if !seenVendor[rec.Store] {
			seenVendor[rec.Store] = true
			report.Vendors = append(report.Vendors, rec.Store)
		}
	}

	report.Items = make([]ItemPricing, 0, len(ranked))
	for _, item := range ranked {
		byVendor := make(map[string]Money, len(perItem[item]))
		for vendor, agg := range perItem[item] {
			byVendor[vendor] = Money{Cents: meanHalfUp(agg.sum, agg.count)}
		}
		report.Items = append(report.Items, ItemPricing{
			Item:      item,
			Purchases: counts[item],
			ByVendor:  byVendor,
		})
	}
	return report
}

// meanHalfUp returns sum/count rounded half-up, in integer arithmetic.
func meanHalfUp(sum, count int64) int64 {
	if count == 0 {
		return 0
	}
	return (2*sum + count) / (2 * count)
}
