// Package aggregate reduces filtered transaction collections into the
// dashboard's derived views: KPI summaries, revenue breakdowns, and dense
// time series. Every function here is pure and total: any well-typed input,
// including the empty collection, produces a well-defined zero-valued result.
package aggregate

import (
	"time"

	"github.com/scout-analytics/scout/internal/filter"
)

// BusinessZone is the fixed UTC+8 offset of the business region. Calendar
// dates and hour-of-day buckets are computed in this zone, never the host
// timezone.
var BusinessZone = time.FixedZone("UTC+8", 8*60*60)

// DefaultLookbackDays bounds the daily series when no transactions exist.
const DefaultLookbackDays = 30

// Apply evaluates the five dimension predicates locally and keeps the
// transactions passing all of them. Within a dimension membership is an OR
// over the set; an empty set places no restriction. Needed when the source
// only supports partial server-side filtering.
func Apply(txs []Transaction, sel filter.Selection) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if !matchDate(tx, sel) {
			continue
		}
		if len(sel.Barangays) > 0 && !contains(sel.Barangays, tx.Store.Barangay) {
			continue
		}
		if len(sel.Stores) > 0 && !contains(sel.Stores, tx.Store.Name) {
			continue
		}
		if len(sel.Categories) > 0 && !anyItem(tx, func(it LineItem) bool {
			return contains(sel.Categories, it.Product.Category)
		}) {
			continue
		}
		if len(sel.Brands) > 0 && !anyItem(tx, func(it LineItem) bool {
			return contains(sel.Brands, it.Product.Brand.Name)
		}) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// Reduce computes the KPI summary over an already filtered collection.
func Reduce(txs []Transaction) KPISummary {
	var kpi KPISummary
	kpi.TopProduct = "N/A"

	customerTxCount := make(map[string]int)
	productQty := make(map[string]int)
	productOrder := []string{}

	for _, tx := range txs {
		kpi.TotalRevenue += tx.TotalAmount
		kpi.TotalTransactions++
		if tx.CustomerID != "" {
			customerTxCount[tx.CustomerID]++
		}
		for _, it := range tx.Items {
			kpi.UnitsSold += it.Quantity
			kpi.GrossMargin += float64(it.Quantity) * (it.UnitPrice - it.UnitCost)
			name := it.Product.Name
			if name == "" {
				name = unknownBucket
			}
			if _, seen := productQty[name]; !seen {
				productOrder = append(productOrder, name)
			}
			productQty[name] += it.Quantity
		}
	}

	kpi.UniqueCustomers = len(customerTxCount)
	if kpi.TotalTransactions > 0 {
		kpi.AvgOrderValue = kpi.TotalRevenue / float64(kpi.TotalTransactions)
		kpi.UnitsPerTx = float64(kpi.UnitsSold) / float64(kpi.TotalTransactions)
	}
	if kpi.TotalRevenue != 0 {
		kpi.GrossMarginPct = kpi.GrossMargin / kpi.TotalRevenue
	}
	if kpi.UniqueCustomers > 0 {
		repeat := 0
		for _, n := range customerTxCount {
			if n >= 2 {
				repeat++
			}
		}
		kpi.RepeatRate = float64(repeat) / float64(kpi.UniqueCustomers)
	}

	// Ties resolve to the first product encountered so repeat runs agree.
	best := 0
	for _, name := range productOrder {
		if productQty[name] > best {
			best = productQty[name]
			kpi.TopProduct = name
		}
	}
	return kpi
}

// Compute filters the collection against sel and assembles the complete
// derived view in one pass over the pipeline stages.
func Compute(txs []Transaction, sel filter.Selection) Result {
	matched := Apply(txs, sel)

	res := Result{
		KPI:        Reduce(matched),
		ByCategory: GroupRevenue(matched, ItemKey(func(it LineItem) string { return it.Product.Category })),
		ByBrand:    GroupRevenue(matched, ItemKey(func(it LineItem) string { return it.Product.Brand.Name })),
		ByStore:    GroupRevenue(matched, TxKey(func(tx Transaction) string { return tx.Store.Name })),
		ByRegion:   GroupRevenue(matched, TxKey(func(tx Transaction) string { return tx.Store.Region })),
		ByBarangay: GroupRevenue(matched, TxKey(func(tx Transaction) string { return tx.Store.Barangay })),
		ByAgeGroup: GroupRevenue(matched, TxKey(func(tx Transaction) string { return tx.Customer.AgeGroup })),
		ByGender:   GroupRevenue(matched, TxKey(func(tx Transaction) string { return tx.Customer.Gender })),
		ByIncome:   GroupRevenue(matched, TxKey(func(tx Transaction) string { return tx.Customer.IncomeBracket })),
		Daily:      DailySeries(matched),
		Hourly:     HourlySeries(matched),
	}
	res.WeekSplit = weekSplit(matched)
	res.PeakHour = peakHour(res.Hourly)
	res.TopBrand = topBucket(res.ByBrand)
	res.TopCategory = topBucket(res.ByCategory)
	return res
}

func matchDate(tx Transaction, sel filter.Selection) bool {
	if sel.From != nil && tx.CreatedAt.Before(*sel.From) {
		return false
	}
	if sel.To != nil && tx.CreatedAt.After(*sel.To) {
		return false
	}
	return true
}

func anyItem(tx Transaction, pred func(LineItem) bool) bool {
	for _, it := range tx.Items {
		if pred(it) {
			return true
		}
	}
	return false
}

func contains(set []string, value string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}

func topBucket(buckets []Bucket) string {
	if len(buckets) == 0 {
		return "N/A"
	}
	return buckets[0].Name
}
