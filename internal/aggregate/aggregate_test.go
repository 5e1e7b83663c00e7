package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scout-analytics/scout/internal/filter"
)

func tx(id string, at time.Time, amount float64, opts ...func(*Transaction)) Transaction {
	t := Transaction{
		ID:          id,
		CreatedAt:   at,
		TotalAmount: amount,
		Store:       Store{Name: "Aling Nena Store", Barangay: "San Isidro", City: "Quezon City", Region: "NCR"},
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

func withItem(name, category, brand string, qty int, price, cost float64) func(*Transaction) {
	return func(t *Transaction) {
		t.Items = append(t.Items, LineItem{
			Quantity:  qty,
			UnitPrice: price,
			UnitCost:  cost,
			Product:   Product{Name: name, Category: category, Brand: Brand{Name: brand}},
		})
	}
}

func withCustomer(id, ageGroup, gender string) func(*Transaction) {
	return func(t *Transaction) {
		t.CustomerID = id
		t.Customer = Customer{ID: id, AgeGroup: ageGroup, Gender: gender}
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, BusinessZone)
}

func TestReduceEmptyInputIsSafe(t *testing.T) {
	kpi := Reduce(nil)
	require.Zero(t, kpi.TotalRevenue)
	require.Zero(t, kpi.TotalTransactions)
	require.Zero(t, kpi.AvgOrderValue)
	require.Zero(t, kpi.RepeatRate)
	require.Equal(t, "N/A", kpi.TopProduct)
}

func TestReduceKPIs(t *testing.T) {
	txs := []Transaction{
		tx("t1", day(2025, 1, 1), 100,
			withItem("C2 Solo", "Beverages", "C2", 2, 50, 30),
			withCustomer("c1", "25-34", "F")),
		tx("t2", day(2025, 1, 2), 200,
			withItem("Piattos", "Snacks", "Jack 'n Jill", 4, 50, 35),
			withCustomer("c1", "25-34", "F")),
		tx("t3", day(2025, 1, 3), 300,
			withItem("C2 Solo", "Beverages", "C2", 6, 50, 30),
			withCustomer("c2", "35-44", "M")),
	}

	kpi := Reduce(txs)
	require.InDelta(t, 600.0, kpi.TotalRevenue, 1e-9)
	require.Equal(t, 3, kpi.TotalTransactions)
	require.InDelta(t, 200.0, kpi.AvgOrderValue, 1e-9)
	require.Equal(t, 12, kpi.UnitsSold)
	require.InDelta(t, 4.0, kpi.UnitsPerTx, 1e-9)
	require.Equal(t, 2, kpi.UniqueCustomers)
	// c1 appears twice, c2 once.
	require.InDelta(t, 0.5, kpi.RepeatRate, 1e-9)
	// 2*(50-30) + 4*(50-35) + 6*(50-30) = 220
	require.InDelta(t, 220.0, kpi.GrossMargin, 1e-9)
	require.InDelta(t, 220.0/600.0, kpi.GrossMarginPct, 1e-9)
	require.Equal(t, "C2 Solo", kpi.TopProduct)
}

func TestReduceMissingFieldsTreatedAsZero(t *testing.T) {
	txs := []Transaction{
		// No items, no customer id.
		tx("t1", day(2025, 2, 1), 150),
		// Item without unit cost: full price counts as margin.
		tx("t2", day(2025, 2, 1), 80,
			withItem("Lucky Me Pancit Canton", "Instant Noodles", "Lucky Me", 2, 40, 0)),
	}

	kpi := Reduce(txs)
	require.Equal(t, 2, kpi.TotalTransactions)
	require.Equal(t, 0, kpi.UniqueCustomers)
	require.Zero(t, kpi.RepeatRate)
	require.Equal(t, 2, kpi.UnitsSold)
	require.InDelta(t, 80.0, kpi.GrossMargin, 1e-9)
}

func TestTopProductTieBreaksByFirstEncounter(t *testing.T) {
	txs := []Transaction{
		tx("t1", day(2025, 1, 1), 50, withItem("Alpha", "Snacks", "A", 3, 10, 5)),
		tx("t2", day(2025, 1, 1), 50, withItem("Beta", "Snacks", "B", 3, 10, 5)),
	}
	require.Equal(t, "Alpha", Reduce(txs).TopProduct)
}

func TestGroupRevenueConservation(t *testing.T) {
	txs := []Transaction{
		tx("t1", day(2025, 1, 1), 100, withCustomer("c1", "", "")),
		tx("t2", day(2025, 1, 2), 200, withCustomer("c2", "", "")),
		tx("t3", day(2025, 1, 3), 300),
	}
	txs[2].Store.Region = ""

	buckets := GroupRevenue(txs, TxKey(func(tx Transaction) string { return tx.Store.Region }))
	total := 0.0
	for _, b := range buckets {
		total += b.Value
	}
	require.InDelta(t, 600.0, total, 1e-9)

	// The empty region lands in Unknown instead of being dropped.
	names := make(map[string]float64, len(buckets))
	for _, b := range buckets {
		names[b.Name] = b.Value
	}
	require.InDelta(t, 300.0, names["Unknown"], 1e-9)
}

func TestGroupRevenueSortedDescending(t *testing.T) {
	txs := []Transaction{
		tx("t1", day(2025, 1, 1), 100, withItem("A", "Beverages", "X", 2, 50, 0)),
		tx("t2", day(2025, 1, 1), 200, withItem("B", "Snacks", "Y", 4, 50, 0)),
	}
	buckets := GroupRevenue(txs, ItemKey(func(it LineItem) string { return it.Product.Category }))
	require.Len(t, buckets, 2)
	require.Equal(t, "Snacks", buckets[0].Name)
	require.InDelta(t, 200.0, buckets[0].Value, 1e-9)
	require.Equal(t, "Beverages", buckets[1].Name)
}

func TestDailySeriesFillsGaps(t *testing.T) {
	txs := []Transaction{
		tx("t1", day(2025, 1, 1), 100, withItem("A", "Beverages", "X", 1, 100, 0)),
		tx("t2", day(2025, 1, 1), 200, withItem("B", "Snacks", "Y", 1, 200, 0)),
		tx("t3", day(2025, 1, 3), 300, withItem("A", "Beverages", "X", 1, 300, 0)),
	}

	series := DailySeries(txs)
	require.Len(t, series, 3)
	require.Equal(t, "2025-01-01", series[0].Date)
	require.InDelta(t, 300.0, series[0].Revenue, 1e-9)
	require.Equal(t, 2, series[0].Transactions)
	require.Equal(t, "2025-01-02", series[1].Date)
	require.Zero(t, series[1].Revenue)
	require.Equal(t, "2025-01-03", series[2].Date)
	require.InDelta(t, 300.0, series[2].Revenue, 1e-9)
}

func TestDailySeriesDensity(t *testing.T) {
	txs := []Transaction{
		tx("t1", day(2025, 3, 5), 10),
		tx("t2", day(2025, 4, 20), 20),
	}
	series := DailySeries(txs)
	require.Len(t, series, 47)
	prev, err := time.Parse("2006-01-02", series[0].Date)
	require.NoError(t, err)
	for _, p := range series[1:] {
		cur, err := time.Parse("2006-01-02", p.Date)
		require.NoError(t, err)
		require.Equal(t, 24*time.Hour, cur.Sub(prev), "series must advance one day at %s", p.Date)
		prev = cur
	}
}

func TestDailySeriesEmptyFallsBackToLookbackWindow(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, BusinessZone)
	series := dailySeriesAt(nil, now)
	require.Len(t, series, DefaultLookbackDays)
	require.Equal(t, "2025-05-17", series[0].Date)
	require.Equal(t, "2025-06-15", series[len(series)-1].Date)
	for _, p := range series {
		require.Zero(t, p.Revenue)
	}
}

func TestDailySeriesUsesBusinessZone(t *testing.T) {
	// 2025-01-01 18:00 UTC is already 2025-01-02 02:00 in UTC+8.
	txs := []Transaction{
		tx("t1", time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC), 100),
	}
	series := DailySeries(txs)
	require.Len(t, series, 1)
	require.Equal(t, "2025-01-02", series[0].Date)
}

func TestHourlySeriesAlways24Buckets(t *testing.T) {
	series := HourlySeries(nil)
	require.Len(t, series, 24)
	for hour, p := range series {
		require.Equal(t, hour, p.Hour)
		require.Zero(t, p.Revenue)
	}

	txs := []Transaction{
		tx("t1", time.Date(2025, 1, 1, 19, 30, 0, 0, BusinessZone), 120),
		tx("t2", time.Date(2025, 1, 2, 19, 5, 0, 0, BusinessZone), 80),
	}
	series = HourlySeries(txs)
	require.Len(t, series, 24)
	require.InDelta(t, 200.0, series[19].Revenue, 1e-9)
	require.Equal(t, 2, series[19].Transactions)
}

func TestApplyDimensionPredicates(t *testing.T) {
	jan1 := day(2025, 1, 1)
	feb1 := day(2025, 2, 1)
	txs := []Transaction{
		tx("t1", jan1, 100, withItem("C2 Solo", "Beverages", "C2", 1, 100, 0)),
		tx("t2", feb1, 200, withItem("Piattos", "Snacks", "Jack 'n Jill", 1, 200, 0)),
	}
	txs[1].Store = Store{Name: "Kuya Boy Store", Barangay: "Poblacion", City: "Makati", Region: "NCR"}

	sel := filter.Selection{Barangays: []string{"Poblacion"}}
	require.Len(t, Apply(txs, sel), 1)
	require.Equal(t, "t2", Apply(txs, sel)[0].ID)

	sel = filter.Selection{Categories: []string{"Beverages"}}
	require.Equal(t, "t1", Apply(txs, sel)[0].ID)

	sel = filter.Selection{Brands: []string{"Jack 'n Jill"}}
	require.Equal(t, "t2", Apply(txs, sel)[0].ID)

	sel = filter.Selection{Stores: []string{"Aling Nena Store"}}
	require.Equal(t, "t1", Apply(txs, sel)[0].ID)

	from := day(2025, 1, 15)
	sel = filter.Selection{From: &from}
	require.Equal(t, "t2", Apply(txs, sel)[0].ID)

	// Dimensions combine with AND.
	sel = filter.Selection{Barangays: []string{"Poblacion"}, Categories: []string{"Beverages"}}
	require.Empty(t, Apply(txs, sel))
}

func TestComputeScenarioThreeTransactions(t *testing.T) {
	txs := []Transaction{
		tx("t1", day(2025, 1, 1), 100, withItem("C2 Solo", "Beverages", "C2", 1, 100, 0)),
		tx("t2", day(2025, 1, 1), 200, withItem("Piattos", "Snacks", "Jack 'n Jill", 1, 200, 0)),
		tx("t3", day(2025, 1, 3), 300, withItem("C2 Solo", "Beverages", "C2", 1, 300, 0)),
	}

	res := Compute(txs, filter.Selection{})
	require.InDelta(t, 600.0, res.KPI.TotalRevenue, 1e-9)
	require.Equal(t, 3, res.KPI.TotalTransactions)

	require.Len(t, res.ByCategory, 2)
	require.Equal(t, Bucket{Name: "Beverages", Value: 400}, res.ByCategory[0])
	require.Equal(t, Bucket{Name: "Snacks", Value: 200}, res.ByCategory[1])

	require.Len(t, res.Daily, 3)
	require.Zero(t, res.Daily[1].Revenue)

	require.Equal(t, "Beverages", res.TopCategory)
	require.Equal(t, "C2", res.TopBrand)
	require.Equal(t, "12:00-13:00", res.PeakHour)
}

func TestComputeNoMatchReturnsZeroes(t *testing.T) {
	txs := []Transaction{
		tx("t1", day(2025, 1, 1), 100),
		tx("t2", day(2025, 1, 2), 200),
	}

	res := Compute(txs, filter.Selection{Barangays: []string{"Poblacion"}})
	require.Zero(t, res.KPI.TotalRevenue)
	require.Zero(t, res.KPI.TotalTransactions)
	require.Equal(t, "N/A", res.KPI.TopProduct)
	require.Equal(t, "N/A", res.TopBrand)
	require.Equal(t, "N/A", res.PeakHour)
	require.Empty(t, res.ByCategory)
	require.Len(t, res.Hourly, 24)
	require.Len(t, res.Daily, DefaultLookbackDays)
}

func TestComputeIdempotent(t *testing.T) {
	txs := []Transaction{
		tx("t1", day(2025, 1, 1), 100, withItem("C2 Solo", "Beverages", "C2", 2, 50, 30), withCustomer("c1", "25-34", "F")),
		tx("t2", day(2025, 1, 4), 250, withItem("Piattos", "Snacks", "Jack 'n Jill", 5, 50, 35), withCustomer("c2", "18-24", "M")),
	}
	sel := filter.Selection{Categories: []string{"Beverages", "Snacks"}}

	first := Compute(txs, sel)
	second := Compute(txs, sel)
	require.Equal(t, first, second)
}

func TestWeekSplit(t *testing.T) {
	txs := []Transaction{
		// 2025-01-04 is a Saturday, 2025-01-06 a Monday.
		tx("t1", day(2025, 1, 4), 150),
		tx("t2", day(2025, 1, 6), 250),
	}
	res := Compute(txs, filter.Selection{})
	require.InDelta(t, 150.0, res.WeekSplit.Weekend, 1e-9)
	require.InDelta(t, 250.0, res.WeekSplit.Weekday, 1e-9)
}
