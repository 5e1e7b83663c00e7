package aggregate

import "time"

// Transaction is one purchase event as returned by the transaction source.
// Line items may be absent when the source only materialises flat headers;
// every reduction treats missing nested data as zero rather than failing.
type Transaction struct {
	ID          string
	CreatedAt   time.Time
	TotalAmount float64
	CustomerID  string
	StoreID     string
	Items       []LineItem
	Store       Store
	Customer    Customer
}

// LineItem is owned by its parent transaction.
type LineItem struct {
	ProductID string
	Quantity  int
	UnitPrice float64
	UnitCost  float64
	Product   Product
}

// Product carries the category label and brand used by product-level groupings.
type Product struct {
	ID       string
	Name     string
	Category string
	Brand    Brand
}

// Brand has a name only.
type Brand struct {
	ID   string
	Name string
}

// Store locates a transaction in the three-level PH geography.
type Store struct {
	ID       string
	Name     string
	Barangay string
	City     string
	Region   string
}

// Customer holds coarse demographics, never individually identifying data.
type Customer struct {
	ID            string
	AgeGroup      string
	Gender        string
	IncomeBracket string
}

// KPISummary contains the headline figures rendered as dashboard cards.
type KPISummary struct {
	TotalRevenue      float64 `json:"total_revenue"`
	TotalTransactions int     `json:"total_transactions"`
	AvgOrderValue     float64 `json:"avg_order_value"`
	UnitsSold         int     `json:"units_sold"`
	UnitsPerTx        float64 `json:"units_per_tx"`
	UniqueCustomers   int     `json:"unique_customers"`
	GrossMargin       float64 `json:"gross_margin"`
	GrossMarginPct    float64 `json:"gross_margin_pct"`
	RepeatRate        float64 `json:"repeat_rate"`
	TopProduct        string  `json:"top_product"`
}

// Bucket is one named slice of a revenue breakdown.
type Bucket struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// SeriesPoint is one day of the gap-filled daily series.
type SeriesPoint struct {
	Date         string  `json:"date"`
	Revenue      float64 `json:"revenue"`
	Transactions int     `json:"transactions"`
}

// HourPoint is one of the 24 hourly distribution buckets.
type HourPoint struct {
	Hour         int     `json:"hour"`
	Revenue      float64 `json:"revenue"`
	Transactions int     `json:"transactions"`
}

// WeekSplit contrasts weekend and weekday revenue.
type WeekSplit struct {
	Weekend float64 `json:"weekend"`
	Weekday float64 `json:"weekday"`
}

// Result is the full derived view recomputed on every filter change. It is
// never patched in place; recomputing with the same inputs yields the same
// result.
type Result struct {
	KPI         KPISummary    `json:"kpi"`
	ByCategory  []Bucket      `json:"by_category"`
	ByBrand     []Bucket      `json:"by_brand"`
	ByStore     []Bucket      `json:"by_store"`
	ByRegion    []Bucket      `json:"by_region"`
	ByBarangay  []Bucket      `json:"by_barangay"`
	ByAgeGroup  []Bucket      `json:"by_age_group"`
	ByGender    []Bucket      `json:"by_gender"`
	ByIncome    []Bucket      `json:"by_income"`
	Daily       []SeriesPoint `json:"daily"`
	Hourly      []HourPoint   `json:"hourly"`
	WeekSplit   WeekSplit     `json:"week_split"`
	PeakHour    string        `json:"peak_hour"`
	TopBrand    string        `json:"top_brand"`
	TopCategory string        `json:"top_category"`
}
