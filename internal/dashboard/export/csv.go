// Package export serialises dashboard snapshots for download.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/scout-analytics/scout/internal/aggregate"
)

// WriteKPICSV serialises the KPI summary to a CSV representation.
func WriteKPICSV(w io.Writer, kpi aggregate.KPISummary) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Total Revenue", formatFloat(kpi.TotalRevenue)},
		{"Transactions", strconv.Itoa(kpi.TotalTransactions)},
		{"Average Order Value", formatFloat(kpi.AvgOrderValue)},
		{"Units Sold", strconv.Itoa(kpi.UnitsSold)},
		{"Units Per Transaction", formatFloat(kpi.UnitsPerTx)},
		{"Unique Customers", strconv.Itoa(kpi.UniqueCustomers)},
		{"Gross Margin", formatFloat(kpi.GrossMargin)},
		{"Gross Margin Pct", formatFloat(kpi.GrossMarginPct)},
		{"Repeat Rate", formatFloat(kpi.RepeatRate)},
		{"Top Product", kpi.TopProduct},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteBreakdownCSV emits one revenue breakdown as CSV under the given
// dimension header.
func WriteBreakdownCSV(w io.Writer, dimension string, buckets []aggregate.Bucket) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{dimension, "Revenue"}); err != nil {
		return err
	}
	for _, bucket := range buckets {
		if err := writer.Write([]string{bucket.Name, formatFloat(bucket.Value)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteDailyCSV emits the gap-filled daily series as CSV.
func WriteDailyCSV(w io.Writer, series []aggregate.SeriesPoint) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Date", "Revenue", "Transactions"}); err != nil {
		return err
	}
	for _, point := range series {
		if err := writer.Write([]string{
			point.Date,
			formatFloat(point.Revenue),
			strconv.Itoa(point.Transactions),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
