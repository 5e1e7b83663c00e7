package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scout-analytics/scout/internal/aggregate"
)

func TestWriteKPICSV(t *testing.T) {
	var buf bytes.Buffer
	kpi := aggregate.KPISummary{
		TotalRevenue:      600,
		TotalTransactions: 3,
		AvgOrderValue:     200,
		TopProduct:        "C2 Solo",
	}
	require.NoError(t, WriteKPICSV(&buf, kpi))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal(t, "Metric,Value", lines[0])
	require.Contains(t, lines, "Total Revenue,600.00")
	require.Contains(t, lines, "Transactions,3")
	require.Contains(t, lines, "Top Product,C2 Solo")
}

func TestWriteBreakdownCSV(t *testing.T) {
	var buf bytes.Buffer
	buckets := []aggregate.Bucket{
		{Name: "Beverages", Value: 400},
		{Name: "Snacks", Value: 200},
	}
	require.NoError(t, WriteBreakdownCSV(&buf, "Category", buckets))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal(t, []string{"Category,Revenue", "Beverages,400.00", "Snacks,200.00"}, lines)
}

func TestWriteDailyCSV(t *testing.T) {
	var buf bytes.Buffer
	series := []aggregate.SeriesPoint{
		{Date: "2025-01-01", Revenue: 300, Transactions: 2},
		{Date: "2025-01-02", Revenue: 0, Transactions: 0},
	}
	require.NoError(t, WriteDailyCSV(&buf, series))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal(t, "Date,Revenue,Transactions", lines[0])
	require.Equal(t, "2025-01-02,0.00,0", lines[2])
}
