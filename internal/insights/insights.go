// Package insights derives narrative observations from an aggregated
// dashboard snapshot. Rules are deterministic so the same snapshot always
// produces the same insights.
package insights

import (
	"fmt"

	"github.com/scout-analytics/scout/internal/aggregate"
	"github.com/scout-analytics/scout/internal/format"
)

// Category classifies an insight for the dashboard panel.
type Category string

const (
	// CategoryTrend flags a movement worth watching.
	CategoryTrend Category = "trend"
	// CategoryOpportunity flags an actionable upside.
	CategoryOpportunity Category = "opportunity"
	// CategoryAlert flags a figure that needs intervention.
	CategoryAlert Category = "alert"
)

// Insight is one observation with suggested follow-ups.
type Insight struct {
	Text        string   `json:"insight"`
	Confidence  float64  `json:"confidence"`
	Category    Category `json:"category"`
	ActionItems []string `json:"action_items"`
}

// Margin and concentration thresholds used by the rules below.
const (
	lowMarginPct         = 0.15
	lowRepeatRate        = 0.20
	concentrationPct     = 0.50
	weekendShareNoteable = 0.40
)

// Derive inspects the snapshot and returns the insights whose rules fire, in
// a fixed evaluation order.
func Derive(res aggregate.Result) []Insight {
	out := []Insight{}

	if res.KPI.TotalTransactions == 0 {
		return append(out, Insight{
			Text:       "No transactions match the current filters.",
			Confidence: 1,
			Category:   CategoryAlert,
			ActionItems: []string{
				"Widen the date range",
				"Clear one or more dimension filters",
			},
		})
	}

	if top := first(res.ByCategory); top != nil && res.KPI.TotalRevenue > 0 {
		share := top.Value / res.KPI.TotalRevenue
		if share >= concentrationPct {
			out = append(out, Insight{
				Text:       fmt.Sprintf("%s drives %s of revenue; the mix is heavily concentrated.", top.Name, format.Percent1(share)),
				Confidence: 0.9,
				Category:   CategoryTrend,
				ActionItems: []string{
					"Review shelf allocation for " + top.Name,
					"Check stock cover on the top category's fast movers",
				},
			})
		}
	}

	if res.KPI.GrossMarginPct > 0 && res.KPI.GrossMarginPct < lowMarginPct {
		out = append(out, Insight{
			Text:       fmt.Sprintf("Gross margin sits at %s, below the %s watermark.", format.Percent1(res.KPI.GrossMarginPct), format.Percent1(lowMarginPct)),
			Confidence: 0.85,
			Category:   CategoryAlert,
			ActionItems: []string{
				"Audit unit costs on the highest-volume SKUs",
				"Revisit pricing on low-margin categories",
			},
		})
	}

	if res.KPI.UniqueCustomers > 0 && res.KPI.RepeatRate < lowRepeatRate {
		out = append(out, Insight{
			Text:       fmt.Sprintf("Only %s of customers purchased more than once in this window.", format.Percent1(res.KPI.RepeatRate)),
			Confidence: 0.8,
			Category:   CategoryOpportunity,
			ActionItems: []string{
				"Pilot a suki loyalty promo in the top barangays",
			},
		})
	}

	total := res.WeekSplit.Weekend + res.WeekSplit.Weekday
	if total > 0 {
		weekendShare := res.WeekSplit.Weekend / total
		if weekendShare >= weekendShareNoteable {
			out = append(out, Insight{
				Text:       fmt.Sprintf("Weekends contribute %s of revenue; peak selling hour is %s.", format.Percent1(weekendShare), res.PeakHour),
				Confidence: 0.75,
				Category:   CategoryTrend,
				ActionItems: []string{
					"Align delivery schedules with weekend demand",
				},
			})
		}
	}

	return out
}

func first(buckets []aggregate.Bucket) *aggregate.Bucket {
	if len(buckets) == 0 {
		return nil
	}
	return &buckets[0]
}
