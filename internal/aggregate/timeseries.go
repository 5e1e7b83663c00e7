package aggregate

import (
	"fmt"
	"time"
)

const dayFormat = "2006-01-02"

// DailySeries buckets revenue by calendar date in BusinessZone and emits one
// point per day over the inclusive min..max range, zero-filled where no
// transactions fall. Charting downstream assumes a dense, chronologically
// ordered series. An empty collection yields a zeroed series covering the
// default lookback window ending today.
func DailySeries(txs []Transaction) []SeriesPoint {
	return dailySeriesAt(txs, time.Now())
}

func dailySeriesAt(txs []Transaction, now time.Time) []SeriesPoint {
	revenue := make(map[string]float64)
	counts := make(map[string]int)
	var minDay, maxDay time.Time

	for _, tx := range txs {
		day := tx.CreatedAt.In(BusinessZone)
		day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, BusinessZone)
		key := day.Format(dayFormat)
		revenue[key] += tx.TotalAmount
		counts[key]++
		if minDay.IsZero() || day.Before(minDay) {
			minDay = day
		}
		if maxDay.IsZero() || day.After(maxDay) {
			maxDay = day
		}
	}

	if minDay.IsZero() {
		end := now.In(BusinessZone)
		maxDay = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, BusinessZone)
		minDay = maxDay.AddDate(0, 0, -(DefaultLookbackDays - 1))
	}

	series := []SeriesPoint{}
	for day := minDay; !day.After(maxDay); day = day.AddDate(0, 0, 1) {
		key := day.Format(dayFormat)
		series = append(series, SeriesPoint{
			Date:         key,
			Revenue:      revenue[key],
			Transactions: counts[key],
		})
	}
	return series
}

// HourlySeries distributes revenue over the 24 hours of a day in
// BusinessZone. All 24 buckets are present even when no data falls in them,
// so a chart always renders 24 bars.
func HourlySeries(txs []Transaction) []HourPoint {
	points := make([]HourPoint, 24)
	for hour := range points {
		points[hour].Hour = hour
	}
	for _, tx := range txs {
		hour := tx.CreatedAt.In(BusinessZone).Hour()
		points[hour].Revenue += tx.TotalAmount
		points[hour].Transactions++
	}
	return points
}

func weekSplit(txs []Transaction) WeekSplit {
	var split WeekSplit
	for _, tx := range txs {
		switch tx.CreatedAt.In(BusinessZone).Weekday() {
		case time.Saturday, time.Sunday:
			split.Weekend += tx.TotalAmount
		default:
			split.Weekday += tx.TotalAmount
		}
	}
	return split
}

func peakHour(points []HourPoint) string {
	best := -1
	bestRevenue := 0.0
	for _, p := range points {
		if p.Revenue > bestRevenue {
			bestRevenue = p.Revenue
			best = p.Hour
		}
	}
	if best < 0 {
		return "N/A"
	}
	return fmt.Sprintf("%02d:00-%02d:00", best, (best+1)%24)
}
