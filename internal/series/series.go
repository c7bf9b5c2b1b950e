// Package series turns time-bucketed counters into labeled chart points.
package series

import (
	"fmt"
	"math"
	"strings"
	"time"

	"incentive-engine/internal/model"
)

type Period string

const (
	Daily   Period = "daily"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// yearsShown is the length of the zero-filled yearly series.
const yearsShown = 5

// ParsePeriod accepts daily, monthly or yearly. An empty string means daily.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case "", Daily:
		return Daily, nil
	case Monthly:
		return Monthly, nil
	case Yearly:
		return Yearly, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Format projects each point's date onto a display label. Output has the
// same length and order as the input and values pass through unchanged.
func Format(points []model.SeriesPoint, p Period) []model.LabeledPoint {
	out := make([]model.LabeledPoint, len(points))
	for i, pt := range points {
		out[i] = model.LabeledPoint{
			Label: label(pt.Date, p),
			Date:  pt.Date,
			Value: pt.Value,
		}
	}
	return out
}

func label(date string, p Period) string {
	parts := strings.Split(date, "-")
	idx := 0
	switch p {
	case Daily:
		idx = 2
	case Monthly:
		idx = 1
	}
	if idx >= len(parts) {
		return date
	}
	return parts[idx]
}

// Percent is round(current / total * 100). A zero total yields 0.
func Percent(current, total float64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(current / total * 100))
}

// ZeroFilled builds the series shown when the chart source is unavailable:
// every day of the current month, every month of the current year, or the
// last few years.
func ZeroFilled(p Period, now time.Time) []model.LabeledPoint {
	var points []model.SeriesPoint
	switch p {
	case Monthly:
		for m := time.January; m <= time.December; m++ {
			d := time.Date(now.Year(), m, 1, 0, 0, 0, 0, time.UTC)
			points = append(points, model.SeriesPoint{Date: d.Format("2006-01")})
		}
	case Yearly:
		for y := now.Year() - yearsShown + 1; y <= now.Year(); y++ {
			points = append(points, model.SeriesPoint{Date: fmt.Sprintf("%04d", y)})
		}
	default:
		days := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
		for day := 1; day <= days; day++ {
			d := time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, time.UTC)
			points = append(points, model.SeriesPoint{Date: d.Format("2006-01-02")})
		}
	}
	return Format(points, p)
}
