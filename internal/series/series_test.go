package series

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incentive-engine/internal/model"
)

func TestFormatDaily(t *testing.T) {
	in := []model.SeriesPoint{
		{Date: "2025-03-01", Value: 4},
		{Date: "2025-03-02", Value: 0},
		{Date: "2025-03-03", Value: 7.5},
	}
	out := Format(in, Daily)

	require.Len(t, out, len(in))
	assert.Equal(t, []string{"01", "02", "03"}, labels(out))
	for i := range in {
		assert.Equal(t, in[i].Value, out[i].Value)
		assert.Equal(t, in[i].Date, out[i].Date)
	}
}

func TestFormatMonthly(t *testing.T) {
	out := Format([]model.SeriesPoint{{Date: "2025-11", Value: 3}, {Date: "2025-12", Value: 9}}, Monthly)
	assert.Equal(t, []string{"11", "12"}, labels(out))
	assert.Equal(t, 9.0, out[1].Value)
}

func TestFormatYearly(t *testing.T) {
	out := Format([]model.SeriesPoint{{Date: "2024", Value: 1}}, Yearly)
	assert.Equal(t, []string{"2024"}, labels(out))
}

func TestFormatPreservesOrderWithoutSorting(t *testing.T) {
	in := []model.SeriesPoint{{Date: "2025-03-09", Value: 1}, {Date: "2025-03-02", Value: 2}}
	out := Format(in, Daily)
	assert.Equal(t, []string{"09", "02"}, labels(out))
}

func TestFormatMalformedDateKeepsRawLabel(t *testing.T) {
	out := Format([]model.SeriesPoint{{Date: "2025", Value: 1}}, Daily)
	require.Len(t, out, 1)
	assert.Equal(t, "2025", out[0].Label)
}

func TestFormatEmpty(t *testing.T) {
	assert.Empty(t, Format(nil, Daily))
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, Daily, p)

	p, err = ParsePeriod("Monthly")
	require.NoError(t, err)
	assert.Equal(t, Monthly, p)

	_, err = ParsePeriod("weekly")
	assert.Error(t, err)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 50, Percent(40, 80))
	assert.Equal(t, 15, Percent(12, 80))
	assert.Equal(t, 100, Percent(80, 80))
	assert.Equal(t, 0, Percent(5, 0))
}

func TestZeroFilled(t *testing.T) {
	now := time.Date(2024, time.February, 10, 12, 0, 0, 0, time.UTC)

	daily := ZeroFilled(Daily, now)
	require.Len(t, daily, 29)
	assert.Equal(t, "01", daily[0].Label)
	assert.Equal(t, "2024-02-29", daily[28].Date)

	monthly := ZeroFilled(Monthly, now)
	require.Len(t, monthly, 12)
	assert.Equal(t, "12", monthly[11].Label)

	yearly := ZeroFilled(Yearly, now)
	require.Len(t, yearly, 5)
	assert.Equal(t, "2020", yearly[0].Label)
	assert.Equal(t, "2024", yearly[4].Label)

	for _, pt := range append(append(daily, monthly...), yearly...) {
		assert.Zero(t, pt.Value)
	}
}

func labels(points []model.LabeledPoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Label
	}
	return out
}
