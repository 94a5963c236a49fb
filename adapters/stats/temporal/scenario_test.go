package temporal_test

import (
	"math"
	"testing"
	"time"

	"soilmm/adapters/stats/detrend"
	"soilmm/adapters/stats/temporal"
	"soilmm/adapters/stats/thickness"
	"soilmm/domain/series"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Three anchors, two years of hourly data, a sinusoidal driver and a second
// layer that follows the driver six hours out of phase on top of a drift.
func TestScenario_DominantLagOfDetrendedLayer(t *testing.T) {
	const (
		hours  = 2 * 365 * 24
		period = 21 * 24.0
		offset = 6
	)
	start := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)

	idx := make([]time.Time, hours)
	driver := make([]float64, hours)
	a1 := make([]float64, hours)
	a2 := make([]float64, hours)
	a3 := make([]float64, hours)
	for i := 0; i < hours; i++ {
		idx[i] = start.Add(time.Duration(i) * time.Hour)
		driver[i] = math.Sin(2 * math.Pi * float64(i) / period)

		response := math.Sin(2 * math.Pi * float64(i+offset) / period)
		a1[i] = 0.001 * float64(i)
		a2[i] = a1[i] - 0.5
		// thickness of layer 2 = -(a3 - a2) = response + drift
		a3[i] = a2[i] - response - 0.0005*float64(i)
	}

	mk := func(d series.Depth, v []float64) series.AnchorSeries {
		ts, err := series.New(d.String(), idx, v)
		require.NoError(t, err)
		return series.AnchorSeries{Depth: d, Series: ts}
	}
	profile, err := series.NewProfile("SYN", []series.AnchorSeries{mk(6, a1), mk(41, a2), mk(93, a3)})
	require.NoError(t, err)

	layers, err := thickness.LayerThickness(profile)
	require.NoError(t, err)
	require.Len(t, layers, 2)

	detrended, err := detrend.Detrend(layers[1].Series, detrend.MethodLinear, 0)
	require.NoError(t, err)

	driverSeries, err := series.New("deficit", idx, driver)
	require.NoError(t, err)

	for _, opts := range [][]temporal.Option{nil, {temporal.WithPartition(temporal.ByYear)}} {
		profile, err := temporal.LagCorrelation(driverSeries, detrended, temporal.Symmetric(48), opts...)
		require.NoError(t, err)
		require.Len(t, profile, 97)

		ext, err := temporal.Extremes(profile)
		require.NoError(t, err)
		assert.InDelta(t, offset, ext.DominantLag, 1)
		assert.Greater(t, ext.DominantCoefficient, 0.95)
	}
}
