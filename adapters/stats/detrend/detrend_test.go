package detrend

import (
	"math"
	"testing"
	"time"

	"soilmm/domain/core"
	"soilmm/domain/series"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesOf(values ...float64) series.TimeSeries {
	start := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	idx := make([]time.Time, len(values))
	for i := range idx {
		idx[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return series.TimeSeries{Name: "layer", Timestamps: idx, Values: values}
}

func TestDetrend_LinearSeriesBecomesZero(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 2 * float64(i)
	}
	ts := seriesOf(values...)

	out, err := Detrend(ts, MethodLinear, 0)
	require.NoError(t, err)
	for i, v := range out.Values {
		assert.InDelta(t, 0, v, 1e-9, "sample %d", i)
	}
	assert.Equal(t, ts.Timestamps, out.Timestamps)
}

func TestDetrend_LinearSkipsMissing(t *testing.T) {
	nan := math.NaN()
	ts := seriesOf(1, 3, nan, 7, 9, 11)

	out, err := Detrend(ts, MethodLinear, 0)
	require.NoError(t, err)
	require.Equal(t, ts.Len(), out.Len())
	assert.True(t, math.IsNaN(out.Values[2]))
	for _, i := range []int{0, 1, 3, 4, 5} {
		assert.InDelta(t, 0, out.Values[i], 1e-9)
	}
}

func TestDetrend_LinearResidualHasZeroMean(t *testing.T) {
	ts := seriesOf(3, 1, 4, 1, 5, 9, 2, 6, 5, 3)
	out, err := Detrend(ts, MethodLinear, 0)
	require.NoError(t, err)

	sum := 0.0
	for _, v := range out.Values {
		sum += v
	}
	assert.InDelta(t, 0, sum, 1e-9)
}

func TestDetrend_MovingAverage(t *testing.T) {
	ts := seriesOf(1, 2, 3, 4, 5, 6)

	out, err := Detrend(ts, MethodMovingAverage, 3)
	require.NoError(t, err)
	require.Equal(t, ts.Timestamps, out.Timestamps)

	assert.True(t, math.IsNaN(out.Values[0]))
	assert.True(t, math.IsNaN(out.Values[1]))
	for i := 2; i < 6; i++ {
		assert.InDelta(t, 1.0, out.Values[i], 1e-12)
	}
}

func TestDetrend_MovingAverageDefaultWindow(t *testing.T) {
	ts := seriesOf(1, 1, 1, 1, 1, 1, 1, 1)
	out, err := Detrend(ts, MethodMovingAverage, 0)
	require.NoError(t, err)
	for i := 0; i < DefaultWindow-1; i++ {
		assert.True(t, math.IsNaN(out.Values[i]))
	}
	assert.Equal(t, 0.0, out.Values[7])
}

func TestDetrend_MovingAverageGapInWindow(t *testing.T) {
	ts := seriesOf(1, 2, math.NaN(), 4, 5, 6, 7)
	out, err := Detrend(ts, MethodMovingAverage, 3)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		assert.True(t, math.IsNaN(out.Values[i]), "sample %d", i)
	}
	assert.InDelta(t, 1.0, out.Values[5], 1e-12)
}

func TestDetrend_InvalidMethod(t *testing.T) {
	_, err := Detrend(seriesOf(1, 2), Method("polynomial"), 0)
	assert.ErrorIs(t, err, core.ErrInvalidDetrendMethod)

	_, err = ParseMethod("mean")
	assert.ErrorIs(t, err, core.ErrInvalidDetrendMethod)

	m, err := ParseMethod("moving_average")
	require.NoError(t, err)
	assert.Equal(t, MethodMovingAverage, m)
}

func TestDetrendLayers(t *testing.T) {
	layers := []series.LayerThicknessSeries{{Label: "41 cm bs – 6 cm bs", Upper: 6, Lower: 41, Series: seriesOf(0, 1, 2)}}
	out, err := DetrendLayers(layers, MethodLinear, 0)
	require.NoError(t, err)
	assert.Equal(t, layers[0].Label, out[0].Label)
	assert.Equal(t, 2.0, layers[0].Series.Values[2], "input must not be mutated")
}
