package temporal

import (
	"math"
	"testing"
	"time"

	"soilmm/domain/core"
	"soilmm/domain/series"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResampleHourly_MeanAndGaps(t *testing.T) {
	ts := series.TimeSeries{
		Name: "deficit",
		Timestamps: []time.Time{
			t0.Add(10 * time.Minute),
			t0.Add(40 * time.Minute),
			t0.Add(3*time.Hour + 5*time.Minute),
		},
		Values: []float64{2, 4, 9},
	}

	out := ResampleHourly(ts, AggMean)
	require.Equal(t, 4, out.Len())
	require.NoError(t, out.Validate())
	assert.Equal(t, t0, out.Timestamps[0])
	assert.Equal(t, 3.0, out.Values[0])
	assert.True(t, math.IsNaN(out.Values[1]), "missing hour must stay a gap")
	assert.True(t, math.IsNaN(out.Values[2]))
	assert.Equal(t, 9.0, out.Values[3])

	summed := ResampleHourly(ts, AggSum)
	assert.Equal(t, 6.0, summed.Values[0])

	assert.Equal(t, 2, DropMissing(out).Len())
}

func TestResampleHourly_IgnoresMissingInBucket(t *testing.T) {
	ts := series.TimeSeries{
		Name:       "gw",
		Timestamps: []time.Time{t0, t0.Add(30 * time.Minute)},
		Values:     []float64{math.NaN(), 5},
	}
	out := ResampleHourly(ts, AggMean)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, 5.0, out.Values[0])
}

func TestAlign(t *testing.T) {
	a := series.TimeSeries{
		Name:       "deficit",
		Timestamps: []time.Time{t0, t0.Add(time.Hour), t0.Add(time.Hour), t0.Add(2 * time.Hour)},
		Values:     []float64{1, 2, 99, 3},
	}
	b := series.TimeSeries{
		Name:       "layer",
		Timestamps: []time.Time{t0.Add(time.Hour), t0.Add(2 * time.Hour), t0.Add(3 * time.Hour)},
		Values:     []float64{10, 20, 30},
	}

	outA, outB := Align(a, b)
	assert.True(t, series.SameIndex(outA, outB))
	assert.Equal(t, []float64{2, 3}, outA.Values)
	assert.Equal(t, []float64{10, 20}, outB.Values)
}

func TestSubtractReference(t *testing.T) {
	start := time.Date(2021, time.December, 31, 22, 0, 0, 0, time.UTC)
	ts := series.TimeSeries{
		Name:       "41 cm bs",
		Timestamps: []time.Time{start, start.Add(time.Hour), start.Add(2 * time.Hour), start.Add(3 * time.Hour), start.Add(26 * time.Hour)},
		Values:     []float64{math.NaN(), 5, 4, 6, 8},
	}

	ref, out, err := SubtractReference(ts)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC), ref)
	assert.True(t, math.IsNaN(out.Values[0]))
	assert.Equal(t, []float64{0, -1, 1, 3}, out.Values[1:])
}

func TestSubtractReference_NoReferenceDay(t *testing.T) {
	ts := series.TimeSeries{
		Name:       "41 cm bs",
		Timestamps: []time.Time{t0, t0.Add(time.Hour)},
		Values:     []float64{1, 2},
	}
	_, _, err := SubtractReference(ts)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}
