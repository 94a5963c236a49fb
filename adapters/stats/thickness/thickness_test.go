package thickness

import (
	"math"
	"testing"
	"time"

	"soilmm/domain/core"
	"soilmm/domain/series"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profileOf(t *testing.T, depths []series.Depth, values [][]float64) *series.Profile {
	t.Helper()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	idx := make([]time.Time, len(values[0]))
	for i := range idx {
		idx[i] = start.Add(time.Duration(i) * time.Hour)
	}
	anchors := make([]series.AnchorSeries, len(depths))
	for i, d := range depths {
		ts, err := series.New(d.String(), idx, values[i])
		require.NoError(t, err)
		anchors[i] = series.AnchorSeries{Depth: d, Series: ts}
	}
	p, err := series.NewProfile("TEST", anchors)
	require.NoError(t, err)
	return p
}

func TestLayerThickness_SignConvention(t *testing.T) {
	p := profileOf(t, []series.Depth{6, 41, 93}, [][]float64{{0}, {5}, {5}})

	layers, err := LayerThickness(p)
	require.NoError(t, err)
	require.Len(t, layers, 2)

	assert.Equal(t, -5.0, layers[0].Series.Values[0])
	assert.Equal(t, 0.0, layers[1].Series.Values[0])
	assert.Equal(t, "41 cm bs – 6 cm bs", layers[0].Label)
	assert.Equal(t, "93 cm bs – 41 cm bs", layers[1].Label)
	assert.Equal(t, series.Depth(6), layers[0].Upper)
	assert.Equal(t, series.Depth(41), layers[0].Lower)
}

func TestLayerThickness_MissingPropagates(t *testing.T) {
	nan := math.NaN()
	p := profileOf(t, []series.Depth{6, 41}, [][]float64{{1, nan, 3}, {2, 2, nan}})

	layers, err := LayerThickness(p)
	require.NoError(t, err)

	got := layers[0].Series.Values
	assert.Equal(t, -1.0, got[0])
	assert.True(t, math.IsNaN(got[1]))
	assert.True(t, math.IsNaN(got[2]))
	assert.True(t, series.SameIndex(p.Anchors[0].Series, layers[0].Series))
}

func TestLayerThickness_InsufficientAnchors(t *testing.T) {
	p := profileOf(t, []series.Depth{6}, [][]float64{{1, 2}})
	_, err := LayerThickness(p)
	assert.ErrorIs(t, err, core.ErrInsufficientAnchors)

	_, err = LayerThickness(nil)
	assert.ErrorIs(t, err, core.ErrInsufficientAnchors)
}

func TestStrain(t *testing.T) {
	p := profileOf(t, []series.Depth{10, 50}, [][]float64{{0, 0}, {-2, math.NaN()}})
	layers, err := LayerThickness(p)
	require.NoError(t, err)

	assert.Equal(t, 40.0, InitialThickness(layers)[layers[0].Label])

	strain := Strain(layers[0])
	assert.InDelta(t, 0.05, strain.Values[0], 1e-12)
	assert.True(t, math.IsNaN(strain.Values[1]))
}
