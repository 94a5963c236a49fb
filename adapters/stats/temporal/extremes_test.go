package temporal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coeff(lag int, c float64) LagCoefficient {
	return LagCoefficient{Lag: lag, Coefficient: c, Defined: true, PValue: math.NaN()}
}

func TestExtremes_TieBreak(t *testing.T) {
	tests := []struct {
		name     string
		profile  LagCorrelationProfile
		dominant int
		max      int
		min      int
	}{
		{
			name:     "equal coefficients at mirrored lags",
			profile:  LagCorrelationProfile{coeff(-3, 0.8), coeff(3, 0.8)},
			dominant: -3, max: -3, min: -3,
		},
		{
			name:     "equal magnitude opposite sign",
			profile:  LagCorrelationProfile{coeff(-4, -0.9), coeff(-1, 0.1), coeff(2, 0.9)},
			dominant: 2, max: 2, min: -4,
		},
		{
			name:     "mirrored magnitude opposite sign",
			profile:  LagCorrelationProfile{coeff(-2, -0.6), coeff(2, 0.6)},
			dominant: -2, max: 2, min: -2,
		},
		{
			name:     "negative dominates",
			profile:  LagCorrelationProfile{coeff(-1, 0.2), coeff(0, -0.7), coeff(5, 0.5)},
			dominant: 0, max: 5, min: 0,
		},
		{
			name:     "shorter delay wins among equal maxima",
			profile:  LagCorrelationProfile{coeff(-6, 0.4), coeff(1, 0.4), coeff(8, 0.4)},
			dominant: 1, max: 1, min: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := Extremes(tt.profile)
			require.NoError(t, err)
			assert.Equal(t, tt.dominant, ext.DominantLag)
			assert.Equal(t, tt.max, ext.MaxLag)
			assert.Equal(t, tt.min, ext.MinLag)
		})
	}
}

func TestExtremes_SkipsUndefined(t *testing.T) {
	profile := LagCorrelationProfile{
		{Lag: -1, Coefficient: math.NaN()},
		coeff(0, 0.3),
		{Lag: 1, Coefficient: math.NaN()},
	}
	ext, err := Extremes(profile)
	require.NoError(t, err)
	assert.Equal(t, 0, ext.DominantLag)
	assert.Equal(t, 0.3, ext.DominantCoefficient)
}
