package temporal

import (
	"fmt"
	"math"

	"soilmm/domain/core"
)

// Extremal summarises a lag profile for annotation and reporting.
type Extremal struct {
	MaxLag              int
	MaxCoefficient      float64
	MinLag              int
	MinCoefficient      float64
	DominantLag         int
	DominantCoefficient float64
}

// Extremes finds the lags of maximum and minimum correlation and the
// dominant one of the two (larger absolute coefficient). Undefined lags are
// skipped.
//
// Ties always resolve toward the shorter delay: the lag with the smaller
// absolute value wins, and of two lags with equal magnitude the negative
// one wins. So {(-3, 0.8), (3, 0.8)} has dominant lag -3.
func Extremes(p LagCorrelationProfile) (Extremal, error) {
	var (
		ext   Extremal
		found bool
	)
	for _, c := range p {
		if !c.Defined {
			continue
		}
		if !found {
			ext.MaxLag, ext.MaxCoefficient = c.Lag, c.Coefficient
			ext.MinLag, ext.MinCoefficient = c.Lag, c.Coefficient
			found = true
			continue
		}
		if c.Coefficient > ext.MaxCoefficient ||
			(c.Coefficient == ext.MaxCoefficient && preferLag(c.Lag, ext.MaxLag)) {
			ext.MaxLag, ext.MaxCoefficient = c.Lag, c.Coefficient
		}
		if c.Coefficient < ext.MinCoefficient ||
			(c.Coefficient == ext.MinCoefficient && preferLag(c.Lag, ext.MinLag)) {
			ext.MinLag, ext.MinCoefficient = c.Lag, c.Coefficient
		}
	}
	if !found {
		return Extremal{}, fmt.Errorf("%w: %d lags", core.ErrUndefinedCorrelation, len(p))
	}

	absMax, absMin := math.Abs(ext.MaxCoefficient), math.Abs(ext.MinCoefficient)
	switch {
	case absMax > absMin:
		ext.DominantLag, ext.DominantCoefficient = ext.MaxLag, ext.MaxCoefficient
	case absMin > absMax:
		ext.DominantLag, ext.DominantCoefficient = ext.MinLag, ext.MinCoefficient
	case preferLag(ext.MinLag, ext.MaxLag):
		ext.DominantLag, ext.DominantCoefficient = ext.MinLag, ext.MinCoefficient
	default:
		ext.DominantLag, ext.DominantCoefficient = ext.MaxLag, ext.MaxCoefficient
	}
	return ext, nil
}

// preferLag reports whether candidate beats current under the tie-break.
func preferLag(candidate, current int) bool {
	a, b := abs(candidate), abs(current)
	if a != b {
		return a < b
	}
	return candidate < current
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
