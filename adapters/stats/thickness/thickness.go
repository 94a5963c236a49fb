// Package thickness derives soil-layer thickness series from extensometer
// anchor displacement profiles.
package thickness

import (
	"fmt"
	"math"

	"soilmm/domain/core"
	"soilmm/domain/series"
)

// LayerThickness converts a profile of N anchors into N-1 layer series.
//
// For each adjacent pair in profile order the thickness change is
//
//	thickness[i](t) = -(anchor[i+1](t) - anchor[i](t))
//
// The negation is the domain sign convention; flipping it inverts the
// attribution of subsidence to layers. A missing sample in either anchor
// yields a missing thickness sample.
func LayerThickness(p *series.Profile) ([]series.LayerThicknessSeries, error) {
	if p == nil || p.Len() < 2 {
		n := 0
		if p != nil {
			n = p.Len()
		}
		return nil, fmt.Errorf("%w: got %d", core.ErrInsufficientAnchors, n)
	}

	layers := make([]series.LayerThicknessSeries, 0, p.Len()-1)
	for i := 0; i < p.Len()-1; i++ {
		upper, lower := p.Anchors[i], p.Anchors[i+1]
		if !series.SameIndex(upper.Series, lower.Series) {
			return nil, core.NewMisalignedError(upper.Series.Name, lower.Series.Name)
		}

		values := make([]float64, upper.Series.Len())
		for j := range values {
			a, b := upper.Series.Values[j], lower.Series.Values[j]
			if math.IsNaN(a) || math.IsNaN(b) {
				values[j] = math.NaN()
				continue
			}
			values[j] = -(b - a)
		}

		label := series.LayerLabel(upper.Depth, lower.Depth)
		layers = append(layers, series.LayerThicknessSeries{
			Upper:  upper.Depth,
			Lower:  lower.Depth,
			Label:  label,
			Series: upper.Series.WithValues(label, values),
		})
	}
	return layers, nil
}

// InitialThickness returns the installed thickness of every layer in cm,
// taken from the nominal anchor depths.
func InitialThickness(layers []series.LayerThicknessSeries) map[string]float64 {
	out := make(map[string]float64, len(layers))
	for _, l := range layers {
		out[l.Label] = l.NominalThickness()
	}
	return out
}

// Strain divides the thickness change of a layer by its installed thickness.
// Both must be in the same length unit. Layers of zero nominal thickness
// yield a missing series.
func Strain(layer series.LayerThicknessSeries) series.TimeSeries {
	initial := layer.NominalThickness()
	values := make([]float64, layer.Series.Len())
	for i, v := range layer.Series.Values {
		if initial == 0 || math.IsNaN(v) {
			values[i] = math.NaN()
			continue
		}
		values[i] = v / initial
	}
	return layer.Series.WithValues(layer.Label+" strain", values)
}
