package series

import (
	"fmt"

	"soilmm/domain/core"
)

// AnchorSeries is the displacement record of one extensometer anchor.
type AnchorSeries struct {
	Depth  Depth
	Series TimeSeries
}

// Profile is the set of anchors of one extensometer, sharing one time axis,
// in strictly monotonic depth order (shallow to deep or deep to shallow).
type Profile struct {
	Location string
	Anchors  []AnchorSeries
}

// NewProfile validates and builds a profile. Fewer than two anchors is
// allowed here; the thickness engine rejects it.
func NewProfile(location string, anchors []AnchorSeries) (*Profile, error) {
	for i, a := range anchors {
		if err := a.Series.Validate(); err != nil {
			return nil, fmt.Errorf("profile %s: %w", location, err)
		}
		if i == 0 {
			continue
		}
		if !SameIndex(anchors[0].Series, a.Series) {
			return nil, fmt.Errorf("profile %s: %w", location,
				core.NewMisalignedError(anchors[0].Series.Name, a.Series.Name))
		}
	}
	if len(anchors) >= 2 {
		increasing := anchors[1].Depth > anchors[0].Depth
		for i := 1; i < len(anchors); i++ {
			d0, d1 := anchors[i-1].Depth, anchors[i].Depth
			if d0 == d1 || (d1 > d0) != increasing {
				return nil, fmt.Errorf("%w: profile %s at %s", core.ErrAnchorOrder, location, d1)
			}
		}
	}
	return &Profile{Location: location, Anchors: anchors}, nil
}

// Len returns the number of anchors.
func (p *Profile) Len() int {
	return len(p.Anchors)
}

// Depths lists the nominal anchor depths in profile order.
func (p *Profile) Depths() []Depth {
	out := make([]Depth, len(p.Anchors))
	for i, a := range p.Anchors {
		out[i] = a.Depth
	}
	return out
}

// LayerThicknessSeries is the derived thickness change of the layer bounded
// by two adjacent anchors. Positive values mean the layer got thinner.
type LayerThicknessSeries struct {
	Upper  Depth
	Lower  Depth
	Label  string
	Series TimeSeries
}

// NominalThickness is the installed distance between the bounding anchors.
func (l LayerThicknessSeries) NominalThickness() float64 {
	d := float64(l.Lower - l.Upper)
	if d < 0 {
		return -d
	}
	return d
}
