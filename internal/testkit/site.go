// Package testkit generates synthetic monitoring sites for tests.
package testkit

import (
	"math"
	"math/rand"
	"time"

	"soilmm/domain/series"
)

// SiteConfig configures the synthetic site generator
type SiteConfig struct {
	Location    string
	Start       time.Time
	Hours       int
	Period      float64 // driver period in hours
	Offset      int     // hours the responsive layer trails the driver
	SurfaceRate float64 // surface anchor displacement per hour, negative is settling
	Noise       float64 // standard deviation added to the responsive layer
	Seed        int64
}

// Depths of the three generated anchors.
var Depths = []series.Depth{6, 41, 93}

// RigidThickness is the constant thickness change of the upper layer.
const RigidThickness = 0.5

// DefaultSiteConfig returns sixty winter days of hourly data
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		Location:    "SYN",
		Start:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Hours:       60 * 24,
		Period:      48,
		Offset:      6,
		SurfaceRate: -1.0 / 1024,
		Seed:        42,
	}
}

// SiteGenerator builds anchor profiles and a matching driver series
type SiteGenerator struct {
	config SiteConfig
	rng    *rand.Rand
}

// NewSiteGenerator creates a new site generator
func NewSiteGenerator(config SiteConfig) *SiteGenerator {
	return &SiteGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate returns a three-anchor profile and a sinusoidal driver on the
// same hourly axis. The upper layer is rigid: its thickness is exactly
// RigidThickness at every sample. The lower layer follows the driver
// Offset hours late.
func (g *SiteGenerator) Generate() (*series.Profile, series.TimeSeries, error) {
	c := g.config
	idx := make([]time.Time, c.Hours)
	driver := make([]float64, c.Hours)
	a0 := make([]float64, c.Hours)
	a1 := make([]float64, c.Hours)
	a2 := make([]float64, c.Hours)

	for i := 0; i < c.Hours; i++ {
		idx[i] = c.Start.Add(time.Duration(i) * time.Hour)
		driver[i] = math.Sin(2 * math.Pi * float64(i) / c.Period)

		response := math.Sin(2 * math.Pi * float64(i+c.Offset) / c.Period)
		if c.Noise > 0 {
			response += g.rng.NormFloat64() * c.Noise
		}
		a0[i] = float64(i) * c.SurfaceRate
		a1[i] = a0[i] - RigidThickness
		a2[i] = a1[i] - response
	}

	anchors := make([]series.AnchorSeries, len(Depths))
	for k, values := range [][]float64{a0, a1, a2} {
		ts, err := series.New(Depths[k].String(), idx, values)
		if err != nil {
			return nil, series.TimeSeries{}, err
		}
		anchors[k] = series.AnchorSeries{Depth: Depths[k], Series: ts}
	}
	profile, err := series.NewProfile(c.Location, anchors)
	if err != nil {
		return nil, series.TimeSeries{}, err
	}

	d, err := series.New("precipitation_deficit", idx, driver)
	if err != nil {
		return nil, series.TimeSeries{}, err
	}
	return profile, d, nil
}
