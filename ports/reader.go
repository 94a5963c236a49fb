package ports

import (
	"context"

	"soilmm/domain/core"
	"soilmm/domain/series"
)

// DriverKind names a hydrological forcing series.
type DriverKind string

const (
	DriverPrecipitationDeficit DriverKind = "precipitation_deficit"
	DriverGroundwater          DriverKind = "groundwater"
)

// SeriesReader provides the input series of a monitoring location.
// Implementations own all source-specific parsing; the numeric packages
// only ever see validated series.
type SeriesReader interface {
	// ReadProfile returns the extensometer anchors of a location in
	// configured depth order, on one shared timestamp axis.
	ReadProfile(ctx context.Context, location core.LocationID) (*series.Profile, error)

	// ReadDriver returns one forcing series of a location.
	ReadDriver(ctx context.Context, location core.LocationID, kind DriverKind) (series.TimeSeries, error)
}
