package excel

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"soilmm/adapters/stats/temporal"
	"soilmm/domain/core"
	"soilmm/domain/series"
	"soilmm/internal"
	"soilmm/internal/config"
	"soilmm/internal/errors"
	"soilmm/ports"

	"github.com/xuri/excelize/v2"
)

// timeLayouts are tried in order when a source has no time_format.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02-01-2006",
	"2006/01/02 15:04:05",
	"02/01/2006 15:04",
}

// SeriesSource implements ports.SeriesReader over the files described by a
// location catalog.
type SeriesSource struct {
	catalog *config.Catalog
	logger  *internal.Logger
}

var _ ports.SeriesReader = (*SeriesSource)(nil)

// NewSeriesSource creates a reader for every location in catalog.
func NewSeriesSource(catalog *config.Catalog, logger *internal.Logger) *SeriesSource {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &SeriesSource{catalog: catalog, logger: logger}
}

// ReadProfile reads the extensometer file of a location. Each configured
// column becomes one anchor; its header is parsed as the anchor depth.
func (s *SeriesSource) ReadProfile(ctx context.Context, location core.LocationID) (*series.Profile, error) {
	loc, err := s.lookup(location)
	if err != nil {
		return nil, err
	}
	src := loc.Extensometer
	channels, err := s.readSource(ctx, src)
	if err != nil {
		return nil, errors.DataSourceError(src.File, err)
	}

	anchors := make([]series.AnchorSeries, 0, len(channels))
	for _, ch := range channels {
		depth, err := series.ParseDepth(ch.Name)
		if err != nil {
			return nil, errors.DataSourceError(src.File, err)
		}
		ch.Name = depth.String()
		if dropped(src.Drop, ch.Name) {
			continue
		}
		anchors = append(anchors, series.AnchorSeries{Depth: depth, Series: ch})
	}
	for _, a := range anchors {
		applyMasks(src.Masks, a.Series)
	}

	profile, err := series.NewProfile(loc.ID, anchors)
	if err != nil {
		return nil, err
	}
	s.logger.Info("read profile %s: %d anchors, %d samples", loc.ID, profile.Len(), sampleCount(profile))
	return profile, nil
}

// ReadDriver reads the forcing series of the given kind for a location.
func (s *SeriesSource) ReadDriver(ctx context.Context, location core.LocationID, kind ports.DriverKind) (series.TimeSeries, error) {
	loc, err := s.lookup(location)
	if err != nil {
		return series.TimeSeries{}, err
	}
	src, ok := loc.Drivers[string(kind)]
	if !ok {
		return series.TimeSeries{}, fmt.Errorf("%w: driver %s at %s", core.ErrChannelNotFound, kind, loc.ID)
	}
	channels, err := s.readSource(ctx, src)
	if err != nil {
		return series.TimeSeries{}, errors.DataSourceError(src.File, err)
	}
	if len(channels) == 0 {
		return series.TimeSeries{}, errors.DataSourceError(src.File, fmt.Errorf("no value column"))
	}

	ts := channels[0]
	ts.Name = string(kind)
	applyMasks(src.Masks, ts)
	s.logger.Debug("read driver %s for %s: %d samples", kind, loc.ID, ts.Len())
	return ts, nil
}

func (s *SeriesSource) lookup(location core.LocationID) (config.Location, error) {
	loc, ok := s.catalog.Lookup(location.String())
	if !ok {
		return config.Location{}, errors.WithCode(errors.CodeNotFound, core.NewLocationNotFoundError(location.String()))
	}
	return loc, nil
}

// readSource turns one file into sorted, de-duplicated channels sharing a
// timestamp axis, one per value column.
func (s *SeriesSource) readSource(ctx context.Context, src config.SourceConfig) ([]series.TimeSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := NewDataReader(src.File, s.logger).WithSheet(src.Sheet).ReadData()
	if err != nil {
		return nil, err
	}

	timeColumn := src.TimeColumn
	if timeColumn == "" {
		timeColumn = data.Headers[0]
	}
	if !data.HasColumn(timeColumn) {
		return nil, fmt.Errorf("time column %q not found", timeColumn)
	}

	columns := src.Columns
	if len(columns) == 0 {
		for _, h := range data.Headers {
			if h != timeColumn && h != "" && !dropped(src.Drop, h) {
				columns = append(columns, h)
			}
		}
	}
	for _, c := range columns {
		if !data.HasColumn(c) {
			return nil, fmt.Errorf("%w: column %q", core.ErrChannelNotFound, c)
		}
	}

	// Rows without a timestamp are trailing or comment rows.
	var rows []int
	var stamps []time.Time
	for i, cell := range data.Column(timeColumn) {
		if cell == "" {
			continue
		}
		t, err := parseTimestamp(cell, src.TimeFormat)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, i)
		stamps = append(stamps, t)
	}
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return stamps[order[a]].Before(stamps[order[b]]) })

	sorted := make([]time.Time, len(order))
	for i, k := range order {
		sorted[i] = stamps[k]
	}

	scale := src.Scale()
	agg := temporal.AggregationFunc(src.Aggregate)
	if agg == "" {
		agg = temporal.AggMean
	}

	out := make([]series.TimeSeries, 0, len(columns))
	for _, c := range columns {
		values := make([]float64, len(order))
		for i, k := range order {
			v, err := parseValue(data.Rows[rows[k]][c])
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", rows[k]+2, c, err)
			}
			values[i] = v * scale
		}
		ts, err := series.New(c, sorted, values)
		if err != nil {
			return nil, err
		}
		ts = ts.Dedupe()
		if src.Hourly {
			ts = temporal.ResampleHourly(ts, agg)
		}
		out = append(out, ts)
	}
	return out, nil
}

// parseTimestamp accepts a Go layout, the common layouts above, or an
// Excel serial date number.
func parseTimestamp(cell, layout string) (time.Time, error) {
	if layout != "" {
		return time.Parse(layout, cell)
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, cell); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(cell, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return t.Round(time.Second), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", cell)
}

// parseValue maps empty and not-a-number markers to NaN. A lone comma is a
// decimal comma; with a '.' present commas are grouping separators.
func parseValue(cell string) (float64, error) {
	switch strings.ToLower(cell) {
	case "", "nan", "-", "#n/a", "null":
		return math.NaN(), nil
	}
	if strings.Contains(cell, ".") {
		// "1,234.5": the comma groups thousands.
		cell = strings.ReplaceAll(cell, ",", "")
	} else {
		cell = strings.Replace(cell, ",", ".", 1)
	}
	return strconv.ParseFloat(cell, 64)
}

func dropped(drop []string, name string) bool {
	for _, d := range drop {
		if d == name {
			return true
		}
	}
	return false
}

// applyMasks blanks masked windows in place. Masks name anchors by depth
// label and drivers by kind.
func applyMasks(masks []config.Mask, ts series.TimeSeries) {
	for _, m := range masks {
		if m.Column != ts.Name {
			continue
		}
		for i, t := range ts.Timestamps {
			if !m.From.IsZero() && t.Before(m.From) {
				continue
			}
			if !m.To.IsZero() && t.After(m.To) {
				continue
			}
			ts.Values[i] = math.NaN()
		}
	}
}

func sampleCount(p *series.Profile) int {
	if p.Len() == 0 {
		return 0
	}
	return p.Anchors[0].Series.Len()
}
