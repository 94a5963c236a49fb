package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"soilmm/adapters/stats/detrend"
	"soilmm/adapters/stats/temporal"
	"soilmm/adapters/stats/thickness"
	"soilmm/adapters/stats/trend"
	"soilmm/domain/core"
	"soilmm/domain/series"
	"soilmm/internal"
	"soilmm/internal/config"
	apperrors "soilmm/internal/errors"
	"soilmm/internal/metrics"
	"soilmm/ports"
)

// Pipeline stages, used in failures and metrics.
const (
	StageReference   = "reference"
	StageAnchorTrend = "anchor_trend"
	StageLayerTrend  = "layer_trend"
	StageCorrelation = "correlation"
)

// AnalysisOptions are the numeric settings of one run.
type AnalysisOptions struct {
	Lags           temporal.LagRange
	Partition      temporal.PartitionFunc // nil correlates the full record
	Significance   bool
	Driver         ports.DriverKind
	Detrend        detrend.Method // empty skips detrending
	DetrendWindow  int
	Trend          trend.Config
	ReferenceShift bool
	PartialYears   bool // report hydrological years missing their first or last day
	Workers        int
}

// OptionsFromConfig translates validated configuration into run options.
func OptionsFromConfig(cfg *config.Config) (AnalysisOptions, error) {
	a := cfg.Analysis
	opts := AnalysisOptions{
		Lags:           temporal.LagRange{Min: a.LagMin, Max: a.LagMax},
		Significance:   a.Significance,
		Driver:         ports.DriverKind(a.Driver),
		DetrendWindow:  a.DetrendWindow,
		Trend:          trend.Config{Months: core.NewMonthSet(a.TrendMonths...), UnitScale: a.UnitScale},
		ReferenceShift: a.ReferenceShift,
		PartialYears:   a.PartialYears,
		Workers:        cfg.Runtime.Workers,
	}

	switch a.Partition {
	case "year":
		opts.Partition = temporal.ByYear
	case "hydrological_year":
		opts.Partition = temporal.ByHydrologicalYear
	case "none", "":
	default:
		return AnalysisOptions{}, apperrors.ConfigInvalid(fmt.Sprintf("unknown partition %q", a.Partition))
	}

	if a.DetrendMethod != "none" && a.DetrendMethod != "" {
		m, err := detrend.ParseMethod(a.DetrendMethod)
		if err != nil {
			return AnalysisOptions{}, apperrors.WithCode(apperrors.CodeConfigInvalid, err)
		}
		opts.Detrend = m
	}
	return opts, opts.Lags.Validate()
}

// LayerCorrelation is the lag sweep of one layer against the driver.
type LayerCorrelation struct {
	Layer    string
	Driver   ports.DriverKind
	Profile  temporal.LagCorrelationProfile
	Extremes temporal.Extremal
}

// ChannelFailure records a channel that produced no result in one stage.
type ChannelFailure struct {
	Stage   string
	Channel string
	Err     error
}

// LocationReport collects every result for one location.
type LocationReport struct {
	RunID         core.RunID
	Location      string
	ReferenceDate time.Time
	Layers        []series.LayerThicknessSeries
	Correlations  []LayerCorrelation
	AnchorTrends  []trend.ChannelFit
	LayerTrends   []trend.ChannelFit
	Contributions      []float64          // per anchor, percent of the surface anchor slope
	LayerContributions []float64          // per layer, percent of the surface anchor slope
	LayerStrain        map[string]float64 // per layer label, strain per year
	StrainSeries       []series.TimeSeries
	AnchorDynamics     map[string][]trend.AnchorDynamics
	LayerDynamics      map[string][]trend.LayerDeformation
	Failures           []ChannelFailure
	Duration      time.Duration
}

// AnalysisService runs the subsidence pipeline for monitoring locations.
type AnalysisService struct {
	reader  ports.SeriesReader
	opts    AnalysisOptions
	logger  *internal.Logger
	metrics *metrics.Manager
}

// NewAnalysisService creates the service. logger and m may be nil.
func NewAnalysisService(reader ports.SeriesReader, opts AnalysisOptions, logger *internal.Logger, m *metrics.Manager) *AnalysisService {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &AnalysisService{reader: reader, opts: opts, logger: logger, metrics: m}
}

// AnalyzeLocations analyses locations concurrently, bounded by
// opts.Workers. Reports are returned in input order. The first location
// error cancels the rest.
func (s *AnalysisService) AnalyzeLocations(ctx context.Context, locations []core.LocationID) ([]*LocationReport, error) {
	reports := make([]*LocationReport, len(locations))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, loc := range locations {
		i, loc := i, loc
		g.Go(func() error {
			report, err := s.AnalyzeLocation(ctx, loc)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// AnalyzeLocation runs the full pipeline for one location. Sparse channels
// are recorded in Failures; anything structural aborts the location.
func (s *AnalysisService) AnalyzeLocation(ctx context.Context, location core.LocationID) (report *LocationReport, err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordLocation(time.Since(start), err)
	}()

	log := s.logger.With("location", location.String())
	report = &LocationReport{
		RunID:       core.NewRunID(),
		Location:    location.String(),
		LayerStrain:   make(map[string]float64),
		LayerDynamics: make(map[string][]trend.LayerDeformation),
	}

	profile, err := s.reader.ReadProfile(ctx, location)
	if err != nil {
		return nil, apperrors.AnalysisError(location.String(), err)
	}
	if s.opts.ReferenceShift {
		profile, err = s.shiftToReference(profile, report)
		if err != nil {
			return nil, apperrors.AnalysisError(location.String(), err)
		}
	}

	layers, err := thickness.LayerThickness(profile)
	if err != nil {
		return nil, apperrors.AnalysisError(location.String(), err)
	}
	report.Layers = layers
	log.Info("derived %d layers from %d anchors", len(layers), profile.Len())

	anchorSeries := make([]series.TimeSeries, profile.Len())
	for i, a := range profile.Anchors {
		anchorSeries[i] = a.Series
	}
	report.AnchorTrends = s.fitAll(report, StageAnchorTrend, anchorSeries)
	report.Contributions = trend.Contributions(report.AnchorTrends)

	layerSeries := make([]series.TimeSeries, len(layers))
	for i, l := range layers {
		layerSeries[i] = l.Series
	}
	report.LayerTrends = s.fitAll(report, StageLayerTrend, layerSeries)
	report.LayerContributions = trend.ContributionsTo(trend.SurfaceSlope(report.AnchorTrends), report.LayerTrends)

	initial := thickness.InitialThickness(layers)
	for i, f := range report.LayerTrends {
		if f.Fit != nil {
			report.LayerStrain[layers[i].Label] = trend.LayerStrain(f.Fit.Slope, initial[layers[i].Label])
		}
	}

	var dynOpts []trend.DynamicsOption
	if s.opts.PartialYears {
		dynOpts = append(dynOpts, trend.WithPartialYears())
	}
	report.AnchorDynamics = trend.AnchorYearlyDynamics(anchorSeries, dynOpts...)
	for _, l := range layers {
		report.LayerDynamics[l.Label] = trend.LayerYearlyDeformation(l, initial[l.Label], dynOpts...)
		report.StrainSeries = append(report.StrainSeries, thickness.Strain(l))
	}

	if err := s.correlate(ctx, location, layers, report); err != nil {
		return nil, apperrors.AnalysisError(location.String(), err)
	}

	report.Duration = time.Since(start)
	log.Info("analysis finished in %s with %d channel failures", report.Duration, len(report.Failures))
	return report, nil
}

// shiftToReference expresses every anchor relative to its reference day.
// Anchors without a reference value keep their raw values.
func (s *AnalysisService) shiftToReference(p *series.Profile, report *LocationReport) (*series.Profile, error) {
	anchors := make([]series.AnchorSeries, len(p.Anchors))
	for i, a := range p.Anchors {
		anchors[i] = a
		ref, shifted, err := temporal.SubtractReference(a.Series)
		if err != nil {
			if !core.IsDataSparsityError(err) {
				return nil, err
			}
			s.fail(report, StageReference, a.Series.Name, err)
			continue
		}
		if report.ReferenceDate.IsZero() {
			report.ReferenceDate = ref
		}
		anchors[i].Series = shifted
	}
	return series.NewProfile(p.Location, anchors)
}

func (s *AnalysisService) fitAll(report *LocationReport, stage string, channels []series.TimeSeries) []trend.ChannelFit {
	fits := trend.FitAll(channels, s.opts.Trend)
	for _, f := range fits {
		if f.Err != nil {
			s.fail(report, stage, f.Name, f.Err)
			continue
		}
		s.metrics.RecordChannel(stage)
	}
	return fits
}

func (s *AnalysisService) correlate(ctx context.Context, location core.LocationID, layers []series.LayerThicknessSeries, report *LocationReport) error {
	driver, err := s.reader.ReadDriver(ctx, location, s.opts.Driver)
	if errors.Is(err, core.ErrChannelNotFound) {
		s.fail(report, StageCorrelation, string(s.opts.Driver), err)
		return nil
	}
	if err != nil {
		return err
	}

	if s.opts.Detrend != "" {
		layers, err = detrend.DetrendLayers(layers, s.opts.Detrend, s.opts.DetrendWindow)
		if err != nil {
			return err
		}
	}

	var lagOpts []temporal.Option
	if s.opts.Partition != nil {
		lagOpts = append(lagOpts, temporal.WithPartition(s.opts.Partition))
	}
	if s.opts.Significance {
		lagOpts = append(lagOpts, temporal.WithSignificance())
	}

	for _, layer := range layers {
		if err := ctx.Err(); err != nil {
			return err
		}
		d, r := temporal.Align(driver, layer.Series)
		profile, err := temporal.LagCorrelation(d, r, s.opts.Lags, lagOpts...)
		if err != nil {
			return err
		}
		extremes, err := temporal.Extremes(profile)
		if err != nil {
			if !core.IsDataSparsityError(err) {
				return err
			}
			s.fail(report, StageCorrelation, layer.Label, err)
			continue
		}
		s.metrics.RecordChannel(StageCorrelation)
		s.logger.Debug("%s: %s defined at %d of %d lags", report.Location, layer.Label, profile.DefinedCount(), len(profile))
		report.Correlations = append(report.Correlations, LayerCorrelation{
			Layer:    layer.Label,
			Driver:   s.opts.Driver,
			Profile:  profile,
			Extremes: extremes,
		})
	}
	return nil
}

func (s *AnalysisService) fail(report *LocationReport, stage, channel string, err error) {
	s.logger.Warn("%s: %s %s skipped: %v", report.Location, stage, channel, err)
	s.metrics.RecordChannelFailure(stage)
	report.Failures = append(report.Failures, ChannelFailure{Stage: stage, Channel: channel, Err: err})
}
