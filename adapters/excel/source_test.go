package excel

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"soilmm/domain/core"
	"soilmm/domain/series"
	"soilmm/internal/config"
	apperrors "soilmm/internal/errors"
	"soilmm/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const extensometerCSV = `time,0.06 m-mv,0.41 m-mv,1.0 m-mv
2024-01-01 00:00:00,1.0,2.0,3.0
2024-01-01 01:00:00,,2.5,3.5
2024-01-01 00:00:00,9,9,9
2024-01-01 03:00:00,1.2,2.2,3.2
`

const driverCSV = `datum,neerslagtekort
2024-01-01,1.5
2024-01-02,"2,5"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func hour(h int) time.Time {
	return time.Date(2024, 1, 1, h, 0, 0, 0, time.UTC)
}

func catalogFor(loc config.Location) *config.Catalog {
	return &config.Catalog{Locations: []config.Location{loc}}
}

func TestReadProfile_CSV(t *testing.T) {
	dir := t.TempDir()
	src := NewSeriesSource(catalogFor(config.Location{
		ID: "ZEG",
		Extensometer: config.SourceConfig{
			File:       writeFile(t, dir, "zeg.csv", extensometerCSV),
			ValueScale: 0.1,
			Hourly:     true,
			Masks:      []config.Mask{{Column: "41 cm bs", From: hour(3)}},
		},
	}), nil)

	profile, err := src.ReadProfile(context.Background(), "ZEG")
	require.NoError(t, err)

	assert.Equal(t, "ZEG", profile.Location)
	assert.Equal(t, []series.Depth{6, 41, 100}, profile.Depths())

	top := profile.Anchors[0].Series
	require.Equal(t, 4, top.Len(), "hourly grid from 00:00 to 03:00")
	assert.True(t, top.Timestamps[0].Equal(hour(0)))
	assert.InDelta(t, 0.1, top.Values[0], 1e-12, "first duplicate kept, scaled")
	assert.True(t, math.IsNaN(top.Values[1]), "empty cell")
	assert.True(t, math.IsNaN(top.Values[2]), "missing hour")
	assert.InDelta(t, 0.12, top.Values[3], 1e-12)

	masked := profile.Anchors[1].Series
	assert.InDelta(t, 0.25, masked.Values[1], 1e-12)
	assert.True(t, math.IsNaN(masked.Values[3]), "masked from 03:00")
	assert.False(t, math.IsNaN(profile.Anchors[2].Series.Values[3]))
}

func TestReadProfile_DropAndColumns(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "zeg.csv", extensometerCSV)

	src := NewSeriesSource(catalogFor(config.Location{
		ID:           "ZEG",
		Extensometer: config.SourceConfig{File: file, Drop: []string{"1.0 m-mv"}},
	}), nil)
	profile, err := src.ReadProfile(context.Background(), "zeg")
	require.NoError(t, err)
	assert.Equal(t, []series.Depth{6, 41}, profile.Depths())
	assert.Equal(t, 3, profile.Anchors[0].Series.Len(), "no hourly grid requested")

	src = NewSeriesSource(catalogFor(config.Location{
		ID:           "ZEG",
		Extensometer: config.SourceConfig{File: file, Columns: []string{"1.0 m-mv", "0.06 m-mv"}},
	}), nil)
	profile, err = src.ReadProfile(context.Background(), "ZEG")
	require.NoError(t, err)
	assert.Equal(t, []series.Depth{100, 6}, profile.Depths(), "configured order is kept")
}

func TestReadProfile_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rou.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Datum"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "6 cm bs"))
	require.NoError(t, f.SetCellValue("Sheet1", "C1", "41 cm bs"))
	for i := 0; i < 3; i++ {
		row := i + 2
		require.NoError(t, f.SetCellValue("Sheet1", cell("A", row), hour(i)))
		require.NoError(t, f.SetCellValue("Sheet1", cell("B", row), float64(i)))
		require.NoError(t, f.SetCellValue("Sheet1", cell("C", row), float64(10*i)))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	src := NewSeriesSource(catalogFor(config.Location{
		ID:           "ROU",
		Extensometer: config.SourceConfig{File: path},
	}), nil)
	profile, err := src.ReadProfile(context.Background(), "ROU")
	require.NoError(t, err)

	require.Equal(t, 2, profile.Len())
	ts := profile.Anchors[1].Series
	require.Equal(t, 3, ts.Len())
	for i := 0; i < 3; i++ {
		assert.True(t, ts.Timestamps[i].Equal(hour(i)), "row %d: %s", i, ts.Timestamps[i])
		assert.Equal(t, float64(10*i), ts.Values[i])
	}
}

func TestReadDriver(t *testing.T) {
	dir := t.TempDir()
	src := NewSeriesSource(catalogFor(config.Location{
		ID:           "ZEG",
		Extensometer: config.SourceConfig{File: writeFile(t, dir, "zeg.csv", extensometerCSV)},
		Drivers: map[string]config.SourceConfig{
			"precipitation_deficit": {File: writeFile(t, dir, "pd.csv", driverCSV)},
		},
	}), nil)

	ts, err := src.ReadDriver(context.Background(), "ZEG", ports.DriverPrecipitationDeficit)
	require.NoError(t, err)
	assert.Equal(t, "precipitation_deficit", ts.Name)
	assert.Equal(t, []float64{1.5, 2.5}, ts.Values)

	_, err = src.ReadDriver(context.Background(), "ZEG", ports.DriverGroundwater)
	assert.ErrorIs(t, err, core.ErrChannelNotFound)
}

func TestSeriesSource_Errors(t *testing.T) {
	dir := t.TempDir()
	src := NewSeriesSource(catalogFor(config.Location{
		ID:           "ZEG",
		Extensometer: config.SourceConfig{File: writeFile(t, dir, "zeg.csv", extensometerCSV)},
	}), nil)

	_, err := src.ReadProfile(context.Background(), "ROU")
	assert.ErrorIs(t, err, core.ErrLocationNotFound)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.ReadProfile(ctx, "ZEG")
	assert.ErrorIs(t, err, context.Canceled)

	missing := NewSeriesSource(catalogFor(config.Location{
		ID:           "ZEG",
		Extensometer: config.SourceConfig{File: filepath.Join(dir, "absent.csv")},
	}), nil)
	_, err = missing.ReadProfile(context.Background(), "ZEG")
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	ts, err := parseTimestamp("45292.5", "")
	require.NoError(t, err)
	assert.True(t, ts.Equal(hour(12)))

	ts, err = parseTimestamp("01-01-2024 06:00", "")
	require.NoError(t, err)
	assert.True(t, ts.Equal(hour(6)))

	ts, err = parseTimestamp("2024.01.01", "2006.01.02")
	require.NoError(t, err)
	assert.True(t, ts.Equal(hour(0)))

	_, err = parseTimestamp("yesterday", "")
	assert.Error(t, err)
}

func TestParseValue(t *testing.T) {
	v, err := parseValue("1,25")
	require.NoError(t, err)
	assert.Equal(t, 1.25, v)

	v, err = parseValue("1,234.5")
	require.NoError(t, err)
	assert.Equal(t, 1234.5, v)

	v, err = parseValue("-12,000,250.75")
	require.NoError(t, err)
	assert.Equal(t, -12000250.75, v)

	for _, cell := range []string{"", "NaN", "-", "#N/A"} {
		v, err := parseValue(cell)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(v), cell)
	}

	_, err = parseValue("abc")
	assert.Error(t, err)
}

func cell(col string, row int) string {
	name, _ := excelize.JoinCellName(col, row)
	return name
}
