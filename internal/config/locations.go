package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"soilmm/internal/errors"
)

// Catalog is the set of monitored locations. Everything that differs
// between sites lives here as data.
type Catalog struct {
	Locations []Location `yaml:"locations"`
}

// Location describes where the series of one monitoring site come from.
type Location struct {
	ID           string                  `yaml:"id"`
	Name         string                  `yaml:"name"`
	Extensometer SourceConfig            `yaml:"extensometer"`
	Drivers      map[string]SourceConfig `yaml:"drivers"`
}

// SourceConfig maps one file onto one or more series.
type SourceConfig struct {
	File       string   `yaml:"file"`
	Sheet      string   `yaml:"sheet"`       // xlsx only; default is the first sheet
	TimeColumn string   `yaml:"time_column"` // default is the first column
	TimeFormat string   `yaml:"time_format"` // Go layout; common layouts are tried otherwise
	Columns    []string `yaml:"columns"`     // value columns, in profile order
	Drop       []string `yaml:"drop"`        // columns excluded after renaming
	ValueScale float64  `yaml:"value_scale"` // multiply raw values, e.g. 0.1 for mm to cm
	Hourly     bool     `yaml:"hourly"`      // put the series on an explicit hourly grid
	Aggregate  string   `yaml:"aggregate"`   // mean, sum, min or max for hourly buckets
	Masks      []Mask   `yaml:"masks"`
}

// Mask blanks a column from a moment onwards (or within a window), for
// anchors known to be disturbed.
type Mask struct {
	Column string    `yaml:"column"`
	From   time.Time `yaml:"from"`
	To     time.Time `yaml:"to"`
}

// Scale returns ValueScale, treating zero as 1.
func (s SourceConfig) Scale() float64 {
	if s.ValueScale == 0 {
		return 1
	}
	return s.ValueScale
}

// LoadCatalog reads a YAML location catalog and resolves relative source
// paths against dataDir.
func LoadCatalog(path, dataDir string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to read location catalog")
	}
	return ParseCatalog(raw, dataDir)
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(raw []byte, dataDir string) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to parse location catalog")
	}

	seen := make(map[string]bool, len(cat.Locations))
	for i := range cat.Locations {
		loc := &cat.Locations[i]
		loc.ID = strings.ToUpper(strings.TrimSpace(loc.ID))
		if loc.ID == "" {
			return nil, errors.ConfigInvalid(fmt.Sprintf("location %d has no id", i))
		}
		if seen[loc.ID] {
			return nil, errors.ConfigInvalid(fmt.Sprintf("duplicate location %s", loc.ID))
		}
		seen[loc.ID] = true

		if loc.Extensometer.File == "" {
			return nil, errors.ConfigInvalid(fmt.Sprintf("location %s has no extensometer file", loc.ID))
		}
		loc.Extensometer.File = resolve(dataDir, loc.Extensometer.File)
		for kind, src := range loc.Drivers {
			if src.File == "" {
				return nil, errors.ConfigInvalid(fmt.Sprintf("location %s driver %s has no file", loc.ID, kind))
			}
			src.File = resolve(dataDir, src.File)
			loc.Drivers[kind] = src
		}
	}
	return &cat, nil
}

// Lookup returns the location with the given id (case-insensitive).
func (c *Catalog) Lookup(id string) (Location, bool) {
	id = strings.ToUpper(strings.TrimSpace(id))
	for _, loc := range c.Locations {
		if loc.ID == id {
			return loc, true
		}
	}
	return Location{}, false
}

func resolve(dir, file string) string {
	if filepath.IsAbs(file) || dir == "" {
		return file
	}
	return filepath.Join(dir, file)
}
