// Package config resolves the analysis configuration bundle from defaults,
// a YAML file, WATTLINE_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/emiliopalmerini/wattline/internal/domain"
	"github.com/emiliopalmerini/wattline/internal/ports"
	"github.com/emiliopalmerini/wattline/internal/timeline"
	"github.com/emiliopalmerini/wattline/internal/util"
)

// EnvPrefix prefixes every environment variable read by Settings.
const EnvPrefix = "WATTLINE"

// Defaults.
const (
	DefaultMatchMode = "contains"
	DefaultTimezone  = "UTC"
	FileName         = "config.yaml"
)

// Settings is one layer of raw configuration. Empty fields leave the lower
// layer untouched.
type Settings struct {
	Window       string   `yaml:"window" envconfig:"WINDOW"`
	Match        string   `yaml:"match" envconfig:"MATCH"`
	APIUnit      string   `yaml:"api_timestamp_unit" envconfig:"API_TIMESTAMP_UNIT"`
	DBUnit       string   `yaml:"db_timestamp_unit" envconfig:"DB_TIMESTAMP_UNIT"`
	SuppressZero *bool    `yaml:"suppress_zero" envconfig:"SUPPRESS_ZERO"`
	Accumulation string   `yaml:"accumulation" envconfig:"ACCUMULATION"`
	Timezone     string   `yaml:"timezone" envconfig:"TIMEZONE"`
	Series       []string `yaml:"series" envconfig:"SERIES"`
	ShowRuns     *bool    `yaml:"show_runs" envconfig:"SHOW_RUNS"`
	ShowGaps     *bool    `yaml:"show_gaps" envconfig:"SHOW_GAPS"`
}

// Defaults returns the built-in layer.
func Defaults() Settings {
	no, yes := false, true
	return Settings{
		Window:       fmt.Sprintf("%d", timeline.DefaultWindowSize),
		Match:        DefaultMatchMode,
		APIUnit:      domain.UnitAuto.String(),
		DBUnit:       domain.UnitAuto.String(),
		SuppressZero: &no,
		Accumulation: timeline.AccumulateWindow.String(),
		Timezone:     DefaultTimezone,
		ShowRuns:     &yes,
		ShowGaps:     &yes,
	}
}

// Merge returns s overridden by every field set in over.
func (s Settings) Merge(over Settings) Settings {
	if over.Window != "" {
		s.Window = over.Window
	}
	if over.Match != "" {
		s.Match = over.Match
	}
	if over.APIUnit != "" {
		s.APIUnit = over.APIUnit
	}
	if over.DBUnit != "" {
		s.DBUnit = over.DBUnit
	}
	if over.SuppressZero != nil {
		s.SuppressZero = over.SuppressZero
	}
	if over.Accumulation != "" {
		s.Accumulation = over.Accumulation
	}
	if over.Timezone != "" {
		s.Timezone = over.Timezone
	}
	if len(over.Series) > 0 {
		s.Series = over.Series
	}
	if over.ShowRuns != nil {
		s.ShowRuns = over.ShowRuns
	}
	if over.ShowGaps != nil {
		s.ShowGaps = over.ShowGaps
	}
	return s
}

// DefaultPath is the YAML file read when no --config flag is given.
func DefaultPath() (string, error) {
	dir, err := util.GetXDGConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// LoadFile reads a YAML layer. A missing file is only an error when required.
func LoadFile(path string, required bool) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return s, nil
}

// LoadEnv reads the WATTLINE_* layer.
func LoadEnv() (Settings, error) {
	var s Settings
	if err := envconfig.Process(EnvPrefix, &s); err != nil {
		return s, fmt.Errorf("failed to read environment: %w", err)
	}
	return s, nil
}

// Analysis is the immutable bundle handed to every engine call.
type Analysis struct {
	Window       timeline.WindowOptions
	MatchMode    domain.MatchMode
	Sources      timeline.Sources
	Accumulation timeline.Accumulation
	Location     *time.Location
	Series       []string
	ShowRuns     bool
	ShowGaps     bool
}

// Resolve validates s. An invalid window size is reported and replaced by
// the default; every other invalid value is an error.
func Resolve(s Settings, reporter ports.StatusReporter) (Analysis, error) {
	var a Analysis

	size, err := timeline.ParseWindowSize(s.Window)
	if err != nil {
		reporter.Warn(fmt.Sprintf("Invalid window size %q, using %d ms", s.Window, timeline.DefaultWindowSize))
		size = timeline.DefaultWindowSize
	}

	if a.MatchMode, err = domain.ParseMatchMode(s.Match); err != nil {
		return a, err
	}
	apiUnit, err := domain.ParseTimestampUnit(s.APIUnit)
	if err != nil {
		return a, fmt.Errorf("api_timestamp_unit: %w", err)
	}
	dbUnit, err := domain.ParseTimestampUnit(s.DBUnit)
	if err != nil {
		return a, fmt.Errorf("db_timestamp_unit: %w", err)
	}
	a.Sources = timeline.Sources{API: timeline.NewNormalizer(apiUnit), DB: timeline.NewNormalizer(dbUnit)}

	if a.Accumulation, err = timeline.ParseAccumulation(s.Accumulation); err != nil {
		return a, err
	}

	tz := s.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	if a.Location, err = time.LoadLocation(tz); err != nil {
		return a, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	a.Window = timeline.WindowOptions{SizeMs: size, SuppressZero: deref(s.SuppressZero), Location: a.Location}
	a.Series = append([]string(nil), s.Series...)
	a.ShowRuns = deref(s.ShowRuns)
	a.ShowGaps = deref(s.ShowGaps)
	return a, nil
}

// Load layers defaults, the YAML file, the environment and flags, then
// resolves the result. configPath may be empty to use DefaultPath.
func Load(configPath string, flags Settings, reporter ports.StatusReporter) (Analysis, error) {
	required := configPath != ""
	if !required {
		p, err := DefaultPath()
		if err != nil {
			return Analysis{}, err
		}
		configPath = p
	}

	file, err := LoadFile(configPath, required)
	if err != nil {
		return Analysis{}, err
	}
	env, err := LoadEnv()
	if err != nil {
		return Analysis{}, err
	}

	return Resolve(Defaults().Merge(file).Merge(env).Merge(flags), reporter)
}

func deref(b *bool) bool {
	return b != nil && *b
}
