package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Window      WindowConfig      `yaml:"window" mapstructure:"window"`
	Membership  MembershipConfig  `yaml:"membership" mapstructure:"membership"`
	Resolver    ResolverConfig    `yaml:"resolver" mapstructure:"resolver"`
	Sources     []SourceConfig    `yaml:"sources" mapstructure:"sources"`
	Substate    SubstateConfig    `yaml:"substate" mapstructure:"substate"`
	Calibration CalibrationConfig `yaml:"calibration" mapstructure:"calibration"`
	Scoring     ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// WindowConfig bounds the country-year grid.
type WindowConfig struct {
	StartYear int `yaml:"start_year" mapstructure:"start_year"`
	EndYear   int `yaml:"end_year" mapstructure:"end_year"`
}

// MembershipConfig locates the canonical country list and the curated
// override table.
type MembershipConfig struct {
	Path          string `yaml:"path" mapstructure:"path"`
	OverridesPath string `yaml:"overrides_path" mapstructure:"overrides_path"`
}

// ResolverConfig tunes fuzzy country/entity name matching.
type ResolverConfig struct {
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`
}

// SourceConfig describes one country-indicator source file.
type SourceConfig struct {
	Name     string `yaml:"name" mapstructure:"name"`
	Prefix   string `yaml:"prefix" mapstructure:"prefix"`
	Path     string `yaml:"path" mapstructure:"path"`
	AltPath  string `yaml:"alt_path" mapstructure:"alt_path"`
	Format   string `yaml:"format" mapstructure:"format"` // csv or xlsx
	Sheet    string `yaml:"sheet" mapstructure:"sheet"`
	Required bool   `yaml:"required" mapstructure:"required"`
	// FixedYear stamps every record of a non-time-indexed source.
	FixedYear int `yaml:"fixed_year" mapstructure:"fixed_year"`
}

// SubstateConfig configures sub-state entity fusion and filtering.
type SubstateConfig struct {
	EntityPaths   []string `yaml:"entity_paths" mapstructure:"entity_paths"`
	PositionPaths []string `yaml:"position_paths" mapstructure:"position_paths"`
	MinMembers    float64  `yaml:"min_members" mapstructure:"min_members"`
	MinFundingUSD float64  `yaml:"min_funding_usd" mapstructure:"min_funding_usd"`
	OverridesPath string   `yaml:"overrides_path" mapstructure:"overrides_path"`
}

// CalibrationConfig controls threshold banding.
type CalibrationConfig struct {
	Bands           int `yaml:"bands" mapstructure:"bands"`
	MinObservations int `yaml:"min_observations" mapstructure:"min_observations"`
}

// IndicatorWeight configures one scored indicator.
type IndicatorWeight struct {
	Column         string  `yaml:"column" mapstructure:"column"`
	Weight         float64 `yaml:"weight" mapstructure:"weight"`
	HigherIsBetter bool    `yaml:"higher_is_better" mapstructure:"higher_is_better"`
}

// ScoringConfig configures the robustness scorer.
type ScoringConfig struct {
	Weights          []IndicatorWeight `yaml:"weights" mapstructure:"weights"`
	MaxLookbackYears int               `yaml:"max_lookback_years" mapstructure:"max_lookback_years"`
	Bands            int               `yaml:"bands" mapstructure:"bands"`
}

// StoreConfig configures the output sink.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // csv, sqlite, or postgres
	OutputDir   string `yaml:"output_dir" mapstructure:"output_dir"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GOVDATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("window.start_year", 2020)
	v.SetDefault("window.end_year", 2026)
	v.SetDefault("membership.path", "data/raw/un_members.yaml")
	v.SetDefault("membership.overrides_path", "data/raw/country_overrides.yaml")
	v.SetDefault("resolver.fuzzy_threshold", 0.85)
	v.SetDefault("substate.min_members", 1000)
	v.SetDefault("substate.min_funding_usd", 1e9)
	v.SetDefault("calibration.bands", 3)
	v.SetDefault("calibration.min_observations", 10)
	v.SetDefault("scoring.max_lookback_years", 5)
	v.SetDefault("scoring.bands", 3)
	v.SetDefault("store.driver", "csv")
	v.SetDefault("store.output_dir", "data/output")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
