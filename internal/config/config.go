// Package config defines the data structures related to configuration and
// includes functions for loading and interpreting the config.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/sales-forecast/internal/ingest"
	"github.com/iwvelando/sales-forecast/pkg/constants"
	"github.com/iwvelando/sales-forecast/pkg/predict"
	"github.com/iwvelando/sales-forecast/pkg/validation"
	"github.com/spf13/viper"
)

// Auto requests that a setting be derived from the observed data.
const Auto = "auto"

// Configuration holds all configuration for sales-forecast.
type Configuration struct {
	Input    InputConfig    `yaml:"input"`
	Window   WindowConfig   `yaml:"window"`
	Forecast ForecastConfig `yaml:"forecast"`
	Output   OutputConfig   `yaml:"output,omitempty"`
	Store    StoreConfig    `yaml:"store,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// InputConfig locates the transaction data.
type InputConfig struct {
	Path string `yaml:"path"`
}

// WindowConfig restricts the transactions used to an inclusive day range.
type WindowConfig struct {
	Enabled bool   `yaml:"enabled"`
	Start   string `yaml:"start"` // YYYY-MM-DD
	End     string `yaml:"end"`   // YYYY-MM-DD, inclusive
}

// ForecastConfig holds the predictor parameters.
type ForecastConfig struct {
	Horizons              []int            `yaml:"horizons"`
	StartDate             string           `yaml:"startDate"`   // YYYY-MM-DD or "auto"
	AnchorMonth           int              `yaml:"anchorMonth"` // 1-12, 0 derives from data
	DefaultObservedMonths int              `yaml:"defaultObservedMonths"`
	TopAgents             int              `yaml:"topAgents"`
	AgentGrowth           float64          `yaml:"agentGrowth"`
	ProgramGrowth         float64          `yaml:"programGrowth"`
	ProgramRules          []GrowthRule     `yaml:"programRules"`
	SeasonalFactors       []SeasonalFactor `yaml:"seasonalFactors"`
}

// GrowthRule maps a product-name keyword to an annual growth factor.
type GrowthRule struct {
	Keyword string  `yaml:"keyword"`
	Factor  float64 `yaml:"factor"`
}

// SeasonalFactor overrides the default multiplier of one calendar month.
type SeasonalFactor struct {
	Month  int     `yaml:"month"`
	Factor float64 `yaml:"factor"`
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
	Path   string `yaml:"path,omitempty"`   // report document destination
}

// StoreConfig enables the PostgreSQL report sink when DatabaseURL is set.
type StoreConfig struct {
	DatabaseURL string `yaml:"databaseUrl,omitempty"`
	Name        string `yaml:"name,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("input.path", "")
	v.SetDefault("window.enabled", true)
	v.SetDefault("window.start", constants.DefaultWindowStart)
	v.SetDefault("window.end", constants.DefaultWindowEnd)
	v.SetDefault("forecast.horizons", constants.DefaultHorizons)
	v.SetDefault("forecast.startDate", constants.DefaultForecastStartDate)
	v.SetDefault("forecast.anchorMonth", constants.DefaultAnchorMonth)
	v.SetDefault("forecast.defaultObservedMonths", constants.DefaultObservedMonths)
	v.SetDefault("forecast.topAgents", constants.DefaultTopAgents)
	v.SetDefault("forecast.agentGrowth", constants.DefaultAgentGrowth)
	v.SetDefault("forecast.programGrowth", constants.DefaultProgramGrowth)
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("output.path", constants.DefaultOutputPath)
	v.SetDefault("store.databaseUrl", "")
	v.SetDefault("store.name", "default")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	if configuration.Forecast.ProgramRules == nil {
		for _, rule := range predict.DefaultProgramGrowth().Rules {
			configuration.Forecast.ProgramRules = append(configuration.Forecast.ProgramRules,
				GrowthRule{Keyword: rule.Keyword, Factor: rule.Factor})
		}
	}
	return &configuration, nil
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Environment variables prefixed with SALES_FORECAST_
// override file values, e.g. SALES_FORECAST_INPUT_PATH.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

// DefaultConfiguration returns the configuration used when no file is given.
func DefaultConfiguration() *Configuration {
	conf, err := decode(newViper())
	if err != nil {
		// Defaults are static and always decode.
		panic(err)
	}
	return conf
}

// DateWindow returns the configured ingest window, or nil when disabled.
func (c *Configuration) DateWindow() (*ingest.Window, error) {
	if !c.Window.Enabled {
		return nil, nil
	}
	start, end, err := validation.ValidateWindow(c.Window.Start, c.Window.End)
	if err != nil {
		return nil, err
	}
	return &ingest.Window{Start: start, End: end}, nil
}

// SeasonalTable returns the default seasonal table with configured overrides
// applied.
func (c *Configuration) SeasonalTable() (predict.SeasonalTable, error) {
	table := predict.DefaultSeasonalTable()
	for _, f := range c.Forecast.SeasonalFactors {
		if err := validation.ValidateFactor(fmt.Sprintf("seasonal factor for month %d", f.Month), f.Factor); err != nil {
			return table, err
		}
		var err error
		table, err = table.With(f.Month, f.Factor)
		if err != nil {
			return table, err
		}
	}
	return table, nil
}

// ProgramGrowthRules returns the ordered keyword rules for program growth.
func (c *Configuration) ProgramGrowthRules() predict.GrowthRules {
	rules := predict.GrowthRules{Default: c.Forecast.ProgramGrowth}
	for _, r := range c.Forecast.ProgramRules {
		rules.Rules = append(rules.Rules, predict.GrowthRule{Keyword: r.Keyword, Factor: r.Factor})
	}
	return rules
}

// DeriveAnchor reports whether the seasonal anchor month comes from the data.
func (c *Configuration) DeriveAnchor() bool {
	return c.Forecast.AnchorMonth == 0
}

// DeriveStartDate reports whether the forecast start date comes from the data.
func (c *Configuration) DeriveStartDate() bool {
	return strings.EqualFold(strings.TrimSpace(c.Forecast.StartDate), Auto)
}

// ValidateConfiguration checks the configuration, returning warnings for
// questionable settings and an error for unusable ones.
func (c *Configuration) ValidateConfiguration() ([]string, error) {
	warnings, err := validation.ValidateHorizons(c.Forecast.Horizons)
	if err != nil {
		return nil, err
	}

	if c.Input.Path == "" {
		warnings = append(warnings, "no input path configured")
	}
	if _, err := c.DateWindow(); err != nil {
		return nil, err
	}
	if !c.DeriveAnchor() {
		if err := validation.ValidateMonth("forecast.anchorMonth", c.Forecast.AnchorMonth); err != nil {
			return nil, err
		}
	}
	if !c.DeriveStartDate() {
		if err := validation.ValidateStartDate(c.Forecast.StartDate); err != nil {
			return nil, err
		}
	}
	if err := validation.ValidateFactor("forecast.agentGrowth", c.Forecast.AgentGrowth); err != nil {
		return nil, err
	}
	if err := validation.ValidateFactor("forecast.programGrowth", c.Forecast.ProgramGrowth); err != nil {
		return nil, err
	}
	for _, r := range c.Forecast.ProgramRules {
		if strings.TrimSpace(r.Keyword) == "" {
			warnings = append(warnings, "program growth rule with empty keyword is ignored")
		}
		if err := validation.ValidateFactor(fmt.Sprintf("growth factor for %q", r.Keyword), r.Factor); err != nil {
			return nil, err
		}
	}
	if _, err := c.SeasonalTable(); err != nil {
		return nil, err
	}
	if c.Forecast.DefaultObservedMonths < 1 {
		return nil, fmt.Errorf("forecast.defaultObservedMonths must be at least 1, got %d", c.Forecast.DefaultObservedMonths)
	}
	if c.Forecast.TopAgents < 0 {
		return nil, fmt.Errorf("forecast.topAgents cannot be negative, got %d", c.Forecast.TopAgents)
	}
	if c.Forecast.TopAgents == 0 {
		warnings = append(warnings, "forecast.topAgents is 0; every agent will be reported")
	}
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return nil, err
	}
	return warnings, nil
}
