package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/sales-forecast/internal/config"
	"github.com/iwvelando/sales-forecast/pkg/constants"
	"gopkg.in/yaml.v3"
)

const (
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Environment variables that override the server file.
const (
	envAddress        = constants.EnvPrefix + "_SERVER_ADDRESS"
	envMaxUploadSize  = constants.EnvPrefix + "_SERVER_MAX_UPLOAD_SIZE"
	envForecastConfig = constants.EnvPrefix + "_SERVER_FORECAST_CONFIG"
	envStoreReports   = constants.EnvPrefix + "_SERVER_STORE_REPORTS"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address         string               `yaml:"address"`
	MaxUploadSize   string               `yaml:"maxUploadSize"` // e.g. "256K", "10M"
	ReadTimeout     time.Duration        `yaml:"readTimeout"`
	WriteTimeout    time.Duration        `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration        `yaml:"shutdownTimeout"`
	ForecastConfig  string               `yaml:"forecastConfig"` // forecast YAML applied to every upload
	StoreReports    bool                 `yaml:"storeReports"`   // requires store.databaseUrl in the forecast config
	Logging         config.LoggingConfig `yaml:"logging"`

	uploadSizeBytes int64
}

// LoadConfig loads the server configuration from YAML and applies
// SALES_FORECAST_SERVER_* environment overrides. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Address:         constants.DefaultServerAddress,
		ReadTimeout:     defaultReadTimeout,
		WriteTimeout:    defaultWriteTimeout,
		ShutdownTimeout: defaultShutdownTimeout,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read server config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse server config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(envAddress); v != "" {
		c.Address = v
	}
	if v := os.Getenv(envMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}
	if v := os.Getenv(envForecastConfig); v != "" {
		c.ForecastConfig = v
	}
	if v := os.Getenv(envStoreReports); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", envStoreReports, err)
		}
		c.StoreReports = enabled
	}
	return nil
}

func (c *Config) normalize() error {
	if strings.TrimSpace(c.Address) == "" {
		c.Address = constants.DefaultServerAddress
	}

	size, err := ParseSize(c.MaxUploadSize)
	if err != nil {
		return err
	}
	if size <= 0 {
		size = constants.DefaultMaxUploadSizeBytes
	}
	c.SetUploadSizeBytes(size)

	for _, d := range []struct {
		name  string
		value *time.Duration
		def   time.Duration
	}{
		{"readTimeout", &c.ReadTimeout, defaultReadTimeout},
		{"writeTimeout", &c.WriteTimeout, defaultWriteTimeout},
		{"shutdownTimeout", &c.ShutdownTimeout, defaultShutdownTimeout},
	} {
		if *d.value < 0 {
			return fmt.Errorf("%s cannot be negative, got %v", d.name, *d.value)
		}
		if *d.value == 0 {
			*d.value = d.def
		}
	}
	return nil
}

// LoadForecastConfiguration returns the forecast configuration named by
// ForecastConfig, or the defaults when none is set.
func (c *Config) LoadForecastConfiguration() (*config.Configuration, error) {
	if strings.TrimSpace(c.ForecastConfig) == "" {
		return config.DefaultConfiguration(), nil
	}
	return config.LoadConfiguration(c.ForecastConfig)
}

// UploadSizeBytes returns the configured upload size in bytes.
func (c *Config) UploadSizeBytes() int64 {
	return c.uploadSizeBytes
}

// SetUploadSizeBytes overrides the configured upload size.
func (c *Config) SetUploadSizeBytes(size int64) {
	if size > 0 {
		c.uploadSizeBytes = size
		c.MaxUploadSize = strconv.FormatInt(size, 10)
	}
}

var sizeUnits = map[string]int64{
	"":   1,
	"B":  1,
	"K":  1 << 10,
	"KB": 1 << 10,
	"M":  1 << 20,
	"MB": 1 << 20,
	"G":  1 << 30,
	"GB": 1 << 30,
}

// ParseSize converts a byte count with an optional binary unit suffix
// ("256K", "10MB") into bytes. An empty value means the default limit.
func ParseSize(value string) (int64, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	split := strings.IndexFunc(trimmed, func(r rune) bool { return r < '0' || r > '9' })
	if split == -1 {
		split = len(trimmed)
	}
	if split == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}

	n, err := strconv.ParseInt(trimmed[:split], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}
	unit := strings.TrimSpace(trimmed[split:])
	multiplier, ok := sizeUnits[unit]
	if !ok {
		return 0, fmt.Errorf("unsupported size unit %q", unit)
	}

	if n > 0 && n > (1<<63-1)/multiplier {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return n * multiplier, nil
}
