// Package constants provides shared constants for the sales-forecast application.
package constants

// DateTimeLayout is the year-month format used for monthly summary labels and
// for the observed data span in reports.
const DateTimeLayout = "2006-01"

// DayLayout is the format expected for window bounds and the forecast start
// date.
const DayLayout = "2006-01-02"

// Aggregation constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// DecimalPlaces is the number of decimals kept on monetary aggregates
	DecimalPlaces = 2

	// MaxAbsAmount bounds a single numeric field. Sums of bounded amounts stay
	// finite for any realistic record count.
	MaxAbsAmount = 1e15

	// UnknownProduct is the dominant product reported for a month without any
	// product type.
	UnknownProduct = "Unknown"
)

// Forecast defaults
const (
	// DefaultAnchorMonth is the calendar month of the first forecast point used
	// by the seasonal adjuster (July).
	DefaultAnchorMonth = 7

	// DefaultObservedMonths is the run-rate denominator used when no monthly
	// series is available.
	DefaultObservedMonths = 3

	// DefaultTopAgents is the number of agents kept in agent forecasts.
	DefaultTopAgents = 15

	// DefaultAgentGrowth is the annual growth factor applied to every agent.
	DefaultAgentGrowth = 1.10

	// DefaultProgramGrowth is the annual growth factor applied to a program
	// that matches no keyword rule.
	DefaultProgramGrowth = 1.05

	// DefaultForecastStartDate is the first forecast day recorded in reports.
	DefaultForecastStartDate = "2025-07-01"

	// DefaultWindowStart is the first day of the default ingest window.
	DefaultWindowStart = "2025-04-01"

	// DefaultWindowEnd is the last day (inclusive) of the default ingest window.
	DefaultWindowEnd = "2025-07-01"

	// LinearMinimumPoints is the number of monthly summaries a linear fit needs.
	LinearMinimumPoints = 2

	// PolynomialMinimumPoints is the number of monthly summaries a degree-2
	// fit needs.
	PolynomialMinimumPoints = 3

	// PolynomialDegree is the fixed degree of the polynomial trend.
	PolynomialDegree = 2

	// MinConfidence and MaxConfidence bound every reported confidence score.
	MinConfidence = 0.5
	MaxConfidence = 0.95

	// PolynomialConfidenceDiscount is applied to the polynomial R².
	PolynomialConfidenceDiscount = 0.9

	// SeasonalConfidenceDiscount is applied to the linear confidence when
	// seasonal factors are layered on top.
	SeasonalConfidenceDiscount = 0.95
)

// DefaultHorizons are the forecast horizons, in months, produced by default.
var DefaultHorizons = []int{3, 6, 12}

// MaxHorizonMonths bounds a single forecast horizon. Every horizon allocates
// one prediction per month for each model and peer.
const MaxHorizonMonths = 120

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON prints the full report document
	OutputFormatJSON = "json"

	// DefaultOutputPath is where the report document is written
	DefaultOutputPath = "advanced_predictions.json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment variable overrides
	EnvPrefix = "SALES_FORECAST"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for CSV files (32 MB)
	DefaultMaxUploadSizeBytes int64 = 32 * 1024 * 1024
)

// Formatting constants
const (
	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)
