package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/iwvelando/sales-forecast/internal/config"
	"github.com/iwvelando/sales-forecast/internal/forecast"
	"github.com/iwvelando/sales-forecast/internal/ingest"
	"github.com/iwvelando/sales-forecast/internal/logging"
	"github.com/iwvelando/sales-forecast/internal/sales"
	"github.com/iwvelando/sales-forecast/internal/store"
	"github.com/iwvelando/sales-forecast/pkg/constants"
	"github.com/iwvelando/sales-forecast/pkg/output"
	"github.com/iwvelando/sales-forecast/pkg/validation"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// A missing .env is normal; anything in it becomes SALES_FORECAST_* overrides.
	_ = godotenv.Load()

	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	inputPath := flag.String("input", "", "sales CSV override")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	conf, err := loadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *inputPath != "" {
		conf.Input.Path = *inputPath
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	warnings, err := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}
	if err != nil {
		logger.Fatal("invalid configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	if conf.Input.Path == "" {
		logger.Fatal("no sales data file configured",
			zap.String("op", "main"),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var source ingest.Source = ingest.NewCSVSource(logger)
	loaded, err := source.Load(conf.Input.Path)
	if err != nil {
		logger.Fatal("failed to load sales data",
			zap.String("op", "main"),
			zap.String("path", conf.Input.Path),
			zap.Error(err),
		)
	}

	report, err := forecast.Run(ctx, logger, *conf, loaded)
	if err != nil {
		logger.Fatal("failed to compute forecast",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// The report is printed even when persisting it fails.
	persistErr := persist(ctx, logger, conf, report)

	if err := output.Write(os.Stdout, report, outputFormat); err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if persistErr != nil {
		logger.Error("failed to persist forecast report",
			zap.String("op", "main"),
			zap.Error(persistErr),
		)
		_ = logger.Sync()
		os.Exit(1)
	}
}

// loadConfiguration reads the file at path, falling back to the defaults
// when the default file is absent.
func loadConfiguration(path string) (*config.Configuration, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && path == constants.DefaultConfigFile {
		return config.DefaultConfiguration(), nil
	}
	return config.LoadConfiguration(path)
}

// persist writes the report to the configured file and, when a database is
// configured, to PostgreSQL. Every sink is attempted.
func persist(ctx context.Context, logger *zap.Logger, conf *config.Configuration, report *forecast.Report) error {
	var errs []error

	if conf.Output.Path != "" {
		var sink output.Sink = output.NewFileSink(logger)
		if err := sink.Write(ctx, report, conf.Output.Path); err != nil {
			errs = append(errs, err)
		}
	}

	if conf.Store.DatabaseURL != "" {
		db, err := store.Open(ctx, conf.Store.DatabaseURL, logger)
		if err != nil {
			errs = append(errs, &sales.PersistenceError{Destination: conf.Store.Name, Err: err})
		} else {
			defer db.Close()
			if err := db.Write(ctx, report, conf.Store.Name); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}
