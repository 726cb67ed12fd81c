package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/iwvelando/sales-forecast/internal/logging"
	"github.com/iwvelando/sales-forecast/internal/metrics"
	"github.com/iwvelando/sales-forecast/internal/server"
	"github.com/iwvelando/sales-forecast/internal/store"
	"github.com/iwvelando/sales-forecast/pkg/constants"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	addressFlag := flag.String("address", "", "listen address override, e.g. :8080")
	maxUploadFlag := flag.String("max-upload-size", "", "upload size override, e.g. 256K or 10M")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *addressFlag != "" {
		cfg.Address = *addressFlag
	}
	if *maxUploadFlag != "" {
		size, err := server.ParseSize(*maxUploadFlag)
		if err != nil {
			fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"invalid upload size\", \"error\": \"%v\"}\n", err)
			os.Exit(1)
		}
		cfg.SetUploadSizeBytes(size)
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	conf, err := cfg.LoadForecastConfiguration()
	if err != nil {
		logger.Fatal("failed to load forecast configuration",
			zap.String("op", "main"),
			zap.String("path", cfg.ForecastConfig),
			zap.Error(err),
		)
	}
	warnings, err := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}
	if err != nil {
		logger.Fatal("invalid forecast configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Fatal("failed to create metrics collector",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	opts := server.Options{
		Forecast:      conf,
		MaxUploadSize: cfg.UploadSizeBytes(),
		Version:       strings.TrimSpace(version),
		Metrics:       collector,
	}

	if cfg.StoreReports {
		if conf.Store.DatabaseURL == "" {
			logger.Fatal("storeReports is set but store.databaseUrl is empty",
				zap.String("op", "main"),
			)
		}
		db, err := store.Open(ctx, conf.Store.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("failed to open report store",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		defer db.Close()
		opts.Sink = db
		opts.SinkName = conf.Store.Name
	}

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.NewHandler(logger, opts),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("op", "main"),
			zap.String("address", cfg.Address),
			zap.Int64("maxUploadSize", cfg.UploadSizeBytes()),
			zap.String("version", opts.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			logger.Fatal("server error",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	case <-ctx.Done():
		logger.Info("shutting down", zap.String("op", "main"))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
