package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"kiln/internal/compiler"
	"kiln/internal/metrics"
	"kiln/internal/project"
	"kiln/internal/watch"
	"kiln/pkg/logging"
)

// Application bootstraps and runs kiln for a single project.
//
// The Application follows a two-phase initialization pattern:
//  1. Bootstrap phase: initialize logging, read the project config, set up metrics
//  2. Execution phase: run the dev watcher or a one-shot build
//
// Example usage:
//
//	cfg := app.NewConfig(".", compiler.ModeDevelopment, false)
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	defer application.Close()
//	return application.RunDev(ctx)
type Application struct {
	config   *Config
	project  *project.Config
	recorder *metrics.Recorder
	provider *sdkmetric.MeterProvider

	newCompiler compiler.Factory
	newSource   watch.SourceFactory
}

// NewApplication creates and initializes a new application instance with the provided configuration.
// This function performs the complete bootstrap sequence:
//
//  1. Configures logging based on the log level, debug and silent settings
//  2. Reads the project configuration unless cfg.Project is already set
//  3. Installs a stdout MeterProvider when metrics are enabled
//
// The function returns an error if the project configuration cannot be read
// or the metric instruments cannot be created.
func NewApplication(cfg *Config) (*Application, error) {
	appLogLevel := cfg.LogLevel
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}

	logOutput := cfg.LogOutput
	if logOutput == nil {
		logOutput = os.Stdout
	}
	if cfg.Silent {
		logOutput = io.Discard
	}
	logging.InitForCLI(appLogLevel, logOutput)

	proj := cfg.Project
	if proj == nil {
		var err error
		proj, err = project.ReadConfig(context.Background(), cfg.RootDir)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to read project configuration from %s", cfg.RootDir)
			return nil, fmt.Errorf("failed to read project configuration: %w", err)
		}
	}
	logging.Info("Bootstrap", "Loaded project %s (%d routes)", proj.RootDirectory, len(proj.Routes))

	a := &Application{
		config:      cfg,
		project:     proj,
		newCompiler: compiler.ExecFactory,
		newSource:   watch.FSWatchSource,
	}

	if cfg.Metrics {
		interval := cfg.MetricsInterval
		if interval <= 0 {
			interval = DefaultMetricsInterval
		}
		provider, err := metrics.NewStdoutProvider(os.Stderr, interval)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to create metrics exporter")
			return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
		}
		otel.SetMeterProvider(provider)
		a.provider = provider
		logging.Debug("Bootstrap", "Writing metrics to stderr every %s", interval)
	}

	recorder, err := metrics.New(otel.Meter(metrics.MeterName))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create metric instruments: %w", err)
	}
	a.recorder = recorder

	return a, nil
}

// Project returns the project configuration read during bootstrap.
func (a *Application) Project() *project.Config {
	return a.project
}

// Close flushes and stops the metrics exporter, if any.
func (a *Application) Close() error {
	if a.provider == nil {
		return nil
	}
	err := a.provider.Shutdown(context.Background())
	a.provider = nil
	return err
}
