package app

import (
	"io"
	"time"

	"kiln/internal/compiler"
	"kiln/internal/project"
	"kiln/internal/watch"
	"kiln/pkg/logging"
)

// DefaultMetricsInterval is how often collected metrics are written when
// metrics are enabled.
const DefaultMetricsInterval = 10 * time.Second

// Config holds the application configuration
type Config struct {
	// Project root; the kiln.yaml or kiln.toml lives here.
	RootDir string

	// Compiler settings
	Mode           compiler.Mode
	Target         string
	Sourcemap      bool
	LiveReloadPort int

	// Debug settings. Debug forces LevelDebug regardless of LogLevel.
	Debug    bool
	Silent   bool
	LogLevel logging.LogLevel

	// LogOutput defaults to stdout.
	LogOutput io.Writer

	// Metrics are written to stderr every MetricsInterval when enabled.
	Metrics         bool
	MetricsInterval time.Duration

	// Project is read from RootDir during bootstrap when nil.
	Project *project.Config
}

// NewConfig creates a new application configuration
func NewConfig(rootDir string, mode compiler.Mode, debug bool) *Config {
	return &Config{
		RootDir:         rootDir,
		Mode:            mode,
		Target:          watch.DefaultTarget,
		Sourcemap:       true,
		Debug:           debug,
		LogLevel:        logging.LevelInfo,
		MetricsInterval: DefaultMetricsInterval,
	}
}
