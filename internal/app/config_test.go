package app

import (
	"testing"

	"kiln/internal/compiler"
	"kiln/internal/watch"
)

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name    string
		rootDir string
		mode    compiler.Mode
		debug   bool
	}{
		{
			name:    "development with debug",
			rootDir: "/srv/site",
			mode:    compiler.ModeDevelopment,
			debug:   true,
		},
		{
			name:    "production",
			rootDir: ".",
			mode:    compiler.ModeProduction,
			debug:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(tt.rootDir, tt.mode, tt.debug)

			if cfg.RootDir != tt.rootDir {
				t.Errorf("RootDir = %v, want %v", cfg.RootDir, tt.rootDir)
			}
			if cfg.Mode != tt.mode {
				t.Errorf("Mode = %v, want %v", cfg.Mode, tt.mode)
			}
			if cfg.Debug != tt.debug {
				t.Errorf("Debug = %v, want %v", cfg.Debug, tt.debug)
			}
			if cfg.Target != watch.DefaultTarget {
				t.Errorf("Target = %v, want %v", cfg.Target, watch.DefaultTarget)
			}
			if !cfg.Sourcemap {
				t.Error("Sourcemap should default to true")
			}
			if cfg.MetricsInterval != DefaultMetricsInterval {
				t.Errorf("MetricsInterval = %v, want %v", cfg.MetricsInterval, DefaultMetricsInterval)
			}
			if cfg.Project != nil {
				t.Error("Project should be nil before bootstrap")
			}
		})
	}
}
