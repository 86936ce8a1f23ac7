package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"kiln/internal/app"
	"kiln/internal/compiler"
	"kiln/internal/project"
	"kiln/internal/watch"
	"kiln/pkg/logging"
)

func TestSetVersion(t *testing.T) {
	testVersion := "1.2.3-test"
	SetVersion(testVersion)

	if GetVersion() != testVersion {
		t.Errorf("Expected version to be %s, got %s", testVersion, GetVersion())
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "kiln" {
		t.Errorf("Expected Use to be 'kiln', got %s", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}
	if rootCmd.Long == "" {
		t.Error("Expected Long description to be set")
	}
	if !rootCmd.SilenceUsage {
		t.Error("Expected SilenceUsage to be true")
	}
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{
		Use:     "test",
		Version: "1.0.0",
	}
	testCmd.SetVersionTemplate(`{{printf "kiln version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)
	testCmd.SetArgs([]string{"--version"})
	if err := testCmd.Execute(); err != nil {
		t.Fatalf("Error executing version command: %v", err)
	}

	if got, want := buf.String(), "kiln version 1.0.0\n"; got != want {
		t.Errorf("Expected version output %q, got %q", want, got)
	}
}

func TestSubcommands(t *testing.T) {
	found := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		found[cmd.Name()] = true
	}

	for _, expected := range []string{"version", "dev", "build", "routes"} {
		if !found[expected] {
			t.Errorf("Expected subcommand %s to be registered", expected)
		}
	}
}

func TestPersistentFlags(t *testing.T) {
	for _, name := range []string{"debug", "log-level", "mode", "target", "sourcemap", "metrics", "metrics-interval"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("Expected persistent flag --%s", name)
		}
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"generic", errors.New("boom"), ExitCodeError},
		{"missing root", fmt.Errorf("load: %w", project.ErrNoRoot), ExitCodeConfig},
		{"invalid config", &project.ConfigError{Err: project.ErrInvalidConfig}, ExitCodeConfig},
		{"missing entry", fmt.Errorf("wrapped: %w", project.ErrMissingEntry), ExitCodeConfig},
		{"build failed", fmt.Errorf("build: %w", compiler.ErrBuildFailed), ExitCodeBuildFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getExitCode(tt.err); got != tt.want {
				t.Errorf("getExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestNewAppConfig_Defaults(t *testing.T) {
	initConfig()

	cfg, err := newAppConfig(nil, compiler.ModeProduction)
	if err != nil {
		t.Fatalf("newAppConfig() error = %v", err)
	}
	if cfg.RootDir != "." {
		t.Errorf("RootDir = %q, want .", cfg.RootDir)
	}
	if cfg.Mode != compiler.ModeProduction {
		t.Errorf("Mode = %q, want %q", cfg.Mode, compiler.ModeProduction)
	}
	if cfg.Target != watch.DefaultTarget {
		t.Errorf("Target = %q, want %q", cfg.Target, watch.DefaultTarget)
	}
	if !cfg.Sourcemap {
		t.Error("Sourcemap should default to true")
	}
	if cfg.MetricsInterval != app.DefaultMetricsInterval {
		t.Errorf("MetricsInterval = %v, want %v", cfg.MetricsInterval, app.DefaultMetricsInterval)
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Errorf("LogLevel = %s, want %s", cfg.LogLevel, logging.LevelInfo)
	}
}

func TestNewAppConfig_Environment(t *testing.T) {
	initConfig()
	t.Setenv("KILN_MODE", "development")
	t.Setenv("KILN_TARGET", "node18")
	t.Setenv("KILN_SOURCEMAP", "false")
	t.Setenv("KILN_LIVE_RELOAD_PORT", "8002")
	t.Setenv("KILN_METRICS_INTERVAL", "2s")
	t.Setenv("KILN_LOG_LEVEL", "warn")

	cfg, err := newAppConfig([]string{"/srv/site"}, compiler.ModeProduction)
	if err != nil {
		t.Fatalf("newAppConfig() error = %v", err)
	}
	if cfg.RootDir != "/srv/site" {
		t.Errorf("RootDir = %q, want /srv/site", cfg.RootDir)
	}
	if cfg.Mode != compiler.ModeDevelopment {
		t.Errorf("Mode = %q, want %q", cfg.Mode, compiler.ModeDevelopment)
	}
	if cfg.Target != "node18" {
		t.Errorf("Target = %q, want node18", cfg.Target)
	}
	if cfg.Sourcemap {
		t.Error("Sourcemap should be disabled by KILN_SOURCEMAP")
	}
	if cfg.LiveReloadPort != 8002 {
		t.Errorf("LiveReloadPort = %d, want 8002", cfg.LiveReloadPort)
	}
	if cfg.MetricsInterval != 2*time.Second {
		t.Errorf("MetricsInterval = %v, want 2s", cfg.MetricsInterval)
	}
	if cfg.LogLevel != logging.LevelWarn {
		t.Errorf("LogLevel = %s, want %s", cfg.LogLevel, logging.LevelWarn)
	}
}

func TestNewAppConfig_InvalidMode(t *testing.T) {
	initConfig()
	t.Setenv("KILN_MODE", "staging")

	if _, err := newAppConfig(nil, compiler.ModeDevelopment); err == nil {
		t.Error("expected error for an unknown mode")
	}
}

func TestNewAppConfig_InvalidLogLevel(t *testing.T) {
	initConfig()
	t.Setenv("KILN_LOG_LEVEL", "verbose")

	if _, err := newAppConfig(nil, compiler.ModeDevelopment); err == nil {
		t.Error("expected error for an unknown log level")
	}
}
