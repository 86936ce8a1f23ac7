package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"kiln/internal/app"
	"kiln/internal/compiler"
	"kiln/internal/project"
	"kiln/internal/watch"
	"kiln/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfig indicates the project configuration could not be read.
	ExitCodeConfig = 2
	// ExitCodeBuildFailed indicates the build command failed.
	ExitCodeBuildFailed = 3
)

// rootCmd represents the base command for the kiln application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "kiln",
	Short: "Rebuild a web app incrementally as its sources change",
	Long: `kiln watches the app directory of a project and keeps its build up to date.

Edits to existing files trigger a fast incremental rebuild. Adding or removing
route modules or entry files, and editing kiln.yaml or kiln.toml, restarts the
compiler with a freshly loaded configuration. Connected browsers are told to reload through
the live reload server.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "kiln version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	switch {
	case errors.Is(err, project.ErrNoRoot),
		errors.Is(err, project.ErrInvalidConfig),
		errors.Is(err, project.ErrMissingEntry):
		return ExitCodeConfig
	case errors.Is(err, compiler.ErrBuildFailed):
		return ExitCodeBuildFailed
	default:
		return ExitCodeError
	}
}

// initConfig loads .env from the working directory and lets KILN_*
// environment variables override flag defaults.
func initConfig() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	viper.SetEnvPrefix("KILN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// newAppConfig builds the application configuration from the optional
// root argument and the bound flags.
func newAppConfig(args []string, defaultMode compiler.Mode) (*app.Config, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	mode := defaultMode
	if s := viper.GetString("mode"); s != "" {
		m, err := compiler.ParseMode(s)
		if err != nil {
			return nil, err
		}
		mode = m
	}

	level, err := logging.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return nil, err
	}

	cfg := app.NewConfig(root, mode, viper.GetBool("debug"))
	cfg.LogLevel = level
	if target := viper.GetString("target"); target != "" {
		cfg.Target = target
	}
	cfg.Sourcemap = viper.GetBool("sourcemap")
	cfg.LiveReloadPort = viper.GetInt("live-reload-port")
	cfg.Metrics = viper.GetBool("metrics")
	if d := viper.GetDuration("metrics-interval"); d > 0 {
		cfg.MetricsInterval = d
	}
	return cfg, nil
}

// colorEnabled reports whether f is a terminal and NO_COLOR is unset.
func colorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.Bool("debug", false, "Enable debug logging (same as --log-level debug)")
	flags.String("log-level", "info", "Minimum log level: debug, info, warn or error")
	flags.String("mode", "", "Build mode: development or production (default depends on the command)")
	flags.String("target", watch.DefaultTarget, "Platform the compiler builds for")
	flags.Bool("sourcemap", true, "Emit source maps")
	flags.Bool("metrics", false, "Write build metrics to stderr")
	flags.Duration("metrics-interval", app.DefaultMetricsInterval, "How often metrics are written")

	for _, name := range []string{"debug", "log-level", "mode", "target", "sourcemap", "metrics", "metrics-interval"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newDevCmd())
	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newRoutesCmd())
}
