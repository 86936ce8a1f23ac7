package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"kiln/internal/app"
	"kiln/internal/compiler"
)

// newDevCmd creates the dev command, which builds the project and keeps the
// build current until interrupted.
func newDevCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev [root]",
		Short: "Build the project and rebuild on every change",
		Long: `Builds the project in development mode, then watches the app directory,
the server entry point and any configured watch paths.

  - Changing an existing file runs an incremental rebuild after 100ms of quiet.
  - Adding a file, or deleting a route module or entry file, reloads the
    configuration and restarts the compiler after 500ms of quiet.

When --live-reload-port is set, browsers connected to the live reload
websocket are told to reload after each successful rebuild.

Configuration:
  kiln reads kiln.yaml or kiln.toml from the project root. Every flag can also
  be set through a KILN_ environment variable (for example KILN_LIVE_RELOAD_PORT),
  and a .env file in the working directory is loaded first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDev,
	}

	cmd.Flags().Int("live-reload-port", 0, "Port for the live reload websocket server (0 disables it)")
	_ = viper.BindPFlag("live-reload-port", cmd.Flags().Lookup("live-reload-port"))
	return cmd
}

// runDev is the main entry point for the dev command
func runDev(cmd *cobra.Command, args []string) error {
	cfg, err := newAppConfig(args, compiler.ModeDevelopment)
	if err != nil {
		return err
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.RunDev(ctx)
}
