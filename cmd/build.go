package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"kiln/internal/app"
	"kiln/internal/compiler"
	"kiln/internal/formatting"
)

// newBuildCmd creates the build command, which compiles the project once.
func newBuildCmd() *cobra.Command {
	var output string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "build [root]",
		Short: "Build the project once",
		Long: `Compiles the project once, in production mode unless --mode says otherwise,
and writes the asset manifest into the assets build directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatting.ParseFormat(output)
			if err != nil {
				return err
			}
			if format == formatting.FormatTree {
				return fmt.Errorf("tree output is only available for routes")
			}

			cfg, err := newAppConfig(args, compiler.ModeProduction)
			if err != nil {
				return err
			}
			cfg.LogOutput = os.Stderr
			cfg.Silent = quiet && !viper.GetBool("debug")

			application, err := app.NewApplication(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer application.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var s *spinner.Spinner
			if !quiet {
				s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
				s.Suffix = " Building..."
				s.Start()
			}

			m, d, err := application.Build(ctx)

			if s != nil {
				s.Stop()
			}
			if err != nil {
				if s != nil {
					fmt.Fprintf(os.Stderr, "%s\n", text.FgRed.Sprint("Build failed"))
				}
				return err
			}

			return formatting.WriteBuild(cmd.OutOrStdout(), m, d, formatting.Options{
				Format: format,
				Color:  colorEnabled(os.Stdout),
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", string(formatting.FormatTable), "Output format: table, json or yaml")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress the progress spinner and log output")
	return cmd
}
