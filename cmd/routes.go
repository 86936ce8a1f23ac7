package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"kiln/internal/app"
	"kiln/internal/compiler"
	"kiln/internal/formatting"
)

// newRoutesCmd creates the routes command, which prints the routes kiln
// discovers for a project.
func newRoutesCmd() *cobra.Command {
	var output string
	var tree bool

	cmd := &cobra.Command{
		Use:   "routes [root]",
		Short: "List the routes of the project",
		Long: `Reads the project configuration and prints every route with its full URL
path and module file. Use --tree to show how routes nest.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tree {
				output = string(formatting.FormatTree)
			}
			format, err := formatting.ParseFormat(output)
			if err != nil {
				return err
			}

			cfg, err := newAppConfig(args, compiler.ModeDevelopment)
			if err != nil {
				return err
			}
			cfg.LogOutput = os.Stderr
			cfg.Silent = !viper.GetBool("debug")

			application, err := app.NewApplication(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer application.Close()

			return formatting.WriteRoutes(cmd.OutOrStdout(), application.Project(), formatting.Options{
				Format: format,
				Color:  colorEnabled(os.Stdout),
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", string(formatting.FormatTable), "Output format: table, tree, json or yaml")
	cmd.Flags().BoolVar(&tree, "tree", false, "Shorthand for --output tree")
	return cmd
}
