package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// newVersionCmd creates the version command. The long form names the Go
// toolchain and platform, which matters when a compiler restart behaves
// differently across machines.
func newVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the kiln version",
		Long: `Prints the kiln version together with the Go toolchain and platform it was
built for. Use --short to print only the version number.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString(GetVersion(), short))
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version number")
	return cmd
}

func versionString(v string, short bool) string {
	if v == "" {
		v = "dev"
	}
	if short {
		return v
	}
	return fmt.Sprintf("kiln version %s (%s %s/%s)", v, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
