package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X github.com/VladMinzatu/mapprof/internal/cli.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fprintf(out, "mapprof version %s\n", Version)
			fprintf(out, "Git commit: %s\n", GitCommit)
			fprintf(out, "Go version: %s\n", runtime.Version())
		},
	}
}
