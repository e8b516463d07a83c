package cli

import (
	"github.com/spf13/cobra"

	"github.com/VladMinzatu/mapprof/internal/analyzer"
	"github.com/VladMinzatu/mapprof/internal/exporter"
	"github.com/VladMinzatu/mapprof/internal/report"
)

func newCompareCmd(g *globalOptions) *cobra.Command {
	var (
		deltaKB  float64
		jsonPath string
	)

	cmd := &cobra.Command{
		Use:   "compare <base.map> <map-file> [map-file...]",
		Short: "Compare category sizes across map files",
		Long: `Compare category sizes across map files.

Every file after the first is diffed against the first one. Category changes
smaller than --delta-kb are left out of the delta listing.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := analyzer.New(g.cfg)
			if err != nil {
				return err
			}
			reports, err := a.AnalyzeFiles(cmd.Context(), args)
			if err != nil {
				return err
			}

			threshold := uint64(0)
			if deltaKB > 0 {
				threshold = uint64(deltaKB * 1024)
			}
			cmp := analyzer.Compare(reports, threshold)

			out := cmd.OutOrStdout()
			if err := report.NewConsole(out, consoleOptions(g)).Comparison(cmp); err != nil {
				return err
			}
			if jsonPath != "" {
				if err := exporter.WriteJSONFile(jsonPath, cmp); err != nil {
					return err
				}
				fprintf(out, "JSON comparison saved: %s\n", jsonPath)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&deltaKB, "delta-kb", float64(analyzer.DefaultDeltaThreshold)/1024, "hide category changes up to this many KB")
	cmd.Flags().StringVar(&jsonPath, "json", "", "write the comparison as JSON")
	addTuningFlags(cmd.Flags())

	return cmd
}
