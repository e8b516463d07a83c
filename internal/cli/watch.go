package cli

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/VladMinzatu/mapprof/internal/analyzer"
	"github.com/VladMinzatu/mapprof/internal/exporter"
	"github.com/VladMinzatu/mapprof/internal/profiler"
)

type watchOptions struct {
	interval     time.Duration
	otlpEndpoint string
	foldedPath   string
}

func newWatchCmd(g *globalOptions) *cobra.Command {
	o := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <map-file>",
		Short: "Re-analyze a map file whenever the linker rewrites it",
		Long: `Re-analyze a map file whenever the linker rewrites it.

Every change prints a one-line size summary with the delta against the
previous build. The profile can also be pushed to an OTLP collector or written
as folded stacks on each change. Stop with Ctrl+C.`,
		Example: `  mapprof watch build/app.map --interval 2s
  mapprof watch build/app.map --otlp-endpoint localhost:4317`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := analyzer.New(g.cfg)
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), cmd.OutOrStdout(), a, o, args[0])
		},
	}

	cmd.Flags().DurationVar(&o.interval, "interval", 2*time.Second, "how often the file is checked for changes")
	cmd.Flags().StringVar(&o.otlpEndpoint, "otlp-endpoint", "", "push every new profile to a collector at host:port")
	cmd.Flags().StringVar(&o.foldedPath, "folded", "", "rewrite folded stacks to this file on every change")
	addTuningFlags(cmd.Flags())

	return cmd
}

func runWatch(ctx context.Context, out io.Writer, a profiler.Analyzer, o *watchOptions, path string) error {
	p, err := profiler.NewProfiler(path, o.interval, a)
	if err != nil {
		return err
	}
	if err := p.Start(); err != nil {
		return err
	}
	defer p.Stop()

	slog.Info("Watching map file", "path", path, "interval", o.interval)
	var prev *analyzer.Report
	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-p.Reports():
			printWatchLine(out, prev, r)
			o.publish(ctx, r)
			prev = r
		}
	}
}

func printWatchLine(out io.Writer, prev, r *analyzer.Report) {
	total := r.Stats.TotalSize()
	line := time.Now().Format(time.TimeOnly) + "  " + r.Name()
	if prev == nil {
		fprintf(out, "%s  %.2fKB in %d symbols\n", line, r.Stats.TotalKB(), r.Stats.SymbolCount())
		return
	}
	delta := int64(total) - int64(prev.Stats.TotalSize())
	fprintf(out, "%s  %.2fKB in %d symbols (%+.2fKB)\n", line, r.Stats.TotalKB(), r.Stats.SymbolCount(), float64(delta)/1024)
}

// publish failures are logged; the watch keeps running.
func (o *watchOptions) publish(ctx context.Context, r *analyzer.Report) {
	if o.foldedPath != "" {
		if err := exporter.WriteFoldedStacksToFile(exporter.BuildFoldedSizes(r.Symbols, r.Classifier), o.foldedPath); err != nil {
			slog.Warn("Failed to write folded stacks", "path", o.foldedPath, "error", err)
		}
	}
	if o.otlpEndpoint != "" {
		data := exporter.BuildOltpProfile(r.Source, r.Symbols, r.Classifier, func() uint64 {
			return uint64(time.Now().UnixNano())
		})
		if err := pushOtlp(ctx, o.otlpEndpoint, data); err != nil {
			slog.Warn("Failed to push OTLP profile", "endpoint", o.otlpEndpoint, "error", err)
		}
	}
}
