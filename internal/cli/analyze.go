package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	profilespb "go.opentelemetry.io/proto/otlp/profiles/v1development"

	"github.com/VladMinzatu/mapprof/internal/analyzer"
	"github.com/VladMinzatu/mapprof/internal/config"
	"github.com/VladMinzatu/mapprof/internal/exporter"
	"github.com/VladMinzatu/mapprof/internal/pprof"
	"github.com/VladMinzatu/mapprof/internal/report"
)

const pushTimeout = 30 * time.Second

type analyzeOptions struct {
	csvPath      string
	jsonPath     string
	fullJSON     bool
	pprofPath    string
	foldedPath   string
	otlpPath     string
	otlpEndpoint string

	skipTemplates  bool
	skipFolding    bool
	skipContainers bool
}

// addTuningFlags registers the flags that feed the analysis config.
func addTuningFlags(fs *pflag.FlagSet) {
	d := config.Default()
	fs.Uint64("ceiling", d.CeilingBytes, "largest symbol size in bytes kept after reconstruction")
	fs.Int("template-threshold", d.Template.Threshold, "minimum instantiation count reported as a template hotspot")
	fs.Int("top", d.Top.Objects, "number of object files in the ranking")
}

func newAnalyzeCmd(g *globalOptions) *cobra.Command {
	o := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <map-file> [map-file...]",
		Short: "Analyze one map file, or compare several",
		Long: `Analyze a linker map file and print a size report.

With more than one file the files are compared side by side instead, as
'mapprof compare' does.`,
		Example: `  mapprof analyze release/app.map
  mapprof analyze app.map --csv symbols.csv --json summary.json --full-json
  mapprof analyze app.map --pprof size.pb.gz && go tool pprof -http=:8080 size.pb.gz
  mapprof analyze app.map --folded size.folded
  mapprof analyze app.map --otlp-endpoint localhost:4317
  mapprof analyze old.map new.map`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), g, o, args)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&o.csvPath, "csv", "", "export all symbols to a CSV file")
	fs.StringVar(&o.jsonPath, "json", "", "export a JSON summary")
	fs.BoolVar(&o.fullJSON, "full-json", false, "include the full symbol list in the JSON summary")
	fs.StringVar(&o.pprofPath, "pprof", "", "write a pprof size profile")
	fs.StringVar(&o.foldedPath, "folded", "", "write folded stacks for flame graph tools")
	fs.StringVar(&o.otlpPath, "otlp", "", "write an OTLP profile (protobuf, or OTLP/JSON for a .json path)")
	fs.StringVar(&o.otlpEndpoint, "otlp-endpoint", "", "push the OTLP profile to a collector at host:port")
	fs.BoolVar(&o.skipTemplates, "skip-template", false, "skip the template hotspot report")
	fs.BoolVar(&o.skipFolding, "skip-icf", false, "skip the identical-code-folding estimate")
	fs.BoolVar(&o.skipContainers, "skip-stl-per-obj", false, "skip container attribution per object file")
	addTuningFlags(fs)

	return cmd
}

func consoleOptions(g *globalOptions) report.Options {
	opts := report.DefaultOptions()
	opts.NoColor = g.noColor
	opts.TopObjects = g.cfg.Top.Objects
	opts.TopTemplates = g.cfg.Top.Templates
	opts.TopContainers = g.cfg.Top.Containers
	opts.TemplateThreshold = g.cfg.Template.Threshold
	return opts
}

func runAnalyze(ctx context.Context, out io.Writer, g *globalOptions, o *analyzeOptions, paths []string) error {
	a, err := analyzer.New(g.cfg)
	if err != nil {
		return err
	}
	reports, err := a.AnalyzeFiles(ctx, paths)
	if err != nil {
		return err
	}

	opts := consoleOptions(g)
	opts.SkipTemplates = o.skipTemplates
	opts.SkipFolding = o.skipFolding
	opts.SkipContainers = o.skipContainers
	console := report.NewConsole(out, opts)

	if len(reports) > 1 {
		return console.Comparison(analyzer.Compare(reports, analyzer.DefaultDeltaThreshold))
	}

	r := reports[0]
	if err := console.Analysis(r); err != nil {
		return err
	}
	return o.export(ctx, out, g.cfg, r)
}

func (o *analyzeOptions) export(ctx context.Context, out io.Writer, cfg *config.Config, r *analyzer.Report) error {
	if o.csvPath != "" {
		if err := exporter.WriteCSVFile(o.csvPath, r.Symbols, r.Classifier); err != nil {
			return err
		}
		fprintf(out, "CSV report saved: %s\n", o.csvPath)
	}

	if o.jsonPath != "" {
		summary := exporter.BuildSummary(r.Source, r.Symbols, r.Stats, exporter.SummaryOptions{
			TopObjects: cfg.Top.JSONObjects,
			Full:       o.fullJSON,
		})
		if err := exporter.WriteJSONFile(o.jsonPath, summary); err != nil {
			return err
		}
		fprintf(out, "JSON report saved: %s\n", o.jsonPath)
	}

	if o.pprofPath != "" {
		if err := writePprof(o.pprofPath, r); err != nil {
			return err
		}
		fprintf(out, "pprof profile saved: %s\n", o.pprofPath)
	}

	if o.foldedPath != "" {
		if err := exporter.WriteFoldedStacksToFile(exporter.BuildFoldedSizes(r.Symbols, r.Classifier), o.foldedPath); err != nil {
			return err
		}
		fprintf(out, "Folded stacks saved: %s\n", o.foldedPath)
	}

	if o.otlpPath != "" || o.otlpEndpoint != "" {
		data := exporter.BuildOltpProfile(r.Source, r.Symbols, r.Classifier, func() uint64 {
			return uint64(time.Now().UnixNano())
		})
		if o.otlpPath != "" {
			if err := writeOtlp(o.otlpPath, data); err != nil {
				return err
			}
			fprintf(out, "OTLP profile saved: %s\n", o.otlpPath)
		}
		if o.otlpEndpoint != "" {
			if err := pushOtlp(ctx, o.otlpEndpoint, data); err != nil {
				return err
			}
			fprintf(out, "OTLP profile pushed to %s\n", o.otlpEndpoint)
		}
	}
	return nil
}

func writePprof(path string, r *analyzer.Report) error {
	p, err := pprof.BuildSizeProfile(r.Symbols, r.Classifier)
	if err != nil {
		return fmt.Errorf("build pprof profile: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create pprof file: %w", err)
	}
	defer f.Close()
	if err := pprof.WriteProfile(p, f); err != nil {
		return fmt.Errorf("write pprof profile: %w", err)
	}
	return f.Close()
}

func writeOtlp(path string, data *profilespb.ProfilesData) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create otlp file: %w", err)
	}
	defer f.Close()
	asJSON := strings.EqualFold(filepath.Ext(path), ".json")
	if err := exporter.WriteOltpProfile(data, f, asJSON); err != nil {
		return err
	}
	return f.Close()
}

func pushOtlp(ctx context.Context, endpoint string, data *profilespb.ProfilesData) error {
	conn, err := exporter.DialCollector(endpoint)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()
	slog.Info("Pushing OTLP profile", "endpoint", endpoint)
	return exporter.PushProfiles(ctx, conn, data)
}

func fprintf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
