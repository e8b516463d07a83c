// Package analyzer runs the full map analysis pipeline for one or many map
// files: parse, reconstruct sizes, aggregate, derive insights.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/VladMinzatu/mapprof/internal/classify"
	"github.com/VladMinzatu/mapprof/internal/config"
	"github.com/VladMinzatu/mapprof/internal/insight"
	"github.com/VladMinzatu/mapprof/internal/mapfile"
	"github.com/VladMinzatu/mapprof/internal/stats"
)

// ErrUnreadable marks input that could not be read at all. It is the only
// failure the pipeline reports; every other anomaly degrades the result.
var ErrUnreadable = errors.New("map file unreadable")

type LineLoader interface {
	ReadLines() ([]string, error)
}

type Report struct {
	Source     string                 `json:"source"`
	Sections   []mapfile.Section      `json:"sections"`
	RawSymbols int                    `json:"raw_symbols"`
	Symbols    []*mapfile.SizedSymbol `json:"symbols"`
	Stats      *stats.Stats           `json:"-"`
	Insights   *insight.Results       `json:"insights"`
	Classifier *classify.Classifier   `json:"-"`
}

// Name is the base name of the analyzed source.
func (r *Report) Name() string { return filepath.Base(r.Source) }

func (r *Report) Resolver() *mapfile.Resolver { return mapfile.NewResolver(r.Symbols) }

type Analyzer struct {
	ceiling     uint64
	classifier  *classify.Classifier
	insightOpts insight.Options
}

func New(cfg *config.Config) (*Analyzer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{
		ceiling:     cfg.CeilingBytes,
		classifier:  classify.New(cfg.ClassifierOptions()),
		insightOpts: cfg.InsightOptions(),
	}, nil
}

func (a *Analyzer) Classifier() *classify.Classifier { return a.classifier }

// Analyze runs the pipeline over the lines served by loader.
func (a *Analyzer) Analyze(ctx context.Context, source string, loader LineLoader) (*Report, error) {
	lines, err := loader.ReadLines()
	if err != nil {
		return nil, fmt.Errorf("read map file %q: %w: %w", source, ErrUnreadable, err)
	}

	sections := mapfile.ParseSections(lines)
	raws := mapfile.ParsePublics(lines)
	if len(sections) == 0 {
		slog.Debug("No section table found; symbol sizes cannot be bounded", "source", source)
	}
	if len(raws) == 0 {
		slog.Debug("No symbols found in publics listing", "source", source)
	}

	symbols := mapfile.ReconstructSizes(raws, mapfile.NewSectionTable(sections), a.ceiling)
	st := stats.Aggregate(symbols, a.classifier)

	results, err := insight.Run(ctx, symbols, st, a.insightOpts)
	if err != nil {
		return nil, err
	}

	slog.Info("Analyzed map file",
		"source", source,
		"sections", len(sections),
		"raw_symbols", len(raws),
		"sized_symbols", len(symbols),
		"total_bytes", st.TotalSize())

	return &Report{
		Source:     source,
		Sections:   sections,
		RawSymbols: len(raws),
		Symbols:    symbols,
		Stats:      st,
		Insights:   results,
		Classifier: a.classifier,
	}, nil
}

func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*Report, error) {
	return a.Analyze(ctx, path, mapfile.NewFileLoader(path))
}

// AnalyzeFiles analyzes independent map files concurrently. Reports come
// back in the order of paths; the first failure cancels the rest.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, paths []string) ([]*Report, error) {
	reports := make([]*Report, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			r, err := a.AnalyzeFile(ctx, path)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
