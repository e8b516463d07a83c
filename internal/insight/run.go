// Package insight derives size-reduction hints from aggregated map data:
// duplicated template instantiations, identical-code-folding candidates and
// container overhead per object file.
package insight

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/VladMinzatu/mapprof/internal/mapfile"
	"github.com/VladMinzatu/mapprof/internal/stats"
)

type Options struct {
	Template TemplateOptions
	Folding  FoldingOptions
}

type Results struct {
	Templates  *TemplateReport  `json:"templates"`
	Folding    *FoldingReport   `json:"folding"`
	Containers *ContainerReport `json:"containers"`
}

// Run executes the three analyzers concurrently. They only read symbols and
// st, and each one fills its own field of the result.
func Run(ctx context.Context, symbols []*mapfile.SizedSymbol, st *stats.Stats, opts Options) (*Results, error) {
	res := &Results{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		res.Templates = TemplateHotspots(symbols, opts.Template)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		res.Folding = FoldingCandidates(symbols, opts.Folding)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		res.Containers = ContainerAttribution(st)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	slog.Debug("Insights computed",
		"template_groups", len(res.Templates.Groups),
		"fold_groups", len(res.Folding.Groups),
		"container_objects", len(res.Containers.Objects))
	return res, nil
}
