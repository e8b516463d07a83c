package analyzer

import (
	"github.com/VladMinzatu/mapprof/internal/classify"
)

// DefaultDeltaThreshold hides per-category changes smaller than 10 KiB.
const DefaultDeltaThreshold uint64 = 10 * 1024

type CategoryRow struct {
	Category classify.Category `json:"category"`
	Sizes    []uint64          `json:"sizes"`
}

type CategoryChange struct {
	Category classify.Category `json:"category"`
	Delta    int64             `json:"delta"`
}

type FileDelta struct {
	File       string           `json:"file"`
	Base       string           `json:"base"`
	Total      int64            `json:"total"`
	Categories []CategoryChange `json:"categories"`
}

type Comparison struct {
	Files  []string      `json:"files"`
	Totals []uint64      `json:"totals"`
	Rows   []CategoryRow `json:"rows"`
	Deltas []FileDelta   `json:"deltas"`
}

// Compare lines up category sizes across reports and computes every
// report's delta against the first one. Category changes whose magnitude
// does not exceed threshold are left out of the delta.
func Compare(reports []*Report, threshold uint64) *Comparison {
	c := &Comparison{}
	if len(reports) == 0 {
		return c
	}
	for _, r := range reports {
		c.Files = append(c.Files, r.Name())
		c.Totals = append(c.Totals, r.Stats.TotalSize())
	}

	for _, cat := range classify.Taxonomy {
		row := CategoryRow{Category: cat, Sizes: make([]uint64, len(reports))}
		present := false
		for i, r := range reports {
			if b, ok := r.Stats.ByCategory[cat]; ok {
				row.Sizes[i] = b.Size
				present = true
			}
		}
		if present {
			c.Rows = append(c.Rows, row)
		}
	}

	base := reports[0]
	for i, r := range reports[1:] {
		d := FileDelta{
			File:  r.Name(),
			Base:  base.Name(),
			Total: int64(c.Totals[i+1]) - int64(c.Totals[0]),
		}
		for _, row := range c.Rows {
			delta := int64(row.Sizes[i+1]) - int64(row.Sizes[0])
			if abs(delta) > int64(threshold) {
				d.Categories = append(d.Categories, CategoryChange{Category: row.Category, Delta: delta})
			}
		}
		c.Deltas = append(c.Deltas, d)
	}
	return c
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
