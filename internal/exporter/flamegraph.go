package exporter

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/VladMinzatu/mapprof/internal/classify"
	"github.com/VladMinzatu/mapprof/internal/mapfile"
)

type Classifier interface {
	Classify(sym *mapfile.SizedSymbol) classify.Category
}

// BuildFoldedSizes aggregates symbol sizes into folded stacks of the form
// category;object;symbol, root first, as flamegraph.pl and speedscope expect.
func BuildFoldedSizes(symbols []*mapfile.SizedSymbol, c Classifier) map[string]uint64 {
	agg := make(map[string]uint64)
	for _, sym := range symbols {
		frames := []string{
			escapeFoldedName(string(c.Classify(sym))),
			escapeFoldedName(sym.Object),
			escapeFoldedName(sym.Name),
		}
		agg[strings.Join(frames, ";")] += sym.Size
	}
	return agg
}

func escapeFoldedName(name string) string {
	// semicolons separate frames and newlines separate lines. Replace them with safe characters.
	name = strings.ReplaceAll(name, ";", "_")
	name = strings.ReplaceAll(name, "\n", " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return "<unknown>"
	}
	return name
}

// WriteFoldedStacks writes one "stack value" line per entry, largest first.
func WriteFoldedStacks(agg map[string]uint64, w io.Writer) error {
	type kv struct {
		k string
		v uint64
	}
	items := make([]kv, 0, len(agg))
	for k, v := range agg {
		items = append(items, kv{k, v})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].v == items[j].v {
			return items[i].k < items[j].k
		}
		return items[i].v > items[j].v
	})

	for _, it := range items {
		if _, err := fmt.Fprintf(w, "%s %d\n", it.k, it.v); err != nil {
			return err
		}
	}
	return nil
}

func WriteFoldedStacksToFile(agg map[string]uint64, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create folded stacks file: %w", err)
	}
	defer f.Close()

	if err := WriteFoldedStacks(agg, f); err != nil {
		return fmt.Errorf("write folded stacks: %w", err)
	}
	return f.Close()
}
