package exporter

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/VladMinzatu/mapprof/internal/classify"
	"github.com/VladMinzatu/mapprof/internal/mapfile"
	"github.com/VladMinzatu/mapprof/internal/stats"
)

// DefaultSummaryObjects is how many objects the summary lists.
const DefaultSummaryObjects = 20

type CategorySummary struct {
	SizeKB     float64 `json:"size_kb"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type ObjectSummary struct {
	Object string  `json:"object"`
	SizeKB float64 `json:"size_kb"`
	Count  int     `json:"count"`
}

type SymbolRecord struct {
	Name     string            `json:"name"`
	SizeKB   float64           `json:"size_kb"`
	Category classify.Category `json:"category"`
	Object   string            `json:"object"`
	Section  string            `json:"section"`
	Offset   string            `json:"offset"`
	RVA      string            `json:"rva"`
}

type Summary struct {
	MapFile      string                                `json:"map_file"`
	TotalSymbols int                                   `json:"total_symbols"`
	TotalSizeKB  float64                               `json:"total_size_kb"`
	Category     map[classify.Category]CategorySummary `json:"category"`
	TopObj       []ObjectSummary                       `json:"top_obj"`
	Symbols      []SymbolRecord                        `json:"symbols,omitempty"`
}

type SummaryOptions struct {
	// TopObjects caps top_obj; <= 0 means DefaultSummaryObjects.
	TopObjects int
	// Full adds every sized symbol under "symbols".
	Full bool
}

func BuildSummary(mapFile string, symbols []*mapfile.SizedSymbol, st *stats.Stats, opts SummaryOptions) *Summary {
	top := opts.TopObjects
	if top <= 0 {
		top = DefaultSummaryObjects
	}

	s := &Summary{
		MapFile:      mapFile,
		TotalSymbols: len(symbols),
		TotalSizeKB:  roundTo(st.TotalKB(), 2),
		Category:     make(map[classify.Category]CategorySummary, len(st.ByCategory)),
		TopObj:       []ObjectSummary{},
	}
	for _, cs := range st.Categories() {
		s.Category[cs.Category] = CategorySummary{
			SizeKB:     roundTo(cs.SizeKB(), 2),
			Count:      cs.Count,
			Percentage: roundTo(st.Percent(cs.Category), 1),
		}
	}
	for _, o := range st.TopObjects(top) {
		s.TopObj = append(s.TopObj, ObjectSummary{
			Object: o.Object,
			SizeKB: roundTo(o.SizeKB(), 2),
			Count:  o.Count,
		})
	}

	if opts.Full {
		s.Symbols = make([]SymbolRecord, 0, len(symbols))
		for _, sym := range symbols {
			cat, ok := st.CategoryOf(sym)
			if !ok {
				cat = classify.Other
			}
			s.Symbols = append(s.Symbols, SymbolRecord{
				Name:     sym.Name,
				SizeKB:   roundTo(sym.SizeKB(), 3),
				Category: cat,
				Object:   sym.Object,
				Section:  segmentString(sym.Segment),
				Offset:   offsetString(sym.Offset),
				RVA:      rvaString(sym),
			})
		}
	}
	return s
}

// Sorted map keys keep the output stable between runs.
var jsonConfig = jsoniter.Config{
	IndentionStep: 2,
	SortMapKeys:   true,
}.Froze()

// WriteJSON writes v indented by two spaces, leaving non-ASCII and HTML
// characters unescaped.
func WriteJSON(w io.Writer, v any) error {
	return jsonConfig.NewEncoder(w).Encode(v)
}

func WriteJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()
	if err := WriteJSON(f, v); err != nil {
		return fmt.Errorf("write json %s: %w", path, err)
	}
	return f.Close()
}
