// Package stats rolls sized, classified symbols up by category and by object file.
package stats

import (
	"sort"

	"github.com/VladMinzatu/mapprof/internal/classify"
	"github.com/VladMinzatu/mapprof/internal/mapfile"
)

type Bucket struct {
	Size  uint64 `json:"size"`
	Count int    `json:"count"`
}

func (b Bucket) SizeKB() float64 { return float64(b.Size) / 1024.0 }

// ObjectStats keeps, besides the totals, the object's symbols. The pointers
// are the same values the aggregation saw; nothing writes through them.
type ObjectStats struct {
	Object string `json:"object"`
	Bucket
	Symbols []*mapfile.SizedSymbol `json:"-"`
}

type CategoryStat struct {
	Category classify.Category `json:"category"`
	Bucket
}

type Stats struct {
	ByCategory map[classify.Category]*Bucket
	ByObject   map[string]*ObjectStats

	objectOrder []string
	categories  map[*mapfile.SizedSymbol]classify.Category
	total       uint64
	count       int
}

// Aggregate classifies every symbol once and accumulates it into its
// category and object buckets.
func Aggregate(symbols []*mapfile.SizedSymbol, c *classify.Classifier) *Stats {
	s := &Stats{
		ByCategory: make(map[classify.Category]*Bucket),
		ByObject:   make(map[string]*ObjectStats),
		categories: make(map[*mapfile.SizedSymbol]classify.Category, len(symbols)),
	}
	for _, sym := range symbols {
		cat := c.Classify(sym)
		s.categories[sym] = cat

		b, ok := s.ByCategory[cat]
		if !ok {
			b = &Bucket{}
			s.ByCategory[cat] = b
		}
		b.Size += sym.Size
		b.Count++

		o, ok := s.ByObject[sym.Object]
		if !ok {
			o = &ObjectStats{Object: sym.Object}
			s.ByObject[sym.Object] = o
			s.objectOrder = append(s.objectOrder, sym.Object)
		}
		o.Size += sym.Size
		o.Count++
		o.Symbols = append(o.Symbols, sym)

		s.total += sym.Size
		s.count++
	}
	return s
}

func (s *Stats) TotalSize() uint64 { return s.total }

func (s *Stats) TotalKB() float64 { return float64(s.total) / 1024.0 }

func (s *Stats) SymbolCount() int { return s.count }

// CategoryOf returns the category assigned during aggregation.
func (s *Stats) CategoryOf(sym *mapfile.SizedSymbol) (classify.Category, bool) {
	c, ok := s.categories[sym]
	return c, ok
}

func (s *Stats) Category(c classify.Category) Bucket {
	if b, ok := s.ByCategory[c]; ok {
		return *b
	}
	return Bucket{}
}

func (s *Stats) CategoryKB(c classify.Category) float64 { return s.Category(c).SizeKB() }

// Percent is the share of c in the total size, in percent.
func (s *Stats) Percent(c classify.Category) float64 {
	if s.total == 0 {
		return 0
	}
	return float64(s.Category(c).Size) / float64(s.total) * 100
}

// Categories ranks the non-empty categories by size, largest first; equal
// sizes keep taxonomy order.
func (s *Stats) Categories() []CategoryStat {
	out := make([]CategoryStat, 0, len(s.ByCategory))
	for _, c := range classify.Taxonomy {
		if b, ok := s.ByCategory[c]; ok {
			out = append(out, CategoryStat{Category: c, Bucket: *b})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Size > out[j].Size })
	return out
}

// Objects returns object stats in first-seen order.
func (s *Stats) Objects() []*ObjectStats {
	out := make([]*ObjectStats, 0, len(s.objectOrder))
	for _, name := range s.objectOrder {
		out = append(out, s.ByObject[name])
	}
	return out
}

// TopObjects returns the n largest objects; ties keep first-seen order.
// n <= 0 returns all of them.
func (s *Stats) TopObjects(n int) []*ObjectStats {
	out := s.Objects()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Size > out[j].Size })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
