package insight

import (
	"regexp"
	"sort"

	"github.com/VladMinzatu/mapprof/internal/mapfile"
)

const DefaultFoldingKeyLength = 50

var (
	addressRunRE    = regexp.MustCompile(`[0-9A-F]{8,16}`)
	disambiguatorRE = regexp.MustCompile(`\?\?_[0-9]`)
)

type FoldingOptions struct {
	KeyLength int
}

type FoldKey struct {
	Segment uint16 `json:"segment"`
	Size    uint64 `json:"size"`
	Name    string `json:"name"`
}

// FoldGroup is a set of symbols an identical-code-folding linker pass could
// merge. Identity of the instruction bytes is assumed, not checked, so the
// savings are an upper bound.
type FoldGroup struct {
	FoldKey
	Example string                 `json:"example"`
	Count   int                    `json:"count"`
	Objects []string               `json:"objects"`
	Savings uint64                 `json:"savings"`
	Symbols []*mapfile.SizedSymbol `json:"-"`
}

type FoldingReport struct {
	Groups    []FoldGroup `json:"groups"`
	Savings   uint64      `json:"savings"`
	Collapsed int         `json:"collapsed"`
}

func FoldingKeyOf(s *mapfile.SizedSymbol, keyLength int) FoldKey {
	name := addressRunRE.ReplaceAllString(s.Name, "")
	name = disambiguatorRE.ReplaceAllString(name, "")
	return FoldKey{Segment: s.Segment, Size: s.Size, Name: truncate(name, keyLength)}
}

// FoldingCandidates groups nonzero symbols by (segment, size, normalized
// name) and reports every group with more than one member, largest savings
// first.
func FoldingCandidates(symbols []*mapfile.SizedSymbol, opts FoldingOptions) *FoldingReport {
	if opts.KeyLength <= 0 {
		opts.KeyLength = DefaultFoldingKeyLength
	}

	groups := make(map[FoldKey][]*mapfile.SizedSymbol)
	var order []FoldKey
	for _, s := range symbols {
		if s.Size == 0 {
			continue
		}
		key := FoldingKeyOf(s, opts.KeyLength)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], s)
	}

	report := &FoldingReport{}
	for _, key := range order {
		members := groups[key]
		if len(members) < 2 {
			continue
		}
		g := FoldGroup{
			FoldKey: key,
			Example: members[0].Name,
			Count:   len(members),
			Savings: uint64(len(members)-1) * key.Size,
			Symbols: members,
		}
		seen := map[string]struct{}{}
		for _, m := range members {
			if _, ok := seen[m.Object]; !ok {
				seen[m.Object] = struct{}{}
				g.Objects = append(g.Objects, m.Object)
			}
		}
		report.Groups = append(report.Groups, g)
		report.Savings += g.Savings
		report.Collapsed += g.Count - 1
	}
	sort.SliceStable(report.Groups, func(i, j int) bool { return report.Groups[i].Savings > report.Groups[j].Savings })
	return report
}
