package insight

import (
	"regexp"
	"sort"
	"strings"

	"github.com/VladMinzatu/mapprof/internal/mapfile"
)

const (
	DefaultTemplateThreshold = 2
	DefaultTemplateKeyLength = 120
)

var (
	typeParamRE = regexp.MustCompile(`\?[A-Z0-9]+@`)
	hexConstRE  = regexp.MustCompile(`\$[0-9A-F]+`)
)

type TemplateOptions struct {
	// Threshold is the minimum number of instantiations reported.
	Threshold int
	// KeyLength truncates normalized names. Distinct templates sharing a
	// longer prefix are reported as one group.
	KeyLength int
}

type TemplateGroup struct {
	Key         string   `json:"key"`
	Example     string   `json:"example"`
	Count       int      `json:"count"`
	Objects     []string `json:"objects"`
	TotalSize   uint64   `json:"total_size"`
	AvgSize     float64  `json:"avg_size"`
	Reclaimable float64  `json:"reclaimable"`
}

type TemplateReport struct {
	Groups      []TemplateGroup `json:"groups"`
	Reclaimable float64         `json:"reclaimable"`
}

func isTemplate(name string) bool {
	return strings.Contains(name, "?$") || strings.Contains(name, "<")
}

// TemplateKey normalizes a template instantiation name so that
// instantiations differing only in type arguments share a key.
func TemplateKey(name string, keyLength int) string {
	k := typeParamRE.ReplaceAllString(name, "?T@")
	k = hexConstRE.ReplaceAllString(k, "")
	return truncate(k, keyLength)
}

// TemplateHotspots groups template instantiations by normalized name and
// reports groups repeated at least Threshold times, most repeated first.
func TemplateHotspots(symbols []*mapfile.SizedSymbol, opts TemplateOptions) *TemplateReport {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultTemplateThreshold
	}
	if opts.KeyLength <= 0 {
		opts.KeyLength = DefaultTemplateKeyLength
	}

	type acc struct {
		group   TemplateGroup
		objects map[string]struct{}
	}
	groups := make(map[string]*acc)
	var order []string
	for _, s := range symbols {
		if !isTemplate(s.Name) {
			continue
		}
		key := TemplateKey(s.Name, opts.KeyLength)
		a, ok := groups[key]
		if !ok {
			a = &acc{group: TemplateGroup{Key: key, Example: s.Name}, objects: map[string]struct{}{}}
			groups[key] = a
			order = append(order, key)
		}
		a.group.Count++
		a.group.TotalSize += s.Size
		if _, seen := a.objects[s.Object]; !seen {
			a.objects[s.Object] = struct{}{}
			a.group.Objects = append(a.group.Objects, s.Object)
		}
	}

	report := &TemplateReport{}
	for _, key := range order {
		g := groups[key].group
		if g.Count < opts.Threshold {
			continue
		}
		g.AvgSize = float64(g.TotalSize) / float64(g.Count)
		g.Reclaimable = float64(g.Count-1) * g.AvgSize
		report.Groups = append(report.Groups, g)
		report.Reclaimable += g.Reclaimable
	}
	sort.SliceStable(report.Groups, func(i, j int) bool { return report.Groups[i].Count > report.Groups[j].Count })
	return report
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
