// Package report renders analysis results for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/VladMinzatu/mapprof/internal/analyzer"
	"github.com/VladMinzatu/mapprof/internal/classify"
	"github.com/VladMinzatu/mapprof/internal/insight"
	"github.com/VladMinzatu/mapprof/internal/stats"
)

const (
	width    = 80
	barWidth = 50

	highRiskKB = 5.0
)

type Options struct {
	NoColor bool

	TopObjects        int
	TopTemplates      int
	TopContainers     int
	TemplateThreshold int

	SkipTemplates  bool
	SkipFolding    bool
	SkipContainers bool
}

func DefaultOptions() Options {
	return Options{
		TopObjects:        15,
		TopTemplates:      20,
		TopContainers:     15,
		TemplateThreshold: insight.DefaultTemplateThreshold,
	}
}

// Console writes human-readable reports. Write errors are sticky: the first
// one stops further output and is returned by the render call.
type Console struct {
	w    io.Writer
	opts Options
	st   styles
	err  error
}

func NewConsole(w io.Writer, opts Options) *Console {
	return &Console{w: w, opts: opts, st: newStyles(opts.NoColor)}
}

func (c *Console) printf(format string, args ...any) {
	if c.err != nil {
		return
	}
	_, c.err = fmt.Fprintf(c.w, format, args...)
}

func (c *Console) section(title string, render func(...string) string) {
	c.printf("\n%s\n%s\n", render(title), strings.Repeat("-", width))
}

// Analysis renders the full single-file report.
func (c *Console) Analysis(r *analyzer.Report) error {
	c.err = nil
	st := r.Stats

	c.printf("\n%s\n%s\n", c.st.title.Render("ANALYSIS REPORT: "+r.Source), strings.Repeat("=", width))

	c.categoryRanking(st)
	c.highRisk(st)
	c.businessLogic(st)
	c.topObjects(st)
	c.overall(st)

	if r.Insights != nil {
		if !c.opts.SkipTemplates {
			c.templates(r.Insights.Templates)
		}
		if !c.opts.SkipFolding {
			c.folding(r.Insights.Folding)
		}
		if !c.opts.SkipContainers {
			c.containers(r.Insights.Containers)
		}
	}
	c.actionItems(st)
	c.printf("\n")
	return c.err
}

func (c *Console) categoryRanking(st *stats.Stats) {
	c.section("CATEGORY SIZE RANKING", c.st.header.Render)
	total := st.TotalSize()
	for _, cs := range st.Categories() {
		var share float64
		if total > 0 {
			share = float64(cs.Size) / float64(total)
		}
		c.printf("%s %8.2fKB %5.1f%%  %-20s (%d symbols)\n",
			bar(share), cs.SizeKB(), share*100, cs.Category, cs.Count)
	}
}

func bar(share float64) string {
	n := int(share * barWidth)
	if n < 0 {
		n = 0
	}
	if n > barWidth {
		n = barWidth
	}
	return strings.Repeat("█", n) + strings.Repeat("░", barWidth-n)
}

func (c *Console) highRisk(st *stats.Stats) {
	c.section("HIGH-RISK OPTIMIZATION TARGETS", c.st.risk.Render)
	for _, cat := range classify.Containers {
		if kb := st.CategoryKB(cat); kb > highRiskKB {
			c.printf("  %-20s: %8.2fKB  Immediate action recommended\n", cat, kb)
		}
	}
}

func (c *Console) businessLogic(st *stats.Stats) {
	c.section("BUSINESS LOGIC", c.st.good.Render)
	c.printf("  Total business code: %.2fKB  (%.1f%%)\n", st.CategoryKB(classify.CodeMy), st.Percent(classify.CodeMy))
}

func (c *Console) topObjects(st *stats.Stats) {
	c.section(fmt.Sprintf("TOP %d OBJECT FILES", c.opts.TopObjects), c.st.objects.Render)
	for i, o := range st.TopObjects(c.opts.TopObjects) {
		c.printf("%2d. %8.2fKB  %s\n", i+1, o.SizeKB(), o.Object)
	}
}

func (c *Console) overall(st *stats.Stats) {
	c.section("OVERALL STATISTICS", c.st.header.Render)
	c.printf("  Symbols parsed     : %d\n", st.SymbolCount())
	c.printf("  Total code size    : %.2fKB\n", st.TotalKB())
	var avg float64
	if n := st.SymbolCount(); n > 0 {
		avg = st.TotalKB() / float64(n)
	}
	c.printf("  Average symbol size: %.2fKB\n", avg)
}

func (c *Console) templates(t *insight.TemplateReport) {
	c.section(fmt.Sprintf("TEMPLATE INSTANTIATION HOTSPOTS (repeat >= %d)", c.opts.TemplateThreshold), c.st.risk.Render)
	if t == nil {
		return
	}
	groups := t.Groups
	if n := c.opts.TopTemplates; n > 0 && n < len(groups) {
		groups = groups[:n]
	}
	for i, g := range groups {
		c.printf("%2d. Repeated %3d times | Total %7.2fKB | Avg %5.2fKB\n",
			i+1, g.Count, kb(float64(g.TotalSize)), kb(g.AvgSize))
		objs := g.Objects
		more := ""
		if len(objs) > 5 {
			objs, more = objs[:5], "..."
		}
		c.printf("      Objects: %s%s\n", strings.Join(objs, ", "), more)
	}
	c.printf("\n    %s\n", c.st.hint.Render(fmt.Sprintf("Potential saving with explicit instantiation: %.2fKB", kb(t.Reclaimable))))
}

func (c *Console) folding(f *insight.FoldingReport) {
	c.section("COMDAT FOLDING ESTIMATE (/OPT:ICF)", c.st.header.Render)
	if f == nil {
		return
	}
	for _, g := range f.Groups {
		c.printf("  Fold %2d instances, save %7.2fKB  %s\n", g.Count-1, kb(float64(g.Savings)), clip(g.Example, 60))
	}
	c.printf("\n    %s\n", c.st.hint.Render(fmt.Sprintf("Estimated saving: %.2fKB (%d symbols)", kb(float64(f.Savings)), f.Collapsed)))
}

func (c *Console) containers(r *insight.ContainerReport) {
	c.section("CONTAINER INSTANTIATION BY OBJECT FILE", c.st.objects.Render)
	if r == nil {
		return
	}
	for _, o := range r.Top(c.opts.TopContainers) {
		c.printf("  %7.2fKB  %s\n", o.SizeKB(), o.Object)
	}
	c.printf("\n    %s\n", c.st.hint.Render(fmt.Sprintf("Total container overhead from business logic: %.2fKB", kb(float64(r.Total)))))
}

func (c *Console) actionItems(st *stats.Stats) {
	c.section("ACTION ITEMS", c.st.good.Render)
	if v := st.CategoryKB(classify.StdFunction); v > 10 {
		c.printf("  • Remove std::function: save %.1fKB → Use function pointers or static dispatch\n", v)
	}
	if v := st.CategoryKB(classify.UnorderedMap); v > 10 {
		c.printf("  • Remove unordered_map: save %.1fKB → Replace with std::map or linear search\n", v)
	}
	if v := st.CategoryKB(classify.STLString); v > 50 {
		c.printf("  • STL string overhead: %.1fKB → Add explicit instantiation, use string_view\n", v)
	}
	if !c.opts.SkipFolding {
		c.printf("  • Enable /OPT:ICF linker option: zero-cost saving\n")
	}
}

func kb(bytes float64) float64 { return bytes / 1024.0 }

// clip shortens s to at most n runes.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
