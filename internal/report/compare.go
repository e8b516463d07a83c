package report

import (
	"fmt"
	"strings"

	"github.com/VladMinzatu/mapprof/internal/analyzer"
)

// Comparison renders category sizes side by side followed by the deltas of
// every file against the first one.
func (c *Console) Comparison(cmp *analyzer.Comparison) error {
	c.err = nil
	c.printf("\n%s\n%s\n", c.st.title.Render("MULTI-FILE COMPARISON"), strings.Repeat("=", width))

	header := fmt.Sprintf("%-30s", "Category")
	for _, f := range cmp.Files {
		header += fmt.Sprintf(" %12s", f)
	}
	c.printf("%s\n%s\n", c.st.header.Render(header), strings.Repeat("-", width))

	for _, row := range cmp.Rows {
		line := fmt.Sprintf("%-30s", row.Category)
		for _, size := range row.Sizes {
			line += fmt.Sprintf(" %12.2f", kb(float64(size)))
		}
		c.printf("%s\n", line)
	}
	total := fmt.Sprintf("%-30s", "total")
	for _, size := range cmp.Totals {
		total += fmt.Sprintf(" %12.2f", kb(float64(size)))
	}
	c.printf("%s\n", total)

	if len(cmp.Deltas) > 0 {
		c.printf("\n%s\n", c.st.header.Render("DELTA ANALYSIS:"))
	}
	for _, d := range cmp.Deltas {
		c.printf("%s vs %s: %s\n", d.File, d.Base, c.signedKB(d.Total))
		for _, ch := range d.Categories {
			c.printf("    %s: %s\n", ch.Category, c.signedKB(ch.Delta))
		}
	}
	c.printf("\n")
	return c.err
}

func (c *Console) signedKB(delta int64) string {
	s := fmt.Sprintf("%.2fKB", kb(float64(delta)))
	switch {
	case delta > 0:
		return c.st.plus.Render("+" + s)
	case delta < 0:
		return c.st.minus.Render(s)
	}
	return s
}
