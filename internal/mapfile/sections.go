package mapfile

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Example row:
//
//	0001:00000000 00012a4cH .text$mn                CODE
var sectionLineRE = regexp.MustCompile(`(?i)^\s*([0-9a-f]{4}):([0-9a-f]{8})\s+([0-9a-f]{6,8})h?\s+(\S+)\s+(\S+)`)

func isSectionHeader(line string) bool {
	f := strings.Fields(line)
	return len(f) == 4 && f[0] == "Start" && f[1] == "Length" && f[2] == "Name" && f[3] == "Class"
}

// ParseSections extracts the section table. A missing header or a table
// without rows yields nil; the size reconstructor copes with that.
func ParseSections(lines []string) []Section {
	start := -1
	for i, line := range lines {
		if isSectionHeader(line) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		slog.Debug("No section table header found")
		return nil
	}

	var sections []Section
	seen := make(map[SectionKey]struct{})
	for _, line := range lines[start:] {
		if strings.TrimSpace(line) == "" {
			if len(sections) == 0 {
				continue
			}
			break
		}
		if strings.HasPrefix(strings.TrimSpace(line), "---") || !startsWithSpace(line) {
			break
		}
		sec, ok := parseSectionRow(line)
		if !ok {
			break
		}
		key := SectionKey{Segment: sec.Segment, Start: sec.Start}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		sections = append(sections, sec)
	}
	slog.Debug("Parsed section table", "sections", len(sections))
	return sections
}

func parseSectionRow(line string) (Section, bool) {
	m := sectionLineRE.FindStringSubmatch(line)
	if m == nil {
		return Section{}, false
	}
	seg, err1 := strconv.ParseUint(m[1], 16, 16)
	start, err2 := strconv.ParseUint(m[2], 16, 64)
	length, err3 := strconv.ParseUint(m[3], 16, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return Section{}, false
	}
	return Section{
		Segment: uint16(seg),
		Start:   start,
		Length:  length,
		Name:    m[4],
		Class:   m[5],
	}, true
}

func startsWithSpace(line string) bool {
	return line != "" && (line[0] == ' ' || line[0] == '\t')
}

// SectionTable indexes parsed sections by (segment, start) and by segment.
type SectionTable struct {
	sections  []Section
	byKey     map[SectionKey]Section
	bySegment map[uint16][]Section
}

func NewSectionTable(sections []Section) *SectionTable {
	t := &SectionTable{
		sections:  sections,
		byKey:     make(map[SectionKey]Section, len(sections)),
		bySegment: make(map[uint16][]Section),
	}
	for _, s := range sections {
		key := SectionKey{Segment: s.Segment, Start: s.Start}
		if _, ok := t.byKey[key]; ok {
			continue
		}
		t.byKey[key] = s
		t.bySegment[s.Segment] = append(t.bySegment[s.Segment], s)
	}
	for _, list := range t.bySegment {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Start < list[j].Start })
	}
	return t
}

func (t *SectionTable) Len() int { return len(t.byKey) }

// Sections returns the sections in file order.
func (t *SectionTable) Sections() []Section { return t.sections }

func (t *SectionTable) Lookup(segment uint16, start uint64) (Section, bool) {
	s, ok := t.byKey[SectionKey{Segment: segment, Start: start}]
	return s, ok
}

// Bound returns the section that bounds a symbol at offset: the one in the
// segment with the greatest start <= offset, or the segment's first section
// when offset precedes them all.
func (t *SectionTable) Bound(segment uint16, offset uint64) (Section, bool) {
	list := t.bySegment[segment]
	if len(list) == 0 {
		return Section{}, false
	}
	i := sort.Search(len(list), func(i int) bool { return list[i].Start > offset })
	if i == 0 {
		return list[0], true
	}
	return list[i-1], true
}
