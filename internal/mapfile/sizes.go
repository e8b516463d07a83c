package mapfile

import (
	"log/slog"
	"sort"
)

// ReconstructSizes assigns every symbol the distance to its successor in the
// same segment; the last symbol of a segment extends to the end of the
// section that bounds it. Symbols in segments without a section entry get
// size 0. Only symbols with 0 < size <= ceiling are returned, ordered by
// segment then offset.
//
// Overlapping or out-of-order entries make this approximate. That is
// inherent to address-delta reconstruction.
func ReconstructSizes(symbols []RawSymbol, table *SectionTable, ceiling uint64) []*SizedSymbol {
	if table == nil {
		table = NewSectionTable(nil)
	}
	if ceiling == 0 {
		ceiling = DefaultSizeCeiling
	}

	bySegment := make(map[uint16][]*SizedSymbol)
	for _, raw := range symbols {
		bySegment[raw.Segment] = append(bySegment[raw.Segment], &SizedSymbol{RawSymbol: raw})
	}
	segments := make([]uint16, 0, len(bySegment))
	for seg := range bySegment {
		segments = append(segments, seg)
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i] < segments[j] })

	var (
		out                       []*SizedSymbol
		zero, oversize, unbounded int
	)
	for _, seg := range segments {
		list := bySegment[seg]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Offset < list[j].Offset })
		if !sizeSegment(list, table) {
			unbounded += len(list)
		}
		for _, s := range list {
			switch {
			case s.Size == 0:
				zero++
			case s.Size > ceiling:
				oversize++
			default:
				out = append(out, s)
			}
		}
	}

	if zero+oversize > 0 {
		slog.Debug("Dropped symbols during size reconstruction",
			"zero", zero, "oversize", oversize, "unbounded", unbounded, "ceiling", ceiling)
	}
	return out
}

// sizeSegment sizes an offset-sorted run of symbols from one segment. It
// reports false when the segment has no section to bound it.
func sizeSegment(list []*SizedSymbol, table *SectionTable) bool {
	if len(list) == 0 {
		return true
	}
	last := list[len(list)-1]
	sec, ok := table.Bound(last.Segment, last.Offset)
	if !ok {
		for _, s := range list {
			s.Size = 0
		}
		return false
	}
	for i := 0; i < len(list)-1; i++ {
		list[i].Size = list[i+1].Offset - list[i].Offset
	}
	for _, s := range list {
		if owner, ok := table.Bound(s.Segment, s.Offset); ok {
			s.Section = owner.Name
		}
	}
	if end := sec.End(); end > last.Offset {
		last.Size = end - last.Offset
	} else {
		last.Size = 0
	}
	return true
}
