package mapfile

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(name string, seg uint16, off uint64, obj string) RawSymbol {
	return RawSymbol{Name: name, Segment: seg, Offset: off, ObjectPath: obj, Object: ObjectBase(obj)}
}

func sizesOf(symbols []*SizedSymbol) []uint64 {
	out := make([]uint64, len(symbols))
	for i, s := range symbols {
		out[i] = s.Size
	}
	return out
}

func TestReconstructSizes_ThreeSymbolsInOneSection(t *testing.T) {
	table := NewSectionTable([]Section{{Segment: 1, Start: 0, Length: 0x100, Name: ".text", Class: "CODE"}})
	symbols := []RawSymbol{
		raw("c", 1, 0x20, "a.obj"),
		raw("a", 1, 0x00, "a.obj"),
		raw("b", 1, 0x10, "a.obj"),
	}

	got := ReconstructSizes(symbols, table, DefaultSizeCeiling)
	require.Len(t, got, 3)
	assert.Equal(t, []uint64{0x10, 0x10, 0xE0}, sizesOf(got))
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "c", got[2].Name)
	assert.InDelta(t, 0xE0/1024.0, got[2].SizeKB(), 1e-9)
}

func TestReconstructSizes_SumMatchesSectionLength(t *testing.T) {
	const length = 0x1000
	table := NewSectionTable([]Section{{Segment: 2, Start: 0, Length: length}})

	rng := rand.New(rand.NewSource(7))
	offsets := map[uint64]bool{}
	var symbols []RawSymbol
	for len(symbols) < 50 {
		off := uint64(0x40 + rng.Intn(length-0x40))
		if offsets[off] {
			continue
		}
		offsets[off] = true
		symbols = append(symbols, raw("s", 2, off, "x.obj"))
	}

	got := ReconstructSizes(symbols, table, DefaultSizeCeiling)
	require.Len(t, got, len(symbols))

	var sum uint64
	for _, s := range got {
		sum += s.Size
	}
	leadingGap := got[0].Offset
	assert.Equal(t, uint64(length), sum+leadingGap)
}

func TestReconstructSizes_IdempotentOnSortedInput(t *testing.T) {
	table := NewSectionTable([]Section{
		{Segment: 1, Start: 0, Length: 0x200},
		{Segment: 2, Start: 0, Length: 0x80},
	})
	symbols := []RawSymbol{
		raw("d", 2, 0x40, "b.obj"),
		raw("b", 1, 0x80, "a.obj"),
		raw("a", 1, 0x00, "a.obj"),
		raw("c", 2, 0x00, "b.obj"),
	}
	first := ReconstructSizes(symbols, table, DefaultSizeCeiling)

	sorted := make([]RawSymbol, len(first))
	for i, s := range first {
		sorted[i] = s.RawSymbol
	}
	second := ReconstructSizes(sorted, table, DefaultSizeCeiling)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, *first[i], *second[i])
	}
}

func TestReconstructSizes_LastSymbolUsesBoundingSubsection(t *testing.T) {
	table := NewSectionTable([]Section{
		{Segment: 1, Start: 0, Length: 0x400, Name: ".text$mn"},
		{Segment: 1, Start: 0x400, Length: 0x100, Name: ".text$x"},
	})
	got := ReconstructSizes([]RawSymbol{
		raw("a", 1, 0x3f0, "a.obj"),
		raw("b", 1, 0x480, "a.obj"),
	}, table, DefaultSizeCeiling)
	assert.Equal(t, []uint64{0x90, 0x80}, sizesOf(got))
	assert.Equal(t, ".text$mn", got[0].Section)
	assert.Equal(t, ".text$x", got[1].Section)
}

func TestReconstructSizes_Filters(t *testing.T) {
	table := NewSectionTable([]Section{
		{Segment: 1, Start: 0, Length: 0x300000},
		{Segment: 3, Start: 0, Length: 0x10},
	})

	t.Run("missing_section_zero_sizes_the_segment", func(t *testing.T) {
		got := ReconstructSizes([]RawSymbol{
			raw("a", 2, 0, "a.obj"),
			raw("b", 2, 0x10, "a.obj"),
		}, table, DefaultSizeCeiling)
		assert.Empty(t, got)
	})

	t.Run("aliases_at_same_offset_are_dropped", func(t *testing.T) {
		got := ReconstructSizes([]RawSymbol{
			raw("alias", 3, 0, "a.obj"),
			raw("real", 3, 0, "a.obj"),
		}, table, DefaultSizeCeiling)
		require.Len(t, got, 1)
		assert.Equal(t, "real", got[0].Name)
		assert.Equal(t, uint64(0x10), got[0].Size)
	})

	t.Run("oversize_is_dropped_ceiling_is_kept", func(t *testing.T) {
		got := ReconstructSizes([]RawSymbol{
			raw("exact", 1, 0, "a.obj"),
			raw("huge", 1, DefaultSizeCeiling, "a.obj"),
		}, table, DefaultSizeCeiling)
		require.Len(t, got, 1)
		assert.Equal(t, "exact", got[0].Name)
		assert.Equal(t, DefaultSizeCeiling, got[0].Size)
	})

	t.Run("symbol_past_section_end_is_clamped", func(t *testing.T) {
		got := ReconstructSizes([]RawSymbol{raw("late", 3, 0x20, "a.obj")}, table, DefaultSizeCeiling)
		assert.Empty(t, got)
	})

	t.Run("nil_table", func(t *testing.T) {
		assert.Empty(t, ReconstructSizes([]RawSymbol{raw("a", 1, 0, "a.obj")}, nil, 0))
	})
}

func TestReconstructSizes_DoesNotMutateInput(t *testing.T) {
	table := NewSectionTable([]Section{{Segment: 1, Start: 0, Length: 0x20}})
	symbols := []RawSymbol{raw("b", 1, 0x10, "a.obj"), raw("a", 1, 0, "a.obj")}
	_ = ReconstructSizes(symbols, table, DefaultSizeCeiling)
	assert.Equal(t, "b", symbols[0].Name)
}
