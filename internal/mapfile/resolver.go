package mapfile

import (
	"fmt"
	"sort"
)

// Resolver maps addresses back to the sized symbol that covers them.
type Resolver struct {
	byRVA    []*SizedSymbol
	bySegOff []*SizedSymbol
}

func NewResolver(symbols []*SizedSymbol) *Resolver {
	r := &Resolver{}
	for _, s := range symbols {
		if s.HasRVA {
			r.byRVA = append(r.byRVA, s)
		}
		r.bySegOff = append(r.bySegOff, s)
	}
	sort.SliceStable(r.byRVA, func(i, j int) bool { return r.byRVA[i].RVA < r.byRVA[j].RVA })
	sort.SliceStable(r.bySegOff, func(i, j int) bool {
		a, b := r.bySegOff[i], r.bySegOff[j]
		if a.Segment != b.Segment {
			return a.Segment < b.Segment
		}
		return a.Offset < b.Offset
	})
	return r
}

// ResolveRVA returns the symbol containing rva and the offset into it.
func (r *Resolver) ResolveRVA(rva uint64) (*SizedSymbol, uint64, error) {
	if len(r.byRVA) == 0 {
		return nil, 0, fmt.Errorf("no symbols with resolved addresses")
	}
	// Find greatest entry.RVA <= rva
	i := sort.Search(len(r.byRVA), func(i int) bool { return r.byRVA[i].RVA > rva })
	if i == 0 {
		return nil, 0, fmt.Errorf("no symbol at or below rva 0x%x", rva)
	}
	s := r.byRVA[i-1]
	if rva-s.RVA >= s.Size {
		return nil, 0, fmt.Errorf("rva 0x%x falls past %s (size 0x%x)", rva, s.Name, s.Size)
	}
	return s, rva - s.RVA, nil
}

// ResolveOffset returns the symbol containing segment:offset and the offset into it.
func (r *Resolver) ResolveOffset(segment uint16, offset uint64) (*SizedSymbol, uint64, error) {
	if len(r.bySegOff) == 0 {
		return nil, 0, fmt.Errorf("empty symbol table")
	}
	i := sort.Search(len(r.bySegOff), func(i int) bool {
		s := r.bySegOff[i]
		if s.Segment != segment {
			return s.Segment > segment
		}
		return s.Offset > offset
	})
	if i == 0 || r.bySegOff[i-1].Segment != segment {
		return nil, 0, fmt.Errorf("no symbol at or below %04X:%08X", segment, offset)
	}
	s := r.bySegOff[i-1]
	if offset-s.Offset >= s.Size {
		return nil, 0, fmt.Errorf("%04X:%08X falls past %s (size 0x%x)", segment, offset, s.Name, s.Size)
	}
	return s, offset - s.Offset, nil
}
