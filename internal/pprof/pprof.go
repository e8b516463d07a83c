// Package pprof renders a size breakdown as a pprof profile so it can be
// browsed with `go tool pprof` (top, tree, flame graph views).
package pprof

import (
	"io"

	"github.com/google/pprof/profile"

	"github.com/VladMinzatu/mapprof/internal/classify"
	"github.com/VladMinzatu/mapprof/internal/mapfile"
)

const (
	SampleType = "size"
	SampleUnit = "bytes"
)

type Classifier interface {
	Classify(sym *mapfile.SizedSymbol) classify.Category
}

// BuildSizeProfile emits one sample per symbol, valued at the symbol size.
// The stack is symbol -> object -> category, leaf first, so the category is
// the root frame in pprof views.
func BuildSizeProfile(symbols []*mapfile.SizedSymbol, c Classifier) (*profile.Profile, error) {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: SampleType, Unit: SampleUnit}},
		PeriodType: &profile.ValueType{Type: SampleType, Unit: SampleUnit},
		Period:     1,
	}
	if len(symbols) == 0 {
		return p, nil
	}

	funcs := map[string]*profile.Function{}
	frames := map[string]*profile.Location{}
	nextFuncID := uint64(1)
	nextLocID := uint64(1)

	addFunction := func(name, filename string) *profile.Function {
		key := name + "\x00" + filename
		if f, ok := funcs[key]; ok {
			return f
		}
		fn := &profile.Function{
			ID:         nextFuncID,
			Name:       name,
			SystemName: name,
			Filename:   filename,
		}
		nextFuncID++
		funcs[key] = fn
		p.Function = append(p.Function, fn)
		return fn
	}

	newLocation := func(fn *profile.Function, addr uint64) *profile.Location {
		loc := &profile.Location{
			ID:      nextLocID,
			Address: addr,
			Line:    []profile.Line{{Function: fn}},
		}
		nextLocID++
		p.Location = append(p.Location, loc)
		return loc
	}

	// object and category frames are shared by every symbol under them
	sharedFrame := func(kind, name string) *profile.Location {
		key := kind + "\x00" + name
		if loc, ok := frames[key]; ok {
			return loc
		}
		loc := newLocation(addFunction(name, ""), 0)
		frames[key] = loc
		return loc
	}

	for _, sym := range symbols {
		cat := c.Classify(sym)
		addr := sym.RVA
		if !sym.HasRVA {
			addr = sym.Offset
		}

		leaf := newLocation(addFunction(sym.Name, sym.ObjectPath), addr)
		p.Sample = append(p.Sample, &profile.Sample{
			Value: []int64{int64(sym.Size)},
			Location: []*profile.Location{
				leaf,
				sharedFrame("object", sym.Object),
				sharedFrame("category", string(cat)),
			},
			Label: map[string][]string{
				"category": {string(cat)},
				"object":   {sym.Object},
				"section":  {sectionLabel(sym)},
			},
		})
	}

	return p, nil
}

func sectionLabel(sym *mapfile.SizedSymbol) string {
	if sym.Section != "" {
		return sym.Section
	}
	return sym.Address()[:4]
}

// WriteProfile serializes p in the gzipped protobuf encoding pprof reads.
func WriteProfile(p *profile.Profile, w io.Writer) error {
	return p.Write(w)
}
