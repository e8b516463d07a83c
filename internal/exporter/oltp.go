package exporter

import (
	v1 "go.opentelemetry.io/proto/otlp/common/v1"
	profilespb "go.opentelemetry.io/proto/otlp/profiles/v1development"
	resourceV1 "go.opentelemetry.io/proto/otlp/resource/v1"

	"github.com/VladMinzatu/mapprof/internal/mapfile"
)

type NowFunc func() uint64 // produces unix nsec

const scopeName = "mapprof"

// BuildOltpProfile encodes the size breakdown as an OTLP profile. Every
// symbol becomes one sample valued at its size, with the stack
// symbol -> object -> category (leaf first). Object and category frames are
// shared across samples through the dictionary.
func BuildOltpProfile(source string, symbols []*mapfile.SizedSymbol, c Classifier, now NowFunc) *profilespb.ProfilesData {
	nowNsec := now()
	strs := newStringTable()
	mappingTable := []*profilespb.Mapping{{}}
	locationTable := []*profilespb.Location{{}}
	functionTable := []*profilespb.Function{{}}
	stackTable := []*profilespb.Stack{{}}

	defaultMappingIdx := 0
	profileSamples := make([]*profilespb.Sample, 0, len(symbols))

	sampleType := &profilespb.ValueType{
		TypeStrindex: strs.index("size"),
		UnitStrindex: strs.index("bytes"),
	}

	addLocation := func(name, filename string, addr uint64) int32 {
		fn := &profilespb.Function{
			NameStrindex:       strs.index(name),
			SystemNameStrindex: strs.index(name),
		}
		if filename != "" {
			fn.FilenameStrindex = strs.index(filename)
		}
		functionTable = append(functionTable, fn)
		fnIdx := int32(len(functionTable) - 1)

		loc := &profilespb.Location{
			Address:      addr,
			MappingIndex: int32(defaultMappingIdx),
			Lines: []*profilespb.Line{
				{
					FunctionIndex: fnIdx,
					Line:          0,
				},
			},
		}
		locationTable = append(locationTable, loc)
		return int32(len(locationTable) - 1)
	}

	shared := map[string]int32{}
	sharedLocation := func(kind, name string) int32 {
		key := kind + "\x00" + name
		if idx, ok := shared[key]; ok {
			return idx
		}
		idx := addLocation(name, "", 0)
		shared[key] = idx
		return idx
	}

	for _, sym := range symbols {
		addr := sym.RVA
		if !sym.HasRVA {
			addr = sym.Offset
		}
		leaf := addLocation(sym.Name, sym.ObjectPath, addr)
		objIdx := sharedLocation("object", sym.Object)
		catIdx := sharedLocation("category", string(c.Classify(sym)))

		stackTable = append(stackTable, &profilespb.Stack{LocationIndices: []int32{leaf, objIdx, catIdx}})

		profileSamples = append(profileSamples, &profilespb.Sample{
			StackIndex:         int32(len(stackTable) - 1),
			Values:             []int64{int64(sym.Size)},
			AttributeIndices:   []int32{},
			LinkIndex:          0,
			TimestampsUnixNano: []uint64{nowNsec},
		})
	}

	profile := &profilespb.Profile{
		TimeUnixNano: nowNsec,
		DurationNano: uint64(0),
		SampleType:   sampleType,
		Samples:      profileSamples,
	}

	resource := &resourceV1.Resource{
		Attributes: []*v1.KeyValue{
			stringAttr("service.name", scopeName),
			stringAttr("mapprof.map_file", source),
		},
	}
	resourceProfiles := &profilespb.ResourceProfiles{
		Resource: resource,
		ScopeProfiles: []*profilespb.ScopeProfiles{
			{
				Scope: &v1.InstrumentationScope{
					Name:    scopeName,
					Version: "v1",
				},
				Profiles: []*profilespb.Profile{profile},
			},
		},
	}

	dictionary := &profilespb.ProfilesDictionary{
		MappingTable:  mappingTable,
		LocationTable: locationTable,
		FunctionTable: functionTable,
		StackTable:    stackTable,
		StringTable:   strs.values,
	}

	return &profilespb.ProfilesData{
		ResourceProfiles: []*profilespb.ResourceProfiles{resourceProfiles},
		Dictionary:       dictionary,
	}
}

func stringAttr(key, value string) *v1.KeyValue {
	return &v1.KeyValue{
		Key:   key,
		Value: &v1.AnyValue{Value: &v1.AnyValue_StringValue{StringValue: value}},
	}
}

// stringTable interns dictionary strings; index 0 is always "".
type stringTable struct {
	values []string
	lookup map[string]int32
}

func newStringTable() *stringTable {
	return &stringTable{values: []string{""}, lookup: map[string]int32{"": 0}}
}

func (t *stringTable) index(s string) int32 {
	if i, ok := t.lookup[s]; ok {
		return i
	}
	t.values = append(t.values, s)
	i := int32(len(t.values) - 1)
	t.lookup[s] = i
	return i
}
