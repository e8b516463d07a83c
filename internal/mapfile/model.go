package mapfile

import "fmt"

// UnknownObject attributes symbols whose listing line carries no object file.
const UnknownObject = "unknown"

// DefaultSizeCeiling is the largest symbol size kept after reconstruction.
const DefaultSizeCeiling uint64 = 1024 * 1024

type Section struct {
	Segment uint16 `json:"segment"`
	Start   uint64 `json:"start"`
	Length  uint64 `json:"length"`
	Name    string `json:"name"`
	Class   string `json:"class"`
}

// End is the first offset past the section.
func (s Section) End() uint64 { return s.Start + s.Length }

type SectionKey struct {
	Segment uint16
	Start   uint64
}

type RawSymbol struct {
	Name       string `json:"name"`
	Segment    uint16 `json:"segment"`
	Offset     uint64 `json:"offset"`
	RVA        uint64 `json:"rva,omitempty"`
	HasRVA     bool   `json:"-"`
	Function   bool   `json:"function,omitempty"`
	Inline     bool   `json:"inline,omitempty"`
	ObjectPath string `json:"object_path"`
	Object     string `json:"object"`
	Line       int    `json:"-"`
}

// Address renders the symbol position the way the map file does: SSSS:OOOOOOOO.
func (r RawSymbol) Address() string {
	return fmt.Sprintf("%04X:%08X", r.Segment, r.Offset)
}

type SizedSymbol struct {
	RawSymbol
	Size uint64 `json:"size"`
	// Section is the name of the section containing the symbol's start.
	Section string `json:"section,omitempty"`
}

func (s *SizedSymbol) SizeKB() float64 { return float64(s.Size) / 1024.0 }
