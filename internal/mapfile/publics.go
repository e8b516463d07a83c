package mapfile

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

const (
	publicsMarker      = "Address         Publics by Value"
	publicsShortMarker = "Publics by Value"
	entryPointMarker   = "entry point at"
)

// Example rows (name, optional Rva+Base, optional f/i flags, optional Lib:Object):
//
//	0001:00000000       ?run@App@@QEAAXXZ          0000000140001000 f   app.obj
//	0001:00000a40       mainCRTStartup             0000000140001a40 f   MSVCRT:exe_main.obj
//	0003:00000010       __ImageBase                0000000140000000     <linker-defined>
var publicLineRE = regexp.MustCompile(`(?i)^\s*([0-9a-f]{4}):([0-9a-f]{8})\s+(\S+)(?:\s+([0-9a-f]{8,16})(?:\s|$))?(.*)$`)

var objectExtensions = []string{".obj", ".lib", ".o", ".a"}

// ParsePublics extracts the "Publics by Value" listing. Without the block
// header nothing is returned; unmatched lines inside the block are skipped.
func ParsePublics(lines []string) []RawSymbol {
	start := indexOf(lines, 0, publicsMarker)
	if start < 0 {
		start = indexOf(lines, 0, publicsShortMarker)
	}
	if start < 0 {
		slog.Debug("No publics listing found")
		return nil
	}
	end := indexOf(lines, start+1, entryPointMarker)
	if end < 0 {
		end = len(lines)
	}

	var symbols []RawSymbol
	unknown := 0
	for i := start + 1; i < end; i++ {
		sym, ok := parsePublicLine(lines[i])
		if !ok {
			continue
		}
		sym.Line = i + 1
		if sym.ObjectPath == UnknownObject {
			unknown++
		}
		symbols = append(symbols, sym)
	}
	slog.Debug("Parsed publics listing", "symbols", len(symbols), "unattributed", unknown)
	return symbols
}

func indexOf(lines []string, from int, marker string) int {
	for i := from; i < len(lines); i++ {
		if strings.Contains(lines[i], marker) {
			return i
		}
	}
	return -1
}

func parsePublicLine(line string) (RawSymbol, bool) {
	m := publicLineRE.FindStringSubmatch(line)
	if m == nil {
		return RawSymbol{}, false
	}
	seg, err1 := strconv.ParseUint(m[1], 16, 16)
	off, err2 := strconv.ParseUint(m[2], 16, 64)
	if err1 != nil || err2 != nil {
		return RawSymbol{}, false
	}
	sym := RawSymbol{
		Name:       m[3],
		Segment:    uint16(seg),
		Offset:     off,
		ObjectPath: UnknownObject,
		Object:     UnknownObject,
	}
	if m[4] != "" {
		if rva, err := strconv.ParseUint(m[4], 16, 64); err == nil {
			sym.RVA = rva
			sym.HasRVA = true
		}
	}

	rest := strings.Fields(m[5])
flags:
	for len(rest) > 0 {
		switch rest[0] {
		case "f":
			sym.Function = true
		case "i":
			sym.Inline = true
		default:
			break flags
		}
		rest = rest[1:]
	}
	if obj := strings.Join(rest, " "); hasObjectExtension(obj) {
		sym.ObjectPath = obj
		sym.Object = ObjectBase(obj)
	}
	return sym, true
}

func hasObjectExtension(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range objectExtensions {
		if strings.HasSuffix(lower, ext) && len(lower) > len(ext) {
			return true
		}
	}
	return false
}

// ObjectBase returns the final path component, accepting both separators
// since map files are usually produced on Windows.
func ObjectBase(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
