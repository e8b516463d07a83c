package exporter

import (
	"github.com/VladMinzatu/mapprof/internal/mapfile"
)

func sym(name, objectPath string, seg uint16, off, size uint64) *mapfile.SizedSymbol {
	return &mapfile.SizedSymbol{
		RawSymbol: mapfile.RawSymbol{
			Name:       name,
			Segment:    seg,
			Offset:     off,
			RVA:        0x140000000 + uint64(seg)*0x1000 + off,
			HasRVA:     true,
			ObjectPath: objectPath,
			Object:     mapfile.ObjectBase(objectPath),
		},
		Size: size,
	}
}

func sampleSymbols() []*mapfile.SizedSymbol {
	exec := sym("?execute@App@@QEAAXXZ", `C:\build\app.obj`, 1, 0x0, 0x40)
	exec.Section = ".text$mn"
	vec := sym("?size@?$vector@H@std@@QEBA_KXZ", `C:\build\app.obj`, 1, 0x40, 0x20)
	vec.Section = ".text$mn"
	cpy := sym("memcpy", "libvcruntime:memcpy.obj", 1, 0x60, 0x100)
	cpy.Section = ".text$mn"
	g := sym("?g_counter@@3HA", `C:\build\app.obj`, 2, 0x0, 0x8)
	g.HasRVA = false
	g.RVA = 0
	g.Section = ".data"
	return []*mapfile.SizedSymbol{exec, vec, cpy, g}
}
