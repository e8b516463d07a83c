package insight

import (
	"sort"

	"github.com/VladMinzatu/mapprof/internal/classify"
	"github.com/VladMinzatu/mapprof/internal/stats"
)

type ObjectShare struct {
	Object string `json:"object"`
	Size   uint64 `json:"size"`
}

func (o ObjectShare) SizeKB() float64 { return float64(o.Size) / 1024.0 }

type ContainerReport struct {
	Objects []ObjectShare `json:"objects"`
	Total   uint64        `json:"total"`
}

// ContainerAttribution charges generic-container instantiations to the
// object files that pulled them in, largest first.
func ContainerAttribution(st *stats.Stats) *ContainerReport {
	report := &ContainerReport{}
	for _, obj := range st.Objects() {
		var size uint64
		for _, sym := range obj.Symbols {
			cat, ok := st.CategoryOf(sym)
			if ok && classify.IsContainer(cat) {
				size += sym.Size
			}
		}
		if size == 0 {
			continue
		}
		report.Objects = append(report.Objects, ObjectShare{Object: obj.Object, Size: size})
		report.Total += size
	}
	sort.SliceStable(report.Objects, func(i, j int) bool { return report.Objects[i].Size > report.Objects[j].Size })
	return report
}

// Top returns at most n entries; n <= 0 returns all.
func (r *ContainerReport) Top(n int) []ObjectShare {
	if n > 0 && n < len(r.Objects) {
		return r.Objects[:n]
	}
	return r.Objects
}
