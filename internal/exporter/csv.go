package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/VladMinzatu/mapprof/internal/mapfile"
)

var csvHeader = []string{"Name", "Size(KB)", "Category", "Object", "Section", "Offset", "RVA"}

// WriteCSV writes one row per sized symbol. Section is the four-digit
// segment, Offset and RVA are hex as printed in the map file; RVA is empty
// when the listing had none.
func WriteCSV(w io.Writer, symbols []*mapfile.SizedSymbol, c Classifier) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, sym := range symbols {
		if err := cw.Write([]string{
			sym.Name,
			formatKB(sym.Size, 3),
			string(c.Classify(sym)),
			sym.Object,
			segmentString(sym.Segment),
			offsetString(sym.Offset),
			rvaString(sym),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteCSVFile(path string, symbols []*mapfile.SizedSymbol, c Classifier) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()
	if err := WriteCSV(f, symbols, c); err != nil {
		return fmt.Errorf("write csv %s: %w", path, err)
	}
	return f.Close()
}

func segmentString(seg uint16) string { return fmt.Sprintf("%04X", seg) }

func offsetString(off uint64) string { return fmt.Sprintf("%08X", off) }

func rvaString(sym *mapfile.SizedSymbol) string {
	if !sym.HasRVA {
		return ""
	}
	return fmt.Sprintf("%016X", sym.RVA)
}

// roundTo rounds v half away from zero to the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func formatKB(size uint64, decimals int) string {
	return strconv.FormatFloat(roundTo(float64(size)/1024.0, decimals), 'f', -1, 64)
}
