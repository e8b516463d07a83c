package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/VladMinzatu/mapprof/internal/analyzer"
	"github.com/VladMinzatu/mapprof/internal/mapfile"
)

type address struct {
	rva     bool
	segment uint16
	offset  uint64
}

// parseAddress accepts an RVA+base in hex (0x prefix optional) or a
// segment:offset pair as printed in the map file.
func parseAddress(s string) (address, error) {
	if seg, off, ok := strings.Cut(s, ":"); ok {
		segment, err := strconv.ParseUint(seg, 16, 16)
		if err != nil {
			return address{}, fmt.Errorf("invalid segment in %q: %w", s, err)
		}
		offset, err := strconv.ParseUint(off, 16, 64)
		if err != nil {
			return address{}, fmt.Errorf("invalid offset in %q: %w", s, err)
		}
		return address{segment: uint16(segment), offset: offset}, nil
	}

	hex := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	rva, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return address{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return address{rva: true, offset: rva}, nil
}

func newLookupCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <map-file> <address> [address...]",
		Short: "Find the symbol containing an address",
		Long: `Find the symbol containing an address.

Addresses are either an RVA+base in hex (as in crash dumps, e.g. 0x140001210)
or a segment:offset pair as printed in the map file (e.g. 0001:00000210).`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addrs := make([]address, 0, len(args)-1)
			for _, s := range args[1:] {
				a, err := parseAddress(s)
				if err != nil {
					return err
				}
				addrs = append(addrs, a)
			}

			a, err := analyzer.New(g.cfg)
			if err != nil {
				return err
			}
			r, err := a.AnalyzeFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			resolver := r.Resolver()
			out := cmd.OutOrStdout()
			var misses int
			for i, addr := range addrs {
				var (
					sym *mapfile.SizedSymbol
					off uint64
				)
				if addr.rva {
					sym, off, err = resolver.ResolveRVA(addr.offset)
				} else {
					sym, off, err = resolver.ResolveOffset(addr.segment, addr.offset)
				}
				if err != nil {
					misses++
					fprintf(out, "%-20s  ??  (%v)\n", args[i+1], err)
					continue
				}
				fprintf(out, "%-20s  %s+0x%x  [%s, %s, %d bytes]\n",
					args[i+1], sym.Name, off, categoryOf(r, sym), sym.Object, sym.Size)
			}
			if misses == len(addrs) {
				return fmt.Errorf("no symbol found for %d address(es)", misses)
			}
			return nil
		},
	}
	return cmd
}

func categoryOf(r *analyzer.Report, sym *mapfile.SizedSymbol) string {
	if cat, ok := r.Stats.CategoryOf(sym); ok {
		return string(cat)
	}
	return string(r.Classifier.Classify(sym))
}
