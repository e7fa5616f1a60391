package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdbex/pdbex/internal/demangle"
	"github.com/pdbex/pdbex/pdbfile"
)

var (
	inspectSymbolsKind      string
	inspectSymbolsDemangled bool
	inspectSymbolsLimit     int
	inspectSymbolsShowRVA   bool
)

// inspectSymbolsCmd is adapted from the teacher's cmd/pdbview/symbols.go.
// The teacher's version filtered a flat pdb.SymbolTable by public/module
// scope; pdbfile narrows module symbols down to three typed accessors
// (Procedures/DataSymbols/UDTSymbols — see DESIGN.md), so --kind here
// selects which of those three record kinds to print instead of a
// SymbolKind enum.
var inspectSymbolsCmd = &cobra.Command{
	Use:   "symbols <pdb-file>",
	Short: "List module symbols in the PDB file",
	Long: `List symbols from a PDB file's module symbol streams.

Use --kind to filter by symbol kind (function, data, udt). Default is all three.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspectSymbols,
}

func init() {
	inspectSymbolsCmd.Flags().StringVarP(&inspectSymbolsKind, "kind", "k", "", "filter by symbol kind (function, data, udt)")
	inspectSymbolsCmd.Flags().BoolVarP(&inspectSymbolsDemangled, "demangle", "d", false, "show demangled names")
	inspectSymbolsCmd.Flags().IntVarP(&inspectSymbolsLimit, "limit", "n", 0, "limit number of symbols shown (0 = unlimited)")
	inspectSymbolsCmd.Flags().BoolVarP(&inspectSymbolsShowRVA, "rva", "r", false, "show RVA (Relative Virtual Address)")
}

func runInspectSymbols(cmd *cobra.Command, args []string) error {
	pdbPath := args[0]

	f, err := openPDBFile(pdbPath)
	if err != nil {
		return err
	}
	defer f.Close()

	modules, err := f.Modules()
	if err != nil {
		return fmt.Errorf("failed to get modules: %w", err)
	}

	var sections *pdbfile.SectionHeaders
	if inspectSymbolsShowRVA {
		sections, _ = f.Sections()
	}

	kind := strings.ToLower(inspectSymbolsKind)
	if kind != "" && kind != "function" && kind != "data" && kind != "udt" {
		return fmt.Errorf("%w: unknown symbol kind %q", ErrInvalidParameters, inspectSymbolsKind)
	}

	if inspectSymbolsShowRVA {
		fmt.Fprintf(inspectOutput, "%-10s %-8s %-10s %-10s %s\n", "KIND", "SECTION", "OFFSET", "RVA", "NAME")
	} else {
		fmt.Fprintf(inspectOutput, "%-10s %-8s %-10s %s\n", "KIND", "SECTION", "OFFSET", "NAME")
	}
	fmt.Fprintf(inspectOutput, "%s\n", strings.Repeat("-", 90))

	count := 0
	for _, mod := range modules {
		if kind == "" || kind == "function" {
			procs, err := mod.Procedures()
			if err != nil {
				return fmt.Errorf("failed to get procedures: %w", err)
			}
			for _, p := range procs {
				printSymbolRow("function", p.Name, p.Segment, p.CodeOffset, sections)
				count++
				if inspectSymbolsLimit > 0 && count >= inspectSymbolsLimit {
					goto done
				}
			}
		}
		if kind == "" || kind == "data" {
			datas, err := mod.DataSymbols()
			if err != nil {
				return fmt.Errorf("failed to get data symbols: %w", err)
			}
			for _, d := range datas {
				printSymbolRow("data", d.Name, d.Segment, d.Offset, sections)
				count++
				if inspectSymbolsLimit > 0 && count >= inspectSymbolsLimit {
					goto done
				}
			}
		}
		if kind == "" || kind == "udt" {
			udts, err := mod.UDTSymbols()
			if err != nil {
				return fmt.Errorf("failed to get UDT symbols: %w", err)
			}
			for _, u := range udts {
				printSymbolRow("udt", u.Name, 0, 0, sections)
				count++
				if inspectSymbolsLimit > 0 && count >= inspectSymbolsLimit {
					goto done
				}
			}
		}
	}

done:
	fmt.Fprintf(inspectOutput, "\nTotal: %d symbols\n", count)
	return nil
}

func printSymbolRow(kind, name string, section uint16, offset uint32, sections *pdbfile.SectionHeaders) {
	if inspectSymbolsDemangled {
		name = demangle.Readable(name)
	}

	if inspectSymbolsShowRVA {
		rva := "-"
		if sections != nil && section != 0 {
			rva = fmt.Sprintf("0x%08X", sections.ToRVA(section, offset))
		}
		fmt.Fprintf(inspectOutput, "%-10s %04X     0x%08X %-10s %s\n", kind, section, offset, rva, name)
	} else {
		fmt.Fprintf(inspectOutput, "%-10s %04X     0x%08X %s\n", kind, section, offset, name)
	}
}
