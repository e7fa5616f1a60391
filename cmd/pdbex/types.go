package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdbex/pdbex/ingest"
	"github.com/pdbex/pdbex/symgraph"
)

var (
	inspectTypesKind  string
	inspectTypesLimit int
)

// inspectTypesCmd is adapted from the teacher's cmd/pdbview/types.go. The
// teacher walked its own pdb.TypeTable; this module has no standalone type
// table distinct from the symbol graph (see DESIGN.md's note on
// pdb/type.go), so this subcommand populates a graph with ingest.Populate
// — exactly the pipeline the default reconstruct command uses — and lists
// what comes out of it.
var inspectTypesCmd = &cobra.Command{
	Use:   "types <pdb-file>",
	Short: "List types in the PDB file",
	Long:  "List types from a PDB file.\n\nUse --kind to filter by type kind (udt, enum, pointer, array, function, typedef, base).",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspectTypes,
}

func init() {
	inspectTypesCmd.Flags().StringVarP(&inspectTypesKind, "kind", "k", "", "filter by type kind (udt, enum, pointer, array, function, typedef, base)")
	inspectTypesCmd.Flags().IntVarP(&inspectTypesLimit, "limit", "n", 0, "limit number of types shown (0 = unlimited)")
}

func runInspectTypes(cmd *cobra.Command, args []string) error {
	pdbPath := args[0]

	f, err := openPDBFile(pdbPath)
	if err != nil {
		return err
	}
	defer f.Close()

	graph := symgraph.NewGraph()
	if err := ingest.Populate(graph, f); err != nil {
		return fmt.Errorf("%w: %v", ErrSymbolNotFound, err)
	}

	var kindFilter symgraph.Kind
	hasFilter := false
	if inspectTypesKind != "" {
		hasFilter = true
		var ok bool
		kindFilter, ok = parseKindFilter(inspectTypesKind)
		if !ok {
			return fmt.Errorf("%w: unknown type kind %q", ErrInvalidParameters, inspectTypesKind)
		}
	}

	fmt.Fprintf(inspectOutput, "%-10s %-12s %-8s %s\n", "TYPEID", "KIND", "SIZE", "NAME")
	fmt.Fprintf(inspectOutput, "%s\n", strings.Repeat("-", 80))

	count := 0
	for _, sym := range graph.All() {
		if hasFilter && sym.Kind != kindFilter {
			continue
		}

		name := sym.Name
		if name == "" {
			name = "<anonymous>"
		}
		sizeStr := "-"
		if sym.Size > 0 {
			sizeStr = fmt.Sprintf("%d", sym.Size)
		}
		fmt.Fprintf(inspectOutput, "0x%08X %-12s %-8s %s\n", sym.TypeID, sym.Kind.String(), sizeStr, name)

		count++
		if inspectTypesLimit > 0 && count >= inspectTypesLimit {
			break
		}
	}

	fmt.Fprintf(inspectOutput, "\nTotal: %d types\n", count)
	return nil
}

func parseKindFilter(s string) (symgraph.Kind, bool) {
	switch strings.ToLower(s) {
	case "udt":
		return symgraph.KindUDT, true
	case "enum":
		return symgraph.KindEnum, true
	case "pointer":
		return symgraph.KindPointer, true
	case "array":
		return symgraph.KindArray, true
	case "function":
		return symgraph.KindFunction, true
	case "typedef":
		return symgraph.KindTypedef, true
	case "base":
		return symgraph.KindBase, true
	default:
		return 0, false
	}
}
