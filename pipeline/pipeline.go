// Package pipeline is the top-level façade that sorts a populated symbol
// graph and drives a reconstructor across every emittable top-level symbol,
// grounded on original_source/Source/PDBExtractor.cpp's
// DumpAllSymbols/PrintPDBDefinitions sequence.
package pipeline

import (
	"fmt"
	"io"

	"github.com/pdbex/pdbex/ordering"
	"github.com/pdbex/pdbex/reconstruct"
	"github.com/pdbex/pdbex/symgraph"
)

// Options bundles the knobs PrintPDBDefinitions exposes as PDBExtractor
// members: the reconstructor settings plus the CLI-level switches that
// decide what gets a standalone declaration at all.
type Options struct {
	Settings reconstruct.Settings

	// PrintFunctionNames carries the -f switch (SPEC_FULL.md §6). Run does
	// not read it; the function list is written separately, by
	// WriteFunctionNames, as one comment block with one name per line.
	PrintFunctionNames bool
}

// Run sorts graph into emission order and reconstructs a C header for every
// top-level symbol that order names, skipping anonymous UDTs (those are
// only ever emitted inline, as a member of whatever named type embeds
// them) and any symbol lookup Run can't resolve. It returns the detected
// pointer architecture, matching PDBExtractor's own post-run report.
func Run(graph *symgraph.Graph, opts Options) (ordering.Architecture, error) {
	sorter := ordering.New(graph)
	sorter.Run()

	controller := reconstruct.NewController(reconstruct.NewHeaderReconstructor(opts.Settings), opts.Settings)

	for _, id := range sorter.GetSortedSymbolIndexes() {
		sym, ok := graph.ByID(id)
		if !ok {
			continue
		}
		if sym.Kind == symgraph.KindUDT && sym.IsUnnamed() {
			continue
		}
		controller.Run(sym)
	}

	return sorter.GetImageArchitecture(), nil
}

// WriteFunctionNames renders the -f supplement: a comment block listing
// every ingested function symbol's name, grounded on
// original_source/Source/PDBExtractor.cpp::PrintPDBFunctions.
func WriteFunctionNames(w io.Writer, names []string) error {
	if len(names) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "/*"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, " * Functions"); err != nil {
		return err
	}
	for _, name := range names {
		if _, err := fmt.Fprintf(w, " *   %s\n", name); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, " */")
	return err
}
