// Package ingest implements the population-contract driver: it walks a
// parsed PDB's TPI stream and DBI module symbols and builds the
// vendor-neutral symgraph.Graph the reconstruction core consumes.
package ingest

import (
	"github.com/pdbex/pdbex/internal/tpi"
	"github.com/pdbex/pdbex/pdbfile"
	"github.com/pdbex/pdbex/symgraph"
)

// Populate walks every TPI type record in file and registers the Symbols it
// produces into graph, then walks the DBI module symbol streams to recover
// typedef names (S_UDT records) the TPI stream alone does not expose.
func Populate(graph *symgraph.Graph, file *pdbfile.File) error {
	tpiStream, err := file.TPI()
	if err != nil {
		return err
	}

	r := newResolver(graph, tpiStream)

	begin := tpiStream.TypeIndexBegin()
	end := tpiStream.TypeIndexEnd()

	for ti := begin; ti < end; ti++ {
		record, err := tpiStream.GetTypeRecord(ti)
		if err != nil {
			return err
		}
		if record == nil {
			continue
		}

		switch record.Kind {
		case tpi.LF_CLASS, tpi.LF_CLASS_ST,
			tpi.LF_STRUCTURE, tpi.LF_STRUCTURE_ST, tpi.LF_INTERFACE,
			tpi.LF_UNION, tpi.LF_UNION_ST,
			tpi.LF_ENUM, tpi.LF_ENUM_ST:
			if _, err := r.resolveType(ti); err != nil {
				return err
			}
		}
	}

	return r.populateTypedefs(file)
}

// populateTypedefs builds a Typedef Symbol for each distinct S_UDT record
// whose name differs from the underlying type's own name: a PDB emits an
// S_UDT for every named type a module references, tag or alias alike, so
// "struct Foo" itself shows up as an S_UDT named "Foo" pointing at the Foo
// class record; that one isn't a typedef, just the tag restating itself, and
// is skipped.
func (r *resolver) populateTypedefs(file *pdbfile.File) error {
	modules, err := file.Modules()
	if err != nil {
		return err
	}

	seen := make(map[string]bool)

	for _, mod := range modules {
		udts, err := mod.UDTSymbols()
		if err != nil {
			return err
		}

		for _, udt := range udts {
			if seen[udt.Name] {
				continue
			}

			underlying, err := r.resolveType(udt.Type)
			if err != nil {
				return err
			}
			if underlying.Name == udt.Name {
				continue
			}
			seen[udt.Name] = true

			sym := &symgraph.Symbol{
				TypeID:     r.nextSynthID(),
				Kind:       symgraph.KindTypedef,
				Name:       udt.Name,
				Size:       underlying.Size,
				Referenced: underlying,
			}
			r.graph.Register(sym)
		}
	}

	return nil
}
