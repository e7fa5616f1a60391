// Package ordering produces a topologically meaningful emission order for a
// symbol graph, grounded on original_source/Source/PDBSymbolSorter.cpp.
package ordering

import "github.com/pdbex/pdbex/symgraph"

// Architecture is the pointer-width inference the sorter makes from the
// first pointer symbol it visits.
type Architecture uint8

const (
	ArchUnknown Architecture = iota
	ArchX86
	ArchX64
)

func (a Architecture) String() string {
	switch a {
	case ArchX86:
		return "x86"
	case ArchX64:
		return "x64"
	default:
		return "unknown"
	}
}

// Sorter walks a graph and builds the emission order: a post-order DFS over
// every UDT/enum reachable from any top-level symbol, appending a UDT's own
// ID only after every field and base class it references has already been
// visited. Pointer, array, typedef, function and function-arg nodes are
// traversed through but never append themselves — they are always inlined
// into declarators, never emitted standalone.
type Sorter struct {
	graph        *symgraph.Graph
	visitedUdts  map[string]bool
	sortedIDs    []uint64
	seenIDs      map[uint64]bool
	architecture Architecture
	unnamedSeq   int
}

// New returns a Sorter bound to graph. A Sorter is single-use: call Run once
// and read GetSortedSymbolIndexes/GetImageArchitecture afterward.
func New(graph *symgraph.Graph) *Sorter {
	return &Sorter{
		graph:       graph,
		visitedUdts: make(map[string]bool),
		seenIDs:     make(map[uint64]bool),
	}
}

// Run visits every symbol currently registered in the graph, in graph
// iteration order, populating the sorted ID list. Running it twice on an
// unchanged graph (on a fresh Sorter) yields an identical ordering — the
// algorithm depends only on Symbol identity and declaration-order fields,
// not on map iteration or wall-clock state.
func (s *Sorter) Run() {
	for _, sym := range s.graph.All() {
		s.Visit(sym)
	}
}

// Visit descends into sym per its kind, the same recursive shape as the
// base visitor but without field-bracketing: the sorter only cares about
// type references, not declarator shape.
func (s *Sorter) Visit(sym *symgraph.Symbol) {
	if sym == nil {
		return
	}
	switch sym.Kind {
	case symgraph.KindEnum:
		s.visitEnum(sym)
	case symgraph.KindPointer:
		s.visitPointer(sym)
	case symgraph.KindTypedef, symgraph.KindArray:
		s.Visit(sym.Referenced)
	case symgraph.KindFunction:
		for _, arg := range sym.Arguments {
			s.Visit(arg)
		}
		s.Visit(sym.ReturnType)
	case symgraph.KindFunctionArg:
		s.Visit(sym.ArgType)
	case symgraph.KindUDT:
		s.visitUdt(sym)
	}
}

func (s *Sorter) visitEnum(sym *symgraph.Symbol) {
	if s.hasBeenVisited(sym) {
		return
	}
	s.addSymbol(sym)
}

func (s *Sorter) visitPointer(sym *symgraph.Symbol) {
	if s.architecture == ArchUnknown && sym.Size > 0 {
		switch sym.Size {
		case 4:
			s.architecture = ArchX86
		case 8:
			s.architecture = ArchX64
		}
	}
	s.Visit(sym.Referenced)
}

func (s *Sorter) visitUdt(sym *symgraph.Symbol) {
	if s.hasBeenVisited(sym) {
		return
	}
	for _, f := range sym.Fields {
		s.Visit(f.Type)
	}
	for _, bc := range sym.BaseClasses {
		s.Visit(bc.Type)
	}
	s.addSymbol(sym)
}

// hasBeenVisited keys on name for named symbols (so every reference to the
// same named UDT/enum collapses to one entry) and on a fresh per-run
// sequence number for unnamed ones (so each anonymous occurrence is treated
// as distinct and never short-circuited), grounded on
// PDBSymbolSorter::HasBeenVisited's static UnnamedCounter — scoped to this
// Sorter instance rather than process-wide, per spec.md §9's design note.
func (s *Sorter) hasBeenVisited(sym *symgraph.Symbol) bool {
	key := sym.Name
	if sym.IsUnnamed() {
		s.unnamedSeq++
		return false
	}
	if s.visitedUdts[key] {
		return true
	}
	s.visitedUdts[key] = true
	return false
}

// addSymbol appends sym's ID if it isn't already present, the linear dedup
// check that makes a repeated Run idempotent (PDBSymbolSorter::AddSymbol).
func (s *Sorter) addSymbol(sym *symgraph.Symbol) {
	if s.seenIDs[sym.TypeID] {
		return
	}
	s.seenIDs[sym.TypeID] = true
	s.sortedIDs = append(s.sortedIDs, sym.TypeID)
}

// GetSortedSymbolIndexes returns the emission order computed by Run.
func (s *Sorter) GetSortedSymbolIndexes() []uint64 {
	return s.sortedIDs
}

// GetImageArchitecture returns the architecture inferred from the first
// pointer symbol visited, or ArchUnknown if none was seen or its size
// didn't match a known width.
func (s *Sorter) GetImageArchitecture() Architecture {
	return s.architecture
}

// Clear resets the sorter to its initial state so Run can be called again;
// the sorter stays bound to the graph given to New.
func (s *Sorter) Clear() {
	s.visitedUdts = make(map[string]bool)
	s.seenIDs = make(map[uint64]bool)
	s.sortedIDs = nil
	s.architecture = ArchUnknown
	s.unnamedSeq = 0
}
