package ordering_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdbex/pdbex/ordering"
	"github.com/pdbex/pdbex/symgraph"
)

func buildSelfReferentialGraph() *symgraph.Graph {
	g := symgraph.NewGraph()

	node := &symgraph.Symbol{TypeID: 1, Kind: symgraph.KindUDT, Name: "Node", Size: 8, UDTKind: symgraph.UDTStruct}
	ptr := &symgraph.Symbol{TypeID: 2, Kind: symgraph.KindPointer, Referenced: node, Size: 8}
	node.Fields = []*symgraph.Field{
		{Name: "next", Type: ptr, Offset: 0},
	}

	g.Register(node)
	g.Register(ptr)
	return g
}

func TestSorterHandlesSelfReferenceWithoutInfiniteRecursion(t *testing.T) {
	g := buildSelfReferentialGraph()
	s := ordering.New(g)
	s.Run()

	ids := s.GetSortedSymbolIndexes()
	require.Equal(t, []uint64{1}, ids, "pointer nodes never append themselves")
	require.Equal(t, ordering.ArchX64, s.GetImageArchitecture())
}

func TestSorterPostOrdersFieldsBeforeOwner(t *testing.T) {
	g := symgraph.NewGraph()

	inner := &symgraph.Symbol{TypeID: 1, Kind: symgraph.KindUDT, Name: "Inner", Size: 4, UDTKind: symgraph.UDTStruct}
	outer := &symgraph.Symbol{TypeID: 2, Kind: symgraph.KindUDT, Name: "Outer", Size: 4, UDTKind: symgraph.UDTStruct}
	outer.Fields = []*symgraph.Field{{Name: "in", Type: inner, Offset: 0}}

	g.Register(inner)
	g.Register(outer)

	s := ordering.New(g)
	s.Run()

	require.Equal(t, []uint64{1, 2}, s.GetSortedSymbolIndexes())
}

func TestSorterIsIdempotent(t *testing.T) {
	g := buildSelfReferentialGraph()

	s1 := ordering.New(g)
	s1.Run()

	s2 := ordering.New(g)
	s2.Run()

	require.Equal(t, s1.GetSortedSymbolIndexes(), s2.GetSortedSymbolIndexes())
}

func TestSorterDedupsRepeatedNamedReferences(t *testing.T) {
	g := symgraph.NewGraph()
	shared := &symgraph.Symbol{TypeID: 1, Kind: symgraph.KindUDT, Name: "Shared", Size: 1, UDTKind: symgraph.UDTStruct}
	a := &symgraph.Symbol{TypeID: 2, Kind: symgraph.KindUDT, Name: "A", Size: 1, UDTKind: symgraph.UDTStruct}
	b := &symgraph.Symbol{TypeID: 3, Kind: symgraph.KindUDT, Name: "B", Size: 1, UDTKind: symgraph.UDTStruct}
	a.Fields = []*symgraph.Field{{Name: "s", Type: shared}}
	b.Fields = []*symgraph.Field{{Name: "s", Type: shared}}

	g.Register(shared)
	g.Register(a)
	g.Register(b)

	s := ordering.New(g)
	s.Run()

	require.Equal(t, []uint64{1, 2, 3}, s.GetSortedSymbolIndexes())
}
