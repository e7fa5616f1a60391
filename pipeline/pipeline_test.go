package pipeline_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdbex/pdbex/ordering"
	"github.com/pdbex/pdbex/pipeline"
	"github.com/pdbex/pdbex/reconstruct"
	"github.com/pdbex/pdbex/symgraph"
)

func TestRunEmitsEveryNamedTopLevelSymbolOnce(t *testing.T) {
	graph := symgraph.NewGraph()

	intT := &symgraph.Symbol{Kind: symgraph.KindBase, BasicType: symgraph.BasicInt, Size: 4}
	a := &symgraph.Symbol{
		TypeID: 1, Kind: symgraph.KindUDT, Name: "A", Size: 4, UDTKind: symgraph.UDTStruct,
		Fields: []*symgraph.Field{{DataKind: symgraph.DataKindMember, Name: "x", Type: intT, Offset: 0}},
	}
	ptrToA := &symgraph.Symbol{TypeID: 2, Kind: symgraph.KindPointer, Referenced: a, Size: 8}
	b := &symgraph.Symbol{
		TypeID: 3, Kind: symgraph.KindUDT, Name: "B", Size: 8, UDTKind: symgraph.UDTStruct,
		Fields: []*symgraph.Field{{DataKind: symgraph.DataKindMember, Name: "a", Type: ptrToA, Offset: 0}},
	}

	graph.Register(a)
	graph.Register(ptrToA)
	graph.Register(b)

	var buf bytes.Buffer
	settings := reconstruct.DefaultSettings(&buf)

	arch, err := pipeline.Run(graph, pipeline.Options{Settings: settings})
	require.NoError(t, err)
	require.Equal(t, ordering.ArchX64, arch)

	out := buf.String()
	require.Contains(t, out, "struct A")
	require.Contains(t, out, "struct B")
	require.Contains(t, out, "A *a;")
	require.Equal(t, 1, strings.Count(out, "struct A"))
	require.Equal(t, 1, strings.Count(out, "struct B"))
}

func TestRunSkipsAnonymousTopLevelUDTs(t *testing.T) {
	graph := symgraph.NewGraph()
	anon := &symgraph.Symbol{TypeID: 1, Kind: symgraph.KindUDT, Name: "<unnamed-tag-0x1>", Size: 4, UDTKind: symgraph.UDTStruct}
	graph.Register(anon)

	var buf bytes.Buffer
	settings := reconstruct.DefaultSettings(&buf)

	_, err := pipeline.Run(graph, pipeline.Options{Settings: settings})
	require.NoError(t, err)
	require.Empty(t, buf.String())
}

func TestWriteFunctionNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, pipeline.WriteFunctionNames(&buf, []string{"DoThing", "?Run@Worker@@QEAAXXZ"}))
	out := buf.String()
	require.Contains(t, out, "DoThing")
	require.Contains(t, out, "?Run@Worker@@QEAAXXZ")
}

func TestWriteFunctionNamesNoopOnEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, pipeline.WriteFunctionNames(&buf, nil))
	require.Empty(t, buf.String())
}
