package reconstruct_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pdbex/pdbex/reconstruct"
	"github.com/pdbex/pdbex/symgraph"
)

func runHeader(t *testing.T, sym *symgraph.Symbol) string {
	t.Helper()
	var buf bytes.Buffer
	settings := reconstruct.DefaultSettings(&buf)
	ctrl := reconstruct.NewController(reconstruct.NewHeaderReconstructor(settings), settings)
	ctrl.Run(sym)
	return buf.String()
}

// S1: struct with a byte padding gap between two non-bitfield members.
func TestHeaderStructWithPadding(t *testing.T) {
	charT := &symgraph.Symbol{Kind: symgraph.KindBase, BasicType: symgraph.BasicChar, Size: 1}
	intT := &symgraph.Symbol{Kind: symgraph.KindBase, BasicType: symgraph.BasicInt, Size: 4}

	foo := &symgraph.Symbol{
		TypeID: 1, Kind: symgraph.KindUDT, Name: "Foo", Size: 8, UDTKind: symgraph.UDTStruct,
		Fields: []*symgraph.Field{
			{DataKind: symgraph.DataKindMember, Name: "a", Type: charT, Offset: 0},
			{DataKind: symgraph.DataKindMember, Name: "b", Type: intT, Offset: 4},
		},
	}

	out := runHeader(t, foo)
	require.Contains(t, out, "struct Foo")
	require.Contains(t, out, "char Padding_0[3];")
	require.Contains(t, out, "/* 0x0000 */ char a;")
	require.Contains(t, out, "/* 0x0004 */ int b;")
	require.Contains(t, out, "/* size: 0x0008 */")
}

// S2: anonymous union of two same-offset 4-byte fields.
func TestHeaderAnonymousUnion(t *testing.T) {
	intT := &symgraph.Symbol{Kind: symgraph.KindBase, BasicType: symgraph.BasicInt, Size: 4}
	floatT := &symgraph.Symbol{Kind: symgraph.KindBase, BasicType: symgraph.BasicFloat, Size: 4}

	u := &symgraph.Symbol{
		TypeID: 1, Kind: symgraph.KindUDT, Name: "U", Size: 4, UDTKind: symgraph.UDTStruct,
		Fields: []*symgraph.Field{
			{DataKind: symgraph.DataKindMember, Name: "x", Type: intT, Offset: 0},
			{DataKind: symgraph.DataKindMember, Name: "y", Type: floatT, Offset: 0},
		},
	}

	out := runHeader(t, u)
	require.Contains(t, out, "union")
	require.Contains(t, out, "int x;")
	require.Contains(t, out, "float y;")
	require.Contains(t, out, "} ; /* size: 0x0004 */")
}

// S3: bitfield run with a leading padding bit.
func TestHeaderBitfieldLeadingPadding(t *testing.T) {
	uintT := &symgraph.Symbol{Kind: symgraph.KindBase, BasicType: symgraph.BasicUInt, Size: 4}

	flags := &symgraph.Symbol{
		TypeID: 1, Kind: symgraph.KindUDT, Name: "Flags", Size: 4, UDTKind: symgraph.UDTStruct,
		Fields: []*symgraph.Field{
			{DataKind: symgraph.DataKindMember, Name: "a", Type: uintT, Offset: 0, Bits: 3, BitPosition: 1},
			{DataKind: symgraph.DataKindMember, Name: "b", Type: uintT, Offset: 0, Bits: 4, BitPosition: 4},
		},
	}

	out := runHeader(t, flags)
	require.Contains(t, out, "unsigned int : 1; /* 0 */")
	require.Contains(t, out, "unsigned int a : 3; /* 1 */")
	require.Contains(t, out, "unsigned int b : 4; /* 4 */")

	// AllowBitFieldsInUnion defaults to false, so a run of more than one
	// bit-packed member wraps in a nested struct block.
	require.Contains(t, out, "struct /* bitfield */")
	require.Contains(t, out, "}; /* bitfield */")

	bitfieldOpen := strings.Index(out, "struct /* bitfield */")
	bitfieldClose := strings.Index(out, "}; /* bitfield */")
	aPos := strings.Index(out, "unsigned int a : 3")
	bPos := strings.Index(out, "unsigned int b : 4")
	require.True(t, bitfieldOpen < aPos && aPos < bPos && bPos < bitfieldClose,
		"expected both bitfield members nested inside the wrapper struct, got:\n%s", out)
}

// TestHeaderBitfieldAllowedInUnionSkipsWrapper confirms AllowBitFieldsInUnion
// suppresses the nested-struct wrapper entirely.
func TestHeaderBitfieldAllowedInUnionSkipsWrapper(t *testing.T) {
	uintT := &symgraph.Symbol{Kind: symgraph.KindBase, BasicType: symgraph.BasicUInt, Size: 4}

	flags := &symgraph.Symbol{
		TypeID: 1, Kind: symgraph.KindUDT, Name: "Flags", Size: 4, UDTKind: symgraph.UDTStruct,
		Fields: []*symgraph.Field{
			{DataKind: symgraph.DataKindMember, Name: "a", Type: uintT, Offset: 0, Bits: 3, BitPosition: 1},
			{DataKind: symgraph.DataKindMember, Name: "b", Type: uintT, Offset: 0, Bits: 4, BitPosition: 4},
		},
	}

	var buf bytes.Buffer
	settings := reconstruct.DefaultSettings(&buf)
	settings.AllowBitFieldsInUnion = true
	h := reconstruct.NewHeaderReconstructor(settings)
	reconstruct.NewController(h, settings).Run(flags)

	out := buf.String()
	require.NotContains(t, out, "bitfield")
}

// S4: class with a public base class and an access-labeled member.
func TestHeaderClassWithBase(t *testing.T) {
	b := &symgraph.Symbol{TypeID: 1, Kind: symgraph.KindUDT, Name: "B", Size: 4, UDTKind: symgraph.UDTClass}
	intT := &symgraph.Symbol{Kind: symgraph.KindBase, BasicType: symgraph.BasicInt, Size: 4}

	d := &symgraph.Symbol{
		TypeID: 2, Kind: symgraph.KindUDT, Name: "D", Size: 8, UDTKind: symgraph.UDTClass,
		BaseClasses: []symgraph.BaseClass{{Type: b, Access: symgraph.AccessPublic}},
		Fields: []*symgraph.Field{
			{DataKind: symgraph.DataKindMember, Name: "m", Type: intT, Offset: 4, Access: symgraph.AccessPublic},
		},
	}

	out := runHeader(t, d)
	require.Contains(t, out, "class D : public B")
	require.Contains(t, out, "public:")
	require.Contains(t, out, "/* 0x0004 */ int m;")
	require.Contains(t, out, "/* size: 0x0008 */")
	require.NotContains(t, out, "Padding_")
}

// S5: plain enum emission.
func TestHeaderEnumEmission(t *testing.T) {
	e := &symgraph.Symbol{TypeID: 1, Kind: symgraph.KindEnum, Name: "E", Size: 4}
	e.EnumFields = []symgraph.EnumField{
		{Name: "Zero", Value: 0, Parent: e},
		{Name: "One", Value: 1, Parent: e},
		{Name: "Two", Value: 2, Parent: e},
	}

	out := runHeader(t, e)
	require.Contains(t, out, "enum E")
	require.Contains(t, out, "Zero = 0x0,")
	require.Contains(t, out, "One = 0x1,")
	require.Contains(t, out, "Two = 0x2,")
	require.Contains(t, out, "};")
}

// S6: self-referential pointer must not recurse infinitely, and the pointee
// is referenced by name rather than expanded.
func TestHeaderSelfReferentialPointerDoesNotRecurse(t *testing.T) {
	node := &symgraph.Symbol{TypeID: 1, Kind: symgraph.KindUDT, Name: "Node", Size: 8, UDTKind: symgraph.UDTStruct}
	ptr := &symgraph.Symbol{Kind: symgraph.KindPointer, Referenced: node, Size: 8}
	node.Fields = []*symgraph.Field{
		{DataKind: symgraph.DataKindMember, Name: "next", Type: ptr, Offset: 0},
	}

	done := make(chan string, 1)
	go func() {
		done <- runHeader(t, node)
	}()

	select {
	case out := <-done:
		require.Contains(t, out, "struct Node")
		require.Contains(t, out, "Node *next;")
	case <-time.After(2 * time.Second):
		t.Fatal("reconstruction of a self-referential type did not terminate")
	}
}

// A static data member renders with a "static " keyword and no offset
// comment, unlike an instance member of the same type.
func TestHeaderStaticMemberGetsStaticKeyword(t *testing.T) {
	intT := &symgraph.Symbol{Kind: symgraph.KindBase, BasicType: symgraph.BasicInt, Size: 4}

	counter := &symgraph.Symbol{
		TypeID: 1, Kind: symgraph.KindUDT, Name: "Counter", Size: 4, UDTKind: symgraph.UDTStruct,
		Fields: []*symgraph.Field{
			{DataKind: symgraph.DataKindMember, Name: "value", Type: intT, Offset: 0},
			{DataKind: symgraph.DataKindStaticMember, Name: "instances", Type: intT},
		},
	}

	out := runHeader(t, counter)
	require.Contains(t, out, "/* 0x0000 */ int value;")
	require.Contains(t, out, "static int instances;")
	require.NotContains(t, out, "/* 0x0000 */ static int instances;")
}
