package declbuilder_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdbex/pdbex/declbuilder"
	"github.com/pdbex/pdbex/symgraph"
)

func TestBuilderPlainBaseTypeField(t *testing.T) {
	b := declbuilder.New()
	b.SetMemberName("a")
	b.VisitBase(&symgraph.Symbol{Kind: symgraph.KindBase, BasicType: symgraph.BasicChar, Size: 1})
	require.Equal(t, "char a", b.PrintableDefinition())
}

func TestBuilderLongDoubleGetsComment(t *testing.T) {
	b := declbuilder.New()
	b.SetMemberName("ld")
	b.VisitBase(&symgraph.Symbol{Kind: symgraph.KindBase, BasicType: symgraph.BasicFloat, Size: 10})
	require.Equal(t, "long double ld /* 80-bit float */", b.PrintableDefinition())
}

func TestBuilderPointerToBase(t *testing.T) {
	b := declbuilder.New()
	b.SetMemberName("p")
	b.VisitBase(&symgraph.Symbol{Kind: symgraph.KindBase, BasicType: symgraph.BasicInt, Size: 4})
	b.VisitPointerEnd(&symgraph.Symbol{Kind: symgraph.KindPointer, Referenced: &symgraph.Symbol{Kind: symgraph.KindBase}})
	require.Equal(t, "int *p", b.PrintableDefinition())
}

func TestBuilderArrayOfBase(t *testing.T) {
	b := declbuilder.New()
	b.SetMemberName("arr")
	b.VisitBase(&symgraph.Symbol{Kind: symgraph.KindBase, BasicType: symgraph.BasicInt, Size: 4})
	b.VisitArrayEnd(&symgraph.Symbol{Kind: symgraph.KindArray}, 10)
	require.Equal(t, "int arr[10]", b.PrintableDefinition())
}

func TestBuilderFunctionPointerDeclarator(t *testing.T) {
	b := declbuilder.New()
	b.SetMemberName("f")

	fnType := &symgraph.Symbol{
		Kind:              symgraph.KindFunction,
		CallingConvention: symgraph.CallCdecl,
		ReturnType:        &symgraph.Symbol{Kind: symgraph.KindBase, BasicType: symgraph.BasicVoid},
	}
	ptrType := &symgraph.Symbol{Kind: symgraph.KindPointer, Referenced: fnType}

	// Traversal order: function-pointer field -> pointer wraps name first in
	// this builder's API shape: visit return type, end function, then end
	// pointer (matching the declarator composing outside-in).
	b.VisitFunctionBegin()
	b.VisitBase(fnType.ReturnType)
	b.VisitFunctionEnd(fnType)
	b.VisitPointerEnd(ptrType)

	require.Contains(t, b.PrintableDefinition(), "(*f)")
}

// TestBuilderFunctionPointerReturningFunctionKeepsDecorations exercises a
// virtual const method returning a pointer to function. Flattening the
// nested function-pointer return type into typePrefix must not drop the
// const/override/pure-virtual decorations accumulated on the outer method.
func TestBuilderFunctionPointerReturningFunctionKeepsDecorations(t *testing.T) {
	b := declbuilder.New()
	b.SetMemberName("m")

	innerFn := &symgraph.Symbol{
		Kind:              symgraph.KindFunction,
		CallingConvention: symgraph.CallCdecl,
		ReturnType:        &symgraph.Symbol{Kind: symgraph.KindBase, BasicType: symgraph.BasicInt},
	}
	innerPtr := &symgraph.Symbol{Kind: symgraph.KindPointer, Referenced: innerFn}

	outer := &symgraph.Symbol{
		Kind:          symgraph.KindFunction,
		IsVirtual:     true,
		IsConstMethod: true,
		IsOverride:    true,
		VirtualOffset: 8,
	}

	b.VisitFunctionBegin()
	b.VisitFunctionBegin()
	b.VisitBase(innerFn.ReturnType)
	b.VisitFunctionEnd(innerFn)
	b.VisitPointerEnd(innerPtr)
	b.VisitFunctionEnd(outer)

	def := b.PrintableDefinition()
	require.Contains(t, def, "m")
	require.Contains(t, def, "(*)")
	require.Contains(t, def, "const")
	require.Contains(t, def, "override")
}

func TestBuilderTypedefSwapsToUsing(t *testing.T) {
	b := declbuilder.New()
	b.SetMemberName("MyInt")
	b.VisitBase(&symgraph.Symbol{Kind: symgraph.KindBase, BasicType: symgraph.BasicInt, Size: 4})
	b.VisitTypedefEnd(&symgraph.Symbol{Kind: symgraph.KindTypedef})
	require.Equal(t, "using MyInt = int", b.PrintableDefinition())
}
