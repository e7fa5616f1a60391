package visit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdbex/pdbex/symgraph"
	"github.com/pdbex/pdbex/visit"
)

type recordingVisitor struct {
	visit.BaseVisitor
	events []string
}

func newRecordingVisitor() *recordingVisitor {
	v := &recordingVisitor{}
	v.Self = v
	return v
}

func (v *recordingVisitor) VisitUdtFieldBegin(f *symgraph.Field) {
	v.events = append(v.events, "begin:"+f.Name)
}

func (v *recordingVisitor) VisitUdtField(f *symgraph.Field) {
	v.events = append(v.events, "field:"+f.Name)
}

func (v *recordingVisitor) VisitUdtFieldEnd(f *symgraph.Field) {
	v.events = append(v.events, "end:"+f.Name)
}

func (v *recordingVisitor) VisitUdtFieldBitFieldBegin(first, last *symgraph.Field) {
	v.events = append(v.events, "bfbegin:"+first.Name+".."+last.Name)
}

func (v *recordingVisitor) VisitUdtFieldBitFieldEnd(first, last *symgraph.Field) {
	v.events = append(v.events, "bfend:"+first.Name+".."+last.Name)
}

func TestVisitUdtGroupsContiguousBitfieldRuns(t *testing.T) {
	udt := &symgraph.Symbol{Kind: symgraph.KindUDT, Name: "Flags"}
	fields := []*symgraph.Field{
		{Name: "plain1"},
		{Name: "a", Bits: 3, BitPosition: 0},
		{Name: "b", Bits: 4, BitPosition: 3},
		{Name: "c", Bits: 1, BitPosition: 0}, // BitPosition==0 starts a new run
		{Name: "plain2"},
	}
	udt.Fields = fields

	v := newRecordingVisitor()
	visit.Visit(v, udt)

	require.Equal(t, []string{
		"begin:plain1", "field:plain1", "end:plain1",
		"bfbegin:a..b",
		"field:a", "field:b",
		"bfend:a..b",
		"bfbegin:c..c",
		"field:c",
		"bfend:c..c",
		"begin:plain2", "field:plain2", "end:plain2",
	}, v.events)
}

func TestVisitEnumIteratesFieldsInOrder(t *testing.T) {
	enum := &symgraph.Symbol{
		Kind: symgraph.KindEnum,
		Name: "E",
		EnumFields: []symgraph.EnumField{
			{Name: "Zero", Value: 0},
			{Name: "One", Value: 1},
			{Name: "Two", Value: 2},
		},
	}
	var seen []string
	v := newRecordingVisitorEnum(&seen)
	visit.Visit(v, enum)
	require.Equal(t, []string{"Zero", "One", "Two"}, seen)
}

type enumVisitor struct {
	visit.BaseVisitor
	seen *[]string
}

func newRecordingVisitorEnum(seen *[]string) *enumVisitor {
	v := &enumVisitor{seen: seen}
	v.Self = v
	return v
}

func (v *enumVisitor) VisitEnumField(f symgraph.EnumField) {
	*v.seen = append(*v.seen, f.Name)
}

func TestVisitPointerRecursesIntoReferenced(t *testing.T) {
	base := &symgraph.Symbol{Kind: symgraph.KindBase, Name: "int", BasicType: symgraph.BasicInt, Size: 4}
	ptr := &symgraph.Symbol{Kind: symgraph.KindPointer, Referenced: base, Size: 8}

	var hitBase bool
	v := &funcVisitor{onBase: func(s *symgraph.Symbol) { hitBase = s == base }}
	v.Self = v
	visit.Visit(v, ptr)
	require.True(t, hitBase)
}

type funcVisitor struct {
	visit.BaseVisitor
	onBase func(*symgraph.Symbol)
}

func (v *funcVisitor) VisitBase(sym *symgraph.Symbol) {
	if v.onBase != nil {
		v.onBase(sym)
	}
}
