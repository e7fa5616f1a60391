// Package visit implements the base symbol-graph dispatch and field
// iteration every traversal in this repository builds on, grounded on
// original_source/Source/PDBSymbolVisitorBase.h.
package visit

import "github.com/pdbex/pdbex/symgraph"

// Visitor receives one callback per declarator shape encountered while
// walking a Symbol and its fields. Embed BaseVisitor to get the default
// recursive behavior and override only the hooks a concrete visitor cares
// about.
type Visitor interface {
	VisitBase(sym *symgraph.Symbol)
	VisitEnum(sym *symgraph.Symbol)
	VisitEnumField(field symgraph.EnumField)
	VisitTypedef(sym *symgraph.Symbol)
	VisitPointer(sym *symgraph.Symbol)
	VisitArray(sym *symgraph.Symbol)
	VisitFunction(sym *symgraph.Symbol)
	VisitFunctionArg(sym *symgraph.Symbol)
	VisitUdt(sym *symgraph.Symbol)
	VisitUdtFieldBegin(field *symgraph.Field)
	VisitUdtField(field *symgraph.Field)
	VisitUdtFieldEnd(field *symgraph.Field)
	VisitUdtFieldBitFieldBegin(first, last *symgraph.Field)
	VisitUdtFieldBitField(field *symgraph.Field)
	VisitUdtFieldBitFieldEnd(first, last *symgraph.Field)
	VisitOther(sym *symgraph.Symbol)
}

// Visit dispatches sym to the matching hook on v, the switch on sym.Kind
// grounded on PDBSymbolVisitorBase::Visit.
func Visit(v Visitor, sym *symgraph.Symbol) {
	if sym == nil {
		return
	}
	switch sym.Kind {
	case symgraph.KindBase:
		v.VisitBase(sym)
	case symgraph.KindEnum:
		v.VisitEnum(sym)
	case symgraph.KindTypedef:
		v.VisitTypedef(sym)
	case symgraph.KindPointer:
		v.VisitPointer(sym)
	case symgraph.KindArray:
		v.VisitArray(sym)
	case symgraph.KindFunction:
		v.VisitFunction(sym)
	case symgraph.KindFunctionArg:
		v.VisitFunctionArg(sym)
	case symgraph.KindUDT:
		v.VisitUdt(sym)
	default:
		v.VisitOther(sym)
	}
}

// BaseVisitor is the default, stateless implementation every concrete
// visitor embeds. Its default bodies recurse the way
// PDBSymbolVisitorBase.h's default methods do: typedef/pointer/array/
// function-arg visit their referenced type, enum iterates its fields, udt
// iterates its fields grouping contiguous bitfield runs.
//
// BaseVisitor calls back into Self so that an embedding visitor's overrides
// are still reached during the default recursion (Go has no virtual dispatch
// through embedding the way C++ does through inheritance).
type BaseVisitor struct {
	// Self must be set to the outermost Visitor (typically the embedder
	// itself) before use, so default recursion re-enters overridden hooks
	// instead of BaseVisitor's own no-ops.
	Self Visitor
}

func (b *BaseVisitor) self() Visitor {
	if b.Self != nil {
		return b.Self
	}
	return b
}

func (b *BaseVisitor) VisitBase(sym *symgraph.Symbol) {}

func (b *BaseVisitor) VisitEnum(sym *symgraph.Symbol) {
	if sym == nil {
		return
	}
	for _, f := range sym.EnumFields {
		b.self().VisitEnumField(f)
	}
}

func (b *BaseVisitor) VisitEnumField(field symgraph.EnumField) {}

func (b *BaseVisitor) VisitTypedef(sym *symgraph.Symbol) {
	if sym != nil {
		Visit(b.self(), sym.Referenced)
	}
}

func (b *BaseVisitor) VisitPointer(sym *symgraph.Symbol) {
	if sym != nil {
		Visit(b.self(), sym.Referenced)
	}
}

func (b *BaseVisitor) VisitArray(sym *symgraph.Symbol) {
	if sym != nil {
		Visit(b.self(), sym.Referenced)
	}
}

func (b *BaseVisitor) VisitFunction(sym *symgraph.Symbol) {
	if sym == nil {
		return
	}
	for _, arg := range sym.Arguments {
		Visit(b.self(), arg)
	}
	Visit(b.self(), sym.ReturnType)
}

func (b *BaseVisitor) VisitFunctionArg(sym *symgraph.Symbol) {
	if sym != nil {
		Visit(b.self(), sym.ArgType)
	}
}

// VisitUdt iterates sym's fields in declaration order, grouping contiguous
// bitfield members into one BitFieldBegin/.../BitFieldEnd bracket. A run
// ends at the first subsequent field with BitPosition == 0, matching
// spec.md §4.1.
func (b *BaseVisitor) VisitUdt(sym *symgraph.Symbol) {
	if sym == nil {
		return
	}
	self := b.self()
	fields := sym.Fields
	i := 0
	for i < len(fields) {
		f := fields[i]
		if f.Bits == 0 {
			self.VisitUdtFieldBegin(f)
			self.VisitUdtField(f)
			self.VisitUdtFieldEnd(f)
			i++
			continue
		}

		// Start of a bitfield run: collect contiguous bits>0 members,
		// stopping before the first one whose BitPosition==0 (that field
		// starts a new run, or is a plain field).
		first := f
		j := i
		for j < len(fields) {
			cur := fields[j]
			if cur.Bits == 0 {
				break
			}
			if j > i && cur.BitPosition == 0 {
				break
			}
			j++
		}
		last := fields[j-1]
		self.VisitUdtFieldBitFieldBegin(first, last)
		for k := i; k < j; k++ {
			self.VisitUdtFieldBitField(fields[k])
		}
		self.VisitUdtFieldBitFieldEnd(first, last)
		i = j
	}
}

func (b *BaseVisitor) VisitUdtFieldBegin(field *symgraph.Field) {}
func (b *BaseVisitor) VisitUdtField(field *symgraph.Field)      {}
func (b *BaseVisitor) VisitUdtFieldEnd(field *symgraph.Field)   {}

func (b *BaseVisitor) VisitUdtFieldBitFieldBegin(first, last *symgraph.Field) {}

// VisitUdtFieldBitField defaults to treating the bitfield member as a plain
// field, matching PDBSymbolVisitorBase::VisitUdtFieldBitField.
func (b *BaseVisitor) VisitUdtFieldBitField(field *symgraph.Field) {
	b.self().VisitUdtField(field)
}

func (b *BaseVisitor) VisitUdtFieldBitFieldEnd(first, last *symgraph.Field) {}

func (b *BaseVisitor) VisitOther(sym *symgraph.Symbol) {}
