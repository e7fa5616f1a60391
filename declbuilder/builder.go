// Package declbuilder accumulates the C declarator fragments the traversal
// controller produces while descending a field's type chain, grounded on
// original_source/Source/UdtFieldDefinition.cpp and UdtFieldDefinitionBase.h.
package declbuilder

import (
	"fmt"
	"strings"

	"github.com/pdbex/pdbex/symgraph"
)

// functionFrame is one entry of the nested-function-pointer declarator
// stack: the member name and accumulated argument list saved when
// descending into a function type's arguments/return type.
type functionFrame struct {
	memberName string
	args       []string
}

// Builder assembles typePrefix/memberName/typeSuffix/comment while a caller
// drives it through the Visit* hooks during a single field's type-chain
// descent. It implements no traversal itself — the traversal controller in
// package reconstruct calls these methods in the right order.
type Builder struct {
	typePrefix string
	memberName string
	typeSuffix string
	comment    string

	functionStack []functionFrame
	args          []string
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// SetMemberName seeds the identifier the declarator is being built for.
func (b *Builder) SetMemberName(name string) {
	b.memberName = name
}

func (b *Builder) prependQualifiers(sym *symgraph.Symbol) string {
	var sb strings.Builder
	if sym.IsConst {
		sb.WriteString("const ")
	}
	if sym.IsVolatile {
		sb.WriteString("volatile ")
	}
	return sb.String()
}

// VisitBase appends const/volatile then the basic-type spelling to the type
// prefix. A 10-byte (80-bit) float gets a trailing comment, matching the
// original's treatment of the x87 extended type.
func (b *Builder) VisitBase(sym *symgraph.Symbol) {
	b.typePrefix += b.prependQualifiers(sym) + symgraph.GetBasicTypeString(sym.BasicType, sym.Size)
	if sym.BasicType == symgraph.BasicFloat && sym.Size == 10 {
		b.comment = " /* 80-bit float */"
	}
}

// VisitEnum and VisitUdt append const/volatile then the symbol's own name,
// used when the type is referenced rather than expanded inline.
func (b *Builder) VisitEnum(sym *symgraph.Symbol) {
	b.typePrefix += b.prependQualifiers(sym) + sym.Name
}

func (b *Builder) VisitUdt(sym *symgraph.Symbol) {
	b.typePrefix += b.prependQualifiers(sym) + sym.Name
}

// VisitTypedefEnd swaps the accumulated prefix into a suffix after "=" and
// resets the prefix to "using", so the final declaration reads
// "using NAME = TYPE;".
func (b *Builder) VisitTypedefEnd(sym *symgraph.Symbol) {
	b.typeSuffix = " = " + b.typePrefix
	b.typePrefix = "using"
}

// VisitPointerEnd wraps memberName in "(* memberName)" ("(& memberName)" for
// references) when the pointee is a function type, so the resulting
// declarator reads like "int (*f)(void)"; otherwise it prepends "*"/"&" plus
// the pointer's own qualifiers to memberName, giving "int *p".
func (b *Builder) VisitPointerEnd(sym *symgraph.Symbol) {
	sigil := "*"
	if sym.IsReference {
		sigil = "&"
	}

	pointee := sym.Referenced
	if pointee != nil && pointee.Kind == symgraph.KindFunction {
		qual := strings.TrimRight(b.prependQualifiers(sym), " ")
		name := sigil + b.memberName
		if qual != "" {
			name = sigil + qual + " " + b.memberName
		}
		b.memberName = "(" + name + ")"
		return
	}

	b.memberName = sigil + b.prependQualifiers(sym) + b.memberName
}

// VisitArrayEnd appends "[N]", or "[]" when the element count is unknown
// (count == 0); callers computing padding gaps should then treat the
// element type's own size as the unit, matching the original's comment
// about forcing size 1 for unbounded arrays.
func (b *Builder) VisitArrayEnd(sym *symgraph.Symbol, count uint64) {
	if count == 0 {
		b.typeSuffix += "[]"
		return
	}
	b.typeSuffix += fmt.Sprintf("[%d]", count)
}

// VisitFunctionBegin pushes the current (memberName, args) as a frame and
// resets them, so that descending into the function's arguments and return
// type doesn't clobber the enclosing declarator — this is what lets
// function-pointer declarators nest.
func (b *Builder) VisitFunctionBegin() {
	b.functionStack = append(b.functionStack, functionFrame{memberName: b.memberName, args: b.args})
	b.memberName = ""
	b.args = nil
}

// VisitFunctionEnd builds "(arg, arg, ...)" from the accumulated argument
// fragments, applies the static/virtual/const/override/pure-virtual
// decorations, and pops the function frame, restoring the enclosing
// declarator's memberName and args.
func (b *Builder) VisitFunctionEnd(sym *symgraph.Symbol) {
	if sym.IsStatic {
		b.typePrefix = "static " + b.typePrefix + " " + sym.CallingConvention.String()
	} else if sym.IsVirtual {
		b.typePrefix = "virtual " + b.typePrefix
	}

	if sym.IsConstMethod {
		b.comment += " const"
	}
	if sym.IsOverride {
		b.comment += " override"
	}
	if sym.IsPure {
		b.comment += " = 0"
	}
	if sym.IsVirtual {
		b.comment += fmt.Sprintf(" /* 0x%x */", sym.VirtualOffset)
	}

	// A function-pointer return type nests its own suffix; collapse what we
	// have into the prefix before rebuilding the argument-list suffix, the
	// same "flatten before reuse" step UdtFieldDefinition::VisitFunctionEnd
	// performs. Only typeSuffix resets here — comment and memberName carry
	// through untouched, matching the original.
	if b.typeSuffix != "" {
		b.typePrefix = b.PrintableDefinition()
		b.typeSuffix = ""
	}

	b.typeSuffix = "(" + strings.Join(b.args, ", ") + ")"

	if n := len(b.functionStack); n > 0 {
		frame := b.functionStack[n-1]
		b.functionStack = b.functionStack[:n-1]
		b.memberName = frame.memberName
		b.args = frame.args
	}
}

// VisitFunctionArgEnd pushes the completed fragment for one argument onto
// the enclosing function frame's argument list and resets prefix/suffix for
// the next argument.
func (b *Builder) VisitFunctionArgEnd() {
	b.args = append(b.args, b.PrintableDefinition())
	b.typePrefix = ""
	b.typeSuffix = ""
	b.comment = ""
}

// PrintableDefinition concatenates typePrefix, a separating space if
// non-empty, memberName, typeSuffix and comment into the single printable
// declaration line the reconstructor writes out.
func (b *Builder) PrintableDefinition() string {
	var sb strings.Builder
	sb.WriteString(b.typePrefix)
	if b.typePrefix != "" && b.memberName != "" {
		sb.WriteString(" ")
	}
	sb.WriteString(b.memberName)
	sb.WriteString(b.typeSuffix)
	sb.WriteString(b.comment)
	return sb.String()
}
