package reconstruct

import (
	"fmt"
	"strings"

	"github.com/pdbex/pdbex/symgraph"
)

// HeaderReconstructor is the concrete Hooks implementation that writes a C
// header. Grounded on original_source/Source/PDBHeaderReconstructor.cpp/.h:
// the access-label stack, the per-body padding counters and the
// expanded-nested-type naming are all lifted from that writer's structure,
// adapted to Go's explicit-hooks shape instead of virtual overrides.
type HeaderReconstructor struct {
	settings Settings

	indent int
	depth  int

	accessStack         []symgraph.Access
	fieldStack          []*symgraph.Field
	expandField         []*symgraph.Field
	baseOffsetStack     []uint64
	paddingCounters     []int
	bitfieldPadCounters []int
	anonUnionCounters   []int
	anonStructCounters  []int

	suppressFieldEmit *symgraph.Field
	correctedNames    map[*symgraph.Symbol]string
	emittedTop        map[string]bool
}

// NewHeaderReconstructor returns a HeaderReconstructor writing to settings.Output.
func NewHeaderReconstructor(settings Settings) *HeaderReconstructor {
	return &HeaderReconstructor{
		settings:       settings,
		correctedNames: make(map[*symgraph.Symbol]string),
		emittedTop:     make(map[string]bool),
	}
}

func (h *HeaderReconstructor) writeIndent() {
	fmt.Fprint(h.settings.Output, strings.Repeat("    ", h.indent))
}

func (h *HeaderReconstructor) correctedName(sym *symgraph.Symbol) string {
	if name, ok := h.correctedNames[sym]; ok {
		return name
	}
	name := ""
	if !sym.IsUnnamed() {
		name = h.settings.SymbolPrefix + sym.Name + h.settings.SymbolSuffix
	}
	h.correctedNames[sym] = name
	return name
}

// absOffset resolves field's offset into the outermost emitted UDT's frame,
// per spec.md §4.3's "sum of parent offsets on the entry stack" rule.
func (h *HeaderReconstructor) absOffset(localOffset uint64) uint64 {
	if n := len(h.baseOffsetStack); n > 0 {
		return h.baseOffsetStack[n-1] + localOffset
	}
	return localOffset
}

func defaultAccessFor(kind symgraph.UDTKind) symgraph.Access {
	if kind == symgraph.UDTClass {
		return symgraph.AccessPrivate
	}
	return symgraph.AccessPublic
}

func (h *HeaderReconstructor) maybeEmitAccessLabel(access symgraph.Access) {
	if access == symgraph.AccessNone || len(h.accessStack) == 0 {
		return
	}
	top := len(h.accessStack) - 1
	if h.accessStack[top] == access {
		return
	}
	h.accessStack[top] = access
	h.indent--
	h.writeIndent()
	h.indent++
	fmt.Fprintf(h.settings.Output, "%s:\n", access.String())
}

func (h *HeaderReconstructor) baseClassList(sym *symgraph.Symbol) string {
	if len(sym.BaseClasses) == 0 {
		return ""
	}
	parts := make([]string, 0, len(sym.BaseClasses))
	for _, bc := range sym.BaseClasses {
		s := ""
		if bc.Access != symgraph.AccessNone {
			s += bc.Access.String() + " "
		}
		if bc.IsVirtual {
			s += "virtual "
		}
		name := "<unknown>"
		if bc.Type != nil {
			name = h.correctedName(bc.Type)
		}
		parts = append(parts, s+name)
	}
	return " : " + strings.Join(parts, ", ")
}

// OnEnumType decides whether a named enum, already emitted once this pass,
// should be skipped on a later reference.
func (h *HeaderReconstructor) OnEnumType(sym *symgraph.Symbol) bool {
	if sym.IsUnnamed() {
		return true
	}
	return !h.emittedTop["enum:"+h.correctedName(sym)]
}

func (h *HeaderReconstructor) OnEnumTypeBegin(sym *symgraph.Symbol) {
	h.writeIndent()
	fmt.Fprintf(h.settings.Output, "enum %s\n", h.correctedName(sym))
	h.writeIndent()
	fmt.Fprintln(h.settings.Output, "{")
	h.indent++
}

func (h *HeaderReconstructor) OnEnumTypeEnd(sym *symgraph.Symbol) {
	h.indent--
	h.writeIndent()
	fmt.Fprintln(h.settings.Output, "};")
	fmt.Fprintln(h.settings.Output)
	if !sym.IsUnnamed() {
		h.emittedTop["enum:"+h.correctedName(sym)] = true
	}
}

// OnEnumField renders one enumerator. Every 4-byte enumerator, signed or
// not, renders as hex, matching the PDB producer's own convention for enum
// constants of that width; narrower or wider signed enumerators render as
// plain decimal.
func (h *HeaderReconstructor) OnEnumField(field symgraph.EnumField) {
	underlyingSize := uint64(4)
	if field.Parent != nil && field.Parent.EnumUnderlying != nil {
		underlyingSize = field.Parent.EnumUnderlying.Size
	}
	h.writeIndent()
	if !field.Signed || underlyingSize == 4 {
		fmt.Fprintf(h.settings.Output, "%s = 0x%x,\n", field.Name, uint64(field.Value))
		return
	}
	fmt.Fprintf(h.settings.Output, "%s = %d,\n", field.Name, field.Value)
}

// OnUdt decides whether a named UDT, already emitted once this pass at the
// top level, should be skipped on a later reference.
func (h *HeaderReconstructor) OnUdt(sym *symgraph.Symbol) bool {
	if sym.IsUnnamed() {
		return true
	}
	key := sym.UDTKind.String() + ":" + h.correctedName(sym)
	return !h.emittedTop[key]
}

func (h *HeaderReconstructor) OnUdtBegin(sym *symgraph.Symbol) {
	h.depth++
	if h.depth > 1 {
		var field *symgraph.Field
		if len(h.fieldStack) > 0 {
			field = h.fieldStack[len(h.fieldStack)-1]
		}
		h.expandField = append(h.expandField, field)

		base := uint64(0)
		if field != nil {
			base = h.absOffset(field.Offset)
		} else if n := len(h.baseOffsetStack); n > 0 {
			base = h.baseOffsetStack[n-1]
		}
		h.baseOffsetStack = append(h.baseOffsetStack, base)

		h.writeIndent()
		fmt.Fprintln(h.settings.Output, sym.UDTKind.String()+h.baseClassList(sym))
	} else {
		h.expandField = append(h.expandField, nil)
		h.baseOffsetStack = append(h.baseOffsetStack, 0)
		h.writeIndent()
		fmt.Fprintf(h.settings.Output, "%s %s%s\n", sym.UDTKind.String(), h.correctedName(sym), h.baseClassList(sym))
	}
	h.writeIndent()
	fmt.Fprintln(h.settings.Output, "{")
	h.indent++

	h.accessStack = append(h.accessStack, defaultAccessFor(sym.UDTKind))
	h.paddingCounters = append(h.paddingCounters, 0)
	h.bitfieldPadCounters = append(h.bitfieldPadCounters, 0)
	h.anonUnionCounters = append(h.anonUnionCounters, 0)
	h.anonStructCounters = append(h.anonStructCounters, 0)
}

func (h *HeaderReconstructor) OnUdtEnd(sym *symgraph.Symbol) {
	h.indent--
	h.accessStack = h.accessStack[:len(h.accessStack)-1]
	h.paddingCounters = h.paddingCounters[:len(h.paddingCounters)-1]
	h.bitfieldPadCounters = h.bitfieldPadCounters[:len(h.bitfieldPadCounters)-1]
	h.anonUnionCounters = h.anonUnionCounters[:len(h.anonUnionCounters)-1]
	h.anonStructCounters = h.anonStructCounters[:len(h.anonStructCounters)-1]
	h.baseOffsetStack = h.baseOffsetStack[:len(h.baseOffsetStack)-1]

	field := h.expandField[len(h.expandField)-1]
	h.expandField = h.expandField[:len(h.expandField)-1]

	h.writeIndent()
	switch {
	case field != nil:
		fmt.Fprintf(h.settings.Output, "} %s; /* size: 0x%04x */\n", field.Name, sym.Size)
		h.suppressFieldEmit = field
	case h.depth == 1:
		fmt.Fprintf(h.settings.Output, "} /* size: 0x%04x */;\n\n", sym.Size)
		if !sym.IsUnnamed() {
			h.emittedTop[sym.UDTKind.String()+":"+h.correctedName(sym)] = true
		}
	default:
		fmt.Fprintln(h.settings.Output, "};")
	}
	h.depth--
}

func (h *HeaderReconstructor) OnUdtFieldBegin(field *symgraph.Field) {
	h.fieldStack = append(h.fieldStack, field)
}

func (h *HeaderReconstructor) OnUdtFieldEnd(field *symgraph.Field) {
	h.fieldStack = h.fieldStack[:len(h.fieldStack)-1]
}

// OnUdtField renders one member's declaration line, unless it was already
// fully printed as the closing brace of an inline-expanded nested type.
func (h *HeaderReconstructor) OnUdtField(field *symgraph.Field, def string) {
	if h.suppressFieldEmit == field {
		h.suppressFieldEmit = nil
		return
	}

	h.maybeEmitAccessLabel(field.Access)
	h.writeIndent()
	if h.settings.ShowOffsets && field.DataKind != symgraph.DataKindStaticMember {
		fmt.Fprintf(h.settings.Output, "/* 0x%04x */ ", h.absOffset(field.Offset))
	}

	line := def
	if field.DataKind == symgraph.DataKindStaticMember {
		line = "static " + line
	}
	if field.Bits > 0 {
		fmt.Fprintf(h.settings.Output, "%s : %d; /* %d */\n", line, field.Bits, field.BitPosition)
		return
	}
	fmt.Fprintf(h.settings.Output, "%s;\n", line)
}

func (h *HeaderReconstructor) OnAnonymousUdtBegin(kind AnonymousKind, first *symgraph.Field) {
	base := h.absOffset(first.Offset)
	h.baseOffsetStack = append(h.baseOffsetStack, base)

	h.writeIndent()
	fmt.Fprintln(h.settings.Output, kind.String())
	h.writeIndent()
	fmt.Fprintln(h.settings.Output, "{")
	h.indent++
}

func (h *HeaderReconstructor) OnAnonymousUdtEnd(kind AnonymousKind, first, last *symgraph.Field, size uint64) {
	h.indent--
	h.baseOffsetStack = h.baseOffsetStack[:len(h.baseOffsetStack)-1]

	var idx int
	var prefix string
	top := len(h.anonUnionCounters) - 1
	if kind == symgraph.UDTUnion {
		idx = h.anonUnionCounters[top]
		h.anonUnionCounters[top]++
		prefix = h.settings.AnonymousUnionPrefix
	} else {
		idx = h.anonStructCounters[top]
		h.anonStructCounters[top]++
		prefix = h.settings.AnonymousStructPrefix
	}

	name := fmt.Sprintf("%s%d", prefix, idx)
	if h.settings.AllowAnonymousDataTypes {
		name = ""
	}

	h.writeIndent()
	fmt.Fprintf(h.settings.Output, "} %s; /* size: 0x%04x */\n", name, size)
}

// OnUdtFieldBitFieldBegin wraps a run of more than one bit-packed member in
// a nested "struct /* bitfield */" block, matching the original's handling
// of a storage unit whose bits don't all fit a union member slot by
// themselves. A single-field run needs no wrapper.
func (h *HeaderReconstructor) OnUdtFieldBitFieldBegin(first, last *symgraph.Field) {
	if h.settings.AllowBitFieldsInUnion || first == last {
		return
	}
	h.writeIndent()
	fmt.Fprintf(h.settings.Output, "%s /* bitfield */\n", symgraph.UDTStruct.String())
	h.writeIndent()
	fmt.Fprintln(h.settings.Output, "{")
	h.indent++
}

func (h *HeaderReconstructor) OnUdtFieldBitFieldEnd(first, last *symgraph.Field) {
	if h.settings.AllowBitFieldsInUnion || first == last {
		return
	}
	h.indent--
	h.writeIndent()
	fmt.Fprintln(h.settings.Output, "}; /* bitfield */")
}

// OnPaddingMember synthesizes a byte-array filler member, e.g.
// "char Padding_0[3];", for a gap the driver's offsets didn't account for.
func (h *HeaderReconstructor) OnPaddingMember(field *symgraph.Field, paddingType symgraph.BasicType, elemSize, size uint64) {
	if !h.settings.CreatePaddingMembers || size == 0 || elemSize == 0 {
		return
	}
	top := len(h.paddingCounters) - 1
	idx := h.paddingCounters[top]
	h.paddingCounters[top]++

	count := size / elemSize
	typeName := symgraph.GetBasicTypeString(paddingType, elemSize)

	h.writeIndent()
	if h.settings.ShowOffsets {
		fmt.Fprintf(h.settings.Output, "/* 0x%04x */ ", h.absOffset(field.Offset)-size)
	}
	fmt.Fprintf(h.settings.Output, "%s %s%d[%d];\n", typeName, h.settings.PaddingMemberPrefix, idx, count)
}

// OnPaddingBitFieldField synthesizes a filler bitfield member covering the
// gap between previous (or the storage unit's start, if previous is nil)
// and field's bit position. Padding bitfields are unnamed C-style filler
// ("unsigned int : 1;") unless BitFieldPaddingMemberPrefix is set.
func (h *HeaderReconstructor) OnPaddingBitFieldField(field *symgraph.Field, previous *symgraph.Field) {
	var startBit, gap uint8
	if previous == nil {
		startBit = 0
		gap = field.BitPosition
	} else {
		startBit = previous.BitPosition + previous.Bits
		gap = field.BitPosition - startBit
	}
	if gap == 0 {
		return
	}

	typeName := "int"
	if field.Type != nil && field.Type.Kind == symgraph.KindBase {
		typeName = symgraph.GetBasicTypeString(field.Type.BasicType, field.Type.Size)
	}

	name := ""
	if h.settings.BitFieldPaddingMemberPrefix != "" {
		top := len(h.bitfieldPadCounters) - 1
		idx := h.bitfieldPadCounters[top]
		h.bitfieldPadCounters[top]++
		name = fmt.Sprintf("%s%d", h.settings.BitFieldPaddingMemberPrefix, idx)
	}

	h.writeIndent()
	if name == "" {
		fmt.Fprintf(h.settings.Output, "%s : %d; /* %d */\n", typeName, gap, startBit)
		return
	}
	fmt.Fprintf(h.settings.Output, "%s %s : %d; /* %d */\n", typeName, name, gap, startBit)
}
