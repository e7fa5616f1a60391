package reconstruct

import (
	"github.com/pdbex/pdbex/declbuilder"
	"github.com/pdbex/pdbex/symgraph"
)

// anonymousFrame is one entry of the anonymous-aggregate stack: a detected
// anonymous union or struct in progress, grounded on
// original_source/Source/PDBSymbolVisitor.h's AnonymousUdt.
type anonymousFrame struct {
	kind        symgraph.UDTKind
	first       *symgraph.Field
	last        *symgraph.Field
	size        uint64
	memberCount int
}

// Controller owns the traversal state — a stack of builder frames (one per
// active field declarator), the anonymous-aggregate stack, and the
// bitfield/padding bookkeeping — and drives a Hooks implementation through
// begin/end callbacks while walking a symbol graph. Grounded on
// original_source/Source/PDBSymbolVisitor.h/.inl.
//
// A Controller is reusable across top-level symbols; Run resets all
// per-pass state before each walk (spec.md §5: reconstructor state is
// process-local to a single emission pass).
type Controller struct {
	hooks    Hooks
	settings Settings

	builders []*declbuilder.Builder

	depth             int
	indirection       int
	anonStack         []anonymousFrame
	prevField         *symgraph.Field
	prevFieldSize     uint64
	prevBitFieldField *symgraph.Field
	visitedThisPass   map[*symgraph.Symbol]bool
}

// NewController returns a Controller bound to hooks and settings.
func NewController(hooks Hooks, settings Settings) *Controller {
	return &Controller{hooks: hooks, settings: settings}
}

// Run walks sym (expected to be a top-level UDT or Enum symbol, the shape
// the sorter emits) and resets all per-pass traversal state first.
func (c *Controller) Run(sym *symgraph.Symbol) {
	c.depth = 0
	c.indirection = 0
	c.anonStack = nil
	c.prevField = nil
	c.prevFieldSize = 0
	c.prevBitFieldField = nil
	c.visitedThisPass = make(map[*symgraph.Symbol]bool)
	c.builders = nil
	c.Visit(sym)
}

func (c *Controller) inFieldContext() bool {
	return len(c.builders) > 0
}

func (c *Controller) builder() *declbuilder.Builder {
	return c.builders[len(c.builders)-1]
}

func (c *Controller) pushBuilder(name string) *declbuilder.Builder {
	b := declbuilder.New()
	b.SetMemberName(name)
	c.builders = append(c.builders, b)
	return b
}

func (c *Controller) popBuilder() {
	c.builders = c.builders[:len(c.builders)-1]
}

// Visit dispatches sym to the matching traversal step. It is the same kind
// switch as package visit, but interleaved with builder push/pop and the
// anonymous-aggregate/bitfield state machine, which is why Controller does
// not simply embed visit.BaseVisitor.
func (c *Controller) Visit(sym *symgraph.Symbol) {
	if sym == nil {
		return
	}
	switch sym.Kind {
	case symgraph.KindBase:
		c.visitBase(sym)
	case symgraph.KindEnum:
		c.visitEnum(sym)
	case symgraph.KindTypedef:
		c.visitTypedef(sym)
	case symgraph.KindPointer:
		c.visitPointer(sym)
	case symgraph.KindArray:
		c.visitArray(sym)
	case symgraph.KindFunction:
		c.visitFunction(sym)
	case symgraph.KindFunctionArg:
		c.visitFunctionArg(sym)
	case symgraph.KindUDT:
		c.visitUdt(sym)
	}
}

func (c *Controller) visitBase(sym *symgraph.Symbol) {
	if c.inFieldContext() {
		c.builder().VisitBase(sym)
	}
}

func (c *Controller) visitEnum(sym *symgraph.Symbol) {
	if c.inFieldContext() {
		c.builder().VisitEnum(sym)
		return
	}
	if !c.hooks.OnEnumType(sym) || sym.Size == 0 {
		return
	}
	c.hooks.OnEnumTypeBegin(sym)
	for _, f := range sym.EnumFields {
		c.hooks.OnEnumField(f)
	}
	c.hooks.OnEnumTypeEnd(sym)
}

func (c *Controller) visitTypedef(sym *symgraph.Symbol) {
	c.Visit(sym.Referenced)
	c.builder().VisitTypedefEnd(sym)
}

func (c *Controller) visitPointer(sym *symgraph.Symbol) {
	// A pointee is always referenced by name, never expanded inline, however
	// MemberStructExpansion is set: "struct Foo *p;" never turns into a
	// nested "struct Foo { ... } *p;". indirection tracks this for visitUdt.
	c.indirection++
	c.Visit(sym.Referenced)
	c.indirection--
	c.builder().VisitPointerEnd(sym)
}

func (c *Controller) visitArray(sym *symgraph.Symbol) {
	c.Visit(sym.Referenced)
	c.builder().VisitArrayEnd(sym, sym.Count)
}

func (c *Controller) visitFunction(sym *symgraph.Symbol) {
	c.builder().VisitFunctionBegin()
	for _, arg := range sym.Arguments {
		c.Visit(arg)
	}
	c.Visit(sym.ReturnType)
	c.builder().VisitFunctionEnd(sym)
}

func (c *Controller) visitFunctionArg(sym *symgraph.Symbol) {
	c.Visit(sym.ArgType)
	c.builder().VisitFunctionArgEnd()
}

func (c *Controller) visitUdt(sym *symgraph.Symbol) {
	if c.inFieldContext() {
		unnamed := sym.IsUnnamed()
		visited := c.visitedThisPass[sym]
		if c.indirection > 0 || !c.settings.MemberStructExpansion.ShouldExpand(c.depth, unnamed, visited, sym.Size) {
			c.builder().VisitUdt(sym)
			return
		}
	}

	if !c.hooks.OnUdt(sym) || sym.Size == 0 {
		if c.inFieldContext() {
			c.builder().VisitUdt(sym)
		}
		return
	}

	c.visitedThisPass[sym] = true

	savedAnon, savedPrev, savedPrevSize, savedPrevBF := c.anonStack, c.prevField, c.prevFieldSize, c.prevBitFieldField
	c.anonStack, c.prevField, c.prevFieldSize, c.prevBitFieldField = nil, nil, 0, nil

	c.depth++
	c.hooks.OnUdtBegin(sym)
	c.visitUdtFields(sym)
	c.hooks.OnUdtEnd(sym)
	c.depth--

	c.anonStack, c.prevField, c.prevFieldSize, c.prevBitFieldField = savedAnon, savedPrev, savedPrevSize, savedPrevBF
}

func fieldTypeSize(f *symgraph.Field) uint64 {
	if f == nil || f.Type == nil {
		return 0
	}
	return f.Type.Size
}

// isSkippedField reports the members the traversal controller omits
// entirely, per spec.md §4.5: vtable pointers, base-class pseudo-fields
// (surfaced via the base-class list instead), and the two compiler
// synthesized helper names.
func isSkippedField(f *symgraph.Field) bool {
	if f.IsVTable || f.IsBaseClass {
		return true
	}
	return f.Name == "__local_vftable_ctor_closure" || f.Name == "__vecDelDtor"
}

func isDataMember(f *symgraph.Field) bool {
	if f.IsBaseClass || f.IsVTable {
		return false
	}
	if f.DataKind == symgraph.DataKindStaticMember {
		return false
	}
	if f.Type != nil && f.Type.Kind == symgraph.KindFunction {
		return false
	}
	return true
}

// nextDataFieldIndex returns the index, after afterIdx, of the next field
// that is a plain data member (not static, not a base-class pseudo-field,
// not a member function), or -1 if none remains. This is "the next field"
// the anonymous-aggregate inference in spec.md §4.3 reasons about.
func nextDataFieldIndex(fields []*symgraph.Field, afterIdx int) int {
	for k := afterIdx + 1; k < len(fields); k++ {
		if isDataMember(fields[k]) {
			return k
		}
	}
	return -1
}

// bitfieldRunEnd returns the index of the last member of the contiguous
// bitfield run starting at i (or i itself if fields[i] isn't a bitfield
// member), using the same grouping rule as package visit: a run ends at the
// first subsequent field with BitPosition == 0.
func bitfieldRunEnd(fields []*symgraph.Field, i int) int {
	if fields[i].Bits == 0 {
		return i
	}
	j := i
	for j+1 < len(fields) {
		nxt := fields[j+1]
		if nxt.Bits == 0 || nxt.BitPosition == 0 {
			break
		}
		j++
	}
	return j
}

func isLastOfItsBitfieldRun(fields []*symgraph.Field, i int) bool {
	if fields[i].Bits == 0 {
		return false
	}
	if i+1 >= len(fields) {
		return true
	}
	nxt := fields[i+1]
	return nxt.Bits == 0 || nxt.BitPosition == 0
}

// visitUdtFields drives the per-field loop: skip rules, padding detection,
// anonymous-aggregate begin/end, bitfield run grouping, and builder
// push/pop around each field's declarator descent.
func (c *Controller) visitUdtFields(sym *symgraph.Symbol) {
	var baseClassSpan uint64
	for _, bc := range sym.BaseClasses {
		if bc.Type != nil {
			baseClassSpan += bc.Type.Size
		}
	}

	fields := sym.Fields
	for i := 0; i < len(fields); i++ {
		field := fields[i]
		if isSkippedField(field) {
			continue
		}

		isBitField := field.Bits != 0
		isFirstBitField := isBitField && c.prevBitFieldField == nil

		b := c.pushBuilder(field.Name)

		if !isBitField || isFirstBitField {
			c.checkForDataFieldPadding(field, baseClassSpan)
			c.checkForAnonymousUnion(fields, i)
			c.checkForAnonymousStruct(fields, i)
		}

		if isFirstBitField {
			last := fields[bitfieldRunEnd(fields, i)]
			c.hooks.OnUdtFieldBitFieldBegin(field, last)
		}
		if isBitField {
			c.checkForBitFieldFieldPadding(field)
		}

		c.hooks.OnUdtFieldBegin(field)
		c.Visit(field.Type)
		c.hooks.OnUdtField(field, b.PrintableDefinition())
		c.hooks.OnUdtFieldEnd(field)
		c.popBuilder()

		c.accumulateAnonymous(fields, i)
		c.checkForEndOfAnonymousUdt(fields, i)

		if isBitField {
			if isLastOfItsBitfieldRun(fields, i) {
				c.hooks.OnUdtFieldBitFieldEnd(fieldAtRunStart(fields, i), field)
				c.prevBitFieldField = nil
				c.prevField = field
				c.prevFieldSize = fieldTypeSize(field)
			} else {
				c.prevBitFieldField = field
			}
		} else {
			c.prevField = field
			c.prevFieldSize = fieldTypeSize(field)
		}
	}
}

// bitfieldRunStart walks backward from i to find the first member of the
// bitfield run i belongs to.
func bitfieldRunStart(fields []*symgraph.Field, i int) int {
	j := i
	for j > 0 {
		prev := fields[j-1]
		if prev.Bits == 0 || fields[j].BitPosition == 0 {
			break
		}
		j--
	}
	return j
}

func fieldAtRunStart(fields []*symgraph.Field, i int) *symgraph.Field {
	return fields[bitfieldRunStart(fields, i)]
}

// checkForDataFieldPadding emits a byte padding member when the gap between
// the previous field's end and this field's offset is not accounted for by
// base classes, grounded on PDBSymbolVisitor.inl's CheckForDataFieldPadding
// but simplified per spec.md §4.3's literal gap formula.
func (c *Controller) checkForDataFieldPadding(field *symgraph.Field, baseClassSpan uint64) {
	if c.prevField != nil && c.prevField.Type != nil && c.prevField.Type.Kind == symgraph.KindTypedef {
		return
	}
	prevEnd := baseClassSpan
	if c.prevField != nil {
		end := c.prevField.Offset + c.prevFieldSize
		if end > prevEnd {
			prevEnd = end
		}
	}
	if field.Offset <= prevEnd {
		return
	}
	gap := field.Offset - prevEnd
	if gap > 0 && c.settings.CreatePaddingMembers {
		c.hooks.OnPaddingMember(field, symgraph.BasicChar, 1, gap)
	}
}

func (c *Controller) checkForBitFieldFieldPadding(field *symgraph.Field) {
	if c.prevBitFieldField == nil {
		if field.BitPosition != 0 {
			c.hooks.OnPaddingBitFieldField(field, nil)
		}
		return
	}
	expected := c.prevBitFieldField.BitPosition + c.prevBitFieldField.Bits
	if field.BitPosition != expected {
		c.hooks.OnPaddingBitFieldField(field, c.prevBitFieldField)
	}
}

// checkForAnonymousUnion begins an anonymous union at fields[i] when the
// next data member shares its offset and the anonymous stack's top (if any)
// is a struct whose span still covers it, per spec.md §4.3.
func (c *Controller) checkForAnonymousUnion(fields []*symgraph.Field, i int) {
	if !c.settings.AllowAnonymousDataTypes {
		return
	}
	nextIdx := nextDataFieldIndex(fields, bitfieldRunEnd(fields, i))
	if nextIdx < 0 {
		return
	}
	next := fields[nextIdx]
	if next.Offset != fields[i].Offset {
		return
	}
	if len(c.anonStack) > 0 {
		top := c.anonStack[len(c.anonStack)-1]
		if top.kind != symgraph.UDTStruct || next.Offset >= top.first.Offset+top.size {
			return
		}
	}
	c.anonStack = append(c.anonStack, anonymousFrame{
		kind:        symgraph.UDTUnion,
		first:       fields[i],
		size:        fieldTypeSize(fields[i]),
		memberCount: 1,
	})
	c.hooks.OnAnonymousUdtBegin(symgraph.UDTUnion, fields[i])
}

// checkForAnonymousStruct begins an anonymous struct at fields[i] nested
// inside an already-open anonymous union, when the next data member's
// offset has advanced past fields[i]'s — the union-branch-of-differing-
// widths shape (spec.md §4.3). A struct never begins at the outermost
// level: ordinary top-level structs also have strictly increasing field
// offsets, so requiring an active union on the stack is what distinguishes
// "this is one branch of a union" from "this is just the next field".
func (c *Controller) checkForAnonymousStruct(fields []*symgraph.Field, i int) {
	if !c.settings.AllowAnonymousDataTypes {
		return
	}
	if len(c.anonStack) == 0 {
		return
	}
	top := c.anonStack[len(c.anonStack)-1]
	if top.kind != symgraph.UDTUnion {
		return
	}
	nextIdx := nextDataFieldIndex(fields, bitfieldRunEnd(fields, i))
	if nextIdx < 0 {
		return
	}
	next := fields[nextIdx]
	if next.Offset <= fields[i].Offset {
		return
	}
	if next.Offset >= top.first.Offset+top.size && top.size != 0 {
		return
	}
	c.anonStack = append(c.anonStack, anonymousFrame{
		kind:        symgraph.UDTStruct,
		first:       fields[i],
		memberCount: 1,
	})
	c.hooks.OnAnonymousUdtBegin(symgraph.UDTStruct, fields[i])
}

// accumulateAnonymous folds fields[i] into the running size of the
// innermost open aggregate, unless fields[i] is that aggregate's own first
// member (already seeded at begin time).
func (c *Controller) accumulateAnonymous(fields []*symgraph.Field, i int) {
	if len(c.anonStack) == 0 {
		return
	}
	top := &c.anonStack[len(c.anonStack)-1]
	if fields[i] == top.first {
		return
	}
	size := fieldTypeSize(fields[i])
	if top.kind == symgraph.UDTUnion {
		if size > top.size {
			top.size = size
		}
	} else {
		top.size += size
	}
	top.memberCount++
}

// checkForEndOfAnonymousUdt closes any aggregates fields[i] terminates,
// propagating each closed aggregate's committed size into its enclosing
// aggregate (if any) before re-testing that enclosing aggregate's own end
// condition against the same field — this is how a struct ending exactly
// when "the enclosing union's end is reached" unwinds both frames at once.
func (c *Controller) checkForEndOfAnonymousUdt(fields []*symgraph.Field, i int) {
	nextIdx := nextDataFieldIndex(fields, i)
	nonData := nextIdx < 0
	var nextOffset uint64
	if !nonData {
		nextOffset = fields[nextIdx].Offset
	}

	for len(c.anonStack) > 0 {
		top := c.anonStack[len(c.anonStack)-1]
		ended := false

		switch top.kind {
		case symgraph.UDTUnion:
			curType := fields[i].Type
			is64Exceeds := curType != nil && curType.Kind == symgraph.KindBase && curType.Size == 8 &&
				fields[i].Offset+8 > top.first.Offset+top.size
			ended = nonData ||
				(!nonData && nextOffset < fields[i].Offset) ||
				(!nonData && nextOffset >= top.first.Offset+top.size) ||
				isLastOfItsBitfieldRun(fields, i) ||
				is64Exceeds
		case symgraph.UDTStruct:
			ended = nonData || (!nonData && nextOffset <= fields[i].Offset)
		}

		if !ended {
			break
		}

		committed := top.size
		if top.kind == symgraph.UDTUnion {
			last := fieldTypeSize(fields[i])
			if last > committed {
				committed = last
			}
		}
		frameLast := fields[i]
		c.hooks.OnAnonymousUdtEnd(top.kind, top.first, frameLast, committed)
		c.anonStack = c.anonStack[:len(c.anonStack)-1]

		if len(c.anonStack) > 0 {
			parent := &c.anonStack[len(c.anonStack)-1]
			if parent.kind == symgraph.UDTUnion {
				if committed > parent.size {
					parent.size = committed
				}
			} else {
				parent.size += committed
			}
		}
	}
}
