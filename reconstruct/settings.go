package reconstruct

import "io"

// ExpansionPolicy controls how nested UDT/enum members are expanded inline
// versus referenced by name, grounded on
// original_source/Source/PDBHeaderReconstructor.h's MemberStructExpansionType.
type ExpansionPolicy uint8

const (
	// ExpansionNone expands only the top-most UDT/enum; nested types are
	// always referenced by name.
	ExpansionNone ExpansionPolicy = iota
	// ExpansionInlineUnnamed (default) additionally inlines unnamed nested
	// UDTs; named nested types still appear by name.
	ExpansionInlineUnnamed
	// ExpansionInlineAll inlines any nested type not yet emitted during the
	// current top-level pass.
	ExpansionInlineAll
)

// ShouldExpand implements the shouldExpand(symbol) predicate of spec.md §4.3:
// true iff depth==0 (None), depth==0 or sym is an unnamed UDT
// (InlineUnnamed), or sym hasn't been visited this pass (InlineAll) — always
// ANDed with sym.Size > 0.
func (p ExpansionPolicy) ShouldExpand(depth int, unnamed bool, alreadyVisited bool, size uint64) bool {
	if size == 0 {
		return false
	}
	switch p {
	case ExpansionNone:
		return depth == 0
	case ExpansionInlineUnnamed:
		return depth == 0 || unnamed
	case ExpansionInlineAll:
		return !alreadyVisited
	default:
		return depth == 0
	}
}

// Settings configures a HeaderReconstructor, grounded on
// original_source/Source/PDBHeaderReconstructor.h's Settings struct.
type Settings struct {
	Output io.Writer

	MemberStructExpansion ExpansionPolicy

	PaddingMemberPrefix        string
	BitFieldPaddingMemberPrefix string
	UnnamedTypePrefix          string
	SymbolPrefix               string
	SymbolSuffix               string
	AnonymousStructPrefix      string
	AnonymousUnionPrefix       string

	CreatePaddingMembers   bool
	ShowOffsets            bool
	AllowBitFieldsInUnion  bool
	AllowAnonymousDataTypes bool
}

// DefaultSettings mirrors PDBHeaderReconstructor::Settings' default member
// initializers.
func DefaultSettings(w io.Writer) Settings {
	return Settings{
		Output:                  w,
		MemberStructExpansion:   ExpansionInlineUnnamed,
		PaddingMemberPrefix:     "Padding_",
		AnonymousStructPrefix:   "s",
		AnonymousUnionPrefix:    "u",
		CreatePaddingMembers:    true,
		ShowOffsets:             true,
		AllowBitFieldsInUnion:   false,
		AllowAnonymousDataTypes: true,
	}
}
