package reconstruct

import "github.com/pdbex/pdbex/symgraph"

// AnonymousKind tags a detected anonymous aggregate as union or struct.
type AnonymousKind = symgraph.UDTKind

// Hooks is the reconstructor's callback surface, grounded on
// original_source/Source/PDBReconstructorBase.h. A Controller (traversal.go)
// drives these calls; HeaderReconstructor (header.go) is the concrete text
// writer implementation.
type Hooks interface {
	OnEnumType(sym *symgraph.Symbol) bool
	OnEnumTypeBegin(sym *symgraph.Symbol)
	OnEnumTypeEnd(sym *symgraph.Symbol)
	OnEnumField(field symgraph.EnumField)

	OnUdt(sym *symgraph.Symbol) bool
	OnUdtBegin(sym *symgraph.Symbol)
	OnUdtEnd(sym *symgraph.Symbol)

	OnUdtFieldBegin(field *symgraph.Field)
	OnUdtFieldEnd(field *symgraph.Field)
	OnUdtField(field *symgraph.Field, def string)

	OnAnonymousUdtBegin(kind AnonymousKind, first *symgraph.Field)
	OnAnonymousUdtEnd(kind AnonymousKind, first, last *symgraph.Field, size uint64)

	OnUdtFieldBitFieldBegin(first, last *symgraph.Field)
	OnUdtFieldBitFieldEnd(first, last *symgraph.Field)

	OnPaddingMember(field *symgraph.Field, paddingType symgraph.BasicType, elemSize, size uint64)
	OnPaddingBitFieldField(field *symgraph.Field, previous *symgraph.Field)
}
