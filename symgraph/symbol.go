// Package symgraph is the neutral in-memory symbol graph the reconstruction
// pipeline walks. It is free of any PDB/DIA/CodeView vocabulary: a driver in
// the ingest package populates a Graph from whatever debug format it reads,
// and everything downstream of this package only ever sees Symbol, Field and
// BaseClass values.
package symgraph

import (
	"fmt"
	"strings"
)

// Kind tags the payload a Symbol carries. Exactly one of the kind-specific
// fields on Symbol is meaningful for a given Kind; Go has no sum type, so the
// tag plus an exhaustive switch on it is the closest fit (see DESIGN.md).
type Kind uint8

const (
	KindBase Kind = iota
	KindEnum
	KindTypedef
	KindPointer
	KindArray
	KindFunction
	KindFunctionArg
	KindUDT
)

func (k Kind) String() string {
	switch k {
	case KindBase:
		return "Base"
	case KindEnum:
		return "Enum"
	case KindTypedef:
		return "Typedef"
	case KindPointer:
		return "Pointer"
	case KindArray:
		return "Array"
	case KindFunction:
		return "Function"
	case KindFunctionArg:
		return "FunctionArg"
	case KindUDT:
		return "UDT"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// UDTKind distinguishes the three aggregate shapes a UDT symbol may take.
type UDTKind uint8

const (
	UDTStruct UDTKind = iota
	UDTClass
	UDTUnion
)

func (k UDTKind) String() string {
	switch k {
	case UDTStruct:
		return "struct"
	case UDTClass:
		return "class"
	case UDTUnion:
		return "union"
	default:
		return "struct"
	}
}

// Access mirrors the PDB's CV_access_e encoding: 1 private, 2 protected,
// 3 public. None is used for symbols with no access context (free functions,
// non-member fields).
type Access uint8

const (
	AccessNone Access = iota
	AccessPrivate
	AccessProtected
	AccessPublic
)

func (a Access) String() string {
	switch a {
	case AccessPrivate:
		return "private"
	case AccessProtected:
		return "protected"
	case AccessPublic:
		return "public"
	default:
		return ""
	}
}

// DataKind classifies a Field the way the PDB's CV_datakind_e does. The
// driver populates it uniformly for every field (see SPEC_FULL.md §6,
// resolving the distilled spec's open question about dataKind coverage).
type DataKind uint8

const (
	DataKindUnknown DataKind = iota
	DataKindMember
	DataKindStaticMember
	DataKindParameter
	DataKindBaseClass
)

// CallingConvention mirrors the CodeView CV_call_e values relevant to
// function declarator rendering.
type CallingConvention uint8

const (
	CallNearC CallingConvention = iota
	CallCdecl
	CallPascal
	CallFastcall
	CallStdcall
	CallThiscall
	CallClrcall
	CallVectorcall
	CallSwift
	CallSwiftAsync
)

func (c CallingConvention) String() string {
	switch c {
	case CallCdecl, CallNearC:
		return "__cdecl"
	case CallPascal:
		return "__pascal"
	case CallFastcall:
		return "__fastcall"
	case CallStdcall:
		return "__stdcall"
	case CallThiscall:
		return "__thiscall"
	case CallClrcall:
		return "__clrcall"
	case CallVectorcall:
		return "__vectorcall"
	case CallSwift:
		return "__swift"
	case CallSwiftAsync:
		return "__swiftasync"
	default:
		return "__cdecl"
	}
}

// EnumField is one enumerator of an Enum symbol.
type EnumField struct {
	Name   string
	Value  int64
	Signed bool
	Parent *Symbol
}

// BaseClass is one entry in a UDT's inheritance list.
type BaseClass struct {
	Type      *Symbol
	Access    Access
	IsVirtual bool
}

// Field is one member of a UDT: a data member, a static member, a member
// function, or a base-class pseudo-field (IsBaseClass true, mirrored also
// into the owning UDT's BaseClasses list per the population contract).
type Field struct {
	DataKind    DataKind
	Name        string
	Type        *Symbol
	Offset      uint64
	Bits        uint8
	BitPosition uint8
	Access      Access
	IsBaseClass bool
	IsVTable    bool
	Parent      *Symbol

	// Function-only attributes (meaningful when Type.Kind == KindFunction).
	IsStatic   bool
	IsVirtual  bool
	IsOverride bool
}

// FunctionArg holds one argument's type. A Function payload's ordered
// argument list is Symbol.Arguments, whose entries are KindFunctionArg
// Symbols.
type FunctionArg struct {
	Type *Symbol
}

// Symbol is the single node type of the graph. Kind-specific data lives in
// the payload fields below; only the ones matching Kind are meaningful.
type Symbol struct {
	TypeID     uint64
	Kind       Kind
	Name       string
	Size       uint64
	IsConst    bool
	IsVolatile bool

	// KindBase
	BasicType BasicType

	// KindEnum
	EnumFields       []EnumField
	EnumUnderlying   *Symbol

	// KindTypedef, KindPointer, KindArray share Referenced as "the type this
	// one wraps"; Pointer and Array additionally use IsReference/Count.
	Referenced  *Symbol
	IsReference bool // Pointer only
	Count       uint64 // Array only: element count (0 == unbounded)

	// KindFunction
	ReturnType        *Symbol
	CallingConvention CallingConvention
	FuncAccess        Access
	IsStatic          bool
	IsVirtual         bool
	IsOverride        bool
	IsConstMethod     bool
	IsPure            bool
	VirtualOffset     uint32
	Arguments         []*Symbol // each argument is a KindFunctionArg Symbol

	// KindFunctionArg
	ArgType *Symbol

	// KindUDT
	UDTKind         UDTKind
	Fields          []*Field
	BaseClasses     []BaseClass
}

// IsUnnamed reports whether the Symbol's name matches one of the synthetic
// patterns PDB producers use for anonymous types, grounded on
// original_source/Source/PDB.cpp::IsUnnamedSymbol.
func (s *Symbol) IsUnnamed() bool {
	if s == nil {
		return true
	}
	return IsUnnamedName(s.Name)
}

// IsUnnamedName applies the same pattern match as Symbol.IsUnnamed directly
// to a name string, for callers that haven't built a Symbol yet.
func IsUnnamedName(name string) bool {
	if name == "" {
		return true
	}
	return strings.Contains(name, "<anonymous-") ||
		strings.Contains(name, "<unnamed-") ||
		strings.Contains(name, "__unnamed")
}

// IsDestructorOrConstructor reports whether the function field f names a
// constructor or destructor of its parent UDT, the condition under which
// the reconstructor omits a return type (SPEC_FULL.md / spec.md §4.3).
func (f *Field) IsDestructorOrConstructor(parentName string) bool {
	if f.Name == parentName {
		return true
	}
	return f.Name == "~"+parentName
}
