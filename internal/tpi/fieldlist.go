package tpi

import "github.com/pdbex/pdbex/internal/stream"

// FieldAttributes is the field-attribute bitfield shared by LF_MEMBER,
// LF_STMEMBER, LF_BCLASS, LF_VBCLASS, LF_ONEMETHOD and friends. Its low two
// bits are a MemberAccess value.
type FieldAttributes uint16

func (fa FieldAttributes) Access() MemberAccess      { return MemberAccess(fa & 0x03) }
func (fa FieldAttributes) MethodKind() MethodKind    { return MethodKind((fa >> 2) & 0x07) }
func (fa FieldAttributes) IsPseudo() bool            { return (fa & 0x0100) != 0 }
func (fa FieldAttributes) IsNoInherit() bool         { return (fa & 0x0200) != 0 }
func (fa FieldAttributes) IsNoConstruct() bool       { return (fa & 0x0400) != 0 }
func (fa FieldAttributes) IsCompilerGenerated() bool { return (fa & 0x0800) != 0 }
func (fa FieldAttributes) IsSealed() bool            { return (fa & 0x1000) != 0 }

func (fa FieldAttributes) isIntroducingVirtual() bool {
	switch fa.MethodKind() {
	case MethodKindIntroVirtual, MethodKindPureIntro:
		return true
	default:
		return false
	}
}

// MemberRecord represents an LF_MEMBER leaf: a non-static data member.
type MemberRecord struct {
	Attributes FieldAttributes
	Type       TypeIndex
	Offset     uint64
	Name       string
}

// StaticMemberRecord represents an LF_STMEMBER leaf.
type StaticMemberRecord struct {
	Attributes FieldAttributes
	Type       TypeIndex
	Name       string
}

// BaseClassRecord represents an LF_BCLASS leaf: a non-virtual base class.
type BaseClassRecord struct {
	Attributes FieldAttributes
	Type       TypeIndex
	Offset     uint64
}

// VirtualBaseClassRecord represents an LF_VBCLASS or LF_IVBCLASS leaf.
type VirtualBaseClassRecord struct {
	Attributes      FieldAttributes
	Indirect        bool
	BaseClassType   TypeIndex
	VBPtrType       TypeIndex
	VBPtrOffset     uint64
	VBTableIndex    uint64
}

// EnumerateRecord represents an LF_ENUMERATE leaf: one enumerator.
type EnumerateRecord struct {
	Attributes FieldAttributes
	Value      uint64
	Name       string
}

// OneMethodRecord represents an LF_ONEMETHOD leaf.
type OneMethodRecord struct {
	Attributes    FieldAttributes
	Type          TypeIndex
	VBaseOffset   int32
	HasVBaseOffset bool
	Name          string
}

// VFuncTabRecord represents an LF_VFUNCTAB leaf: the vtable pointer slot.
type VFuncTabRecord struct {
	Type TypeIndex
}

// NestedTypeRecord represents an LF_NESTTYPE leaf.
type NestedTypeRecord struct {
	Type TypeIndex
	Name string
}

// FieldList is the decoded contents of one or more chained LF_FIELDLIST
// records: CodeView splits a field list across multiple records via a
// trailing LF_INDEX continuation when the member count is large, which
// ResolveFieldList follows transparently.
type FieldList struct {
	Members         []MemberRecord
	StaticMembers   []StaticMemberRecord
	BaseClasses     []BaseClassRecord
	VirtualBases    []VirtualBaseClassRecord
	Enumerates      []EnumerateRecord
	OneMethods      []OneMethodRecord
	VFuncTabs       []VFuncTabRecord
	NestedTypes     []NestedTypeRecord
}

// ResolveFieldList parses the LF_FIELDLIST record at ti, following any
// LF_INDEX continuation entries into subsequent records, and returns the
// combined field list.
func ResolveFieldList(s *Stream, ti TypeIndex) (*FieldList, error) {
	fl := &FieldList{}

	for {
		rec, err := s.GetTypeRecord(ti)
		if err != nil {
			return nil, err
		}
		if rec == nil || rec.Kind != LF_FIELDLIST {
			return nil, ErrInvalidTypeRecord
		}

		next, err := parseFieldListInto(fl, rec.Data)
		if err != nil {
			return nil, err
		}
		if next == 0 {
			return fl, nil
		}
		ti = next
	}
}

// parseFieldListInto decodes one LF_FIELDLIST record's leaves into fl,
// returning the continuation type index from a trailing LF_INDEX entry, or 0
// if this was the last record in the chain.
func parseFieldListInto(fl *FieldList, data []byte) (TypeIndex, error) {
	r := stream.NewReader(data)
	var continuation TypeIndex

	for r.Remaining() > 0 {
		if b, err := r.PeekU8(); err == nil && TypeRecordKind(b).IsPadding() {
			break
		}

		kind, err := r.ReadU16()
		if err != nil {
			return 0, err
		}

		switch TypeRecordKind(kind) {
		case LF_MEMBER:
			attrs, err := r.ReadU16()
			if err != nil {
				return 0, err
			}
			typ, err := r.ReadU32()
			if err != nil {
				return 0, err
			}
			offset, err := r.ReadNumeric()
			if err != nil {
				return 0, err
			}
			name, err := r.ReadCString()
			if err != nil {
				return 0, err
			}
			fl.Members = append(fl.Members, MemberRecord{
				Attributes: FieldAttributes(attrs), Type: TypeIndex(typ), Offset: offset, Name: name,
			})

		case LF_STMEMBER:
			attrs, err := r.ReadU16()
			if err != nil {
				return 0, err
			}
			typ, err := r.ReadU32()
			if err != nil {
				return 0, err
			}
			name, err := r.ReadCString()
			if err != nil {
				return 0, err
			}
			fl.StaticMembers = append(fl.StaticMembers, StaticMemberRecord{
				Attributes: FieldAttributes(attrs), Type: TypeIndex(typ), Name: name,
			})

		case LF_BCLASS:
			attrs, err := r.ReadU16()
			if err != nil {
				return 0, err
			}
			typ, err := r.ReadU32()
			if err != nil {
				return 0, err
			}
			offset, err := r.ReadNumeric()
			if err != nil {
				return 0, err
			}
			fl.BaseClasses = append(fl.BaseClasses, BaseClassRecord{
				Attributes: FieldAttributes(attrs), Type: TypeIndex(typ), Offset: offset,
			})

		case LF_VBCLASS, LF_IVBCLASS:
			attrs, err := r.ReadU16()
			if err != nil {
				return 0, err
			}
			baseType, err := r.ReadU32()
			if err != nil {
				return 0, err
			}
			vbptrType, err := r.ReadU32()
			if err != nil {
				return 0, err
			}
			vbptrOffset, err := r.ReadNumeric()
			if err != nil {
				return 0, err
			}
			vbIndex, err := r.ReadNumeric()
			if err != nil {
				return 0, err
			}
			fl.VirtualBases = append(fl.VirtualBases, VirtualBaseClassRecord{
				Attributes:    FieldAttributes(attrs),
				Indirect:      TypeRecordKind(kind) == LF_IVBCLASS,
				BaseClassType: TypeIndex(baseType),
				VBPtrType:     TypeIndex(vbptrType),
				VBPtrOffset:   vbptrOffset,
				VBTableIndex:  vbIndex,
			})

		case LF_ENUMERATE:
			attrs, err := r.ReadU16()
			if err != nil {
				return 0, err
			}
			value, err := r.ReadNumeric()
			if err != nil {
				return 0, err
			}
			name, err := r.ReadCString()
			if err != nil {
				return 0, err
			}
			fl.Enumerates = append(fl.Enumerates, EnumerateRecord{
				Attributes: FieldAttributes(attrs), Value: value, Name: name,
			})

		case LF_ONEMETHOD:
			attrs, err := r.ReadU16()
			if err != nil {
				return 0, err
			}
			typ, err := r.ReadU32()
			if err != nil {
				return 0, err
			}
			one := OneMethodRecord{Attributes: FieldAttributes(attrs), Type: TypeIndex(typ)}
			if one.Attributes.isIntroducingVirtual() {
				off, err := r.ReadI32()
				if err != nil {
					return 0, err
				}
				one.VBaseOffset = off
				one.HasVBaseOffset = true
			}
			name, err := r.ReadCString()
			if err != nil {
				return 0, err
			}
			one.Name = name
			fl.OneMethods = append(fl.OneMethods, one)

		case LF_VFUNCTAB:
			if err := r.Skip(2); err != nil { // pad0
				return 0, err
			}
			typ, err := r.ReadU32()
			if err != nil {
				return 0, err
			}
			fl.VFuncTabs = append(fl.VFuncTabs, VFuncTabRecord{Type: TypeIndex(typ)})

		case LF_NESTTYPE:
			if err := r.Skip(2); err != nil { // pad0
				return 0, err
			}
			typ, err := r.ReadU32()
			if err != nil {
				return 0, err
			}
			name, err := r.ReadCString()
			if err != nil {
				return 0, err
			}
			fl.NestedTypes = append(fl.NestedTypes, NestedTypeRecord{Type: TypeIndex(typ), Name: name})

		case LF_INDEX:
			if err := r.Skip(2); err != nil { // pad0
				return 0, err
			}
			idx, err := r.ReadU32()
			if err != nil {
				return 0, err
			}
			continuation = TypeIndex(idx)

		default:
			// Leaf kinds this module has no use for (LF_METHOD overload sets,
			// LF_FRIENDCLS, etc.) carry no fixed-size trailer we can skip
			// safely, so treat an unhandled leaf as the end of what we can
			// decode from this record rather than guess at its length.
			return continuation, nil
		}
	}

	return continuation, nil
}
