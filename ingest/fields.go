package ingest

import (
	"fmt"

	"github.com/pdbex/pdbex/internal/tpi"
	"github.com/pdbex/pdbex/symgraph"
)

// populateUDTFields expands the LF_FIELDLIST chain rooted at fieldListTI into
// sym.Fields and sym.BaseClasses, per population-contract step 5 (base
// classes appear in both lists, the base-class Field carrying
// IsBaseClass=true).
func (r *resolver) populateUDTFields(sym *symgraph.Symbol, fieldListTI tpi.TypeIndex) error {
	fl, err := tpi.ResolveFieldList(r.tpi, fieldListTI)
	if err != nil {
		return err
	}

	var fields []*symgraph.Field
	var bases []symgraph.BaseClass

	for _, m := range fl.Members {
		typeSym, bits, bitPos, err := r.resolveMemberType(m.Type)
		if err != nil {
			return err
		}
		fields = append(fields, &symgraph.Field{
			DataKind:    symgraph.DataKindMember,
			Name:        m.Name,
			Type:        typeSym,
			Offset:      m.Offset,
			Bits:        bits,
			BitPosition: bitPos,
			Access:      convertAccess(m.Attributes.Access()),
			Parent:      sym,
		})
	}

	for _, m := range fl.StaticMembers {
		typeSym, err := r.resolveType(m.Type)
		if err != nil {
			return err
		}
		fields = append(fields, &symgraph.Field{
			DataKind: symgraph.DataKindStaticMember,
			Name:     m.Name,
			Type:     typeSym,
			Access:   convertAccess(m.Attributes.Access()),
			Parent:   sym,
		})
	}

	for _, b := range fl.BaseClasses {
		baseSym, err := r.resolveType(b.Type)
		if err != nil {
			return err
		}
		access := convertAccess(b.Attributes.Access())
		bases = append(bases, symgraph.BaseClass{Type: baseSym, Access: access})
		fields = append(fields, &symgraph.Field{
			DataKind:    symgraph.DataKindBaseClass,
			Name:        baseSym.Name,
			Type:        baseSym,
			Offset:      b.Offset,
			Access:      access,
			IsBaseClass: true,
			Parent:      sym,
		})
	}

	for _, b := range fl.VirtualBases {
		baseSym, err := r.resolveType(b.BaseClassType)
		if err != nil {
			return err
		}
		access := convertAccess(b.Attributes.Access())
		bases = append(bases, symgraph.BaseClass{Type: baseSym, Access: access, IsVirtual: true})
		fields = append(fields, &symgraph.Field{
			DataKind:    symgraph.DataKindBaseClass,
			Name:        baseSym.Name,
			Type:        baseSym,
			Access:      access,
			IsBaseClass: true,
			Parent:      sym,
		})
	}

	for range fl.VFuncTabs {
		fields = append(fields, &symgraph.Field{
			DataKind: symgraph.DataKindUnknown,
			Name:     "__vfptr",
			IsVTable: true,
			Parent:   sym,
		})
	}

	for _, one := range fl.OneMethods {
		field, err := r.buildMethodField(sym, one)
		if err != nil {
			return err
		}
		fields = append(fields, field)
	}

	sym.Fields = fields
	sym.BaseClasses = bases
	return nil
}

// resolveMemberType resolves a data member's type, unwrapping an LF_BITFIELD
// indirection into (underlying type, bit width, bit position) since symgraph
// has no separate Bitfield Kind: a bit-packed member is just a Field with
// Bits/BitPosition set, same as the PDB's own CV_fldattr_t model folds it
// into the member rather than the type.
func (r *resolver) resolveMemberType(ti tpi.TypeIndex) (*symgraph.Symbol, uint8, uint8, error) {
	if !ti.IsSimpleType() {
		record, err := r.tpi.GetTypeRecord(ti)
		if err != nil {
			return nil, 0, 0, err
		}
		if record != nil && record.Kind == tpi.LF_BITFIELD {
			rec, err := tpi.ParseBitFieldRecord(record.Data)
			if err != nil {
				return nil, 0, 0, err
			}
			underlying, err := r.resolveType(rec.Type)
			if err != nil {
				return nil, 0, 0, err
			}
			return underlying, rec.Length, rec.Position, nil
		}
	}

	sym, err := r.resolveType(ti)
	return sym, 0, 0, err
}

// buildMethodField turns one LF_ONEMETHOD leaf into a Field carrying a
// freshly-built Function Symbol. The Symbol is never shared via the resolver
// cache: declbuilder.VisitFunctionEnd reads IsStatic/IsVirtual/IsOverride/
// IsPure/VirtualOffset off the Symbol itself, so two methods that happen to
// share an LF_MFUNCTION signature index (overloads with identical argument
// types, or an override with the same signature as its base) must not share
// one Symbol's attribute bits.
func (r *resolver) buildMethodField(parent *symgraph.Symbol, one tpi.OneMethodRecord) (*symgraph.Field, error) {
	methodSym, err := r.buildFreshFunctionSymbol(one.Type)
	if err != nil {
		return nil, err
	}

	access := convertAccess(one.Attributes.Access())
	methodSym.FuncAccess = access

	field := &symgraph.Field{
		DataKind: symgraph.DataKindUnknown,
		Name:     one.Name,
		Type:     methodSym,
		Access:   access,
		Parent:   parent,
	}

	switch one.Attributes.MethodKind() {
	case tpi.MethodKindStatic:
		field.IsStatic = true
		methodSym.IsStatic = true
	case tpi.MethodKindVirtual:
		field.IsVirtual = true
		methodSym.IsVirtual = true
		field.IsOverride = true
		methodSym.IsOverride = true
	case tpi.MethodKindIntroVirtual:
		field.IsVirtual = true
		methodSym.IsVirtual = true
		methodSym.VirtualOffset = uint32(one.VBaseOffset)
	case tpi.MethodKindPureVirtual:
		field.IsVirtual = true
		methodSym.IsVirtual = true
		methodSym.IsPure = true
		field.IsOverride = true
		methodSym.IsOverride = true
	case tpi.MethodKindPureIntro:
		field.IsVirtual = true
		methodSym.IsVirtual = true
		methodSym.IsPure = true
		methodSym.VirtualOffset = uint32(one.VBaseOffset)
	}

	r.graph.Register(methodSym)
	return field, nil
}

// buildFreshFunctionSymbol parses one.Type (an LF_MFUNCTION or LF_PROCEDURE
// record) directly, bypassing the resolver cache, and also recovers
// IsConstMethod from the this-pointer's constness when the record is an
// LF_MFUNCTION (a static method's LF_PROCEDURE has no this pointer to check).
func (r *resolver) buildFreshFunctionSymbol(ti tpi.TypeIndex) (*symgraph.Symbol, error) {
	record, err := r.tpi.GetTypeRecord(ti)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnresolvedType, ti)
	}

	typeID := r.nextSynthID()

	switch record.Kind {
	case tpi.LF_MFUNCTION:
		rec, err := tpi.ParseMFunctionRecord(record.Data)
		if err != nil {
			return nil, err
		}
		sym, err := r.buildFunctionSymbol(typeID, rec.ReturnType, rec.ArgumentList, rec.CallingConv)
		if err != nil {
			return nil, err
		}
		if thisPtr, err := r.resolveType(rec.ThisType); err == nil && thisPtr.Referenced != nil {
			sym.IsConstMethod = thisPtr.Referenced.IsConst
		}
		return sym, nil

	case tpi.LF_PROCEDURE:
		rec, err := tpi.ParseProcedureRecord(record.Data)
		if err != nil {
			return nil, err
		}
		return r.buildFunctionSymbol(typeID, rec.ReturnType, rec.ArgumentList, rec.CallingConv)

	default:
		return nil, fmt.Errorf("%w: 0x%x", ErrUnsupportedRecord, uint16(record.Kind))
	}
}

func convertAccess(a tpi.MemberAccess) symgraph.Access {
	switch a {
	case tpi.MemberAccessPrivate:
		return symgraph.AccessPrivate
	case tpi.MemberAccessProtected:
		return symgraph.AccessProtected
	case tpi.MemberAccessPublic:
		return symgraph.AccessPublic
	default:
		return symgraph.AccessNone
	}
}
