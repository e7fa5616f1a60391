package ingest

import (
	"fmt"

	"github.com/pdbex/pdbex/internal/tpi"
	"github.com/pdbex/pdbex/symgraph"
)

// resolver walks TPI type records into symgraph.Symbol values, caching by
// type index so that every reference to the same type index resolves to the
// same *Symbol (symgraph's invariant 2). A type's Symbol is registered into
// the cache and the graph before its payload is filled in, so that a type
// reachable from its own fields (a struct holding a pointer to itself) sees
// the in-progress stub rather than recursing forever.
type resolver struct {
	graph *symgraph.Graph
	tpi   *tpi.Stream
	cache map[tpi.TypeIndex]*symgraph.Symbol

	// synthID mints TypeIDs for Symbols that have no TPI type index of their
	// own: function arguments (each LF_ARGLIST entry is a position, not an
	// addressable record), the inner base type of a pointer-mode simple
	// type index, the fresh Function Symbol built per method field, and the
	// typedef Symbols recovered from S_UDT records.
	synthID uint64
}

func newResolver(graph *symgraph.Graph, s *tpi.Stream) *resolver {
	return &resolver{
		graph:   graph,
		tpi:     s,
		cache:   make(map[tpi.TypeIndex]*symgraph.Symbol),
		synthID: uint64(s.TypeIndexEnd()),
	}
}

func (r *resolver) nextSynthID() uint64 {
	r.synthID++
	return r.synthID
}

// resolveType returns the Symbol for ti, building and registering it on
// first reference. Grounded on the teacher's pdb/type.go::parseTypeRecord
// switch, re-targeted at symgraph.Symbol instead of the teacher's pdb.Type
// interface hierarchy.
func (r *resolver) resolveType(ti tpi.TypeIndex) (*symgraph.Symbol, error) {
	if sym, ok := r.cache[ti]; ok {
		return sym, nil
	}

	if ti.IsSimpleType() {
		sym := r.buildSimpleType(ti)
		r.cache[ti] = sym
		r.graph.Register(sym)
		return sym, nil
	}

	record, err := r.tpi.GetTypeRecord(ti)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnresolvedType, ti)
	}

	switch record.Kind {
	case tpi.LF_MODIFIER:
		return r.resolveModifier(ti, record)
	case tpi.LF_POINTER:
		return r.resolvePointer(ti, record)
	case tpi.LF_ARRAY:
		return r.resolveArray(ti, record)
	case tpi.LF_PROCEDURE:
		return r.resolveProcedure(ti, record)
	case tpi.LF_MFUNCTION:
		return r.resolveMFunction(ti, record)
	case tpi.LF_CLASS, tpi.LF_CLASS_ST:
		return r.resolveClass(ti, record, symgraph.UDTClass)
	case tpi.LF_STRUCTURE, tpi.LF_STRUCTURE_ST, tpi.LF_INTERFACE:
		return r.resolveClass(ti, record, symgraph.UDTStruct)
	case tpi.LF_UNION, tpi.LF_UNION_ST:
		return r.resolveUnion(ti, record)
	case tpi.LF_ENUM, tpi.LF_ENUM_ST:
		return r.resolveEnum(ti, record)
	case tpi.LF_ALIAS:
		return r.resolveAlias(ti, record)
	default:
		return nil, fmt.Errorf("%w: 0x%x", ErrUnsupportedRecord, uint16(record.Kind))
	}
}

func (r *resolver) resolveModifier(ti tpi.TypeIndex, record *tpi.TypeRecord) (*symgraph.Symbol, error) {
	rec, err := tpi.ParseModifierRecord(record.Data)
	if err != nil {
		return nil, err
	}

	underlying, err := r.resolveType(rec.ModifiedType)
	if err != nil {
		return nil, err
	}

	// A modifier isn't its own Kind in symgraph: it's the underlying Symbol
	// with the const/volatile bits turned on and a fresh TypeID, since the
	// modifier and the type it modifies are different TPI records.
	cp := *underlying
	cp.TypeID = uint64(ti)
	if rec.Modifiers.IsConst() {
		cp.IsConst = true
	}
	if rec.Modifiers.IsVolatile() {
		cp.IsVolatile = true
	}

	sym := &cp
	r.cache[ti] = sym
	r.graph.Register(sym)
	return sym, nil
}

func (r *resolver) resolvePointer(ti tpi.TypeIndex, record *tpi.TypeRecord) (*symgraph.Symbol, error) {
	rec, err := tpi.ParsePointerRecord(record.Data)
	if err != nil {
		return nil, err
	}

	mode := rec.Attributes.Mode()
	sym := &symgraph.Symbol{
		TypeID:      uint64(ti),
		Kind:        symgraph.KindPointer,
		Size:        uint64(rec.Attributes.Size()),
		IsConst:     rec.Attributes.IsConst(),
		IsVolatile:  rec.Attributes.IsVolatile(),
		IsReference: mode == tpi.PointerModeLValueReference || mode == tpi.PointerModeRValueReference,
	}
	r.cache[ti] = sym
	r.graph.Register(sym)

	referent, err := r.resolveType(rec.ReferentType)
	if err != nil {
		return nil, err
	}
	sym.Referenced = referent
	return sym, nil
}

func (r *resolver) resolveArray(ti tpi.TypeIndex, record *tpi.TypeRecord) (*symgraph.Symbol, error) {
	rec, err := tpi.ParseArrayRecord(record.Data)
	if err != nil {
		return nil, err
	}

	sym := &symgraph.Symbol{
		TypeID: uint64(ti),
		Kind:   symgraph.KindArray,
		Name:   rec.Name,
		Size:   rec.Size,
	}
	r.cache[ti] = sym
	r.graph.Register(sym)

	elem, err := r.resolveType(rec.ElementType)
	if err != nil {
		return nil, err
	}
	sym.Referenced = elem
	if elem.Size > 0 {
		sym.Count = rec.Size / elem.Size
	}
	return sym, nil
}

func (r *resolver) resolveClass(ti tpi.TypeIndex, record *tpi.TypeRecord, kind symgraph.UDTKind) (*symgraph.Symbol, error) {
	rec, err := tpi.ParseClassRecord(record.Data)
	if err != nil {
		return nil, err
	}

	sym := &symgraph.Symbol{
		TypeID:  uint64(ti),
		Kind:    symgraph.KindUDT,
		Name:    rec.Name,
		Size:    rec.Size,
		UDTKind: kind,
	}
	r.cache[ti] = sym
	r.graph.Register(sym)

	if !rec.Properties.IsForwardRef() && rec.FieldList != 0 {
		if err := r.populateUDTFields(sym, rec.FieldList); err != nil {
			return nil, err
		}
	}
	return sym, nil
}

func (r *resolver) resolveUnion(ti tpi.TypeIndex, record *tpi.TypeRecord) (*symgraph.Symbol, error) {
	rec, err := tpi.ParseUnionRecord(record.Data)
	if err != nil {
		return nil, err
	}

	sym := &symgraph.Symbol{
		TypeID:  uint64(ti),
		Kind:    symgraph.KindUDT,
		Name:    rec.Name,
		Size:    rec.Size,
		UDTKind: symgraph.UDTUnion,
	}
	r.cache[ti] = sym
	r.graph.Register(sym)

	if !rec.Properties.IsForwardRef() && rec.FieldList != 0 {
		if err := r.populateUDTFields(sym, rec.FieldList); err != nil {
			return nil, err
		}
	}
	return sym, nil
}

func (r *resolver) resolveEnum(ti tpi.TypeIndex, record *tpi.TypeRecord) (*symgraph.Symbol, error) {
	rec, err := tpi.ParseEnumRecord(record.Data)
	if err != nil {
		return nil, err
	}

	sym := &symgraph.Symbol{
		TypeID: uint64(ti),
		Kind:   symgraph.KindEnum,
		Name:   rec.Name,
	}
	r.cache[ti] = sym
	r.graph.Register(sym)

	underlying, err := r.resolveType(rec.UnderlyingType)
	if err != nil {
		return nil, err
	}
	sym.EnumUnderlying = underlying
	sym.Size = underlying.Size
	sym.BasicType = underlying.BasicType

	if rec.Properties.IsForwardRef() || rec.FieldList == 0 {
		return sym, nil
	}

	fl, err := tpi.ResolveFieldList(r.tpi, rec.FieldList)
	if err != nil {
		return nil, err
	}

	sym.EnumFields = make([]symgraph.EnumField, 0, len(fl.Enumerates))
	for _, e := range fl.Enumerates {
		v := int64(e.Value)
		sym.EnumFields = append(sym.EnumFields, symgraph.EnumField{
			Name:   e.Name,
			Value:  v,
			Signed: v < 0,
			Parent: sym,
		})
	}
	return sym, nil
}

// resolveAlias handles an LF_ALIAS reached by reference from another type
// (e.g. a member whose declared type is a `using` name). Top-level typedefs
// discovered via DBI S_UDT symbols are built directly in ingest.go's
// populateTypedefs, since most MSVC PDBs track typedefs that way rather than
// via LF_ALIAS records; this case exists so resolveType never errors out if
// it does encounter one.
func (r *resolver) resolveAlias(ti tpi.TypeIndex, record *tpi.TypeRecord) (*symgraph.Symbol, error) {
	rec, err := tpi.ParseAliasRecord(record.Data)
	if err != nil {
		return nil, err
	}

	sym := &symgraph.Symbol{
		TypeID: uint64(ti),
		Kind:   symgraph.KindTypedef,
		Name:   rec.Name,
	}
	r.cache[ti] = sym
	r.graph.Register(sym)

	underlying, err := r.resolveType(rec.UnderlyingType)
	if err != nil {
		return nil, err
	}
	sym.Referenced = underlying
	sym.Size = underlying.Size
	return sym, nil
}

func (r *resolver) resolveProcedure(ti tpi.TypeIndex, record *tpi.TypeRecord) (*symgraph.Symbol, error) {
	rec, err := tpi.ParseProcedureRecord(record.Data)
	if err != nil {
		return nil, err
	}
	sym, err := r.buildFunctionSymbol(uint64(ti), rec.ReturnType, rec.ArgumentList, rec.CallingConv)
	if err != nil {
		return nil, err
	}
	r.cache[ti] = sym
	r.graph.Register(sym)
	return sym, nil
}

func (r *resolver) resolveMFunction(ti tpi.TypeIndex, record *tpi.TypeRecord) (*symgraph.Symbol, error) {
	rec, err := tpi.ParseMFunctionRecord(record.Data)
	if err != nil {
		return nil, err
	}
	// ClassType/ThisType/ThisAdjust describe the member-function pointer's
	// receiver, which symgraph has no payload for outside of a UDT Field's
	// own Parent/IsStatic bookkeeping (see fields.go); a bare reference to an
	// LF_MFUNCTION (e.g. a pointer-to-member-function type) only needs the
	// signature.
	sym, err := r.buildFunctionSymbol(uint64(ti), rec.ReturnType, rec.ArgumentList, rec.CallingConv)
	if err != nil {
		return nil, err
	}
	r.cache[ti] = sym
	r.graph.Register(sym)
	return sym, nil
}

// buildFunctionSymbol resolves a function signature's return type and
// argument list into a Function Symbol. It does not touch the cache itself;
// callers decide whether the result is shared (resolveProcedure/
// resolveMFunction, cached by type index) or built fresh per call site
// (fields.go's method handling, which must not let IsStatic/IsVirtual from
// one LF_ONEMETHOD bleed into another method that happens to share a
// signature's type index).
func (r *resolver) buildFunctionSymbol(typeID uint64, returnTI, argListTI tpi.TypeIndex, cc tpi.CallingConvention) (*symgraph.Symbol, error) {
	sym := &symgraph.Symbol{
		TypeID:            typeID,
		Kind:              symgraph.KindFunction,
		CallingConvention: convertCallingConvention(cc),
	}

	ret, err := r.resolveType(returnTI)
	if err != nil {
		return nil, err
	}
	sym.ReturnType = ret

	args, err := r.resolveArgList(argListTI)
	if err != nil {
		return nil, err
	}
	sym.Arguments = args

	return sym, nil
}

func (r *resolver) resolveArgList(ti tpi.TypeIndex) ([]*symgraph.Symbol, error) {
	if ti == 0 {
		return nil, nil
	}

	record, err := r.tpi.GetTypeRecord(ti)
	if err != nil {
		return nil, err
	}
	if record == nil || record.Kind != tpi.LF_ARGLIST {
		return nil, fmt.Errorf("%w: %d", ErrUnresolvedType, ti)
	}

	rec, err := tpi.ParseArgListRecord(record.Data)
	if err != nil {
		return nil, err
	}

	args := make([]*symgraph.Symbol, 0, len(rec.ArgTypes))
	for _, argTI := range rec.ArgTypes {
		argType, err := r.resolveType(argTI)
		if err != nil {
			return nil, err
		}
		argSym := &symgraph.Symbol{
			TypeID:  r.nextSynthID(),
			Kind:    symgraph.KindFunctionArg,
			ArgType: argType,
		}
		r.graph.Register(argSym)
		args = append(args, argSym)
	}
	return args, nil
}

func convertCallingConvention(cc tpi.CallingConvention) symgraph.CallingConvention {
	switch cc {
	case tpi.CallingConvNearC, tpi.CallingConvFarC:
		return symgraph.CallCdecl
	case tpi.CallingConvNearPascal, tpi.CallingConvFarPascal:
		return symgraph.CallPascal
	case tpi.CallingConvNearFast, tpi.CallingConvFarFast:
		return symgraph.CallFastcall
	case tpi.CallingConvNearStd, tpi.CallingConvFarStd:
		return symgraph.CallStdcall
	case tpi.CallingConvThisCall:
		return symgraph.CallThiscall
	case tpi.CallingConvClrCall:
		return symgraph.CallClrcall
	case tpi.CallingConvNearVector:
		return symgraph.CallVectorcall
	case tpi.CallingConvSwift:
		return symgraph.CallSwift
	case tpi.CallingConvSwiftAsync:
		return symgraph.CallSwiftAsync
	default:
		return symgraph.CallCdecl
	}
}

// buildSimpleType handles type indices below tpi.FirstUserTypeIndex: the
// built-in primitives CodeView encodes directly in the index rather than in
// a TPI record. Grounded on the teacher's pdb/type.go::parseSimpleType.
func (r *resolver) buildSimpleType(ti tpi.TypeIndex) *symgraph.Symbol {
	kind := ti.SimpleKind()
	mode := ti.SimpleMode()

	bt, size := basicTypeFromSimpleKind(kind)

	if mode == tpi.SimpleModeDirect {
		return &symgraph.Symbol{
			TypeID:    uint64(ti),
			Kind:      symgraph.KindBase,
			BasicType: bt,
			Size:      size,
		}
	}

	// A pointer-mode simple type index (16-bit-era near/far/huge pointers to
	// a primitive) needs two Symbols: the pointee, minted under a synthetic
	// ID since it has no TPI record of its own, and the pointer itself under
	// ti.
	base := &symgraph.Symbol{
		TypeID:    r.nextSynthID(),
		Kind:      symgraph.KindBase,
		BasicType: bt,
		Size:      size,
	}
	r.graph.Register(base)

	ptrSize := uint64(4)
	switch mode {
	case tpi.SimpleModeNearPointer64:
		ptrSize = 8
	case tpi.SimpleModeNearPointer128:
		ptrSize = 16
	}

	return &symgraph.Symbol{
		TypeID:     uint64(ti),
		Kind:       symgraph.KindPointer,
		Size:       ptrSize,
		Referenced: base,
	}
}

// basicTypeFromSimpleKind maps a CodeView SimpleTypeKind to the
// (symgraph.BasicType, size) pair symgraph.GetBasicTypeString expects. Kept
// private to ingest rather than exported from symgraph (as
// SPEC_FULL.md's prose names it) because symgraph's package doc explicitly
// scopes it free of CodeView vocabulary; see DESIGN.md.
func basicTypeFromSimpleKind(kind tpi.SimpleTypeKind) (symgraph.BasicType, uint64) {
	switch kind {
	case tpi.SimpleTypeVoid:
		return symgraph.BasicVoid, 0
	case tpi.SimpleTypeNarrowChar:
		return symgraph.BasicChar, 1
	case tpi.SimpleTypeWideChar:
		return symgraph.BasicWChar, 2
	case tpi.SimpleTypeChar8:
		return symgraph.BasicChar8, 1
	case tpi.SimpleTypeChar16:
		return symgraph.BasicChar16, 2
	case tpi.SimpleTypeChar32:
		return symgraph.BasicChar32, 4
	case tpi.SimpleTypeSignedChar, tpi.SimpleTypeSByte:
		return symgraph.BasicInt, 1
	case tpi.SimpleTypeUnsignedChar, tpi.SimpleTypeByte:
		return symgraph.BasicUInt, 1
	case tpi.SimpleTypeInt16Short, tpi.SimpleTypeInt16:
		return symgraph.BasicInt, 2
	case tpi.SimpleTypeUInt16Short, tpi.SimpleTypeUInt16:
		return symgraph.BasicUInt, 2
	case tpi.SimpleTypeInt32Long, tpi.SimpleTypeInt32:
		return symgraph.BasicInt, 4
	case tpi.SimpleTypeUInt32Long, tpi.SimpleTypeUInt32:
		return symgraph.BasicUInt, 4
	case tpi.SimpleTypeInt64Quad, tpi.SimpleTypeInt64:
		return symgraph.BasicInt, 8
	case tpi.SimpleTypeUInt64Quad, tpi.SimpleTypeUInt64:
		return symgraph.BasicUInt, 8
	case tpi.SimpleTypeInt128Oct, tpi.SimpleTypeInt128:
		return symgraph.BasicInt, 16
	case tpi.SimpleTypeUInt128Oct, tpi.SimpleTypeUInt128:
		return symgraph.BasicUInt, 16
	case tpi.SimpleTypeFloat16:
		return symgraph.BasicFloat, 2
	case tpi.SimpleTypeFloat32:
		return symgraph.BasicFloat, 4
	case tpi.SimpleTypeFloat64:
		return symgraph.BasicFloat, 8
	case tpi.SimpleTypeFloat80:
		return symgraph.BasicFloat, 10
	case tpi.SimpleTypeFloat128:
		return symgraph.BasicFloat, 16
	case tpi.SimpleTypeBool8:
		return symgraph.BasicBool, 1
	case tpi.SimpleTypeBool16:
		return symgraph.BasicBool, 2
	case tpi.SimpleTypeBool32:
		return symgraph.BasicBool, 4
	case tpi.SimpleTypeBool64:
		return symgraph.BasicBool, 8
	case tpi.SimpleTypeHResult:
		return symgraph.BasicHresult, 4
	default:
		return symgraph.BasicNoType, 0
	}
}
