package symgraph

// BasicType mirrors the CodeView/DIA basic-type enumeration (CV_builtin_type_e
// / the DIA SDK's BasicType) closely enough to drive GetBasicTypeString; it is
// deliberately not a full reproduction, just the subset original_source
// actually maps to a string.
type BasicType uint8

const (
	BasicNoType BasicType = iota
	BasicVoid
	BasicChar
	BasicWChar
	BasicChar8
	BasicChar16
	BasicChar32
	BasicInt
	BasicUInt
	BasicFloat
	BasicBCD
	BasicBool
	BasicLong
	BasicULong
	BasicCurrency
	BasicDate
	BasicVariant
	BasicComplex
	BasicBit
	BasicBSTR
	BasicHresult
)

// basicTypeMapMSVC mirrors original_source/Source/PDB.cpp's BasicTypeMapMSVC
// table: (BasicType, size) -> spelling. GetBasicTypeString does a linear
// first-match scan, which is why btInt/16 ("__m128") is listed ahead of
// btUInt/16 here: the original scans in declaration order and treats the
// first match as authoritative (spec.md §9, resolved in DESIGN.md).
type basicTypeEntry struct {
	t    BasicType
	size uint64
	name string
}

var basicTypeMapMSVC = []basicTypeEntry{
	{BasicNoType, 0, "<NoType>"},
	{BasicVoid, 0, "void"},
	{BasicChar, 0, "char"},
	{BasicChar8, 0, "char8_t"},
	{BasicChar16, 0, "char16_t"},
	{BasicChar32, 0, "char32_t"},
	{BasicWChar, 0, "wchar_t"},
	{BasicInt, 1, "char"},
	{BasicInt, 2, "short"},
	{BasicInt, 4, "int"},
	{BasicInt, 8, "int64_t"},
	{BasicInt, 16, "__m128"},
	{BasicUInt, 1, "unsigned char"},
	{BasicUInt, 2, "unsigned short"},
	{BasicUInt, 4, "unsigned int"},
	{BasicUInt, 8, "uint64_t"},
	{BasicUInt, 16, "__m128"},
	{BasicFloat, 4, "float"},
	{BasicFloat, 8, "double"},
	{BasicFloat, 10, "long double"},
	{BasicBCD, 0, "BCD"},
	{BasicBool, 0, "bool"},
	{BasicLong, 0, "long"},
	{BasicULong, 0, "unsigned long"},
	{BasicCurrency, 0, "<NoType>"},
	{BasicDate, 0, "DATE"},
	{BasicVariant, 0, "VARIANT"},
	{BasicComplex, 0, "<NoType>"},
	{BasicBit, 0, "<NoType>"},
	{BasicBSTR, 0, "BSTR"},
	{BasicHresult, 0, "HRESULT"},
}

// GetBasicTypeString renders a basic type the way a C header declares it,
// matching on (t, size) with size 0 in the table meaning "any size".
// Grounded on original_source/Source/PDB.cpp::GetBasicTypeString.
func GetBasicTypeString(t BasicType, size uint64) string {
	for _, e := range basicTypeMapMSVC {
		if e.t == t && (e.size == size || e.size == 0) {
			return e.name
		}
	}
	return "<NoType>"
}

// GetUdtKindString renders the C keyword for a UDT kind. Grounded on
// original_source/Source/PDB.cpp::GetUdtKindString.
func GetUdtKindString(k UDTKind) string {
	return k.String()
}
