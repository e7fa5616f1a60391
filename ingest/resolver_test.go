package ingest

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdbex/pdbex/internal/tpi"
	"github.com/pdbex/pdbex/symgraph"
)

// buildTPIBytes assembles a minimal TPI stream around the given records,
// assigning them consecutive type indexes starting at
// tpi.FirstUserTypeIndex. Every record is framed as
// [u16 recordLen][u16 kind][data], matching tpi.Stream.GetTypeRecord's
// expectations; no inter-record padding is required since buildOffsetIndex
// walks records back-to-back by recordLen alone.
func buildTPIBytes(records ...[]byte) []byte {
	var body []byte
	for _, rec := range records {
		var buf [2]byte
		binary.LittleEndian.PutUint16(buf[:], uint16(len(rec)))
		body = append(body, buf[:]...)
		body = append(body, rec...)
	}

	header := make([]byte, tpi.TPIHeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], tpi.TPIVersionV80)
	binary.LittleEndian.PutUint32(header[4:8], tpi.TPIHeaderSize)
	binary.LittleEndian.PutUint32(header[8:12], uint32(tpi.FirstUserTypeIndex))
	binary.LittleEndian.PutUint32(header[12:16], uint32(tpi.FirstUserTypeIndex)+uint32(len(records)))
	binary.LittleEndian.PutUint32(header[16:20], uint32(len(body)))
	binary.LittleEndian.PutUint16(header[22:24], 0xFFFF) // HashAuxStreamIndex

	return append(header, body...)
}

func recordBytes(kind tpi.TypeRecordKind, data []byte) []byte {
	out := make([]byte, 2, 2+len(data))
	binary.LittleEndian.PutUint16(out, uint16(kind))
	return append(out, data...)
}

func u16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func cstring(s string) []byte {
	return append([]byte(s), 0)
}

func memberLeaf(typ tpi.TypeIndex, offset uint16, name string) []byte {
	var leaf []byte
	leaf = append(leaf, u16(uint16(tpi.LF_MEMBER))...)
	leaf = append(leaf, u16(0)...) // attributes: no access/method kind set
	leaf = append(leaf, u32(uint32(typ))...)
	leaf = append(leaf, u16(offset)...) // numeric leaf, value < 0x8000
	leaf = append(leaf, cstring(name)...)
	return leaf
}

// TestPopulateUDTFieldsFromSyntheticStruct exercises the full
// LF_FIELDLIST -> LF_STRUCTURE -> resolveType chain against a hand-built
// TPI stream describing:
//
//	struct Point { char a; int b; }; // a @0, b @4, sizeof == 8
func TestPopulateUDTFieldsFromSyntheticStruct(t *testing.T) {
	const (
		fieldListTI = tpi.FirstUserTypeIndex
		structTI    = tpi.FirstUserTypeIndex + 1
	)

	charTI := tpi.TypeIndex(tpi.SimpleTypeNarrowChar)
	intTI := tpi.TypeIndex(tpi.SimpleTypeInt32)

	var fieldListData []byte
	fieldListData = append(fieldListData, memberLeaf(charTI, 0, "a")...)
	fieldListData = append(fieldListData, memberLeaf(intTI, 4, "b")...)

	var structData []byte
	structData = append(structData, u16(2)...)                   // MemberCount
	structData = append(structData, u16(0)...)                   // Properties: no forward ref, no unique name
	structData = append(structData, u32(uint32(fieldListTI))...) // FieldList
	structData = append(structData, u32(0)...)                   // DerivedFrom
	structData = append(structData, u32(0)...)                   // VShape
	structData = append(structData, u16(8)...)                   // Size, numeric leaf < 0x8000
	structData = append(structData, cstring("Point")...)

	raw := buildTPIBytes(
		recordBytes(tpi.LF_FIELDLIST, fieldListData),
		recordBytes(tpi.LF_STRUCTURE, structData),
	)

	stream, err := tpi.ParseStream(raw)
	require.NoError(t, err)

	graph := symgraph.NewGraph()
	r := newResolver(graph, stream)

	sym, err := r.resolveType(structTI)
	require.NoError(t, err)

	require.Equal(t, symgraph.KindUDT, sym.Kind)
	require.Equal(t, symgraph.UDTStruct, sym.UDTKind)
	require.Equal(t, "Point", sym.Name)
	require.EqualValues(t, 8, sym.Size)
	require.Len(t, sym.Fields, 2)

	a := sym.Fields[0]
	require.Equal(t, "a", a.Name)
	require.EqualValues(t, 0, a.Offset)
	require.Equal(t, symgraph.BasicChar, a.Type.BasicType)
	require.EqualValues(t, 1, a.Type.Size)

	b := sym.Fields[1]
	require.Equal(t, "b", b.Name)
	require.EqualValues(t, 4, b.Offset)
	require.Equal(t, symgraph.BasicInt, b.Type.BasicType)
	require.EqualValues(t, 4, b.Type.Size)

	// Resolving the same type index again must return the identical Symbol,
	// not a fresh copy: the cache is what lets a member that points back to
	// its own containing struct terminate instead of recursing.
	again, err := r.resolveType(structTI)
	require.NoError(t, err)
	require.Same(t, sym, again)
}
