package demangle_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdbex/pdbex/internal/demangle"
)

func TestReadableLeavesUnmangledNamesAlone(t *testing.T) {
	require.Equal(t, "main", demangle.Readable("main"))
}

func TestReadableFallsBackToOriginalOnParseFailure(t *testing.T) {
	// A name-fragment back-reference with nothing memorized yet to refer to
	// is an invalid mangled name; Readable must return it unchanged rather
	// than propagate the parse error.
	name := "?0invalid"
	require.Equal(t, name, demangle.Readable(name))
}
