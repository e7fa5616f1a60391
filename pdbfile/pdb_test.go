package pdbfile_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdbex/pdbex/msf"
	"github.com/pdbex/pdbex/pdbfile"
)

// A file that's the right size but doesn't start with the MSF magic
// signature opens fine at the OS level; pdbfile must still report it as a
// malformed PDB, not a missing one.
func TestOpenReaderClassifiesBadMagicAsNotPDB(t *testing.T) {
	data := make([]byte, msf.SuperBlockSize)
	r := bytes.NewReader(data)

	_, err := pdbfile.OpenReader(r, int64(len(data)))
	require.Error(t, err)
	require.True(t, errors.Is(err, pdbfile.ErrNotPDB))
	require.False(t, errors.Is(err, pdbfile.ErrUnsupportedVersion))
}

func TestOpenReaderRejectsTruncatedData(t *testing.T) {
	data := make([]byte, msf.SuperBlockSize-1)
	r := bytes.NewReader(data)

	_, err := pdbfile.OpenReader(r, int64(len(data)))
	require.Error(t, err)
	require.True(t, errors.Is(err, pdbfile.ErrNotPDB))
}
