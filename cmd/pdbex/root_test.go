package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatCLIErrorUsesTaxonomyMessage(t *testing.T) {
	require.Equal(t, "Invalid parameters", formatCLIError(ErrInvalidParameters))
	require.Equal(t, "File not found", formatCLIError(ErrFileNotFound))
	require.Equal(t, "Symbol not found", formatCLIError(ErrSymbolNotFound))
	require.Equal(t, "Consistency violation", formatCLIError(ErrConsistencyViolation))
}

func TestFormatCLIErrorWrapsUnderlyingCause(t *testing.T) {
	wrapped := errors.New("open foo.pdb: no such file or directory")
	err := errors.Join(ErrFileNotFound, wrapped)
	require.Equal(t, "File not found", formatCLIError(err))
}

func TestFormatCLIErrorFallsBackToErrorString(t *testing.T) {
	err := errors.New("something unrelated")
	require.Equal(t, "something unrelated", formatCLIError(err))
}
