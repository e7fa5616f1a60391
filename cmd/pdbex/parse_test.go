package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdbex/pdbex/reconstruct"
)

func TestParseReconstructArgsRequiresPath(t *testing.T) {
	_, err := parseReconstructArgs(nil)
	require.True(t, errors.Is(err, ErrInvalidParameters))
}

func TestParseReconstructArgsDefaults(t *testing.T) {
	a, err := parseReconstructArgs([]string{"foo.pdb"})
	require.NoError(t, err)
	require.Equal(t, "foo.pdb", a.pdbPath)
	require.Equal(t, "", a.outputFilename)
	require.True(t, a.printFunctionNames)
	require.Equal(t, reconstruct.ExpansionInlineUnnamed, a.settings.MemberStructExpansion)
}

func TestParseReconstructArgsExpansionInlineAll(t *testing.T) {
	a, err := parseReconstructArgs([]string{"foo.pdb", "-e", "a"})
	require.NoError(t, err)
	require.Equal(t, reconstruct.ExpansionInlineAll, a.settings.MemberStructExpansion)
}

func TestParseReconstructArgsExpansionInlineUnnamedByDefaultLetter(t *testing.T) {
	// "-e i" picks the inline-unnamed policy, same as any letter other than
	// n or a, per ParseParameters' switch in the original.
	a, err := parseReconstructArgs([]string{"foo.pdb", "-e", "i"})
	require.NoError(t, err)
	require.Equal(t, reconstruct.ExpansionInlineUnnamed, a.settings.MemberStructExpansion)
}

func TestParseReconstructArgsExpansionNone(t *testing.T) {
	a, err := parseReconstructArgs([]string{"foo.pdb", "-e", "n"})
	require.NoError(t, err)
	require.Equal(t, reconstruct.ExpansionNone, a.settings.MemberStructExpansion)
}

func TestParseReconstructArgsTrailingDashNegates(t *testing.T) {
	a, err := parseReconstructArgs([]string{"foo.pdb", "-p-"})
	require.NoError(t, err)
	require.False(t, a.settings.CreatePaddingMembers)
}

func TestParseReconstructArgsBareSwitchEnables(t *testing.T) {
	a, err := parseReconstructArgs([]string{"foo.pdb", "-b"})
	require.NoError(t, err)
	require.True(t, a.settings.AllowBitFieldsInUnion)
}

func TestParseReconstructArgsOutputAndPrefixes(t *testing.T) {
	a, err := parseReconstructArgs([]string{"foo.pdb", "-o", "out.h", "-s", "st_", "-u", "un_", "-r", "Z"})
	require.NoError(t, err)
	require.Equal(t, "out.h", a.outputFilename)
	require.Equal(t, "st_", a.settings.AnonymousStructPrefix)
	require.Equal(t, "un_", a.settings.AnonymousUnionPrefix)
	require.Equal(t, "Z", a.settings.SymbolPrefix)
}

func TestParseReconstructArgsUnrecognizedFlag(t *testing.T) {
	_, err := parseReconstructArgs([]string{"foo.pdb", "-q"})
	require.True(t, errors.Is(err, ErrInvalidParameters))
}

func TestParseReconstructArgsMalformedSwitchShape(t *testing.T) {
	cases := [][]string{
		{"foo.pdb", "p"},     // missing leading dash
		{"foo.pdb", "-poo"},  // too long and not a trailing-dash negation
		{"foo.pdb", "-p oo"}, // embedded space makes it 5 chars
	}
	for _, args := range cases {
		_, err := parseReconstructArgs(args)
		require.Errorf(t, err, "expected error for args %v", args)
		require.Truef(t, errors.Is(err, ErrInvalidParameters), "args %v", args)
	}
}

func TestParseReconstructArgsMissingValueForFlagRequiringOne(t *testing.T) {
	_, err := parseReconstructArgs([]string{"foo.pdb", "-o"})
	require.True(t, errors.Is(err, ErrInvalidParameters))
}
