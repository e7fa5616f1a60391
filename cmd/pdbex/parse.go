package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pdbex/pdbex/reconstruct"
)

// reconstructArgs holds the parsed §6 CLI surface for the default
// (no-subcommand) invocation: a PDB path plus the reconstructor knobs.
type reconstructArgs struct {
	pdbPath            string
	outputFilename     string
	settings           reconstruct.Settings
	printFunctionNames bool
}

// parseReconstructArgs hand-parses args the way
// original_source/Source/PDBExtractor.cpp::ParseParameters does: a leading
// path argument, then a sequence of `-x`/`-xy`/`-xy-` two- or three-
// character switches. Cobra's GNU-style pflag can't express the trailing
// `-` negation grammar or single-letter value flags like `-e i`, so this
// bypasses it entirely for this one command.
func parseReconstructArgs(args []string) (*reconstructArgs, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: missing pdb path", ErrInvalidParameters)
	}

	out := &reconstructArgs{
		pdbPath:            args[0],
		settings:           reconstruct.DefaultSettings(nil),
		printFunctionNames: true,
	}

	i := 1
	for i < len(args) {
		current := args[i]

		var next string
		hasNext := i+1 < len(args)
		if hasNext {
			next = args[i+1]
		}

		if err := validateSwitchShape(current); err != nil {
			return nil, err
		}

		offSwitch := len(current) == 3 && current[2] == '-'

		switch current[1] {
		case 'o':
			if next == "" {
				return nil, fmt.Errorf("%w: -o requires a filename", ErrInvalidParameters)
			}
			i++
			out.outputFilename = next

		case 'e':
			if next == "" {
				return nil, fmt.Errorf("%w: -e requires n, i, or a", ErrInvalidParameters)
			}
			i++
			switch next[0] {
			case 'n':
				out.settings.MemberStructExpansion = reconstruct.ExpansionNone
			case 'a':
				out.settings.MemberStructExpansion = reconstruct.ExpansionInlineAll
			default:
				out.settings.MemberStructExpansion = reconstruct.ExpansionInlineUnnamed
			}

		case 'u':
			if next == "" {
				return nil, fmt.Errorf("%w: -u requires a prefix", ErrInvalidParameters)
			}
			i++
			out.settings.AnonymousUnionPrefix = next

		case 's':
			if next == "" {
				return nil, fmt.Errorf("%w: -s requires a prefix", ErrInvalidParameters)
			}
			i++
			out.settings.AnonymousStructPrefix = next

		case 'r':
			if next == "" {
				return nil, fmt.Errorf("%w: -r requires a prefix", ErrInvalidParameters)
			}
			i++
			out.settings.SymbolPrefix = next

		case 'g':
			if next == "" {
				return nil, fmt.Errorf("%w: -g requires a suffix", ErrInvalidParameters)
			}
			i++
			out.settings.SymbolSuffix = next

		case 'p':
			out.settings.CreatePaddingMembers = !offSwitch

		case 'x':
			out.settings.ShowOffsets = !offSwitch

		case 'b':
			out.settings.AllowBitFieldsInUnion = !offSwitch

		case 'd':
			out.settings.AllowAnonymousDataTypes = !offSwitch

		case 'f':
			out.printFunctionNames = !offSwitch

		default:
			return nil, fmt.Errorf("%w: unrecognized flag %q", ErrInvalidParameters, current)
		}

		i++
	}

	return out, nil
}

// validateSwitchShape enforces the same argument-shape check as
// ParseParameters: every switch after the path is exactly `-x` or `-x-`
// (two or three characters, leading dash, trailing dash only in position 2).
func validateSwitchShape(arg string) error {
	if len(arg) != 2 && len(arg) != 3 {
		return fmt.Errorf("%w: %q is not a valid flag", ErrInvalidParameters, arg)
	}
	if arg[0] != '-' {
		return fmt.Errorf("%w: %q is not a valid flag", ErrInvalidParameters, arg)
	}
	if len(arg) == 3 && arg[2] != '-' {
		return fmt.Errorf("%w: %q is not a valid flag", ErrInvalidParameters, arg)
	}
	return nil
}

// openOutput resolves the reconstructArgs output filename into a writer,
// defaulting to w when no -o flag was given.
func openOutput(a *reconstructArgs, w io.Writer) (io.Writer, func() error, error) {
	if a.outputFilename == "" {
		return w, func() error { return nil }, nil
	}
	f, err := os.Create(a.outputFilename)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
