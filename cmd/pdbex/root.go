package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	logger  = logrus.New()
)

// rootCmd is the default (no-subcommand) header-reconstruction command. Its
// own flag grammar (§6 of SPEC_FULL.md) doesn't fit cobra/pflag's GNU style
// — `-e i`, trailing-`-` negation, bare-letter switches — so flag parsing is
// disabled here and parseReconstructArgs hand-parses os.Args the way
// original_source/Source/PDBExtractor.cpp::ParseParameters does. Cobra is
// kept for command structure (usage text, the inspect subcommand group,
// RunE error propagation), not for this command's own flags.
var rootCmd = &cobra.Command{
	Use:                "pdbex <path> [-o <file>] [-e n|i|a] [-u prefix] [-s prefix] [-r prefix] [-g suffix] [-p[-]] [-x[-]] [-b[-]] [-d[-]] [-f[-]]",
	Short:              "Reconstruct C header declarations from a PDB file",
	Long:               "pdbex extracts type and symbol information from a Microsoft PDB\nfile and reconstructs the corresponding C header declarations.",
	DisableFlagParsing: true,
	SilenceUsage:       true,
	SilenceErrors:      true,
	Args:               cobra.ArbitraryArgs,
	RunE:               runReconstruct,
}

func init() {
	logger.Out = os.Stderr
	logger.SetLevel(logrus.WarnLevel)
	rootCmd.AddCommand(inspectCmd)
}

func run(args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, formatCLIError(err))
		return 1
	}
	return 0
}

// formatCLIError reduces a wrapped error to the single-line message the
// four-category taxonomy calls for (SPEC_FULL.md's "ambient stack" section):
// InvalidParameters/FileNotFound/SymbolNotFound/ConsistencyViolation each
// get their own terse line, anything else prints as-is.
func formatCLIError(err error) string {
	switch {
	case errors.Is(err, ErrInvalidParameters):
		return "Invalid parameters"
	case errors.Is(err, ErrFileNotFound):
		return "File not found"
	case errors.Is(err, ErrSymbolNotFound):
		return "Symbol not found"
	case errors.Is(err, ErrConsistencyViolation):
		return "Consistency violation"
	default:
		return err.Error()
	}
}
