package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// inspectOutput and inspectOutputFile back the read-only companion views
// (SPEC_FULL.md §6b), adapted from the teacher's cmd/pdbview root command's
// --output flag lifecycle: each subcommand writes to inspectOutput, which
// defaults to stdout and is swapped for a file when -o is given.
var (
	inspectOutputFile string
	inspectOutput     io.Writer
)

// inspectCmd groups the read-only diagnostic views the teacher's cmd/pdbview
// exposed as top-level subcommands. This module demotes them to
// `pdbex inspect ...` so the top-level `pdbex <path> [flags]` invocation is
// free to mean "reconstruct headers", matching the §6 CLI surface.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Read-only PDB inspection views (info, modules, symbols, types)",
}

func init() {
	inspectCmd.PersistentFlags().StringVarP(&inspectOutputFile, "output", "o", "", "write output to file instead of stdout")
	inspectCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if inspectOutputFile != "" {
			f, err := os.Create(inspectOutputFile)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrFileNotFound, err)
			}
			inspectOutput = f
		} else {
			inspectOutput = os.Stdout
		}
		return nil
	}
	inspectCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if f, ok := inspectOutput.(*os.File); ok && f != os.Stdout {
			f.Close()
		}
	}

	inspectCmd.AddCommand(inspectInfoCmd)
	inspectCmd.AddCommand(inspectModulesCmd)
	inspectCmd.AddCommand(inspectSymbolsCmd)
	inspectCmd.AddCommand(inspectTypesCmd)
}
