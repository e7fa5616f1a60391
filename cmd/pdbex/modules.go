package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var inspectModulesVerbose bool

// inspectModulesCmd is adapted from the teacher's cmd/pdbview/modules.go,
// minus the per-module symbol count the teacher's pdb.Module exposed —
// pdbfile.Module narrows that surface down to Procedures/DataSymbols/
// UDTSymbols accessors (see DESIGN.md), none of which is a cheap single
// count, so the verbose view reports procedure counts instead.
var inspectModulesCmd = &cobra.Command{
	Use:   "modules <pdb-file>",
	Short: "List modules (compilation units) in the PDB file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspectModules,
}

func init() {
	inspectModulesCmd.Flags().BoolVarP(&inspectModulesVerbose, "verbose", "v", false, "show detailed module information")
}

func runInspectModules(cmd *cobra.Command, args []string) error {
	pdbPath := args[0]

	f, err := openPDBFile(pdbPath)
	if err != nil {
		return err
	}
	defer f.Close()

	modules, err := f.Modules()
	if err != nil {
		return fmt.Errorf("failed to get modules: %w", err)
	}

	if inspectModulesVerbose {
		fmt.Fprintf(inspectOutput, "%-5s %-8s %-10s %-8s %-8s %s\n", "INDEX", "SECTION", "OFFSET", "SIZE", "PROCS", "NAME")
		fmt.Fprintf(inspectOutput, "%s\n", strings.Repeat("-", 100))

		for _, mod := range modules {
			procCount := 0
			if procs, err := mod.Procedures(); err == nil {
				procCount = len(procs)
			}
			fmt.Fprintf(inspectOutput, "%-5d %04X     0x%08X %-8d %-8d %s\n",
				mod.Index(), mod.Section(), mod.Offset(), mod.Size(), procCount, mod.Name())
			if mod.ObjectFileName() != mod.Name() {
				fmt.Fprintf(inspectOutput, "      Object: %s\n", mod.ObjectFileName())
			}
		}
	} else {
		fmt.Fprintf(inspectOutput, "%-5s %s\n", "INDEX", "NAME")
		fmt.Fprintf(inspectOutput, "%s\n", strings.Repeat("-", 80))

		for _, mod := range modules {
			fmt.Fprintf(inspectOutput, "%-5d %s\n", mod.Index(), mod.Name())
		}
	}

	fmt.Fprintf(inspectOutput, "\nTotal: %d modules\n", len(modules))
	return nil
}
