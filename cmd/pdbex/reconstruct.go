package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdbex/pdbex/ingest"
	"github.com/pdbex/pdbex/pipeline"
	"github.com/pdbex/pdbex/symgraph"
)

// runReconstruct is rootCmd's RunE: it drives the full §6 pipeline — open
// the PDB, populate a symbol graph, sort it, and reconstruct every
// top-level declaration — and is the one place the four-category error
// taxonomy gets attached to whatever pdbfile/ingest/pipeline returns.
func runReconstruct(cmd *cobra.Command, rawArgs []string) error {
	rawArgs, verboseFlag := extractVerboseFlag(rawArgs)
	verbose = verboseFlag
	if verbose {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}

	if len(rawArgs) == 1 && (rawArgs[0] == "-h" || rawArgs[0] == "--help") {
		return cmd.Help()
	}

	a, err := parseReconstructArgs(rawArgs)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(a, os.Stdout)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileNotFound, err)
	}
	defer closeOut()
	a.settings.Output = out

	file, err := openPDBFile(a.pdbPath)
	if err != nil {
		return err
	}
	defer file.Close()

	graph := symgraph.NewGraph()
	if err := ingest.Populate(graph, file); err != nil {
		return fmt.Errorf("%w: %v", ErrSymbolNotFound, err)
	}

	arch, err := pipeline.Run(graph, pipeline.Options{
		Settings:           a.settings,
		PrintFunctionNames: a.printFunctionNames,
	})
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"architecture": arch.String(),
		"symbols":      graph.Len(),
	}).Info("reconstruction complete")

	if a.printFunctionNames {
		names, err := ingest.CollectFunctionNames(file)
		if err != nil {
			logger.WithError(err).Warn("could not collect function names")
		} else if err := pipeline.WriteFunctionNames(out, names); err != nil {
			return err
		}
	}

	return nil
}

// extractVerboseFlag pulls -v/--verbose out of args before the hand-rolled
// §6 parser sees them — they don't fit the -x/-x- switch grammar
// parseReconstructArgs implements, so they're handled as a one-off here.
func extractVerboseFlag(args []string) ([]string, bool) {
	out := make([]string, 0, len(args))
	found := false
	for _, a := range args {
		if a == "-v" || a == "--verbose" {
			found = true
			continue
		}
		out = append(out, a)
	}
	return out, found
}
