package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// inspectInfoCmd is adapted near-verbatim from the teacher's
// cmd/pdbview/info.go, retargeted at pdbfile.File instead of pdb.File.
var inspectInfoCmd = &cobra.Command{
	Use:   "info <pdb-file>",
	Short: "Display PDB file information",
	Long:  "Display general information about a PDB file including version, GUID, age, and statistics.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspectInfo,
}

func runInspectInfo(cmd *cobra.Command, args []string) error {
	pdbPath := args[0]

	f, err := openPDBFile(pdbPath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Info()
	if err != nil {
		return fmt.Errorf("failed to read PDB info: %w", err)
	}

	fmt.Fprintf(inspectOutput, "PDB File: %s\n", pdbPath)
	fmt.Fprintf(inspectOutput, "Version: %d\n", info.Version)
	fmt.Fprintf(inspectOutput, "Signature: 0x%08X\n", info.Signature)
	fmt.Fprintf(inspectOutput, "Age: %d\n", info.Age)
	fmt.Fprintf(inspectOutput, "GUID: %s\n", formatGUID(info.GUID))
	fmt.Fprintf(inspectOutput, "Block Size: %d\n", f.BlockSize())

	if numStreams, err := f.NumStreams(); err == nil {
		fmt.Fprintf(inspectOutput, "Number of Streams: %d\n", numStreams)
	}
	if moduleCount, err := f.ModuleCount(); err == nil {
		fmt.Fprintf(inspectOutput, "Number of Modules: %d\n", moduleCount)
	}
	if tpiStream, err := f.TPI(); err == nil {
		fmt.Fprintf(inspectOutput, "Types: %d\n", tpiStream.TypeCount())
	}
	if build, err := f.BuildInfo(); err == nil {
		fmt.Fprintf(inspectOutput, "Linker Version: %d.%d\n", build.LinkerMajorVersion, build.LinkerMinorVersion)
		fmt.Fprintf(inspectOutput, "Incrementally Linked: %t\n", build.Incremental)
		fmt.Fprintf(inspectOutput, "Stripped: %t\n", build.Stripped)
		if build.HasConflictingTypes {
			fmt.Fprintln(inspectOutput, "Warning: PDB reports conflicting types across modules")
		}
	}

	return nil
}

func formatGUID(guid [16]byte) string {
	return fmt.Sprintf("{%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X}",
		uint32(guid[0])|uint32(guid[1])<<8|uint32(guid[2])<<16|uint32(guid[3])<<24,
		uint16(guid[4])|uint16(guid[5])<<8,
		uint16(guid[6])|uint16(guid[7])<<8,
		guid[8], guid[9],
		guid[10], guid[11], guid[12], guid[13], guid[14], guid[15])
}
