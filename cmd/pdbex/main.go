// Command pdbex reconstructs C header declarations from the type and
// symbol information stored in a Microsoft PDB file, grounded on
// original_source/Source/PDBExtractor.cpp's Run/ParseParameters sequence.
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:]))
}
