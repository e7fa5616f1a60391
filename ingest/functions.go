package ingest

import (
	"github.com/pdbex/pdbex/internal/demangle"
	"github.com/pdbex/pdbex/pdbfile"
)

// CollectFunctionNames returns the undecorated names of every procedure
// symbol defined across file's modules, for the CLI's -f function-name
// supplement. Grounded on
// original_source/Source/PDBExtractor.cpp::PrintPDBFunctions.
func CollectFunctionNames(file *pdbfile.File) ([]string, error) {
	modules, err := file.Modules()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var names []string

	for _, mod := range modules {
		procs, err := mod.Procedures()
		if err != nil {
			return nil, err
		}

		for _, proc := range procs {
			name := demangle.Readable(proc.Name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}

	return names, nil
}
