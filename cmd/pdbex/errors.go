package main

import (
	"errors"
	"fmt"

	"github.com/pdbex/pdbex/pdbfile"
)

// Sentinel errors for the four-category error taxonomy the CLI reports on,
// grounded on original_source/Source/PDBExtractor.cpp's
// MESSAGE_INVALID_PARAMETERS/MESSAGE_FILE_NOT_FOUND/MESSAGE_SYMBOL_NOT_FOUND
// constants plus symgraph's own consistency-violation panic message.
var (
	ErrInvalidParameters   = errors.New("invalid parameters")
	ErrFileNotFound        = errors.New("file not found")
	ErrSymbolNotFound      = errors.New("symbol not found")
	ErrConsistencyViolation = errors.New("consistency violation")
)

// openPDBFile opens path and sorts the resulting failure into the CLI's
// taxonomy: a file that doesn't exist (or can't be read) is "file not
// found", but a file that opens fine and turns out not to be a well-formed
// MSF container is a "consistency violation" — the path was fine, the
// content wasn't.
func openPDBFile(path string) (*pdbfile.File, error) {
	f, err := pdbfile.Open(path)
	if err != nil {
		if errors.Is(err, pdbfile.ErrNotPDB) {
			return nil, fmt.Errorf("%w: %v", ErrConsistencyViolation, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrFileNotFound, err)
	}
	return f, nil
}
