package pdbfile

import (
	"errors"
	"fmt"

	"github.com/pdbex/pdbex/msf"
)

// Sentinel errors for common conditions.
var (
	// ErrNotPDB indicates the file is not a valid PDB.
	ErrNotPDB = errors.New("pdbfile: not a valid PDB file")

	// ErrUnsupportedVersion indicates an unsupported PDB version.
	ErrUnsupportedVersion = errors.New("pdbfile: unsupported PDB version")

	// ErrInvalidStream indicates a corrupted or invalid stream.
	ErrInvalidStream = errors.New("pdbfile: invalid stream")

	// ErrModuleNotFound indicates a module was not found.
	ErrModuleNotFound = errors.New("pdbfile: module not found")

	// ErrFileClosed indicates the PDB file has been closed.
	ErrFileClosed = errors.New("pdbfile: file is closed")
)

// ParseError provides detailed information about parsing failures.
type ParseError struct {
	Stream  string // Stream name where error occurred
	Offset  int64  // Byte offset within stream
	Message string // Description of the error
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdbfile: parse error in %s at offset 0x%x: %s: %v",
			e.Stream, e.Offset, e.Message, e.Err)
	}
	return fmt.Sprintf("pdbfile: parse error in %s at offset 0x%x: %s",
		e.Stream, e.Offset, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// classifyOpenErr distinguishes an msf-layer open failure caused by the
// path itself (missing, unreadable) from one caused by the file's content
// not being a well-formed MSF container, wrapping the latter in ErrNotPDB
// so callers can tell "couldn't find it" apart from "found it, but it's
// corrupt or not a PDB" with errors.Is.
func classifyOpenErr(err error) error {
	switch {
	case errors.Is(err, msf.ErrInvalidMagic),
		errors.Is(err, msf.ErrInvalidBlockSize),
		errors.Is(err, msf.ErrInvalidFPMBlock),
		errors.Is(err, msf.ErrTruncatedFile):
		return fmt.Errorf("%w: %v", ErrNotPDB, err)
	default:
		return fmt.Errorf("pdbfile: failed to open file: %w", err)
	}
}
