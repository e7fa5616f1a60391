package ingest

import "errors"

// Sentinel errors for expected ingestion failures, in the same style as
// pdbfile/errors.go.
var (
	// ErrUnresolvedType indicates a type record references a type index that
	// does not exist in the TPI stream.
	ErrUnresolvedType = errors.New("ingest: unresolved type index")

	// ErrUnsupportedRecord indicates a type record kind this driver has no
	// translation for was found where a Symbol was required (as opposed to
	// a field-list leaf, which is simply skipped).
	ErrUnsupportedRecord = errors.New("ingest: unsupported type record kind")
)
