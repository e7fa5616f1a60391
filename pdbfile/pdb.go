// Package pdbfile provides the lazily-loaded container view of a PDB file:
// MSF stream access plus parsed PDBInfo/TPI/IPI/DBI handles, grounded on
// pdb/pdb.go from github.com/pdbex/pdbex. Translating TPI/IPI records
// into a symgraph.Graph is package ingest's job, not this package's — File
// hands out the raw stream handles ingest walks.
package pdbfile

import (
	"fmt"
	"io"
	"sync"

	"github.com/pdbex/pdbex/internal/dbi"
	"github.com/pdbex/pdbex/internal/tpi"
	"github.com/pdbex/pdbex/msf"
)

// File represents an opened PDB file. It is safe for concurrent read access
// after opening: each stream is parsed at most once, guarded by its own
// sync.Once, and the result is shared by every caller.
type File struct {
	msf    *msf.File
	closed bool
	mu     sync.RWMutex

	pdbInfo     *PDBInfo
	pdbInfoOnce sync.Once
	pdbInfoErr  error

	tpiStream     *tpi.Stream
	tpiStreamOnce sync.Once
	tpiStreamErr  error

	ipiStream     *tpi.Stream
	ipiStreamOnce sync.Once
	ipiStreamErr  error

	dbiStream     *dbi.Stream
	dbiStreamOnce sync.Once
	dbiStreamErr  error

	sectionHeaders     *SectionHeaders
	sectionHeadersOnce sync.Once
	sectionHeadersErr  error
}

// PDBInfo contains metadata about the PDB file's identity stream.
type PDBInfo struct {
	Version   uint32
	Signature uint32
	Age       uint32
	GUID      [16]byte
}

// Open opens a PDB file from the given path.
func Open(path string) (*File, error) {
	msfFile, err := msf.Open(path)
	if err != nil {
		return nil, classifyOpenErr(err)
	}

	return &File{msf: msfFile}, nil
}

// OpenReader opens a PDB from an io.ReaderAt, allowing callers to read from
// arbitrary sources (embedded data, memory-mapped buffers, network reads).
func OpenReader(r io.ReaderAt, size int64) (*File, error) {
	msfFile, err := msf.NewFile(r, size)
	if err != nil {
		return nil, classifyOpenErr(err)
	}

	return &File{msf: msfFile}, nil
}

// Close releases resources associated with the PDB file.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}

	f.closed = true
	return f.msf.Close()
}

// Info returns metadata about the PDB file.
func (f *File) Info() (*PDBInfo, error) {
	f.pdbInfoOnce.Do(func() {
		f.pdbInfo, f.pdbInfoErr = f.loadPDBInfo()
	})

	if f.pdbInfoErr != nil {
		return nil, f.pdbInfoErr
	}
	return f.pdbInfo, nil
}

func (f *File) loadPDBInfo() (*PDBInfo, error) {
	data, err := f.msf.ReadStream(msf.StreamPDBInfo)
	if err != nil {
		return nil, fmt.Errorf("pdbfile: failed to read PDB info stream: %w", err)
	}

	if len(data) < 28 {
		return nil, fmt.Errorf("pdbfile: PDB info stream too short")
	}

	info := &PDBInfo{}
	info.Version = uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
	info.Signature = uint32(data[4]) | uint32(data[5])<<8 | uint32(data[6])<<16 | uint32(data[7])<<24
	info.Age = uint32(data[8]) | uint32(data[9])<<8 | uint32(data[10])<<16 | uint32(data[11])<<24
	copy(info.GUID[:], data[12:28])

	return info, nil
}

// TPI returns the parsed type-information stream, for ingest to walk
// directly when populating a symgraph.Graph.
func (f *File) TPI() (*tpi.Stream, error) {
	return f.getTPI()
}

// IPI returns the parsed ID-information stream (function/ID records), or an
// error if the PDB carries no separate IPI stream (pre-VC14 PDBs fold IDs
// into the TPI stream instead).
func (f *File) IPI() (*tpi.Stream, error) {
	return f.getIPI()
}

// Modules returns all modules (compilands) in the PDB.
func (f *File) Modules() ([]*Module, error) {
	dbiStream, err := f.getDBI()
	if err != nil {
		return nil, err
	}

	modules := make([]*Module, len(dbiStream.Modules))
	for i := range dbiStream.Modules {
		modules[i] = &Module{
			pdb:   f,
			index: i,
			info:  &dbiStream.Modules[i],
		}
	}

	return modules, nil
}

// ModuleCount returns the number of modules in the PDB.
func (f *File) ModuleCount() (int, error) {
	dbiStream, err := f.getDBI()
	if err != nil {
		return 0, err
	}
	return len(dbiStream.Modules), nil
}

// BuildInfo reports the linker that produced the PDB and the flags recorded
// in its DBI header, for the CLI's inspect info command.
type BuildInfo struct {
	LinkerMajorVersion  uint16
	LinkerMinorVersion  uint16
	Incremental         bool
	Stripped            bool
	HasConflictingTypes bool
}

// BuildInfo returns the PDB's linker/build metadata from the DBI header.
func (f *File) BuildInfo() (BuildInfo, error) {
	dbiStream, err := f.getDBI()
	if err != nil {
		return BuildInfo{}, err
	}

	h := &dbiStream.Header
	return BuildInfo{
		LinkerMajorVersion:  h.BuildMajorVersion(),
		LinkerMinorVersion:  h.BuildMinorVersion(),
		Incremental:         h.IsIncrementallyLinked(),
		Stripped:            h.IsStripped(),
		HasConflictingTypes: h.HasConflictingTypes(),
	}, nil
}

// BlockSize returns the block size used by this PDB file.
func (f *File) BlockSize() uint32 {
	return f.msf.BlockSize()
}

// NumStreams returns the number of streams in the PDB.
func (f *File) NumStreams() (uint32, error) {
	return f.msf.NumStreams()
}

// Internal helpers

func (f *File) getTPI() (*tpi.Stream, error) {
	f.tpiStreamOnce.Do(func() {
		data, err := f.msf.ReadStream(msf.StreamTPI)
		if err != nil {
			f.tpiStreamErr = fmt.Errorf("pdbfile: failed to read TPI stream: %w", err)
			return
		}

		f.tpiStream, f.tpiStreamErr = tpi.ParseStream(data)
	})

	if f.tpiStreamErr != nil {
		return nil, f.tpiStreamErr
	}
	return f.tpiStream, nil
}

func (f *File) getIPI() (*tpi.Stream, error) {
	f.ipiStreamOnce.Do(func() {
		exists, err := f.msf.StreamExists(msf.StreamIPI)
		if err != nil || !exists {
			f.ipiStreamErr = fmt.Errorf("pdbfile: IPI stream not found")
			return
		}

		data, err := f.msf.ReadStream(msf.StreamIPI)
		if err != nil {
			f.ipiStreamErr = fmt.Errorf("pdbfile: failed to read IPI stream: %w", err)
			return
		}

		f.ipiStream, f.ipiStreamErr = tpi.ParseStream(data)
	})

	if f.ipiStreamErr != nil {
		return nil, f.ipiStreamErr
	}
	return f.ipiStream, nil
}

func (f *File) getDBI() (*dbi.Stream, error) {
	f.dbiStreamOnce.Do(func() {
		data, err := f.msf.ReadStream(msf.StreamDBI)
		if err != nil {
			f.dbiStreamErr = fmt.Errorf("pdbfile: failed to read DBI stream: %w", err)
			return
		}

		f.dbiStream, f.dbiStreamErr = dbi.ParseStream(data)
	})

	if f.dbiStreamErr != nil {
		return nil, f.dbiStreamErr
	}
	return f.dbiStream, nil
}

func (f *File) readModuleSymbols(streamIndex uint16) ([]byte, error) {
	if streamIndex == 0xFFFF {
		return nil, nil
	}

	return f.msf.ReadStream(uint32(streamIndex))
}
