package pdbfile

import (
	"sync"

	"github.com/pdbex/pdbex/internal/dbi"
	"github.com/pdbex/pdbex/internal/symbols"
)

// Module represents a compilation unit (object file) in the PDB.
type Module struct {
	pdb   *File
	index int
	info  *dbi.ModuleInfo

	records     moduleRecords
	recordsOnce sync.Once
	recordsErr  error
}

// moduleRecords holds the module's symbol stream, decoded into the shapes
// ingest cares about: procedures (for function-name collection and the
// inspect symbols subcommand) and data/UDT references.
type moduleRecords struct {
	procs []*symbols.ProcSym
	data  []*symbols.DataSym
	udts  []*symbols.UDTSym
}

// Index returns the module index.
func (m *Module) Index() int {
	return m.index
}

// Name returns the module name (typically the object file path).
func (m *Module) Name() string {
	return m.info.ModuleName
}

// ObjectFileName returns the original object file name.
func (m *Module) ObjectFileName() string {
	return m.info.ObjFileName
}

// Section returns the section index for this module's contribution.
func (m *Module) Section() uint16 {
	return m.info.Section.Section
}

// Offset returns the offset within the section.
func (m *Module) Offset() int32 {
	return m.info.Section.Offset
}

// Size returns the size of this module's contribution.
func (m *Module) Size() int32 {
	return m.info.Section.Size
}

// SourceFileCount returns the number of source files.
func (m *Module) SourceFileCount() uint16 {
	return m.info.SourceFileCount
}

func (m *Module) loadRecords() {
	m.recordsOnce.Do(func() {
		m.records, m.recordsErr = m.parseRecords()
	})
}

func (m *Module) parseRecords() (moduleRecords, error) {
	var out moduleRecords

	data, err := m.pdb.readModuleSymbols(m.info.ModuleSymStreamIndex)
	if err != nil {
		return out, err
	}
	if len(data) < 4 {
		return out, nil
	}

	// The module stream starts with a 4-byte signature, then symbol records.
	symData := data[4:]
	if uint32(len(symData)) < m.info.SymByteSize-4 {
		symData = symData[:m.info.SymByteSize-4]
	}

	it := symbols.NewSymbolIterator(symData)
	for {
		record, err := it.Next()
		if err != nil || record == nil {
			break
		}

		switch {
		case record.Kind.IsProc():
			if proc, err := symbols.ParseProcSym(record.Data); err == nil {
				out.procs = append(out.procs, proc)
			}
		case record.Kind.IsData():
			if d, err := symbols.ParseDataSym(record.Data); err == nil {
				out.data = append(out.data, d)
			}
		case record.Kind == symbols.S_UDT || record.Kind == symbols.S_UDT_ST:
			if udt, err := symbols.ParseUDTSym(record.Data); err == nil {
				out.udts = append(out.udts, udt)
			}
		}
	}

	return out, nil
}

// Procedures returns the procedure (function) symbols defined in this
// module, grounded on PDBExtractor.cpp's walk of S_[LG]PROC32 records.
func (m *Module) Procedures() ([]*symbols.ProcSym, error) {
	m.loadRecords()
	return m.records.procs, m.recordsErr
}

// DataSymbols returns the global/local data symbols defined in this module.
func (m *Module) DataSymbols() ([]*symbols.DataSym, error) {
	m.loadRecords()
	return m.records.data, m.recordsErr
}

// UDTSymbols returns the named-type references (S_UDT) recorded against
// this module, used by the inspect symbols subcommand.
func (m *Module) UDTSymbols() ([]*symbols.UDTSym, error) {
	m.loadRecords()
	return m.records.udts, m.recordsErr
}
