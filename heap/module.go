package heap

import (
	"sync"

	"golang.org/x/xerrors"
)

// PEImage is the minimal view this package needs of a loaded PE image: just
// enough to latch a module's managed-ness and locate its default PDB
// reference. Constructing one is delegated to a PEImageFactory; this
// package never parses PE sections itself.
type PEImage interface {
	// IsManaged reports whether the image carries a CLR header.
	IsManaged() bool
	// DefaultPDB returns the image's default PDB reference, if any.
	DefaultPDB() (PdbReference, bool)
	// Close releases whatever backs the image view (mapped memory, an open
	// file, a cached section table). Every PE image is scoped to the
	// operation that opened it and must be closed on every exit path.
	Close() error
}

// PdbReference identifies the PDB that matches a module, as published in the
// image's debug directory (CodeView record): enough to locate the PDB on a
// symbol server, not to parse it.
type PdbReference struct {
	Path string
	GUID [16]byte
	Age  uint32
}

// PEImageFactory constructs a PEImage view over a windowed region of a
// DataReader. isVirtual selects whether offsets within that window are
// already-loaded virtual offsets (true) or on-disk file offsets (false).
type PEImageFactory interface {
	OpenPEImage(reader DataReader, imageBase Address, indexFileSize uint32, isVirtual bool) (PEImage, error)
}

// Module is a per-loaded-image descriptor. The immutable fields are set by
// the data target when it enumerates modules; the lazy fields latch once,
// safely under concurrent first access.
type Module struct {
	ImageBase     Address
	IndexFileSize uint32 // PE SizeOfImage, used for symbol-server lookup
	IndexTimestamp uint32
	FileName      string
	IsVirtual     bool
	BuildID       []byte // optional, Linux

	reader  DataReader
	images  PEImageFactory

	versionOnce sync.Once
	version     Version
	versionOK   bool
	versionErr  error
	versionSet  bool // true if Version was supplied at construction

	managedOnce sync.Once
	isManaged   bool
	managedErr  error

	pdbOnce sync.Once
	pdb     PdbReference
	pdbOK   bool
	pdbErr  error
}

// NewModule constructs a Module descriptor. version, if non-nil, pre-supplies
// the version quadruple so the lazy Version accessor never consults the
// reader.
func NewModule(reader DataReader, images PEImageFactory, imageBase Address, indexFileSize, indexTimestamp uint32, fileName string, isVirtual bool, buildID []byte, version *Version) *Module {
	m := &Module{
		ImageBase:      imageBase,
		IndexFileSize:  indexFileSize,
		IndexTimestamp: indexTimestamp,
		FileName:       fileName,
		IsVirtual:      isVirtual,
		BuildID:        buildID,
		reader:         reader,
		images:         images,
	}
	if version != nil {
		m.version = *version
		m.versionOK = true
		m.versionSet = true
	}
	return m
}

// GetPEImage constructs a PE image view windowed over [ImageBase,
// ImageBase+IndexFileSize). On any failure it returns an error and no image.
// As a side effect it latches IsManaged, if not already known. The returned
// image is scoped to the caller's operation: the caller must Close it on
// every exit path.
func (m *Module) GetPEImage() (PEImage, error) {
	img, err := m.images.OpenPEImage(m.reader, m.ImageBase, m.IndexFileSize, m.IsVirtual)
	if err != nil {
		return nil, xerrors.Errorf("opening PE image for module %q: %w", m.FileName, err)
	}
	m.managedOnce.Do(func() {
		m.isManaged = img.IsManaged()
	})
	return img, nil
}

// IsManaged reports whether the module carries a CLR header, computing it on
// demand via a transient PE image if not already latched. The image it opens
// is scoped to this call and closed before returning.
func (m *Module) IsManaged() (bool, error) {
	var outerErr error
	m.managedOnce.Do(func() {
		img, err := m.images.OpenPEImage(m.reader, m.ImageBase, m.IndexFileSize, m.IsVirtual)
		if err != nil {
			m.managedErr = xerrors.Errorf("opening PE image for module %q: %w", m.FileName, err)
			return
		}
		defer img.Close()
		m.isManaged = img.IsManaged()
	})
	if m.managedErr != nil {
		outerErr = m.managedErr
	}
	return m.isManaged, outerErr
}

// PDB returns the module's default PDB reference, or ok == false if the
// image has none (or could not be opened). The image it opens is scoped to
// this call and closed before returning.
func (m *Module) PDB() (ref PdbReference, ok bool, err error) {
	m.pdbOnce.Do(func() {
		img, openErr := m.images.OpenPEImage(m.reader, m.ImageBase, m.IndexFileSize, m.IsVirtual)
		if openErr != nil {
			m.pdbErr = xerrors.Errorf("opening PE image for module %q: %w", m.FileName, openErr)
			return
		}
		defer img.Close()
		m.pdb, m.pdbOK = img.DefaultPDB()
	})
	return m.pdb, m.pdbOK, m.pdbErr
}

// GetVersion returns the module's version quadruple, asking the DataReader
// for it at ImageBase if not pre-supplied at construction.
func (m *Module) GetVersion() (Version, error) {
	m.versionOnce.Do(func() {
		if m.versionSet {
			return
		}
		v, ok := m.reader.VersionInfo(m.ImageBase)
		if !ok {
			m.versionErr = xerrors.Errorf("no version info at %s", m.ImageBase)
			return
		}
		m.version = v
		m.versionOK = true
	})
	return m.version, m.versionErr
}
