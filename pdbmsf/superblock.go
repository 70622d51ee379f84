// Package pdbmsf reads the MSF (Multi-Stream File) superblock that sits at
// the head of every PDB file. It is the boundary between the heap-walking
// core's module descriptor, which only needs to publish a PdbReference, and
// the PDB format proper: stream directory contents, DBI records, and symbol
// data are out of scope here.
package pdbmsf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Magic is the 32-byte signature every MSF 7.0 file begins with.
var Magic = [32]byte{
	'M', 'i', 'c', 'r', 'o', 's', 'o', 'f', 't', ' ', 'C', '/', 'C', '+', '+', ' ',
	'M', 'S', 'F', ' ', '7', '.', '0', '0', '\r', '\n', 0x1a, 'D', 'S', 0, 0, 0,
}

// SuperBlock is the fixed 52-byte MSF header, followed by the directory's
// root page list.
type SuperBlock struct {
	PageSize      uint32
	FreePageMap   uint32
	PagesUsed     uint32
	DirectorySize uint32

	// DirectoryRoot lists the page indices of the stream directory's own
	// page-index stream: ceil(ceil(DirectorySize/PageSize)*4 / PageSize)
	// uint32 entries.
	DirectoryRoot []uint32
}

// ReadSuperBlock parses the MSF superblock from the start of r. It returns
// an error if the magic does not match or the file is too short for the
// header plus the directory-root page list its own fields describe.
func ReadSuperBlock(r io.ReaderAt) (*SuperBlock, error) {
	var header [52]byte
	if _, err := r.ReadAt(header[:], 0); err != nil {
		return nil, fmt.Errorf("reading MSF header: %w", err)
	}
	if !bytes.Equal(header[:32], Magic[:]) {
		return nil, fmt.Errorf("bad MSF magic")
	}

	sb := &SuperBlock{
		PageSize:      binary.LittleEndian.Uint32(header[32:36]),
		FreePageMap:   binary.LittleEndian.Uint32(header[36:40]),
		PagesUsed:     binary.LittleEndian.Uint32(header[40:44]),
		DirectorySize: binary.LittleEndian.Uint32(header[44:48]),
		// header[48:52] is the reserved "zero" word.
	}
	if sb.PageSize == 0 {
		return nil, fmt.Errorf("MSF page size is zero")
	}

	dirPages := ceilDiv(sb.DirectorySize, sb.PageSize)
	rootEntries := ceilDiv(dirPages*4, sb.PageSize)

	root := make([]byte, rootEntries*4)
	if _, err := r.ReadAt(root, 52); err != nil {
		return nil, fmt.Errorf("reading MSF directory root: %w", err)
	}
	sb.DirectoryRoot = make([]uint32, rootEntries)
	for i := range sb.DirectoryRoot {
		sb.DirectoryRoot[i] = binary.LittleEndian.Uint32(root[i*4 : i*4+4])
	}
	return sb, nil
}

func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
