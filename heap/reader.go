package heap

// Version is a four-part version quadruple, as reported by a module's
// embedded version resource.
type Version struct {
	Major, Minor, Build, Revision uint16
}

// DataReader is the boundary collaborator for reading bytes out of the
// target process's address space, live or from a crash dump. It is owned
// by the data target and outlives any Heap built on top of it.
//
// All reads may fail. On failure a DataReader returns the zero value; the
// heap walker treats that as end-of-data for the slot being read, never as
// an error crossing an iteration boundary.
type DataReader interface {
	// PointerSize returns 4 or 8, the width of a pointer in the target.
	PointerSize() int64

	// ReadPointer reads a pointer-sized value at addr.
	ReadPointer(addr Address) Address

	// ReadUint8 reads a single byte at addr.
	ReadUint8(addr Address) uint8

	// ReadUint32 reads a little-endian 32-bit value at addr.
	ReadUint32(addr Address) uint32

	// ReadUint64 reads a little-endian 64-bit value at addr.
	ReadUint64(addr Address) uint64

	// ReadAt reads len(buf) bytes starting at addr into buf, returning the
	// number of bytes actually read.
	ReadAt(addr Address, buf []byte) int

	// VersionInfo returns the version resource embedded at base, if any.
	VersionInfo(base Address) (Version, bool)
}

// TypeFactory resolves method-table addresses to type descriptors. The core
// depends on the descriptors it produces but never builds them itself.
type TypeFactory interface {
	// GetOrCreateType resolves methodTable to a type descriptor. objectHint
	// is the address of the object whose method table this is, which some
	// factories use to disambiguate (e.g. boxed generics). ok is false if
	// methodTable is not a valid type.
	GetOrCreateType(methodTable Address, objectHint Address) (t *Type, ok bool)

	// CreateSystemType builds one of the four well-known types (free,
	// object, string, exception) at heap-construction time. Infallible.
	CreateSystemType(h *Heap, methodTable Address, canonicalName string) *Type
}
