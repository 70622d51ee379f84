package heap

// WellKnown identifies one of the four types memoized on heap creation.
type WellKnown uint8

const (
	WellKnownOther WellKnown = iota
	WellKnownFree
	WellKnownObject
	WellKnownString
	WellKnownException
)

func (w WellKnown) String() string {
	switch w {
	case WellKnownFree:
		return "Free"
	case WellKnownObject:
		return "Object"
	case WellKnownString:
		return "String"
	case WellKnownException:
		return "Exception"
	default:
		return "Other"
	}
}

// GCDescriptor encodes, for a single type, the offsets within an object that
// hold outgoing references and, for variable-length objects, a repeating
// stride. Producing one is the type factory's job; the walker in this
// package treats it as an opaque collaborator with a single method, Walk.
type GCDescriptor interface {
	// IsEmpty reports whether this descriptor carries no reference-bearing
	// offsets at all, letting callers skip the walk entirely.
	IsEmpty() bool

	// Walk calls yield once per reference found within the size bytes
	// starting at obj, passing the reference address and the offset of the
	// slot that held it. Walk must not dereference any yielded address
	// itself. Walk stops early if yield returns false.
	Walk(reader DataReader, obj Address, size int64, yield func(addr Address, fieldOffset int64) bool)
}

// Type is the descriptor for a single managed type, as produced by a
// TypeFactory.
type Type struct {
	Name string

	// StaticSize is the size of a non-array instance, or the fixed part of
	// an array/string instance.
	StaticSize int64

	// ComponentSize is the size of one element for arrays and strings, or 0
	// for non-variable-length types.
	ComponentSize int64

	ContainsPointers bool
	IsCollectible    bool

	// LoaderAllocatorHandle, for a collectible type, is the address from
	// which a single pointer to the type's owning loader-allocator object
	// can be read. Zero if not collectible or not applicable.
	LoaderAllocatorHandle Address

	// Descriptor is nil for types with ContainsPointers == false.
	Descriptor GCDescriptor

	WellKnown WellKnown
}

// IsArray reports whether t describes a variable-length (array or string)
// type.
func (t *Type) IsArray() bool {
	return t.ComponentSize != 0
}

// SimpleGCDescriptor is a reference GCDescriptor implementation: a fixed set
// of pointer-bearing offsets that repeats every Stride bytes. Stride == 0
// means the offsets apply once, to a fixed-size (non-array) instance.
type SimpleGCDescriptor struct {
	Offsets []int64
	Stride  int64
}

func (d *SimpleGCDescriptor) IsEmpty() bool {
	return d == nil || len(d.Offsets) == 0
}

func (d *SimpleGCDescriptor) Walk(reader DataReader, obj Address, size int64, yield func(Address, int64) bool) {
	if d.IsEmpty() {
		return
	}
	stride := d.Stride
	if stride <= 0 {
		stride = size
	}
	ptrSize := reader.PointerSize()
	for base := int64(0); base < size; base += stride {
		for _, off := range d.Offsets {
			fieldOff := base + off
			if fieldOff < 0 || fieldOff+ptrSize > size {
				continue
			}
			addr := reader.ReadPointer(obj.Add(fieldOff))
			if !yield(addr, fieldOff) {
				return
			}
		}
		if stride == size {
			break
		}
	}
}
