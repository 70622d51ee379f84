package heap

// LargeObjectThreshold is the size, in bytes, above which an object on
// a small-object segment is considered corrupt rather than legitimately
// large: real large objects live on a large-object segment instead.
const LargeObjectThreshold = 85000

// alignLarge is the alignment used by the large-object heap, regardless of
// pointer width.
const alignLarge = 7

// align rounds size up to the given alignment mask. large selects the
// large-object-heap alignment (always 8 bytes); otherwise the alignment is
// pointer-width dependent.
func align(size int64, large bool, ptrSize int64) int64 {
	a := ptrSize - 1
	if large {
		a = alignLarge
	}
	return (size + a) &^ a
}

// minObjectSize is the smallest size any live object can have.
func minObjectSize(ptrSize int64) int64 {
	return 3 * ptrSize
}

func floorSize(size, ptrSize int64) int64 {
	if m := minObjectSize(ptrSize); size < m {
		return m
	}
	return size
}

// ObjectSize computes the size, in bytes, of the object of type t located at
// obj. For array and string types it reads the element count out of the
// target; for strings it applies the trailing-null correction before
// multiplying by the component size. The result is floored at three pointer
// widths but is never aligned: alignment only matters to the
// allocation-context skipper, not to a reported object size.
func ObjectSize(reader DataReader, obj Address, t *Type) int64 {
	size, _ := ObjectSizeAndCount(reader, obj, t)
	return size
}

// ObjectSizeAndCount is ObjectSize plus the element count that went into the
// computation (0 for non-array types), for callers that want to report it
// (e.g. the diagnostic step log).
func ObjectSizeAndCount(reader DataReader, obj Address, t *Type) (size, count int64) {
	ptrSize := reader.PointerSize()
	if t.ComponentSize == 0 {
		return floorSize(t.StaticSize, ptrSize), 0
	}
	count = int64(reader.ReadUint32(obj.Add(ptrSize)))
	if t.WellKnown == WellKnownString {
		count++
	}
	size = count*t.ComponentSize + t.StaticSize
	return floorSize(size, ptrSize), count
}
