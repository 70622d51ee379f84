package heap

import "encoding/binary"

// fakeReader is a sparse, byte-addressable in-memory DataReader used across
// this package's tests. Reads of never-written bytes return zero, matching
// the boundary contract's "unreadable memory reads as zero" rule.
type fakeReader struct {
	ptrSize int64
	mem     map[Address]byte
	version map[Address]Version
}

func newFakeReader(ptrSize int64) *fakeReader {
	return &fakeReader{ptrSize: ptrSize, mem: map[Address]byte{}}
}

func (r *fakeReader) writeBytes(addr Address, b []byte) {
	for i, c := range b {
		r.mem[addr.Add(int64(i))] = c
	}
}

func (r *fakeReader) writePointer(addr Address, v Address) {
	buf := make([]byte, r.ptrSize)
	if r.ptrSize == 8 {
		binary.LittleEndian.PutUint64(buf, uint64(v))
	} else {
		binary.LittleEndian.PutUint32(buf, uint32(v))
	}
	r.writeBytes(addr, buf)
}

func (r *fakeReader) writeUint32(addr Address, v uint32) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	r.writeBytes(addr, buf)
}

func (r *fakeReader) PointerSize() int64 { return r.ptrSize }

func (r *fakeReader) readN(addr Address, n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = r.mem[addr.Add(int64(i))]
	}
	return buf
}

func (r *fakeReader) ReadPointer(addr Address) Address {
	buf := r.readN(addr, int(r.ptrSize))
	if r.ptrSize == 8 {
		return Address(binary.LittleEndian.Uint64(buf))
	}
	return Address(binary.LittleEndian.Uint32(buf))
}

func (r *fakeReader) ReadUint8(addr Address) uint8 { return r.mem[addr] }

func (r *fakeReader) ReadUint32(addr Address) uint32 {
	return binary.LittleEndian.Uint32(r.readN(addr, 4))
}

func (r *fakeReader) ReadUint64(addr Address) uint64 {
	return binary.LittleEndian.Uint64(r.readN(addr, 8))
}

func (r *fakeReader) ReadAt(addr Address, buf []byte) int {
	copy(buf, r.readN(addr, len(buf)))
	return len(buf)
}

func (r *fakeReader) VersionInfo(base Address) (Version, bool) {
	v, ok := r.version[base]
	return v, ok
}

// fakeTypeFactory resolves method tables from a fixed table set up by the
// test; it never builds descriptors dynamically.
type fakeTypeFactory struct {
	byMT map[Address]*Type
}

func newFakeTypeFactory() *fakeTypeFactory {
	return &fakeTypeFactory{byMT: map[Address]*Type{}}
}

func (f *fakeTypeFactory) GetOrCreateType(mt Address, objectHint Address) (*Type, bool) {
	t, ok := f.byMT[mt]
	return t, ok
}

func (f *fakeTypeFactory) CreateSystemType(h *Heap, mt Address, name string) *Type {
	return &Type{Name: name, StaticSize: 24}
}

// fakeSource is a HeapSource with everything directly settable by a test.
type fakeSource struct {
	segs        []Segment
	allocCtx    AllocContexts
	finRootSegs []Segment
	finObjSegs  []Segment
	depHandles  []DependentHandle
	strong      []*Root
	threads     []ThreadRoots
}

func (s *fakeSource) Segments() []Segment                      { return s.segs }
func (s *fakeSource) AllocationContexts() AllocContexts         { return s.allocCtx }
func (s *fakeSource) FinalizerRootSegments() []Segment          { return s.finRootSegs }
func (s *fakeSource) FinalizerObjectSegments() []Segment        { return s.finObjSegs }
func (s *fakeSource) DependentHandles() []DependentHandle       { return s.depHandles }
func (s *fakeSource) StrongHandles() []*Root                    { return s.strong }
func (s *fakeSource) Threads() []ThreadRoots                    { return s.threads }

type fakeThread struct {
	roots []*Root
}

func (t *fakeThread) StackRoots() []*Root { return t.roots }
