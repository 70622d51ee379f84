// Package heap implements the managed-heap inspection core of a post-mortem
// diagnostics library: given a read-only DataReader over a target process's
// address space and a TypeFactory that resolves method tables to type
// descriptors, it enumerates the objects, references, and roots of that
// process's garbage-collected heap.
//
// The package does not read target memory itself beyond what DataReader
// exposes, does not build type descriptors, and does not parse PE images or
// PDBs beyond the boundary described in Module.
package heap

import "fmt"

// Address is a byte address in the target process's address space.
type Address uint64

// Object is the address of a live object's method-table pointer: the same
// representation as Address, distinguished in signatures to mark "this
// address has been confirmed to carry an object header" versus an arbitrary
// byte offset.
type Object Address

func (o Object) String() string { return Address(o).String() }

// Add returns a + n.
func (a Address) Add(n int64) Address {
	return a + Address(n)
}

// Sub returns a-b as a signed distance. The subtraction is performed
// unsigned and the bit pattern reinterpreted as signed, so Sub is safe to
// use for address-ordering checks even when a < b.
func (a Address) Sub(b Address) int64 {
	return int64(a - b)
}

func (a Address) String() string {
	return fmt.Sprintf("0x%x", uint64(a))
}
