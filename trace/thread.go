// Package trace holds the per-thread memory-access trace data model and
// the reader that parses it from the .trc file format.
package trace

import "fmt"

// Direction marks whether an Access is a load or a store. Only loads are
// retained past parsing: Fermi's L1 is not used for stores.
type Direction uint8

const (
	Load Direction = iota
	Store
)

// Access is a single memory reference belonging to one thread.
//
// Width starts at 1 and is driven to 0 by the coalescer when this access
// is subsumed by an earlier thread's access to the same line within the
// same warp; a width-0 access is skipped by the engine entirely.
type Access struct {
	Direction  Direction
	Address    uint64
	EndAddress uint64
	Bytes      uint32
	Width      uint32
}

// Thread is the ordered sequence of Accesses a single GPU thread performs,
// plus the program counter driving simulation.
type Thread struct {
	Accesses []Access

	pc       int
	warpID   uint32
	blockID  uint32
	hasWarp  bool
	hasBlock bool
}

// Append adds a to the end of the thread's access list. Used while parsing
// a trace file; never called during simulation.
func (t *Thread) Append(a Access) {
	t.Accesses = append(t.Accesses, a)
}

// IsDone reports whether the thread has no more accesses to issue.
func (t *Thread) IsDone() bool {
	return t.pc == len(t.Accesses)
}

// Schedule returns the next access and advances the program counter.
func (t *Thread) Schedule() (Access, error) {
	if t.pc >= len(t.Accesses) {
		return Access{}, fmt.Errorf("trace: thread scheduled beyond its access list")
	}
	a := t.Accesses[t.pc]
	t.pc++
	return a, nil
}

// Unschedule undoes the previous Schedule call. Used only by the MSHR
// back-pressure rollback path.
func (t *Thread) Unschedule() {
	if t.pc == 0 {
		panic("trace: unschedule called at pc 0")
	}
	t.pc--
}

// NextBytes returns the byte count of the access the thread would issue
// next, or 1 if the thread has no more accesses (matching the original
// model's "done threads don't widen the portion split" behavior).
func (t *Thread) NextBytes() uint32 {
	if t.pc >= len(t.Accesses) {
		return 1
	}
	return t.Accesses[t.pc].Bytes
}

// PC returns the index of the access the thread would issue next.
func (t *Thread) PC() int { return t.pc }

// Peek returns a pointer to the access the thread would issue next. The
// caller must have checked IsDone first.
func (t *Thread) Peek() *Access {
	return &t.Accesses[t.pc]
}

// Reset rewinds the program counter to 0, preparing the thread for another
// simulation pass.
func (t *Thread) Reset() {
	t.pc = 0
}

// SetWarp assigns the thread's warp id. May only be called once.
func (t *Thread) SetWarp(id uint32) {
	if t.hasWarp {
		panic("trace: warp id assigned twice")
	}
	t.warpID = id
	t.hasWarp = true
}

// WarpID returns the thread's assigned warp id.
func (t *Thread) WarpID() uint32 { return t.warpID }

// SetBlock assigns the thread's block id. May only be called once.
func (t *Thread) SetBlock(id uint32) {
	if t.hasBlock {
		panic("trace: block id assigned twice")
	}
	t.blockID = id
	t.hasBlock = true
}

// BlockID returns the thread's assigned block id.
func (t *Thread) BlockID() uint32 { return t.blockID }

// Dim3 describes a 2D or 3D thread-block shape as read from a trace header.
type Dim3 struct {
	X, Y, Z uint32
}

// BlockSize returns the number of threads per block described by d.
func (d Dim3) BlockSize() uint32 {
	return d.X * d.Y * d.Z
}
