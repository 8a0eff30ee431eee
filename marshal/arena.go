package marshal

import (
	"unsafe"

	"github.com/es1024/python-staged-programming/report"
	"golang.org/x/sys/unix"
)

// slotAlign is the alignment of every staging region.
const slotAlign = 8

// arena is a bump allocator over an anonymous memory mapping.  The staging
// buffers of a single call are all placed in one arena which is unmapped once
// the call has returned and the results have been copied back.  The memory is
// outside of the Go heap so native code may hold onto it freely for the
// duration of the call.
type arena struct {
	mem []byte
	off int
}

// regionSize returns the number of arena bytes used by a region of n bytes.
// Every region takes at least one slot so that distinct arrays never share an
// address, even when they are empty.
func regionSize(n int) int {
	if n < slotAlign {
		return slotAlign
	}

	return (n + slotAlign - 1) &^ (slotAlign - 1)
}

// newArena maps an arena of the given size.
func newArena(size int) (*arena, error) {
	if size == 0 {
		return &arena{}, nil
	}

	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, report.Wrap(report.MarshalError, err, "failed to map staging memory")
	}

	return &arena{mem: mem}, nil
}

// alloc reserves a region of n bytes and returns its offset.
func (a *arena) alloc(n int) int {
	off := a.off
	a.off += regionSize(n)
	return off
}

// addr returns the native address of the byte at off.
func (a *arena) addr(off int) uintptr {
	return uintptr(unsafe.Pointer(&a.mem[off]))
}

// free unmaps the arena.
func (a *arena) free() error {
	if a.mem == nil {
		return nil
	}

	mem := a.mem
	a.mem = nil

	if err := unix.Munmap(mem); err != nil {
		return report.Wrap(report.MarshalError, err, "failed to unmap staging memory")
	}

	return nil
}

// -----------------------------------------------------------------------------

func (a *arena) putInt(off int, v int32) {
	*(*int32)(unsafe.Pointer(&a.mem[off])) = v
}

func (a *arena) putFloat(off int, v float64) {
	*(*float64)(unsafe.Pointer(&a.mem[off])) = v
}

func (a *arena) putBool(off int, v bool) {
	if v {
		a.mem[off] = 1
	} else {
		a.mem[off] = 0
	}
}

func (a *arena) putPtr(off int, v uintptr) {
	*(*uintptr)(unsafe.Pointer(&a.mem[off])) = v
}

func (a *arena) getInt(off int) int32 {
	return *(*int32)(unsafe.Pointer(&a.mem[off]))
}

func (a *arena) getFloat(off int) float64 {
	return *(*float64)(unsafe.Pointer(&a.mem[off]))
}

func (a *arena) getBool(off int) bool {
	return a.mem[off] == 1
}
