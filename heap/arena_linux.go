//go:build linux

package heap

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

const pageSize = 4096

func pageRound(n int) int {
	return (n + pageSize - 1) &^ (pageSize - 1)
}

// platformAllocLarge satisfies an oversized request with a real mmap
// anonymous mapping, the crossover spec.md §4.8 calls for, instead of
// carving it out of the arena - large blocks come and go independently
// of the bump cursor's own lifetime.
func platformAllocLarge(total int) (ptr unsafe.Pointer, length int, mmapped bool) {
	length = pageRound(total)
	b, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, 0, false
	}
	return unsafe.Pointer(&b[0]), length, true
}

func platformFreeLarge(ptr unsafe.Pointer, length int) {
	b := unsafe.Slice((*byte)(ptr), length)
	_ = unix.Munmap(b)
}
