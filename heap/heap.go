package heap

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/joeycumines/uxx/internal/spinlock"
)

// NoBucketSizes is the number of size classes a Heap maintains, mirroring
// the fixed bucket count the original's allocator compiles with.
const NoBucketSizes = 32

// mmapThreshold is the smallest request size routed straight to the
// platform's large-allocation path (mmap on Linux) instead of the arena
// and its buckets - spec.md §4.8's "mmap crossover".
const mmapThreshold = 64 << 10

// defaultChunkSize is how much an isolated Heap's arena grows by each
// time its bump cursor runs out of room.
const defaultChunkSize = 1 << 20

// bootstrapArenaSize is the size of the single static buffer the shared
// process heap bootstraps from, usable before any task or cluster
// exists (spec.md §4.8's bootstrap note).
const bootstrapArenaSize = 64 << 10

var bootstrapBuf [bootstrapArenaSize]byte

// blockHeader precedes every pointer this package hands out. Free finds
// it at a fixed offset behind the returned pointer and uses it to route
// the block back to the right place: a bucket freelist, a real munmap,
// or - for a block returned by Memalign, or a large block that came
// from the Go heap rather than mmap (non-Linux builds) - nowhere: arena
// memory is never individually reclaimed (the same "sbrk never shrinks"
// property the original's heap has), and a Go-heap block is left to the
// garbage collector.
type blockHeader struct {
	heap *Heap
	// length is the usable byte count at the returned pointer; set for
	// every non-bucket block (bucket blocks derive it from their size
	// class instead). For flagMmap blocks, the mapping itself spans
	// length+headerSize bytes starting at the header.
	length uintptr
	freed  atomic.Uint32 // 0 = live, 1 = freed; CAS'd by Free to catch double-free
	bucket int32
	flags  uint8
}

const (
	flagMmap uint8 = 1 << iota
	flagMemalign
)

var headerSize = int(unsafe.Sizeof(blockHeader{}))

var bucketSizes = computeBucketSizes()

// computeBucketSizes lays out NoBucketSizes size classes growing
// roughly geometrically from 16 bytes, the same "power-of-two-ish"
// spacing spec.md §3 describes rather than pure doubling, so small
// requests don't waste as much of a bucket's slack.
func computeBucketSizes() [NoBucketSizes]int {
	var sizes [NoBucketSizes]int
	size := 16
	for i := range sizes {
		sizes[i] = size
		if i%4 == 3 {
			size *= 2
		} else {
			size += size / 4
		}
	}
	return sizes
}

func bucketIndex(size int) int {
	for i, s := range bucketSizes {
		if size <= s {
			return i
		}
	}
	return -1
}

// bucket is one size class's spinlock-guarded freelist. The Open
// Question in spec.md §9 (lock-free vs. spinlock-guarded freelists) is
// resolved in favor of the spinlock here, since Go provides no portable
// 128-bit CAS to guard an ABA-safe lock-free stack (see DESIGN.md).
type bucket struct {
	lock spinlock.SpinLock
	size int
	free []unsafe.Pointer
}

// Heap is one allocation arena plus its NoBucketSizes buckets. Each
// Task owns a *Heap (defaulting to the shared process heap returned by
// Default, until NewHeap gives it isolation - spec.md §3's per-task
// heap pointer).
type Heap struct {
	arena   *arena
	buckets [NoBucketSizes]bucket
}

func newHeapOnArena(a *arena) *Heap {
	h := &Heap{arena: a}
	for i := range h.buckets {
		h.buckets[i].lock.Class = spinlock.ClassHeapBucket
		h.buckets[i].size = bucketSizes[i]
	}
	return h
}

// NewHeap returns a freshly isolated Heap with its own arena, for a
// task that has requested heap isolation rather than sharing the
// process-wide default.
func NewHeap() *Heap {
	return newHeapOnArena(newArena(defaultChunkSize))
}

var (
	bootstrapOnce sync.Once
	bootstrap     *Heap
)

// Default returns the heap every task starts out pointing at: a single
// shared process heap, lazily constructed from a static buffer on
// first use so allocation works even before any cluster or task has
// been created.
func Default() *Heap {
	bootstrapOnce.Do(func() {
		bootstrap = newHeapOnArena(&arena{chunkSize: bootstrapArenaSize, chunks: [][]byte{bootstrapBuf[:]}})
	})
	return bootstrap
}

// Alloc returns size bytes of zeroed memory from h, routed to the
// matching bucket's freelist, a fresh block carved from the arena, or -
// for a request too large for any bucket - a platform-specific large
// allocation (mmap on Linux).
func (h *Heap) Alloc(size int) unsafe.Pointer {
	if size <= 0 {
		size = 1
	}
	if size < mmapThreshold {
		if idx := bucketIndex(size); idx >= 0 {
			return h.allocBucket(idx)
		}
	}
	return h.allocLarge(size)
}

func (h *Heap) allocBucket(idx int) unsafe.Pointer {
	b := &h.buckets[idx]
	b.lock.Lock()
	if n := len(b.free); n > 0 {
		p := b.free[n-1]
		b.free = b.free[:n-1]
		b.lock.Unlock()
		(*blockHeader)(unsafe.Add(p, -headerSize)).freed.Store(0)
		clear(unsafe.Slice((*byte)(p), b.size))
		return p
	}
	b.lock.Unlock()

	total := headerSize + b.size
	base := h.arena.alloc(total)
	hdr := (*blockHeader)(base)
	*hdr = blockHeader{heap: h, bucket: int32(idx)}
	return unsafe.Add(base, headerSize)
}

func (h *Heap) allocLarge(size int) unsafe.Pointer {
	total := headerSize + size
	base, length, mmapped := platformAllocLarge(total)
	hdr := (*blockHeader)(base)
	*hdr = blockHeader{heap: h, bucket: -1, length: uintptr(length - headerSize)}
	if mmapped {
		hdr.flags = flagMmap
	}
	return unsafe.Add(base, headerSize)
}

// Memalign returns size bytes aligned to alignment, which must be a
// power of two. The returned pointer's preceding header is a "fake"
// header (spec.md §3's fakeHeader scheme) written wherever the
// alignment landed rather than always immediately after the true
// allocation base, so Free still finds a valid header directly behind
// any pointer Memalign returns.
func (h *Heap) Memalign(alignment, size int) unsafe.Pointer {
	if alignment <= 0 || alignment&(alignment-1) != 0 {
		panic("heap: alignment must be a power of two")
	}
	if alignment < headerSize {
		alignment = headerSize
	}
	total := headerSize + alignment + size
	base := h.arena.alloc(total)
	raw := uintptr(base) + uintptr(headerSize)
	aligned := (raw + uintptr(alignment-1)) &^ uintptr(alignment-1)
	hdr := (*blockHeader)(unsafe.Pointer(aligned - uintptr(headerSize)))
	// The usable extent runs from the aligned pointer to the end of the
	// over-allocation; at least size bytes by construction.
	usable := uintptr(base) + uintptr(total) - aligned
	*hdr = blockHeader{heap: h, bucket: -1, length: usable, flags: flagMemalign}
	return unsafe.Pointer(aligned)
}

// UsableSize returns the number of bytes actually reserved behind p -
// always at least the size originally requested, satisfying spec.md's
// malloc_usable_size(p) >= n invariant, since a bucket's full slot (or
// a large block's page-rounded mmap length) is usually bigger than
// what was asked for.
func UsableSize(p unsafe.Pointer) int {
	hdr := (*blockHeader)(unsafe.Add(p, -headerSize))
	if hdr.bucket >= 0 {
		return hdr.heap.buckets[hdr.bucket].size
	}
	return int(hdr.length)
}

// Free releases p, a pointer previously returned by some Heap's Alloc
// or Memalign. It is safe to call from any task, regardless of which
// heap originally allocated p, since the block's own header (not the
// caller) identifies where it must go back to. Freeing the same
// pointer twice panics, spec.md §8 item 6's "double-free aborts".
func Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	headerAt := unsafe.Add(p, -headerSize)
	hdr := (*blockHeader)(headerAt)
	if !hdr.freed.CompareAndSwap(0, 1) {
		panic("heap: double free")
	}
	switch {
	case hdr.flags&flagMmap != 0:
		platformFreeLarge(headerAt, int(hdr.length)+headerSize)
	case hdr.bucket >= 0:
		b := &hdr.heap.buckets[hdr.bucket]
		b.lock.Lock()
		b.free = append(b.free, p)
		b.lock.Unlock()
	default:
		// A Memalign block, or a Go-heap-backed large block: the arena
		// never reclaims individual allocations (the same property a
		// real sbrk-backed heap has), and the garbage collector owns a
		// Go-heap block, so there is nothing to do beyond letting the
		// caller's last reference to p go out of scope.
	}
}
