// Package goroutinelocal provides goroutine-local storage, the substitute
// this kernel uses everywhere the original relies on thread-local storage
// (uThisTask, uThisCoroutine, uThisCluster, uThisProcessor - see
// SPEC_FULL.md §3.13). Go has no language-level TLS and deliberately doesn't
// expose a stable goroutine identifier, so every known implementation of
// this idea (including the corpus's own goroutineid module, which ships
// as an empty placeholder with no source) resorts to one of two hacks:
// runtime.Stack parsing, or linking against unexported runtime symbols via
// go:linkname. The latter is faster but ties the kernel to specific Go
// runtime internals across versions; this package takes the portable,
// linkname-free route and pays the parsing cost, since a kernel meant to
// keep working across Go releases without a vendor patch is worth more
// here than the last nanosecond of accessor latency. Every accessor on
// the hot scheduling path (Coroutine.Resume) reads
// this value at most once per context switch, not per instruction, so
// the cost is bounded.
package goroutinelocal

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

var (
	mu    sync.RWMutex
	store = make(map[int64]map[any]any)
)

// id extracts the calling goroutine's runtime-assigned ID by parsing the
// header line of its own stack trace ("goroutine 123 [running]:"). This
// is the same technique the wider ecosystem's goroutine-id shims use when
// avoiding go:linkname.
func id() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		panic("goroutinelocal: unexpected stack trace header")
	}
	b = b[len(prefix):]
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	gid, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		panic("goroutinelocal: cannot parse goroutine id: " + err.Error())
	}
	return gid
}

// Get returns the value stored under key for the calling goroutine.
func Get(key any) (any, bool) {
	gid := id()
	mu.RLock()
	defer mu.RUnlock()
	m, ok := store[gid]
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// Set stores value under key for the calling goroutine.
func Set(key, value any) {
	gid := id()
	mu.Lock()
	defer mu.Unlock()
	m, ok := store[gid]
	if !ok {
		m = make(map[any]any)
		store[gid] = m
	}
	m[key] = value
}

// Clear removes every value stored for the calling goroutine. Every
// goroutine that calls Set must call Clear before it exits, or the entry
// leaks for the lifetime of the process - a coroutine's goroutine does
// this once its Main has returned.
func Clear() {
	gid := id()
	mu.Lock()
	defer mu.Unlock()
	delete(store, gid)
}
