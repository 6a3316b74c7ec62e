// Package uxx is the kernel's embedding-API surface: the thread-local
// accessors a translated program calls (uThisTask and friends), the
// process-level Exit/Abort pair that interpose the C library's own
// exit(3)/abort(3) to run cluster teardown and print diagnostics
// first, and the environment-variable configuration knobs spec.md §6
// documents as the Go substitute for the original's weak-symbol
// overrides.
//
// Logging throughout this package (and anywhere else in the kernel
// that logs at all) goes through a github.com/joeycumines/logiface
// Logger, backed by github.com/joeycumines/logiface-slog by default -
// the same structured-logging stack the rest of this module's corpus
// uses, rather than the standard library's log package directly.
package uxx

import (
	"log/slog"
	"os"

	"github.com/joeycumines/logiface"
	logifaceslog "github.com/joeycumines/logiface-slog"

	"github.com/joeycumines/uxx/cluster"
	"github.com/joeycumines/uxx/event"
)

// Log is the kernel's diagnostic logger, used by Abort and by
// DefaultClusterConfig to report misconfigured environment variables.
// It defaults to a slog.TextHandler writing to stderr at Info level;
// replace it (before starting any cluster, via SetLog to keep the
// kernel subsystems' loggers in step) to redirect or filter kernel
// diagnostics.
var Log = logiface.New[*logifaceslog.Event](
	logifaceslog.NewLogger(slog.NewTextHandler(os.Stderr, nil), logifaceslog.WithLevel(logiface.LevelInformational)),
)

func init() {
	SetLog(Log)
}

// SetLog replaces Log and re-points the kernel subsystems' own loggers
// (cluster.Log, event.Log - processor lifecycle at Debug, timer
// scheduling at Trace) at the same destination, through logiface's
// generalized-logger form so those packages stay backend-agnostic. An
// embedder using a different logiface backend can instead set
// cluster.Log and event.Log directly.
func SetLog(l *logiface.Logger[*logifaceslog.Event]) {
	Log = l
	cluster.Log = l.Logger()
	event.Log = l.Logger()
}

// ClusterConfig models the tunables spec.md §6 documents as
// environment/weak-symbol overrides - DefaultStackSize, Preemption,
// SpinCount, Processors, and HeapExpansion. DefaultClusterConfig fills
// every field with its documented default; nothing in this module
// replaces a zero field with a default.
type ClusterConfig struct {
	// DefaultStackSize is unused by this implementation (Go goroutine
	// stacks grow automatically; see coroutine.Coroutine.StackExhausted's
	// doc comment) but is still parsed from UXX_DEFAULT_STACK_SIZE and
	// validated, so a misconfigured environment is still diagnosed.
	DefaultStackSize int
	// Preemption is the interval Processor.EnablePreemption arms between
	// cooperative preemption checks.
	Preemption int // milliseconds
	// SpinCount is parsed from UXX_DEFAULT_SPIN but not applied:
	// internal/spinlock.SpinCount is a package constant, not a runtime
	// variable, so this field is purely informational unless the caller
	// threads it through explicitly.
	SpinCount int
	// Processors is how many Processors an embedder starts on a new
	// Cluster, one Cluster.StartProcessor call each.
	Processors int
	// HeapExpansion is parsed from UXX_DEFAULT_HEAP_EXPANSION; heap.NewHeap
	// does not read it, and an isolated heap's arena grows by a fixed
	// 1 MiB chunk.
	HeapExpansion int
}

const (
	defaultStackSize   = 30000
	mainStackSize      = 500000
	defaultPreemption  = 10
	defaultSpinCount   = 1000
	defaultProcessors  = 1
	defaultHeapExpand  = 1 << 20 // 1 MiB
	defaultMmapStart   = 96 << 10
)

// DefaultClusterConfig returns the documented defaults
// (DEFAULT_STACK_SIZE=30000, DEFAULT_PREEMPTION=10ms, DEFAULT_SPIN=1000,
// DEFAULT_PROCESSORS=1, DEFAULT_HEAP_EXPANSION=1MiB), each overridable
// by its UXX_-prefixed environment variable
// (UXX_DEFAULT_STACK_SIZE, UXX_DEFAULT_PREEMPTION, UXX_DEFAULT_SPIN,
// UXX_DEFAULT_PROCESSORS, UXX_DEFAULT_HEAP_EXPANSION). A present but
// unparsable variable is logged via Log and ignored, falling back to
// the default rather than failing construction - spec.md never asks
// configuration parsing itself to be a fatal error.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		DefaultStackSize: envInt("UXX_DEFAULT_STACK_SIZE", defaultStackSize),
		Preemption:       envInt("UXX_DEFAULT_PREEMPTION", defaultPreemption),
		SpinCount:        envInt("UXX_DEFAULT_SPIN", defaultSpinCount),
		Processors:       envInt("UXX_DEFAULT_PROCESSORS", defaultProcessors),
		HeapExpansion:    envInt("UXX_DEFAULT_HEAP_EXPANSION", defaultHeapExpand),
	}
}

func envInt(name string, fallback int) int {
	v, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}
	n, err := parsePositiveInt(v)
	if err != nil {
		Log.Warning().Str("variable", name).Str("value", v).Err(err).Log("uxx: ignoring unparsable environment override")
		return fallback
	}
	return n
}

func parsePositiveInt(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, os.ErrInvalid
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, os.ErrInvalid
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}
