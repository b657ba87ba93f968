// Package gpu reads GPU utilization and temperature through whichever
// query mechanism the host actually has: the in-process NVML library when
// it loads, otherwise the nvidia-smi tool, otherwise nothing.
package gpu

import (
	"log/slog"
)

// Reading is one utilization/temperature query result.
type Reading struct {
	UtilPercent float64
	TempC       float64
}

// Backend is one concrete query mechanism, bound to a device index at
// construction time.
type Backend interface {
	// Query returns the current utilization and temperature. A failed
	// query is a one-tick miss; it does not invalidate the backend.
	Query() (Reading, error)
	Close() error
	Name() string
}

// State tracks which backend the resolver settled on.
type State int

const (
	Unresolved State = iota
	NativeActive
	FallbackActive
	Unavailable
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case NativeActive:
		return "native"
	case FallbackActive:
		return "fallback"
	default:
		return "unavailable"
	}
}

// Resolver picks a backend on first use and sticks with it. Once both
// mechanisms have failed to initialize the resolver is Unavailable for the
// rest of the run; it never pays the initialization cost again.
type Resolver struct {
	state   State
	index   int
	backend Backend
	logger  *slog.Logger

	// Constructors, swappable in tests.
	newNative   func(index int) (Backend, error)
	newFallback func(index int) (Backend, error)
}

func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		logger:      logger,
		newNative:   newNVMLBackend,
		newFallback: newSMIBackend,
	}
}

// State reports the current resolution state.
func (r *Resolver) State() State { return r.state }

// Read resolves a backend if needed and queries it. ok is false when no
// reading is available this tick, whether because resolution failed for
// the run or because a single query missed.
func (r *Resolver) Read(index int) (reading Reading, ok bool) {
	if r.state == Unresolved {
		r.resolve(index)
	}
	if r.state == Unavailable || r.backend == nil {
		return Reading{}, false
	}

	reading, err := r.backend.Query()
	if err != nil {
		// One-tick miss. Native handles are durable and the external
		// tool may just have timed out; either way we retry next tick.
		return Reading{}, false
	}
	return reading, true
}

func (r *Resolver) resolve(index int) {
	r.index = index

	if b, err := r.newNative(index); err == nil {
		r.state = NativeActive
		r.backend = b
		r.logger.Info("GPU backend resolved", "backend", b.Name(), "device", index)
		return
	} else {
		r.logger.Info("native GPU backend unavailable", "err", err)
	}

	if b, err := r.newFallback(index); err == nil {
		r.state = FallbackActive
		r.backend = b
		r.logger.Info("GPU backend resolved", "backend", b.Name(), "device", index)
		return
	} else {
		r.logger.Info("fallback GPU backend unavailable", "err", err)
	}

	r.state = Unavailable
	r.logger.Warn("no GPU backend available, reporting GPU as unavailable for this run")
}

// Release shuts the active backend down. Safe to call when nothing was
// ever resolved.
func (r *Resolver) Release() {
	if r.backend != nil {
		if err := r.backend.Close(); err != nil {
			r.logger.Warn("GPU backend close", "err", err)
		}
		r.backend = nil
	}
}
