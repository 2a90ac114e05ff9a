package engine

import "sync/atomic"

// Phase is the engine lifecycle state.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseRunning
	PhaseReconnecting
	PhaseStopping
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseConnecting:
		return "CONNECTING"
	case PhaseRunning:
		return "RUNNING"
	case PhaseReconnecting:
		return "RECONNECTING"
	case PhaseStopping:
		return "STOPPING"
	default:
		return "UNKNOWN"
	}
}

// phaseTracker holds the current phase with atomic access. Transitions are
// driven only by the engine's run loop; readers (HTTP export, tests) see a
// consistent value without locking.
type phaseTracker struct {
	v atomic.Int32
}

func (t *phaseTracker) set(p Phase) {
	t.v.Store(int32(p))
	PhaseGauge.Set(float64(p))
}

func (t *phaseTracker) get() Phase {
	return Phase(t.v.Load())
}
