// Package health tracks the process-wide liveness flag shared by the
// health-check handler (§4.5) and PanicCheck: any handler panic degrades it,
// and the health listener reports that degradation independently of the
// main listener's own state.
package health

import "sync/atomic"

type Status uint64

const (
	Initializing Status = iota
	Healthy
	Degraded
)

type Health struct {
	health uint64
}

func (h *Health) Health() Status {
	return Status(atomic.LoadUint64(&h.health))
}

func (h *Health) SetHealth(s Status) {
	atomic.StoreUint64(&h.health, uint64(s))
}

// IsHealthy reports whether the current status is Healthy; Initializing and
// Degraded both fail a health check.
func (h *Health) IsHealthy() bool {
	return h.Health() == Healthy
}

func (h *Health) String() string {
	switch h.Health() {
	case Initializing:
		return "Initializing"
	case Healthy:
		return "Healthy"
	case Degraded:
		return "Degraded"
	default:
		panic("health: unknown status")
	}
}
