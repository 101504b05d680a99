// Package metrics instruments the serve loop and router with
// github.com/rcrowley/go-metrics counters, gauges, and timers, the way the
// teacher wires its reporters into the proxy's request path.
package metrics

import (
	"time"

	gometrics "github.com/rcrowley/go-metrics"
)

// Reporter captures request-lifecycle events for a registry of counters,
// gauges, and timers.
type Reporter struct {
	registry gometrics.Registry

	requests        gometrics.Counter
	badRequests     gometrics.Counter
	responseStatus  map[int]gometrics.Counter
	handlerDuration gometrics.Timer
}

// NewReporter builds a Reporter backed by a fresh go-metrics registry.
func NewReporter() *Reporter {
	r := gometrics.NewRegistry()
	return &Reporter{
		registry:        r,
		requests:        gometrics.GetOrRegisterCounter("requests.total", r),
		badRequests:     gometrics.GetOrRegisterCounter("requests.bad", r),
		responseStatus:  make(map[int]gometrics.Counter),
		handlerDuration: gometrics.GetOrRegisterTimer("requests.duration", r),
	}
}

// Registry exposes the underlying go-metrics registry, e.g. for a
// /varz-style dump.
func (rep *Reporter) Registry() gometrics.Registry { return rep.registry }

// CaptureRequest records one handled request's status and duration.
func (rep *Reporter) CaptureRequest(status int, d time.Duration) {
	rep.requests.Inc(1)
	rep.handlerDuration.Update(d)

	counter, ok := rep.responseStatus[status]
	if !ok {
		counter = gometrics.GetOrRegisterCounter(statusMetricName(status), rep.registry)
		rep.responseStatus[status] = counter
	}
	counter.Inc(1)
}

// CaptureBadRequest records a routed request whose handling returned an
// error instead of a response.
func (rep *Reporter) CaptureBadRequest() {
	rep.badRequests.Inc(1)
}

func statusMetricName(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "requests.status.2xx"
	case status >= 300 && status < 400:
		return "requests.status.3xx"
	case status >= 400 && status < 500:
		return "requests.status.4xx"
	case status >= 500:
		return "requests.status.5xx"
	default:
		return "requests.status.other"
	}
}
