// Package clockgw is the timer gateway of §6: the core's only window onto
// wall-clock time, kept behind an interface so tests can substitute
// code.cloudfoundry.org/clock's FakeClock instead of sleeping for real.
package clockgw

import (
	"context"
	"errors"
	"time"

	"code.cloudfoundry.org/clock"
)

// ErrTimedOut is returned by WithTimeout when the duration elapses before f
// completes. It is classified as a connection-fatal timeout per §7.
var ErrTimedOut = errors.New("clockgw: timed out")

// Timer is the narrow capability boundary the serve loop and response
// pipeline use to reach the host's time source. A zero or negative Duration
// passed to WithTimeout means "no deadline", matching the optional timeouts
// of §3's ServerConfig; Delay with such a Duration returns at once.
type Timer interface {
	// Delay blocks for d, or until ctx is cancelled.
	Delay(ctx context.Context, d time.Duration) error
	// WithTimeout races f against a timer of duration d. If d <= 0, f runs
	// with no deadline. Returns ErrTimedOut if the timer fires first.
	WithTimeout(ctx context.Context, d time.Duration, f func(ctx context.Context) error) error
}

type gateway struct {
	clock clock.Clock
}

// New wraps a code.cloudfoundry.org/clock.Clock as a Timer. Pass
// clock.NewClock() in production and clock.NewFakeClock() in tests, the way
// the teacher's metrics/monitor package injects a FakeClock.
func New(c clock.Clock) Timer {
	return &gateway{clock: c}
}

func (g *gateway) Delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := g.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gateway) WithTimeout(ctx context.Context, d time.Duration, f func(ctx context.Context) error) error {
	if d <= 0 {
		return f(ctx)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- f(runCtx)
	}()

	timer := g.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C():
		cancel()
		return ErrTimedOut
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}
