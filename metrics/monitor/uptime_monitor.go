// Package monitor runs periodic background instrumentation tasks as
// tedsuo/ifrit processes, the way the teacher runs its monitors alongside
// the router under a common process group.
package monitor

import (
	"os"
	"time"

	gometrics "github.com/rcrowley/go-metrics"

	"code.cloudfoundry.org/picogorouter/logger"
)

// Uptime reports process uptime in seconds on every tick, as an
// ifrit-compatible Runner.
type Uptime struct {
	registry gometrics.Registry
	interval time.Duration
	started  time.Time
	log      logger.Logger
}

// NewUptime builds an Uptime monitor reporting into registry every interval.
func NewUptime(registry gometrics.Registry, interval time.Duration, log logger.Logger) *Uptime {
	return &Uptime{registry: registry, interval: interval, started: time.Now(), log: log}
}

// Run implements ifrit.Runner.
func (u *Uptime) Run(signals <-chan os.Signal, ready chan<- struct{}) error {
	gauge := gometrics.GetOrRegisterGaugeFloat64("uptime.seconds", u.registry)
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	close(ready)
	for {
		select {
		case <-ticker.C:
			gauge.Update(time.Since(u.started).Seconds())
		case <-signals:
			u.log.Info("uptime-monitor-exited")
			return nil
		}
	}
}
