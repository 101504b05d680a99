package monitor

import (
	"os"
	"time"

	"github.com/nats-io/nats.go"
	gometrics "github.com/rcrowley/go-metrics"
	"go.uber.org/zap"

	"code.cloudfoundry.org/picogorouter/logger"
)

// NATSMonitor reports a nats.go subscription's backlog on every tick, as an
// ifrit-compatible Runner. cmd's wiring points it at a dedicated
// subscription on the broadcast subject, separate from the per-request
// subscriptions the SSE broadcast handler opens.
type NATSMonitor struct {
	Subscription *nats.Subscription
	Registry     gometrics.Registry
	TickChan     <-chan time.Time
	Log          logger.Logger
}

// Run implements ifrit.Runner.
func (n *NATSMonitor) Run(signals <-chan os.Signal, ready chan<- struct{}) error {
	pending := gometrics.GetOrRegisterGaugeFloat64("nats.pending_messages", n.Registry)
	dropped := gometrics.GetOrRegisterGaugeFloat64("nats.dropped_messages", n.Registry)

	close(ready)
	for {
		select {
		case <-n.TickChan:
			msgs, _, err := n.Subscription.Pending()
			if err != nil {
				n.Log.Error("error-retrieving-nats-subscription-pending-messages", zap.Error(err))
			} else {
				pending.Update(float64(msgs))
			}

			droppedCount, err := n.Subscription.Dropped()
			if err != nil {
				n.Log.Error("error-retrieving-nats-subscription-dropped-messages", zap.Error(err))
			} else {
				dropped.Update(float64(droppedCount))
			}
		case <-signals:
			n.Log.Info("nats-monitor-exited")
			return nil
		}
	}
}
