package handlers

import (
	"context"

	"github.com/nats-io/nats.go"

	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
	"code.cloudfoundry.org/picogorouter/router"
)

// natsSubscriber is the subset of *nats.Conn Broadcast needs, mirroring the
// teacher's mbus.Client seam so a test can substitute a fake subscription
// instead of requiring a live NATS server.
type natsSubscriber interface {
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// Broadcast answers GET <path> with a Server-Sent Events stream that
// republishes every message received on subject, echoing the teacher's
// mbus.Subscriber's async nats.Msg callback but pointed at an
// application-level feed instead of route registration.
func Broadcast(nc natsSubscriber, subject string) router.Handler {
	return router.HandlerFunc(func(ctx context.Context, req *reader.Request, params *router.Params) (*response.Response, error) {
		msgs := make(chan *nats.Msg, 32)
		sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
			select {
			case msgs <- msg:
			default:
				// SSE writer fell behind; drop rather than block the NATS
				// dispatch goroutine.
			}
		})
		if err != nil {
			return response.PlainError(response.StatusBadGateway, "subscribe failed: "+err.Error()), nil
		}

		stream := &response.EventStream{
			Produce: func(ctx context.Context, ew *response.EventWriter) error {
				defer sub.Unsubscribe()
				for {
					select {
					case <-ctx.Done():
						return nil
					case msg := <-msgs:
						if err := ew.WriteEvent(subject, string(msg.Data)); err != nil {
							return err
						}
					}
				}
			},
		}
		return &response.Response{Status: response.StatusOK, Body: stream}, nil
	})
}
