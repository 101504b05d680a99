package handlers

import (
	"context"
	"fmt"
	"time"

	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
	"code.cloudfoundry.org/picogorouter/router"
)

// Counter answers GET /counter with a Server-Sent Events stream ticking
// once every interval, counting up forever. It stops as soon as ctx is
// cancelled (the serve loop cancels the stream context when shutdown fires)
// or when a write fails, e.g. after the client has disconnected.
func Counter(interval time.Duration) router.Handler {
	return router.HandlerFunc(func(ctx context.Context, req *reader.Request, params *router.Params) (*response.Response, error) {
		stream := &response.EventStream{
			Produce: func(ctx context.Context, ew *response.EventWriter) error {
				ticker := time.NewTicker(interval)
				defer ticker.Stop()

				for tick := uint64(0); ; tick++ {
					select {
					case <-ctx.Done():
						return nil
					case <-ticker.C:
						if err := ew.WriteEvent("tick", fmt.Sprintf("Count: %d", tick)); err != nil {
							return err
						}
					}
				}
			},
		}
		return &response.Response{Status: response.StatusOK, Body: stream}, nil
	})
}
