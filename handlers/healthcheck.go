package handlers

import (
	"context"

	"code.cloudfoundry.org/picogorouter/common/health"
	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
	"code.cloudfoundry.org/picogorouter/router"
)

// NewHealthcheck builds a Handler answering "ok\n" while heartbeat reports
// Healthy, and 503 otherwise, mirroring the teacher's heartbeat-backed
// healthcheck endpoint.
func NewHealthcheck(heartbeat *health.Health) router.Handler {
	return router.HandlerFunc(func(ctx context.Context, req *reader.Request, params *router.Params) (*response.Response, error) {
		headers := response.Headers{}
		headers.Set("Cache-Control", "private, max-age=0")
		headers.Set("Expires", "0")

		if !heartbeat.IsHealthy() {
			return &response.Response{Status: response.StatusServiceUnavailable, Headers: headers}, nil
		}

		return &response.Response{
			Status:  response.StatusOK,
			Headers: headers,
			Body:    response.Text("text/plain", "ok\n"),
		}, nil
	})
}
