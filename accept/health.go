package accept

import (
	"context"

	"code.cloudfoundry.org/picogorouter/common/health"
	"code.cloudfoundry.org/picogorouter/config"
	"code.cloudfoundry.org/picogorouter/handlers"
	"code.cloudfoundry.org/picogorouter/logger"
	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
	"code.cloudfoundry.org/picogorouter/router"
)

// NewHealthAcceptor builds a secondary Acceptor listening on its own
// address, serving only the health-check routes, mirroring the teacher's
// dedicated status-port HealthListener — but driven through the same
// serve.Serve core as the main listener instead of net/http, so a stuck
// main listener's drain never blocks liveness checks.
func NewHealthAcceptor(cfg *config.Config, heartbeat *health.Health, log logger.Logger) *Acceptor {
	root := &router.Route{
		Matcher: router.Literal("/health"),
		Methods: router.Get(handlers.NewHealthcheck(heartbeat)),
		Fallback: &router.Route{
			Matcher:  router.Literal("/is-process-alive-do-not-use-for-loadbalancing"),
			Methods:  router.Get(router.HandlerFunc(aliveHandler)),
			Fallback: router.NotFound,
		},
	}
	return New(cfg, root, nil, log)
}

func aliveHandler(_ context.Context, _ *reader.Request, _ *router.Params) (*response.Response, error) {
	return &response.Response{
		Status: response.StatusOK,
		Body:   response.Text("text/plain; charset=utf-8", "ok\n"),
	}, nil
}
