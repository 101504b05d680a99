package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"code.cloudfoundry.org/picogorouter/common/health"
	"code.cloudfoundry.org/picogorouter/logger"
	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
	"code.cloudfoundry.org/picogorouter/router"
	"code.cloudfoundry.org/picogorouter/urlcodec"
)

// PanicCheck is a Layer that recovers a panicking handler, marks the shared
// heartbeat Degraded, and answers 502, mirroring the teacher's panicCheck
// handler's failure-to-Degraded behavior.
func PanicCheck(h *health.Health, log logger.Logger) router.Layer {
	return router.LayerFunc(func(next router.Node) router.Node {
		return &panicCheckNode{next: next, health: h, log: log}
	})
}

type panicCheckNode struct {
	next   router.Node
	health *health.Health
	log    logger.Logger
}

func (n *panicCheckNode) Route(ctx context.Context, req *reader.Request, path urlcodec.String, params *router.Params) (resp *response.Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			recErr, ok := rec.(error)
			if !ok {
				recErr = fmt.Errorf("%v", rec)
			}
			n.log.Error("panic-check", zap.Error(recErr), zap.String("path", req.Path))
			n.health.SetHealth(health.Degraded)
			resp = response.PlainError(response.StatusBadGateway, "unknown_failure")
			err = nil
		}
	}()

	return n.next.Route(ctx, req, path, params)
}
