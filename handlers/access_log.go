package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"code.cloudfoundry.org/picogorouter/logger"
	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
	"code.cloudfoundry.org/picogorouter/router"
	"code.cloudfoundry.org/picogorouter/urlcodec"
)

// AccessLog is a Layer that times the downstream handler and logs one
// structured line per request, mirroring the teacher's accessLog handler.
// cmd/pico-gorouter places it just inside VcapRequestID, so it times every
// layer below it.
func AccessLog(log logger.Logger) router.Layer {
	return router.LayerFunc(func(next router.Node) router.Node {
		return &accessLogNode{next: next, log: log}
	})
}

type accessLogNode struct {
	next router.Node
	log  logger.Logger
}

func (n *accessLogNode) Route(ctx context.Context, req *reader.Request, path urlcodec.String, params *router.Params) (*response.Response, error) {
	start := time.Now()
	resp, err := n.next.Route(ctx, req, path, params)
	duration := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.Status
	}

	fields := append(req.LogFields(),
		zap.Int("status", status),
		zap.Duration("duration", duration),
	)
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	n.log.Info("request", fields...)

	return resp, err
}
