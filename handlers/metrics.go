package handlers

import (
	"context"
	"time"

	"code.cloudfoundry.org/picogorouter/metrics"
	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
	"code.cloudfoundry.org/picogorouter/router"
	"code.cloudfoundry.org/picogorouter/urlcodec"
)

// Metrics is a Layer that feeds every request's status and duration into a
// metrics.Reporter, mirroring the position of the teacher's ProxyReporter
// capture calls around its request-handling path.
func Metrics(rep *metrics.Reporter) router.Layer {
	return router.LayerFunc(func(next router.Node) router.Node {
		return &metricsNode{next: next, reporter: rep}
	})
}

type metricsNode struct {
	next     router.Node
	reporter *metrics.Reporter
}

func (n *metricsNode) Route(ctx context.Context, req *reader.Request, path urlcodec.String, params *router.Params) (*response.Response, error) {
	start := time.Now()
	resp, err := n.next.Route(ctx, req, path, params)
	duration := time.Since(start)

	if err != nil {
		n.reporter.CaptureBadRequest()
		return resp, err
	}

	n.reporter.CaptureRequest(resp.Status, duration)
	return resp, nil
}
