package handlers

import (
	"context"

	"code.cloudfoundry.org/picogorouter/errorwriter"
	"code.cloudfoundry.org/picogorouter/logger"
	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
	"code.cloudfoundry.org/picogorouter/router"
	"code.cloudfoundry.org/picogorouter/urlcodec"
)

// ErrorPages is a Layer that reformats any 4xx/5xx response through an
// errorwriter.ErrorWriter, mirroring the teacher's plaintext/HTML error
// writer being the single place that renders a failure's body, instead of
// router.NotFound and MethodRouter's fallback each formatting their own.
func ErrorPages(ew errorwriter.ErrorWriter, log logger.Logger) router.Layer {
	return router.LayerFunc(func(next router.Node) router.Node {
		return &errorPagesNode{next: next, ew: ew, log: log}
	})
}

type errorPagesNode struct {
	next router.Node
	ew   errorwriter.ErrorWriter
	log  logger.Logger
}

func (n *errorPagesNode) Route(ctx context.Context, req *reader.Request, path urlcodec.String, params *router.Params) (*response.Response, error) {
	resp, err := n.next.Route(ctx, req, path, params)
	if err != nil || resp == nil || resp.Status < 400 {
		return resp, err
	}
	return n.ew.WriteError(resp.Status, response.StatusText(resp.Status), n.log), nil
}
