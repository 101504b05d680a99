package handlers

import (
	"context"

	"go.uber.org/zap"

	"code.cloudfoundry.org/picogorouter/common/uuid"
	"code.cloudfoundry.org/picogorouter/logger"
	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
	"code.cloudfoundry.org/picogorouter/router"
	"code.cloudfoundry.org/picogorouter/urlcodec"
)

// VcapRequestIDHeader identifies the correlation ID this layer generates
// for every request, mirroring the teacher's X-Vcap-Request-Id convention.
const VcapRequestIDHeader = "X-Vcap-Request-Id"

// VcapRequestID is a Layer that mints a request correlation ID (reusing one
// supplied by an upstream proxy, if present) and logs it with the
// method/path before delegating to next.
func VcapRequestID(log logger.Logger) router.Layer {
	return router.LayerFunc(func(next router.Node) router.Node {
		return &vcapRequestIDNode{next: next, log: log}
	})
}

type vcapRequestIDNode struct {
	next router.Node
	log  logger.Logger
}

func (n *vcapRequestIDNode) Route(ctx context.Context, req *reader.Request, path urlcodec.String, params *router.Params) (*response.Response, error) {
	id, ok := req.Headers.Get(VcapRequestIDHeader)
	if !ok || id == "" {
		id = newRequestID()
	}

	n.log.Debug("vcap-request-id", zap.String("id", id), zap.String("method", req.Method), zap.String("path", req.Path))
	return n.next.Route(ctx, req, path, params)
}

func newRequestID() string {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return ""
	}
	return id
}
