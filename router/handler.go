package router

import (
	"context"

	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
)

// Handler answers one request once method dispatch and path matching have
// both succeeded, given the path parameters captured along the way.
type Handler interface {
	Handle(ctx context.Context, req *reader.Request, params *Params) (*response.Response, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, req *reader.Request, params *Params) (*response.Response, error)

func (f HandlerFunc) Handle(ctx context.Context, req *reader.Request, params *Params) (*response.Response, error) {
	return f(ctx, req, params)
}
