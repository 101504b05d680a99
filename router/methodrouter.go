package router

import (
	"context"

	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
)

// MethodRouter holds five method handler slots and dispatches per §4.3:
// HEAD reuses GET (the caller discards the body); TRACE, CONNECT, and
// unknown methods fall through to MethodNotAllowed.
type MethodRouter struct {
	Get     Handler
	Post    Handler
	Put     Handler
	Delete  Handler
	Options Handler
}

func (mr *MethodRouter) dispatch(ctx context.Context, req *reader.Request, params *Params) (*response.Response, error) {
	method := req.Method
	if method == "HEAD" {
		method = "GET"
	}

	var h Handler
	switch method {
	case "GET":
		h = mr.Get
	case "POST":
		h = mr.Post
	case "PUT":
		h = mr.Put
	case "DELETE":
		h = mr.Delete
	case "OPTIONS":
		h = mr.Options
	}

	if h == nil {
		return methodNotAllowed(req), nil
	}
	return h.Handle(ctx, req, params)
}

// methodNotAllowed answers 405 with a plain-text body naming the method
// and path, per §4.3.
func methodNotAllowed(req *reader.Request) *response.Response {
	return response.PlainError(response.StatusMethodNotAllowed, req.Method+" "+req.Path)
}

// Get/Post/Put/Delete/Options build a one-method MethodRouter, mirroring
// picoserve's route() constructors.
func Get(h Handler) *MethodRouter     { return &MethodRouter{Get: h} }
func Post(h Handler) *MethodRouter    { return &MethodRouter{Post: h} }
func Put(h Handler) *MethodRouter     { return &MethodRouter{Put: h} }
func Delete(h Handler) *MethodRouter  { return &MethodRouter{Delete: h} }
func Options(h Handler) *MethodRouter { return &MethodRouter{Options: h} }
