package router

import (
	"context"

	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
	"code.cloudfoundry.org/picogorouter/urlcodec"
)

// Node is satisfied by every routing-tree element: Route, NestedService,
// a Layer-wrapped node, NotFound, and Conditional's result, per §4.3.
type Node interface {
	Route(ctx context.Context, req *reader.Request, path urlcodec.String, params *Params) (*response.Response, error)
}

// notFoundNode is the terminal fallback every chain eventually reaches.
type notFoundNode struct{}

// NotFound is the root fallback: a plain-text 404 naming the path.
var NotFound Node = notFoundNode{}

func (notFoundNode) Route(_ context.Context, req *reader.Request, _ urlcodec.String, _ *Params) (*response.Response, error) {
	return response.PlainError(response.StatusNotFound, req.Path), nil
}

// Route matches a path description and, on success, dispatches to a
// MethodRouter; on mismatch it defers to Fallback.
type Route struct {
	Matcher  PathMatcher
	Methods  *MethodRouter
	Fallback Node
}

func (rt *Route) Route(ctx context.Context, req *reader.Request, path urlcodec.String, params *Params) (*response.Response, error) {
	mark := params.Len()
	rest, ok := rt.Matcher.Match(path, params)
	if !ok || !rest.IsEmpty() {
		params.Truncate(mark)
		return rt.fallback().Route(ctx, req, path, params)
	}
	return rt.Methods.dispatch(ctx, req, params)
}

func (rt *Route) fallback() Node {
	if rt.Fallback != nil {
		return rt.Fallback
	}
	return NotFound
}

// NestedService matches a path-description prefix and, on success, enters
// a sub-tree with the remaining path; on mismatch it defers to Fallback.
type NestedService struct {
	Matcher  PathMatcher
	Inner    Node
	Fallback Node
}

func (n *NestedService) Route(ctx context.Context, req *reader.Request, path urlcodec.String, params *Params) (*response.Response, error) {
	mark := params.Len()
	rest, ok := n.Matcher.Match(path, params)
	if !ok {
		params.Truncate(mark)
		return n.fallback().Route(ctx, req, path, params)
	}
	return n.Inner.Route(ctx, req, rest, params)
}

func (n *NestedService) fallback() Node {
	if n.Fallback != nil {
		return n.Fallback
	}
	return NotFound
}

// Conditional chooses between two sub-trees per request based on cond,
// per §4.3's "conditional two-arm selector".
func Conditional(cond func(*reader.Request) bool, left, right Node) Node {
	return conditionalNode{cond: cond, left: left, right: right}
}

type conditionalNode struct {
	cond        func(*reader.Request) bool
	left, right Node
}

func (c conditionalNode) Route(ctx context.Context, req *reader.Request, path urlcodec.String, params *Params) (*response.Response, error) {
	if c.cond(req) {
		return c.left.Route(ctx, req, path, params)
	}
	return c.right.Route(ctx, req, path, params)
}
