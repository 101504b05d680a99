package router

import (
	"context"

	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
)

// Extractor builds one handler argument from the request, per §4.3.
// FromHead-based extractors never fail on the body; a FromRequest
// extractor consumes the body and must be the last argument constructed.
type Extractor[T any] interface {
	Extract(ctx context.Context, req *reader.Request) (T, *response.Response, error)
}

// ExtractorFunc adapts a plain function to Extractor.
type ExtractorFunc[T any] func(ctx context.Context, req *reader.Request) (T, *response.Response, error)

func (f ExtractorFunc[T]) Extract(ctx context.Context, req *reader.Request) (T, *response.Response, error) {
	return f(ctx, req)
}

// FromRequestHead builds an extractor that only looks at method/URL/headers,
// never the body, so it may run any number of times and in any position.
func FromRequestHead[T any](fn func(req *reader.Request) (T, error)) Extractor[T] {
	return ExtractorFunc[T](func(_ context.Context, req *reader.Request) (T, *response.Response, error) {
		v, err := fn(req)
		if err != nil {
			var zero T
			return zero, response.PlainError(response.StatusBadRequest, err.Error()), nil
		}
		return v, nil, nil
	})
}

// FromRequest builds an extractor that consumes the body; callers must
// ensure it is the last extractor invoked for a given handler.
func FromRequest[T any](fn func(ctx context.Context, req *reader.Request) (T, error)) Extractor[T] {
	return ExtractorFunc[T](func(ctx context.Context, req *reader.Request) (T, *response.Response, error) {
		v, err := fn(ctx, req)
		if err != nil {
			var zero T
			return zero, response.PlainError(response.StatusBadRequest, err.Error()), nil
		}
		return v, nil, nil
	})
}

// State is a reference-to-value projection from a handler's state type,
// applied at registration time (the projection function is fixed, not
// request-dependent).
type State[S, T any] struct {
	Project func(state S) T
}

func (s State[S, T]) Extract(state S) T { return s.Project(state) }
