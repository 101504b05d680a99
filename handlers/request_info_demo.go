package handlers

import (
	"context"
	"fmt"
	"strings"

	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
	"code.cloudfoundry.org/picogorouter/router"
)

// RequestInfo answers with the request's method, headers, and remote/local
// address, grounded on picoserve's request_info example (which instead
// histograms request body bytes; this rendition reports the connection
// metadata §6's request-info extractor was built for).
func RequestInfo() router.Handler {
	return router.HandlerFunc(func(ctx context.Context, req *reader.Request, params *router.Params) (*response.Response, error) {
		info, resp, err := router.ExtractRequestInfo.Extract(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp != nil {
			return resp, nil
		}

		var headers strings.Builder
		req.Headers.All(func(name, value string) bool {
			fmt.Fprintf(&headers, "%s: %s\r\n", name, value)
			return true
		})

		body := fmt.Sprintf("Method: %s\r\nRemote: %s\r\nLocal: %s\r\nHeaders:\r\n%s",
			req.Method, info.RemoteAddr, info.LocalAddr, headers.String())

		return &response.Response{Status: response.StatusOK, Body: response.Text("text/plain; charset=utf-8", body)}, nil
	})
}
