package handlers

import (
	"context"
	"fmt"

	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
	"code.cloudfoundry.org/picogorouter/router"
)

// GetThing answers GET /get-thing by decoding the query string and echoing
// it back, grounded on picoserve's query example (`?a=...&b=...`).
func GetThing() router.Handler {
	return router.HandlerFunc(func(ctx context.Context, req *reader.Request, params *router.Params) (*response.Response, error) {
		values, resp, err := router.ExtractQuery.Extract(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp != nil {
			return resp, nil
		}
		return debugValueResponse(values), nil
	})
}

// SubmitForm answers POST /submit by decoding an
// application/x-www-form-urlencoded body and echoing it back, grounded on
// picoserve's form example.
func SubmitForm() router.Handler {
	return router.HandlerFunc(func(ctx context.Context, req *reader.Request, params *router.Params) (*response.Response, error) {
		values, resp, err := router.ExtractForm.Extract(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp != nil {
			return resp, nil
		}
		return debugValueResponse(values), nil
	})
}

func debugValueResponse(values map[string]string) *response.Response {
	body := ""
	for k, v := range values {
		body += fmt.Sprintf("%s = %q\n", k, v)
	}
	return &response.Response{Status: response.StatusOK, Body: response.Text("text/plain; charset=utf-8", body)}
}
