package router

import (
	"context"
	"fmt"
	"strings"

	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/urlcodec"
)

// ExtractForm is a FromRequest extractor reading and decoding a complete
// application/x-www-form-urlencoded body, grounded on picoserve's Form
// extractor. Being a FromRequest extractor, it consumes the body and must
// be the last extractor a handler uses.
var ExtractForm Extractor[map[string]string] = FromRequest(func(ctx context.Context, req *reader.Request) (map[string]string, error) {
	contentType, _ := req.Headers.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		return nil, fmt.Errorf("expected application/x-www-form-urlencoded, got %q", contentType)
	}

	body, err := req.Body().ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	return urlcodec.NewFormValues(string(body)).Map()
})
