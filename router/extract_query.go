package router

import (
	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/urlcodec"
)

// ExtractQuery is a FromRequestHead extractor decoding the request's query
// string into key/value pairs, grounded on picoserve's Query extractor.
var ExtractQuery Extractor[map[string]string] = FromRequestHead(func(req *reader.Request) (map[string]string, error) {
	return urlcodec.NewFormValues(req.Query).Map()
})
