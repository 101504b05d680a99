package router

import (
	"net"

	"code.cloudfoundry.org/picogorouter/reader"
)

// RequestInfo surfaces the connection-level addresses a request arrived
// on, grounded on the remote_address the teacher's accept loop logs per
// connection and on the request_info example's per-request diagnostics.
type RequestInfo struct {
	RemoteAddr net.Addr
	LocalAddr  net.Addr
}

// ExtractRequestInfo is a FromRequestHead extractor surfacing the
// request's remote and local addresses, when the socket exposes them.
var ExtractRequestInfo Extractor[RequestInfo] = FromRequestHead(func(req *reader.Request) (RequestInfo, error) {
	return RequestInfo{RemoteAddr: req.RemoteAddr, LocalAddr: req.LocalAddr}, nil
})
