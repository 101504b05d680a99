package handlers_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.cloudfoundry.org/picogorouter/handlers"
	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
	"code.cloudfoundry.org/picogorouter/router"
)

func TestRequestInfoReportsMethodAndAddrs(t *testing.T) {
	req := &reader.Request{
		Method:     "GET",
		Path:       "/",
		RemoteAddr: &net.TCPAddr{IP: net.ParseIP("10.0.0.5"), Port: 5555},
		LocalAddr:  &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 8080},
	}

	handler := handlers.RequestInfo()
	resp, err := handler.Handle(context.Background(), req, &router.Params{})
	require.NoError(t, err)
	require.Equal(t, response.StatusOK, resp.Status)

	content, ok := resp.Body.(*response.Content)
	require.True(t, ok)
	body := string(content.Bytes)
	assert.Contains(t, body, "Method: GET")
	assert.Contains(t, body, "10.0.0.5:5555")
	assert.Contains(t, body, "127.0.0.1:8080")
}
