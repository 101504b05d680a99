package handlers_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.cloudfoundry.org/picogorouter/handlers"
	"code.cloudfoundry.org/picogorouter/logger"
	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
	"code.cloudfoundry.org/picogorouter/router"
)

func parseDemoRequest(t *testing.T, raw string) *reader.Request {
	t.Helper()
	buf := make([]byte, 4096)
	log := logger.CreateLogger("query-form-demo-test")
	r := reader.New(buf, bytes.NewBufferString(raw), log)
	req, err := r.Read(context.Background())
	require.NoError(t, err)
	return req
}

func TestGetThingEchoesQueryParams(t *testing.T) {
	req := parseDemoRequest(t, "GET /get-thing?a=1&b=hi HTTP/1.1\r\nHost: x\r\n\r\n")

	handler := handlers.GetThing()
	resp, err := handler.Handle(context.Background(), req, &router.Params{})
	require.NoError(t, err)
	require.Equal(t, response.StatusOK, resp.Status)

	content := resp.Body.(*response.Content)
	body := string(content.Bytes)
	assert.Contains(t, body, `a = "1"`)
	assert.Contains(t, body, `b = "hi"`)
}

func TestSubmitFormEchoesFormBody(t *testing.T) {
	raw := "POST /submit HTTP/1.1\r\nHost: x\r\nContent-Type: application/x-www-form-urlencoded\r\nContent-Length: 9\r\n\r\na=1&b=two"
	req := parseDemoRequest(t, raw)

	handler := handlers.SubmitForm()
	resp, err := handler.Handle(context.Background(), req, &router.Params{})
	require.NoError(t, err)
	require.Equal(t, response.StatusOK, resp.Status)

	content := resp.Body.(*response.Content)
	body := string(content.Bytes)
	assert.Contains(t, body, `a = "1"`)
	assert.Contains(t, body, `b = "two"`)
}

func TestSubmitFormRejectsWrongContentType(t *testing.T) {
	raw := "POST /submit HTTP/1.1\r\nHost: x\r\nContent-Type: application/json\r\nContent-Length: 2\r\n\r\n{}"
	req := parseDemoRequest(t, raw)

	handler := handlers.SubmitForm()
	resp, err := handler.Handle(context.Background(), req, &router.Params{})
	require.NoError(t, err)
	assert.Equal(t, response.StatusBadRequest, resp.Status)
}
