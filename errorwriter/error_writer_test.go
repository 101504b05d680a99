package errorwriter_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"code.cloudfoundry.org/picogorouter/errorwriter"
	"code.cloudfoundry.org/picogorouter/logger"
	"code.cloudfoundry.org/picogorouter/response"
)

func testLogger(buf *bytes.Buffer) logger.Logger {
	return logger.CreateLoggerWithSink("errorwriter-test", zapcore.AddSync(buf))
}

func TestPlaintextErrorWriterSuccess(t *testing.T) {
	var buf bytes.Buffer
	ew := errorwriter.NewPlaintextErrorWriter()

	resp := ew.WriteError(response.StatusOK, "hi", testLogger(&buf))

	assert.Equal(t, response.StatusOK, resp.Status)
	content, ok := resp.Body.(*response.Content)
	require.True(t, ok)
	assert.Contains(t, string(content.Bytes), "200 OK: hi")
	assert.Contains(t, buf.String(), "hi")
}

func TestPlaintextErrorWriterFailure(t *testing.T) {
	var buf bytes.Buffer
	ew := errorwriter.NewPlaintextErrorWriter()

	resp := ew.WriteError(response.StatusBadRequest, "bad", testLogger(&buf))

	assert.Equal(t, response.StatusBadRequest, resp.Status)
	content, ok := resp.Body.(*response.Content)
	require.True(t, ok)
	assert.Contains(t, string(content.Bytes), "400 Bad Request: bad")
}

func TestPlaintextErrorWriterNotFoundSkipsLog(t *testing.T) {
	var buf bytes.Buffer
	ew := errorwriter.NewPlaintextErrorWriter()

	ew.WriteError(response.StatusNotFound, "missing", testLogger(&buf))

	assert.Empty(t, buf.String())
}

func TestHTMLErrorWriterRendersTemplate(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "html-err-tpl")
	require.NoError(t, err)
	_, err = tmp.WriteString("<h1>{{.Code}} {{.Reason}}</h1><p>{{.Message}}</p>")
	require.NoError(t, err)
	require.NoError(t, tmp.Close())

	ew, err := errorwriter.NewHTMLErrorWriterFromFile(tmp.Name())
	require.NoError(t, err)

	var buf bytes.Buffer
	resp := ew.WriteError(response.StatusBadRequest, "bad", testLogger(&buf))

	assert.Equal(t, response.StatusBadRequest, resp.Status)
	content, ok := resp.Body.(*response.Content)
	require.True(t, ok)
	assert.Contains(t, string(content.Bytes), "400 Bad Request")
	assert.Contains(t, string(content.Bytes), "bad")
	assert.Equal(t, "text/html; charset=utf-8", content.ContentType)
}

func TestHTMLErrorWriterFallsBackToPlaintextOnRenderError(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "html-err-tpl")
	require.NoError(t, err)
	_, err = tmp.WriteString("{{.Missing.Field}}")
	require.NoError(t, err)
	require.NoError(t, tmp.Close())

	ew, err := errorwriter.NewHTMLErrorWriterFromFile(tmp.Name())
	require.NoError(t, err)

	var buf bytes.Buffer
	resp := ew.WriteError(response.StatusInternalServerError, "boom", testLogger(&buf))

	content, ok := resp.Body.(*response.Content)
	require.True(t, ok)
	assert.Equal(t, "text/plain; charset=utf-8", content.ContentType)
	assert.Contains(t, buf.String(), "render-error-failed")
}
