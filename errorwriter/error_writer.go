// Package errorwriter builds error response bodies, the way the teacher's
// plaintext/HTML error writers format proxy error pages, adapted to build
// response.Response values instead of writing into an http.ResponseWriter.
package errorwriter

import (
	"bytes"
	"fmt"
	"html/template"
	"os"

	"go.uber.org/zap"

	"code.cloudfoundry.org/picogorouter/logger"
	"code.cloudfoundry.org/picogorouter/response"
)

// ErrorWriter builds a status/message pair into a response.Response body,
// logging the occasion the way the teacher's writers do.
type ErrorWriter interface {
	WriteError(code int, message string, log logger.Logger) *response.Response
}

type plaintextErrorWriter struct{}

// NewPlaintextErrorWriter builds the default "<code> <reason>: <message>"
// error writer.
func NewPlaintextErrorWriter() ErrorWriter {
	return &plaintextErrorWriter{}
}

func (ew *plaintextErrorWriter) WriteError(code int, message string, log logger.Logger) *response.Response {
	resp := response.PlainError(code, message)
	if code != response.StatusNotFound {
		log.Info("status", zap.String("body", message))
	}
	return resp
}

type htmlErrorWriter struct {
	tpl *template.Template
}

// NewHTMLErrorWriterFromFile builds an ErrorWriter that renders the HTML
// template at path for every error, falling back to plaintext if the
// template fails to render.
func NewHTMLErrorWriterFromFile(path string) (ErrorWriter, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read HTML error template file: %w", err)
	}

	tpl, err := template.New("error-message").Parse(string(contents))
	if err != nil {
		return nil, err
	}

	return &htmlErrorWriter{tpl: tpl}, nil
}

// templateData is exposed to the HTML template.
type templateData struct {
	Code    int
	Reason  string
	Message string
}

func (ew *htmlErrorWriter) WriteError(code int, message string, log logger.Logger) *response.Response {
	body := fmt.Sprintf("%d %s: %s", code, response.StatusText(code), message)
	if code != response.StatusNotFound {
		log.Info("status", zap.String("body", body))
	}

	var rendered bytes.Buffer
	data := templateData{Code: code, Reason: response.StatusText(code), Message: message}
	if err := ew.tpl.Execute(&rendered, data); err != nil {
		log.Error("render-error-failed", zap.Error(err))
		return &response.Response{
			Status: code,
			Body:   response.Text("text/plain; charset=utf-8", body+"\n"),
		}
	}

	return &response.Response{
		Status: code,
		Body:   response.Text("text/html; charset=utf-8", rendered.String()),
	}
}
