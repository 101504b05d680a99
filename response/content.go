package response

import (
	"bufio"
	"fmt"
	"strconv"
)

// Content is a fixed-size response body, emitted in one pass per §4.4.
type Content struct {
	ContentType string
	Bytes       []byte
}

// Text builds a Content body from a plain string.
func Text(contentType, body string) *Content {
	return &Content{ContentType: contentType, Bytes: []byte(body)}
}

// Textf builds a Content body by formatting once with fmt.Sprintf into
// Bytes; Content-Length is the length of that formatted copy. No dry-run
// count is made, so the formatted body is held in memory until written.
func Textf(contentType, format string, args ...any) *Content {
	return &Content{ContentType: contentType, Bytes: []byte(fmt.Sprintf(format, args...))}
}

func (c *Content) headers() Headers {
	h := Headers{}
	if c.ContentType != "" {
		h.Set("Content-Type", c.ContentType)
	}
	h.Set("Content-Length", strconv.Itoa(len(c.Bytes)))
	return h
}

func (c *Content) write(w *bufio.Writer) error {
	_, err := w.Write(c.Bytes)
	return err
}

// PlainError builds a standard "<code> <reason>: <message>" body the way
// the teacher's plaintext error writer does, for 4xx/5xx responses.
func PlainError(status int, message string) *Response {
	body := fmt.Sprintf("%d %s: %s\n", status, StatusText(status), message)
	return &Response{
		Status: status,
		Body:   Text("text/plain; charset=utf-8", body),
	}
}
