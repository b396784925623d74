package request

import "net/http"

// ClientWriter is a http.ResponseWriter that remembers the status code written to it.
type ClientWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// NewClientWriter wraps w. The status code is http.StatusOK until a header is written.
func NewClientWriter(w http.ResponseWriter) *ClientWriter {
	return &ClientWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (c *ClientWriter) WriteHeader(statusCode int) {
	if c.written {
		return
	}
	c.statusCode = statusCode
	c.written = true
	c.ResponseWriter.WriteHeader(statusCode)
}

func (c *ClientWriter) Write(b []byte) (int, error) {
	c.written = true
	return c.ResponseWriter.Write(b)
}

// StatusCode returns the status code sent to the client.
func (c *ClientWriter) StatusCode() int {
	return c.statusCode
}
