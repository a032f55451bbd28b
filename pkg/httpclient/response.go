package httpclient

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Response is the immutable result of one GET request.
type Response struct {
	statusCode int
	body       string
	headers    map[string]string
}

// NewResponse builds a Response. The header map is copied.
func NewResponse(statusCode int, body string, headers map[string]string) *Response {
	cp := make(map[string]string, len(headers))
	for k, v := range headers {
		cp[k] = v
	}
	return &Response{statusCode: statusCode, body: body, headers: cp}
}

func (r *Response) StatusCode() int { return r.statusCode }
func (r *Response) Body() string    { return r.body }

// Headers returns a copy of the captured response headers.
func (r *Response) Headers() map[string]string {
	cp := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		cp[k] = v
	}
	return cp
}

// Header looks up a response header ignoring case.
func (r *Response) Header(name string) (string, bool) {
	if v, ok := r.headers[name]; ok {
		return v, true
	}
	for k, v := range r.headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// IsOK reports a 2xx status.
func (r *Response) IsOK() bool {
	return r.statusCode >= 200 && r.statusCode < 300
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal([]byte(r.body), v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}
