package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// Response wraps the raw transport response. A non-2xx status is normal data
// here, never an error; callers inspect StatusCode or Ok themselves.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// newResponse adapts a resty response.
func newResponse(resp *resty.Response) *Response {
	return &Response{
		StatusCode: resp.StatusCode(),
		Headers:    resp.Header(),
		Body:       resp.Body(),
	}
}

// Ok reports whether the status code is in the 2xx range.
func (r *Response) Ok() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// String returns the raw body as a string.
func (r *Response) String() string { return string(r.Body) }
