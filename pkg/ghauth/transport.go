package ghauth

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
)

// Request describes an outbound API request.
type Request struct {
	Method string
	// URL is a path relative to the transport's base URL, or an absolute URL.
	URL     string
	Headers http.Header
	Query   url.Values
	// Body is JSON-encoded unless it is a []byte.
	Body     interface{}
	Metadata map[string]interface{}
}

// Clone returns a copy of the request with its own headers and query.
// Body and Metadata values are shared.
func (r *Request) Clone() *Request {
	clone := *r
	clone.Headers = r.Headers.Clone()
	if clone.Headers == nil {
		clone.Headers = make(http.Header)
	}

	if r.Query != nil {
		clone.Query = make(url.Values, len(r.Query))
		for key, values := range r.Query {
			clone.Query[key] = append([]string(nil), values...)
		}
	}

	if r.Metadata != nil {
		clone.Metadata = maps.Clone(r.Metadata)
	}

	return &clone
}

// WithHeader returns a copy of the request with the header set.
func (r *Request) WithHeader(key, value string) *Request {
	clone := r.Clone()
	clone.Headers.Set(key, value)

	return clone
}

// Response is a successful API response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Decode unmarshals the JSON response body into v.
func (r *Response) Decode(v interface{}) error {
	err := json.Unmarshal(r.Body, v)
	if err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}

	return nil
}

// Transport sends requests. A failed API response must be reported as a
// *RequestError carrying the response headers; any other error is treated as
// a transport failure.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Do implements Transport.
func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
