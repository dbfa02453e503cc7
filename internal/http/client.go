// Package http provides the default ghauth.Transport, an HTTP client with
// bounded retries for transient failures.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/ghauth/internal/constants"
	"github.com/fivetwenty-io/ghauth/pkg/ghauth"
)

// Client sends ghauth requests over HTTP.
type Client struct {
	baseURL      string
	httpClient   *retryablehttp.Client
	logger       ghauth.Logger
	debug        bool
	userAgent    string
	interceptors *ghauth.InterceptorChain
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger ghauth.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithRetryConfig sets the retry policy for transient failures (5xx, 429,
// connection errors).
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = maxRetries
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient = httpClient
	}
}

// WithInterceptors sets the interceptor chain run around every request.
func WithInterceptors(chain *ghauth.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// NewClient creates a client sending relative URLs to baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   retryClient,
		logger:       ghauth.NoopLogger{},
		interceptors: ghauth.NewInterceptorChain(),
	}

	for _, opt := range opts {
		opt(client)
	}

	retryClient.RequestLogHook = client.logRetry

	return client
}

// Do implements ghauth.Transport. API errors are returned as
// *ghauth.RequestError together with the response.
func (c *Client) Do(ctx context.Context, req *ghauth.Request) (*ghauth.Response, error) {
	req = req.Clone()

	err := c.interceptors.ExecuteRequestInterceptors(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, req)

	interceptErr := c.interceptors.ExecuteResponseInterceptors(ctx, req, resp, err)
	if err == nil && interceptErr != nil {
		return nil, interceptErr
	}

	return resp, err
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*ghauth.Response, error) {
	return c.Do(ctx, &ghauth.Request{Method: http.MethodGet, URL: path, Query: query})
}

// Post sends a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*ghauth.Response, error) {
	return c.Do(ctx, &ghauth.Request{Method: http.MethodPost, URL: path, Body: body})
}

// Put sends a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*ghauth.Response, error) {
	return c.Do(ctx, &ghauth.Request{Method: http.MethodPut, URL: path, Body: body})
}

// Patch sends a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*ghauth.Response, error) {
	return c.Do(ctx, &ghauth.Request{Method: http.MethodPatch, URL: path, Body: body})
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*ghauth.Response, error) {
	return c.Do(ctx, &ghauth.Request{Method: http.MethodDelete, URL: path})
}

func (c *Client) send(ctx context.Context, req *ghauth.Request) (*ghauth.Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	sent := req.Clone()
	sent.Headers = httpReq.Header.Clone()

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": httpReq.Method,
			"url":    httpReq.URL.String(),
		})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":      httpReq.Method,
			"url":         httpReq.URL.String(),
			"status_code": httpResp.StatusCode,
		})
	}

	resp := &ghauth.Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header.Clone(),
		Body:       body,
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		reqErr := ghauth.NewRequestError(
			ghauth.MessageFromBody(httpResp.StatusCode, body),
			httpResp.StatusCode,
			resp.Headers,
			sent,
			nil,
		)
		reqErr.Body = body

		return resp, reqErr
	}

	return resp, nil
}

func (c *Client) buildRequest(ctx context.Context, req *ghauth.Request) (*retryablehttp.Request, error) {
	target, err := c.resolveURL(req)
	if err != nil {
		return nil, err
	}

	var rawBody interface{}

	switch body := req.Body.(type) {
	case nil:
	case []byte:
		rawBody = body
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}

		rawBody = encoded
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, target, rawBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", constants.DefaultAccept)

	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	if rawBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	for key, values := range req.Headers {
		httpReq.Header.Del(key)

		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	return httpReq, nil
}

func (c *Client) resolveURL(req *ghauth.Request) (string, error) {
	raw := req.URL
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = c.baseURL + raw
	}

	target, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid request URL %q: %w", raw, err)
	}

	if len(req.Query) > 0 {
		query := target.Query()
		for key, values := range req.Query {
			for _, value := range values {
				query.Add(key, value)
			}
		}

		target.RawQuery = query.Encode()
	}

	return target.String(), nil
}

// logRetry is the retryablehttp request hook; attempt 0 is the first try.
func (c *Client) logRetry(_ retryablehttp.Logger, req *http.Request, attempt int) {
	if attempt == 0 {
		return
	}

	c.logger.Warn("Retrying HTTP Request", map[string]interface{}{
		"method":  req.Method,
		"url":     req.URL.String(),
		"attempt": attempt,
	})
}
