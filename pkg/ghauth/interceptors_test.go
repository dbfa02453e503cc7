package ghauth_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/ghauth/pkg/ghauth"
)

var errInterceptor = errors.New("interceptor error")

func TestInterceptorChain(t *testing.T) {
	t.Parallel()

	var order []string

	chain := ghauth.NewInterceptorChain()
	chain.AddRequestInterceptor(func(context.Context, *ghauth.Request) error {
		order = append(order, "first")

		return nil
	})
	chain.AddRequestInterceptor(func(context.Context, *ghauth.Request) error {
		order = append(order, "second")

		return errInterceptor
	})
	chain.AddRequestInterceptor(func(context.Context, *ghauth.Request) error {
		order = append(order, "third")

		return nil
	})

	err := chain.ExecuteRequestInterceptors(context.Background(), &ghauth.Request{})
	require.ErrorIs(t, err, errInterceptor)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestHeaderInterceptor(t *testing.T) {
	t.Parallel()

	req := &ghauth.Request{}

	err := ghauth.HeaderInterceptor(map[string]string{"X-Custom": "value"})(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "value", req.Headers.Get("X-Custom"))
}

func TestRateLimitInterceptor(t *testing.T) {
	t.Parallel()

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()

		interceptor := ghauth.RateLimitInterceptor(0)
		for range 100 {
			require.NoError(t, interceptor(context.Background(), &ghauth.Request{}))
		}
	})

	t.Run("cancelled wait", func(t *testing.T) {
		t.Parallel()

		interceptor := ghauth.RateLimitInterceptor(1)
		require.NoError(t, interceptor(context.Background(), &ghauth.Request{}))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		err := interceptor(ctx, &ghauth.Request{})
		require.Error(t, err)
	})
}

type countingLogger struct {
	ghauth.NoopLogger

	debug  int
	errors int
}

func (l *countingLogger) Debug(string, map[string]interface{}) { l.debug++ }
func (l *countingLogger) Error(string, map[string]interface{}) { l.errors++ }

func TestLoggingInterceptors(t *testing.T) {
	t.Parallel()

	logger := &countingLogger{}
	req := &ghauth.Request{Method: http.MethodGet, URL: "/user"}

	require.NoError(t, ghauth.LoggingInterceptor(logger)(context.Background(), req))
	require.NoError(t, ghauth.LoggingResponseInterceptor(logger)(context.Background(), req, &ghauth.Response{StatusCode: 200}, nil))
	require.NoError(t, ghauth.LoggingResponseInterceptor(logger)(context.Background(), req, nil, errInterceptor))

	assert.Equal(t, 2, logger.debug)
	assert.Equal(t, 1, logger.errors)
}

func TestMetricsCollector(t *testing.T) {
	t.Parallel()

	collector := ghauth.NewMetricsCollector()

	var changes []string

	collector.SetOnChange(func(endpoint string, metrics ghauth.Metrics) {
		changes = append(changes, endpoint)
	})

	requestInterceptor := ghauth.MetricsRequestInterceptor(collector)
	responseInterceptor := ghauth.MetricsResponseInterceptor(collector)
	ctx := context.Background()

	for _, status := range []int{200, 401} {
		req := &ghauth.Request{Method: http.MethodPost, URL: "/authorizations"}
		require.NoError(t, requestInterceptor(ctx, req))

		var respErr error
		if status >= 400 {
			respErr = ghauth.NewRequestError("", status, http.Header{}, req, nil)
		}

		require.NoError(t, responseInterceptor(ctx, req, &ghauth.Response{StatusCode: status}, respErr))
	}

	metrics := collector.GetMetrics("POST /authorizations")
	require.NotNil(t, metrics)
	assert.Equal(t, int64(2), metrics.TotalRequests)
	assert.Equal(t, int64(1), metrics.TotalErrors)
	assert.False(t, metrics.LastRequestTime.IsZero())
	assert.Equal(t, []string{"POST /authorizations", "POST /authorizations"}, changes)

	assert.Nil(t, collector.GetMetrics("GET /user"))
}
