package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/fivetwenty-io/ghauth/internal/constants"
	"github.com/fivetwenty-io/ghauth/pkg/ghauth"
)

const (
	testUsername    = "octocat"
	testPassword    = "secret"
	testBasicHeader = "basic b2N0b2NhdDpzZWNyZXQ="
	testToken       = "1234567890abcdef1234567890abcdef12345678"

	// 0.123 * 2^56, the fraction behind fingerprint "4feornbt361"
	testRandom      = uint64(8863084066665136)
	testFingerprint = "4feornbt361"
)

var (
	errUnexpectedRequest = errors.New("unexpected request")
	errNoMoreCodes       = errors.New("no more codes")
	errNetwork           = errors.New("connection reset by peer")
)

// reply is a scripted transport answer.
type reply struct {
	status int
	otp    string
	body   string
	err    error
}

// fakeTransport answers requests with scripted replies, in order.
type fakeTransport struct {
	mu      sync.Mutex
	replies []reply
	sent    []*ghauth.Request
}

func newFakeTransport(replies ...reply) *fakeTransport {
	return &fakeTransport{replies: replies}
}

func (f *fakeTransport) Do(_ context.Context, req *ghauth.Request) (*ghauth.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sent := req.Clone()
	f.sent = append(f.sent, sent)

	if len(f.sent) > len(f.replies) {
		return nil, fmt.Errorf("%w: %s %s", errUnexpectedRequest, req.Method, req.URL)
	}

	r := f.replies[len(f.sent)-1]
	if r.err != nil {
		return nil, r.err
	}

	headers := make(http.Header)
	if r.otp != "" {
		headers.Set(constants.OTPHeader, r.otp)
	}

	status := r.status
	if status == 0 {
		status = http.StatusOK
	}

	if status >= http.StatusBadRequest {
		return nil, ghauth.NewRequestError(ghauth.MessageFromBody(status, []byte(r.body)), status, headers, sent, nil)
	}

	return &ghauth.Response{StatusCode: status, Headers: headers, Body: []byte(r.body)}, nil
}

func (f *fakeTransport) requests() []*ghauth.Request {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*ghauth.Request(nil), f.sent...)
}

// codeSource hands out one-time codes and counts the calls.
type codeSource struct {
	mu    sync.Mutex
	codes []string
	calls int
}

func (c *codeSource) provide(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	if c.calls > len(c.codes) {
		return "", errNoMoreCodes
	}

	return c.codes[c.calls-1], nil
}

func (c *codeSource) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls
}

func newTestStrategy(t *testing.T, transport ghauth.Transport, codes *codeSource, token *ghauth.TokenOptions) *Strategy {
	t.Helper()

	if codes == nil {
		codes = &codeSource{}
	}

	strategy := NewStrategy(&ghauth.StrategyOptions{
		Username:  testUsername,
		Password:  testPassword,
		On2FA:     codes.provide,
		Token:     token,
		Transport: transport,
	})
	strategy.issuer.now = func() time.Time { return time.Unix(0, 0) }
	strategy.issuer.random = func() uint64 { return testRandom }

	return strategy
}

func otpOf(req *ghauth.Request) string {
	return req.Headers.Get(constants.OTPHeader)
}

func tokenBody(id int, token string) string {
	return fmt.Sprintf(`{"id":%d,"token":%q}`, id, token)
}
