package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/fivetwenty-io/ghauth/internal/constants"
	"github.com/fivetwenty-io/ghauth/internal/routes"
	"github.com/fivetwenty-io/ghauth/pkg/ghauth"
)

// Dispatcher sends requests and answers two-factor authentication
// challenges along the way.
//
// A request is sent with the cached one-time code, if any. When the server
// answers 401 with "X-GitHub-OTP: required", the code provider is asked for a
// fresh code and the request is retried exactly once with it. Codes are
// cached once the server has accepted them.
type Dispatcher struct {
	session   *Session
	transport ghauth.Transport
	on2FA     ghauth.CodeProvider
	logger    ghauth.Logger

	// serializes challenge/response sequences of one strategy
	mutex sync.Mutex
}

// NewDispatcher creates a dispatcher sending through transport by default.
func NewDispatcher(session *Session, transport ghauth.Transport, on2FA ghauth.CodeProvider, logger ghauth.Logger) *Dispatcher {
	if logger == nil {
		logger = ghauth.NoopLogger{}
	}

	return &Dispatcher{
		session:   session,
		transport: transport,
		on2FA:     on2FA,
		logger:    logger,
	}
}

// challenge is the 2FA state reported by a failed response.
type challenge struct {
	required bool
	sms      bool
}

func challengeOf(reqErr *ghauth.RequestError) challenge {
	value := strings.ToLower(reqErr.Headers.Get(constants.OTPHeader))

	return challenge{
		required: strings.Contains(value, constants.OTPRequired),
		sms:      strings.Contains(value, constants.OTPSMS),
	}
}

// Dispatch sends req through transport, or the dispatcher's transport when
// transport is nil.
func (d *Dispatcher) Dispatch(ctx context.Context, req *ghauth.Request, transport ghauth.Transport) (*ghauth.Response, error) {
	if transport == nil {
		transport = d.transport
	}

	if transport == nil {
		return nil, ghauth.ErrNoTransport
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	req = req.Clone()
	if code := d.session.Code(); code != "" {
		req.Headers.Set(constants.OTPHeader, code)
	}

	resp, err := transport.Do(ctx, req)
	if err == nil {
		return resp, nil
	}

	reqErr, ok := ghauth.AsRequestError(err)
	if !ok {
		return nil, err
	}

	state := challengeOf(reqErr)
	if reqErr.Status != http.StatusUnauthorized || !state.required {
		return nil, err
	}

	if sentWithCode(reqErr, req) {
		if !d.session.ClearCode() {
			return nil, invalidCodeError(reqErr)
		}

		d.logger.Debug("Cached one-time code expired", map[string]interface{}{
			"method": req.Method,
			"url":    req.URL,
		})
	}

	d.logger.Debug("Two-factor authentication required", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL,
		"sms":    state.sms,
	})

	if state.sms && !routes.IsSMSTriggeringRoute(req.Method, req.URL) {
		err = d.triggerSMS(ctx, req, transport)
		if err != nil {
			return nil, err
		}
	}

	code, err := d.requestCode(ctx)
	if err != nil {
		return nil, err
	}

	return d.retry(ctx, req.WithHeader(constants.OTPHeader, code), code, transport)
}

// retry sends the request carrying a fresh code. The cached code is always
// empty at this point, so the request carries exactly the fresh code.
func (d *Dispatcher) retry(ctx context.Context, req *ghauth.Request, code string, transport ghauth.Transport) (*ghauth.Response, error) {
	resp, err := transport.Do(ctx, req)
	if err == nil {
		d.session.SetCode(code)

		return resp, nil
	}

	reqErr, ok := ghauth.AsRequestError(err)
	if !ok {
		return nil, err
	}

	state := challengeOf(reqErr)
	if !state.required {
		// the code was accepted, the failure is unrelated to it
		d.session.SetCode(code)

		return nil, err
	}

	d.logger.Debug("One-time code rejected", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL,
		"status": reqErr.Status,
	})

	if reqErr.Status == http.StatusUnauthorized {
		return nil, invalidCodeError(reqErr)
	}

	return nil, err
}

// triggerSMS sends a request that makes the server deliver a one-time code
// by SMS. The server answers it with 401, which is expected.
func (d *Dispatcher) triggerSMS(ctx context.Context, req *ghauth.Request, transport ghauth.Transport) error {
	trigger := &ghauth.Request{
		Method:  http.MethodPatch,
		URL:     constants.AuthorizationsPath,
		Headers: req.Headers.Clone(),
	}

	d.logger.Debug("Triggering one-time code delivery by SMS", nil)

	_, err := transport.Do(ctx, trigger)
	if err != nil && ghauth.StatusCode(err) != http.StatusUnauthorized {
		return err
	}

	return nil
}

func (d *Dispatcher) requestCode(ctx context.Context) (string, error) {
	code, err := d.on2FA(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ghauth.ErrCodeProvider, err)
	}

	if code == "" {
		return "", ghauth.ErrEmptyCode
	}

	return code, nil
}

// sentWithCode reports whether the rejected request carried a one-time code,
// preferring the request echoed back by the transport.
func sentWithCode(reqErr *ghauth.RequestError, sent *ghauth.Request) bool {
	if reqErr.Request != nil && reqErr.Request.Headers != nil {
		return reqErr.Request.Headers.Get(constants.OTPHeader) != ""
	}

	return sent.Headers.Get(constants.OTPHeader) != ""
}

func invalidCodeError(reqErr *ghauth.RequestError) *ghauth.RequestError {
	return ghauth.NewRequestError(
		ghauth.InvalidOTPMessage,
		http.StatusUnauthorized,
		reqErr.Headers,
		reqErr.Request,
		ghauth.ErrInvalidOTP,
	)
}
