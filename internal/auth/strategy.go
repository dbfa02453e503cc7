// Package auth implements the username/password strategy: the two-factor
// aware dispatcher, the token issuer, and the session state they share.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/ghauth/internal/constants"
	"github.com/fivetwenty-io/ghauth/internal/routes"
	"github.com/fivetwenty-io/ghauth/pkg/ghauth"
)

// Strategy implements ghauth.Strategy.
type Strategy struct {
	username   string
	password   string
	transport  ghauth.Transport
	logger     ghauth.Logger
	session    *Session
	dispatcher *Dispatcher
	issuer     *TokenIssuer
}

// NewStrategy creates a strategy from validated options.
func NewStrategy(options *ghauth.StrategyOptions) *Strategy {
	logger := options.Logger
	if logger == nil {
		logger = ghauth.NoopLogger{}
	}

	session := NewSession()
	dispatcher := NewDispatcher(session, options.Transport, options.On2FA, logger)

	return &Strategy{
		username:   options.Username,
		password:   options.Password,
		transport:  options.Transport,
		logger:     logger,
		session:    session,
		dispatcher: dispatcher,
		issuer:     NewTokenIssuer(session, dispatcher, options.Username, options.Password, options.Token, logger),
	}
}

// Session returns the strategy's session state.
func (s *Strategy) Session() *Session {
	return s.session
}

// Auth returns a token, or basic authentication when options.Type is
// AuthTypeBasic.
func (s *Strategy) Auth(ctx context.Context, options *ghauth.AuthOptions) (ghauth.Authentication, error) {
	if options == nil {
		options = &ghauth.AuthOptions{}
	}

	switch options.Type {
	case ghauth.AuthTypeBasic:
		basic, err := s.basic(ctx)
		if err != nil {
			return nil, err
		}

		return basic, nil
	case ghauth.AuthTypeToken, "":
		token, err := s.issuer.Issue(ctx, options.Refresh, nil)
		if err != nil {
			return nil, err
		}

		return token, nil
	default:
		return nil, fmt.Errorf("%w: %q", ghauth.ErrUnknownAuthType, options.Type)
	}
}

// basic sends a request that does not exist but still answers with a 2FA
// challenge if 2FA is enabled, so the returned credential carries a valid
// one-time code. The expected answer is 404.
func (s *Strategy) basic(ctx context.Context) (*ghauth.BasicAuthentication, error) {
	probe := &ghauth.Request{
		Method:  http.MethodPatch,
		URL:     constants.AuthorizationsPath,
		Headers: make(http.Header),
	}
	probe.Headers.Set("Authorization", BasicAuthorization(s.username, s.password))

	_, err := s.dispatcher.Dispatch(ctx, probe, nil)
	if err != nil && !ghauth.IsNotFound(err) {
		return nil, err
	}

	return &ghauth.BasicAuthentication{
		Kind:        ghauth.AuthTypeBasic,
		Username:    s.username,
		Password:    s.password,
		Credentials: Credentials(s.username, s.password),
		Code:        s.session.Code(),
	}, nil
}

// Hook authenticates and sends the request described by route and params.
// Authorization routes use basic authentication; all other routes use the
// strategy's token.
func (s *Strategy) Hook(ctx context.Context, transport ghauth.Transport, route string, params ghauth.Parameters) (*ghauth.Response, error) {
	req, err := ghauth.NewEndpoint(route, params)
	if err != nil {
		return nil, err
	}

	if transport == nil {
		transport = s.transport
	}

	if transport == nil {
		return nil, ghauth.ErrNoTransport
	}

	if routes.IsAuthorizationRoute(req.URL) {
		req.Headers.Set("Authorization", BasicAuthorization(s.username, s.password))

		return s.dispatcher.Dispatch(ctx, req, transport)
	}

	token, err := s.issuer.Issue(ctx, false, transport)
	if err != nil {
		return nil, err
	}

	req.Headers.Set("Authorization", constants.TokenScheme+token.Token)

	return transport.Do(ctx, req)
}
