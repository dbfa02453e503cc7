// Package basicauth provides the main entry point for creating
// username/password strategies.
package basicauth

import (
	"github.com/fivetwenty-io/ghauth/internal/auth"
	"github.com/fivetwenty-io/ghauth/internal/constants"
	"github.com/fivetwenty-io/ghauth/internal/http"
	"github.com/fivetwenty-io/ghauth/pkg/ghauth"
)

// Version is reported in the default User-Agent.
const Version = "1.0.0"

// UserAgent is the User-Agent of the default transport.
const UserAgent = "ghauth/" + Version

// New creates a strategy. Username, Password and On2FA are required. Without
// a Transport, requests go to the public API through the default HTTP client.
func New(options *ghauth.StrategyOptions) (ghauth.Strategy, error) {
	return NewStrategy(options)
}

// NewStrategy is like New but returns the concrete strategy, which exposes its
// session state.
func NewStrategy(options *ghauth.StrategyOptions) (*auth.Strategy, error) {
	err := validate(options)
	if err != nil {
		return nil, err
	}

	resolved := *options
	if resolved.Logger == nil {
		resolved.Logger = ghauth.NoopLogger{}
	}

	if resolved.Token == nil {
		resolved.Token = &ghauth.TokenOptions{}
	}

	if resolved.Transport == nil {
		resolved.Transport = http.NewClient(constants.DefaultBaseURL,
			http.WithUserAgent(UserAgent),
			http.WithLogger(resolved.Logger),
		)
	}

	resolved.Logger.Warn("Basic authentication has been deprecated by the API, prefer personal access tokens", nil)

	return auth.NewStrategy(&resolved), nil
}

func validate(options *ghauth.StrategyOptions) error {
	switch {
	case options == nil || options.Username == "":
		return ghauth.ErrUsernameRequired
	case options.Password == "":
		return ghauth.ErrPasswordRequired
	case options.On2FA == nil:
		return ghauth.ErrOn2FARequired
	default:
		return nil
	}
}
