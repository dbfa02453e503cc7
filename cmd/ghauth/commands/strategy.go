package commands

import (
	"fmt"
	"os"

	"github.com/nats-io/nats.go"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/ghauth/internal/auth"
	"github.com/fivetwenty-io/ghauth/internal/codes"
	"github.com/fivetwenty-io/ghauth/internal/constants"
	ghhttp "github.com/fivetwenty-io/ghauth/internal/http"
	"github.com/fivetwenty-io/ghauth/internal/logging"
	"github.com/fivetwenty-io/ghauth/pkg/basicauth"
	"github.com/fivetwenty-io/ghauth/pkg/ghauth"
)

const codePromptLabel = "Two-factor authentication code: "

func newLogger() ghauth.Logger {
	level := logging.ParseLevel("warn")
	if viper.GetBool("verbose") {
		level = logging.ParseLevel("debug")
	}

	return logging.New(os.Stderr, level, "text")
}

func newTransport(endpoint string, logger ghauth.Logger) ghauth.Transport {
	verbose := viper.GetBool("verbose")

	chain := ghauth.NewInterceptorChain()
	chain.AddRequestInterceptor(ghauth.RateLimitInterceptor(viper.GetInt("rate_limit")))

	if verbose {
		chain.AddRequestInterceptor(ghauth.LoggingInterceptor(logger))
		chain.AddResponseInterceptor(ghauth.LoggingResponseInterceptor(logger))
	}

	return ghhttp.NewClient(endpoint,
		ghhttp.WithUserAgent(basicauth.UserAgent),
		ghhttp.WithLogger(logger),
		ghhttp.WithDebug(verbose),
		ghhttp.WithInterceptors(chain),
	)
}

// newCodeProvider picks the one-time code source: an explicit code, a TOTP
// seed, a NATS subject, or an interactive prompt. The returned function
// releases the provider's resources.
func newCodeProvider(apiConfig *APIConfig, code string) (ghauth.CodeProvider, func(), error) {
	noop := func() {}

	switch {
	case code != "":
		return codes.Static(code), noop, nil
	case apiConfig.OTPSecret != "":
		provider, err := codes.TOTP(apiConfig.OTPSecret, nil)
		if err != nil {
			return nil, nil, err
		}

		return provider, noop, nil
	case apiConfig.OTPNATSURL != "":
		conn, err := nats.Connect(apiConfig.OTPNATSURL,
			nats.Name(basicauth.UserAgent),
			nats.Timeout(constants.ShortHTTPTimeout),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to NATS: %w", err)
		}

		provider, err := codes.NATS(conn, apiConfig.OTPNATSSubject)
		if err != nil {
			conn.Close()

			return nil, nil, err
		}

		_, _ = fmt.Fprintf(os.Stderr, "Waiting for a one-time code on %s\n", apiConfig.OTPNATSSubject)

		return codes.WithTimeout(provider, constants.DefaultCodeTimeout), conn.Close, nil
	default:
		return codes.Terminal(codePromptLabel), noop, nil
	}
}

func tokenOptions(apiConfig *APIConfig) *ghauth.TokenOptions {
	return &ghauth.TokenOptions{
		Note:        apiConfig.Note,
		Scopes:      apiConfig.Scopes,
		Fingerprint: apiConfig.Fingerprint,
	}
}

// storedToken rebuilds the token saved for an API, or nil.
func storedToken(apiConfig *APIConfig) *ghauth.TokenAuthentication {
	if apiConfig.Token == "" {
		return nil
	}

	return &ghauth.TokenAuthentication{
		Kind:      ghauth.AuthTypeToken,
		TokenType: ghauth.TokenTypeOAuth,
		ID:        apiConfig.TokenID,
		Token:     apiConfig.Token,
		Username:  apiConfig.Username,
	}
}

// strategyParams are the inputs of newConfigStrategy.
type strategyParams struct {
	domain       string
	apiConfig    *APIConfig
	password     string
	on2FA        ghauth.CodeProvider
	initialToken *ghauth.TokenAuthentication
}

func newConfigStrategy(params strategyParams) (*auth.ConfigStrategy, error) {
	logger := newLogger()

	strategy, err := basicauth.NewStrategy(&ghauth.StrategyOptions{
		Username:  params.apiConfig.Username,
		Password:  params.password,
		On2FA:     params.on2FA,
		Token:     tokenOptions(params.apiConfig),
		Transport: newTransport(params.apiConfig.Endpoint, logger),
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create strategy: %w", err)
	}

	return auth.NewConfigStrategy(strategy, NewConfigPersister(), params.domain, params.initialToken), nil
}

// resolvePassword returns the password from the flag, GHAUTH_PASSWORD, or a
// prompt.
func resolvePassword(flagValue string) (string, error) {
	password := flagValue
	if password == "" {
		password = viper.GetString("password")
	}

	if password == "" {
		var err error

		password, err = readPassword("Password: ")
		if err != nil {
			return "", err
		}
	}

	if password == "" {
		return "", constants.ErrPasswordRequired
	}

	return password, nil
}
