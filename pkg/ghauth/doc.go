// Package ghauth provides the types, interfaces, and helpers shared by the
// username/password authentication strategy.
//
// # Overview
//
// A strategy exchanges a username and password for either a personal access
// token (created through the authorizations API) or a basic authentication
// credential. Both paths transparently answer two-factor authentication
// challenges: when the API responds with 401 and an "X-GitHub-OTP: required"
// header, the strategy asks the configured CodeProvider for a one-time code
// and retries the request once with the code attached. Accepted codes are
// cached for later requests until the server rejects them.
//
// Getting a strategy
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/ghauth/pkg/basicauth"
//	  "github.com/fivetwenty-io/ghauth/pkg/ghauth"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  strategy, err := basicauth.New(&ghauth.StrategyOptions{
//	    Username: "octocat",
//	    Password: "secret",
//	    On2FA: func(ctx context.Context) (string, error) {
//	      return promptForCode()
//	    },
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  authentication, err := strategy.Auth(ctx, nil)
//	  if err != nil { log.Fatal(err) }
//	  _ = authentication.(*ghauth.TokenAuthentication).Token
//	}
//
// # Hooking requests
//
// Strategy.Hook sends an arbitrary API request through a Transport. Requests
// to the authorizations endpoints are sent with basic authentication (and
// 2FA handling); every other request is sent with the strategy's token.
//
//	resp, err := strategy.Hook(ctx, nil, "GET /user", nil)
//
// # Errors
//
// Failed API responses are reported as *RequestError, which carries the
// status code, the response headers, and the request that was sent. Helpers
// such as IsNotFound, IsUnauthorized, and IsInvalidOTP make it easy to branch
// on common cases.
//
// # Interceptors
//
// The package includes request/response interceptors (logging, headers,
// rate limiting, metrics) which the default HTTP transport runs around every
// request.
package ghauth
