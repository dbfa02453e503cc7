package ghauth

import (
	"context"
)

// AuthType discriminates the authentication results.
type AuthType string

const (
	// AuthTypeToken requests (or describes) a personal access token.
	AuthTypeToken AuthType = "token"

	// AuthTypeBasic requests (or describes) a basic authentication credential.
	AuthTypeBasic AuthType = "basic"
)

// TokenTypeOAuth is the token type of every token issued by the strategy.
const TokenTypeOAuth = "oauth"

// CodeProvider returns a one-time code for two-factor authentication. It may
// block, e.g. while prompting a user or waiting on an external channel.
type CodeProvider func(ctx context.Context) (string, error)

// TokenOptions configures the token creation request. All fields are optional.
type TokenOptions struct {
	// Note describes the token. Defaults to "ghauth <date> <fingerprint>".
	Note string `json:"note,omitempty"          yaml:"note,omitempty"`
	// NoteURL links to the application that created the token.
	NoteURL string `json:"note_url,omitempty"      yaml:"note_url,omitempty"`
	// Scopes requested for the token. Defaults to no scopes.
	Scopes []string `json:"scopes,omitempty"        yaml:"scopes,omitempty"`
	// Fingerprint distinguishes tokens with the same note. A random value is
	// used when neither Note nor Fingerprint is set.
	Fingerprint string `json:"fingerprint,omitempty"   yaml:"fingerprint,omitempty"`
	// ClientID and ClientSecret create the token for an OAuth application.
	ClientID     string `json:"client_id,omitempty"     yaml:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty" yaml:"client_secret,omitempty"`
}

// StrategyOptions configures a username/password strategy.
type StrategyOptions struct {
	// Username and Password are required.
	Username string
	Password string
	// On2FA is required. It is called whenever the server asks for a
	// one-time code that is not cached yet.
	On2FA CodeProvider
	// Token configures token creation. Nil means defaults.
	Token *TokenOptions
	// Transport sends requests. Nil means the default HTTP transport.
	Transport Transport
	// Logger receives debug output. Nil means no logging.
	Logger Logger
}

// AuthOptions selects the kind of authentication returned by Strategy.Auth.
type AuthOptions struct {
	// Type is AuthTypeToken (the default) or AuthTypeBasic.
	Type AuthType
	// Refresh forces creation of a new token even if one is cached.
	Refresh bool
}

// Authentication is either a *TokenAuthentication or a *BasicAuthentication.
type Authentication interface {
	AuthKind() AuthType
}

// TokenAuthentication is an issued personal access token.
type TokenAuthentication struct {
	Kind      AuthType `json:"type"      yaml:"type"`
	TokenType string   `json:"tokenType" yaml:"token_type"`
	ID        int64    `json:"id"        yaml:"id"`
	Token     string   `json:"token"     yaml:"token"`
	Username  string   `json:"username"  yaml:"username"`
}

// AuthKind implements Authentication.
func (t *TokenAuthentication) AuthKind() AuthType {
	return AuthTypeToken
}

// BasicAuthentication is a basic authentication credential.
type BasicAuthentication struct {
	Kind     AuthType `json:"type"     yaml:"type"`
	Username string   `json:"username" yaml:"username"`
	Password string   `json:"password" yaml:"password"`
	// Credentials is base64("<username>:<password>").
	Credentials string `json:"credentials" yaml:"credentials"`
	// Code is the cached one-time code, if any.
	Code string `json:"totp,omitempty" yaml:"totp,omitempty"`
}

// AuthKind implements Authentication.
func (b *BasicAuthentication) AuthKind() AuthType {
	return AuthTypeBasic
}

// Parameters are merged into a route by NewEndpoint.
type Parameters map[string]interface{}

// Strategy authenticates with a username and password.
type Strategy interface {
	// Auth returns a token (default) or basic authentication.
	Auth(ctx context.Context, options *AuthOptions) (Authentication, error)
	// Hook sends the request described by route and params through transport
	// (or the strategy's transport if nil), authenticating it.
	Hook(ctx context.Context, transport Transport, route string, params Parameters) (*Response, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// NoopLogger discards everything.
type NoopLogger struct{}

func (NoopLogger) Debug(string, map[string]interface{}) {}
func (NoopLogger) Info(string, map[string]interface{})  {}
func (NoopLogger) Warn(string, map[string]interface{})  {}
func (NoopLogger) Error(string, map[string]interface{}) {}
