package constants

import "errors"

// API and configuration errors.
var (
	ErrNoAPIsConfigured  = errors.New("no APIs configured, use 'ghauth login' to add one")
	ErrAPIConfigNotFound = errors.New("API configuration not found")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
	ErrNoStoredToken     = errors.New("no token stored for this API, please run 'ghauth login' first")
)

// Validation errors.
var (
	ErrUsernameRequired  = errors.New("username is required")
	ErrPasswordRequired  = errors.New("password is required")
	ErrInvalidEndpoint   = errors.New("invalid API endpoint")
	ErrInvalidAuthType   = errors.New("invalid value for --type, expected token or basic")
	ErrInvalidField      = errors.New("invalid field, expected key=value")
	ErrInvalidHeader     = errors.New("invalid header, expected 'Name: value'")
	ErrNATSSubjectNeeded = errors.New("a NATS subject is required to receive one-time codes")
)

// Code provider errors.
var (
	ErrInvalidOTPSecret = errors.New("invalid TOTP secret")
	ErrNoCodeEntered    = errors.New("no one-time code entered")
)
