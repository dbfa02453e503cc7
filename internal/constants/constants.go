package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second

	// DefaultCodeTimeout bounds how long the CLI waits for a one-time code
	// from an external channel.
	DefaultCodeTimeout = 2 * time.Minute
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// API endpoints and wire values.
const (
	// DefaultBaseURL is the API the default transport talks to.
	DefaultBaseURL = "https://api.github.com"

	// DefaultAccept is the media type sent with every request.
	DefaultAccept = "application/vnd.github.v3+json"

	// AuthorizationsPath is the authorization management collection.
	AuthorizationsPath = "/authorizations"

	// OTPHeader carries one-time codes and 2FA challenges.
	OTPHeader = "X-GitHub-OTP"

	// OTPRequired marks a 2FA challenge in the OTPHeader response value.
	OTPRequired = "required"

	// OTPSMS marks SMS delivery in the OTPHeader response value.
	OTPSMS = "sms"

	// BasicScheme prefixes basic authorization header values.
	BasicScheme = "basic "

	// TokenScheme prefixes token authorization header values.
	TokenScheme = "token "
)

// Token creation defaults.
const (
	// DefaultNotePrefix starts the synthesized token note.
	DefaultNotePrefix = "ghauth"

	// DefaultNoteURL is sent as note_url when none is configured.
	DefaultNoteURL = "https://github.com/fivetwenty-io/ghauth#readme"

	// FingerprintLength is the number of base-36 digits of a random fingerprint.
	FingerprintLength = 11

	// NoteDateLayout formats the date in the synthesized note.
	NoteDateLayout = "2006-01-02"
)

// UI and display constants.
const (
	// NotAvailable is displayed for missing values.
	NotAvailable = "N/A"

	// MaskedSecret replaces secrets in output.
	MaskedSecret = "***"

	// StringTruncationLimit is the number of characters shown of a masked token.
	StringTruncationLimit = 4
)

// Format constants.
const (
	// FormatJSON represents JSON output format.
	FormatJSON = "json"

	// FormatYAML represents YAML output format.
	FormatYAML = "yaml"

	// FormatTable represents table output format.
	FormatTable = "table"
)
