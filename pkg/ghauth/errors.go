package ghauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Static errors for err113 compliance.
var (
	ErrUsernameRequired = errors.New("username option is required")
	ErrPasswordRequired = errors.New("password option is required")
	ErrOn2FARequired    = errors.New("on2FA option is required")
	ErrInvalidOTP       = errors.New("invalid one-time password")
	ErrCodeProvider     = errors.New("one-time code provider failed")
	ErrEmptyCode        = errors.New("one-time code provider returned an empty code")
	ErrUnknownAuthType  = errors.New("unknown authentication type")
	ErrInvalidRoute     = errors.New("invalid route")
	ErrMissingParameter = errors.New("missing route parameter")
	ErrNoTransport      = errors.New("no transport configured")
)

// InvalidOTPMessage is the message of the error returned when a one-time
// code is rejected.
const InvalidOTPMessage = "Invalid TOTP (time-based one-time password) for two-factor authentication"

// RequestError is a failed API response.
type RequestError struct {
	Status  int
	Message string
	// Headers are the response headers. A nil value marks an error without
	// response metadata.
	Headers http.Header
	// Request is the request as it was sent.
	Request *Request
	Body    []byte

	err error
}

// NewRequestError creates a RequestError wrapping err, which may be nil.
func NewRequestError(message string, status int, headers http.Header, req *Request, err error) *RequestError {
	return &RequestError{
		Status:  status,
		Message: message,
		Headers: headers,
		Request: req,
		err:     err,
	}
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	message := e.Message
	if message == "" {
		message = http.StatusText(e.Status)
	}

	return fmt.Sprintf("%s (status: %d)", message, e.Status)
}

// Unwrap returns the wrapped error.
func (e *RequestError) Unwrap() error {
	return e.err
}

// MessageFromBody extracts the "message" field of an API error body, falling
// back to the status text.
func MessageFromBody(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}

	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		return payload.Message
	}

	return http.StatusText(status)
}

// AsRequestError returns the RequestError in err's chain if it carries
// response headers.
func AsRequestError(err error) (*RequestError, bool) {
	reqErr := &RequestError{}
	if !errors.As(err, &reqErr) || reqErr.Headers == nil {
		return nil, false
	}

	return reqErr, true
}

// StatusCode returns the HTTP status of a RequestError, or 0.
func StatusCode(err error) int {
	reqErr := &RequestError{}
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}

	return 0
}

// IsNotFound checks if the error is a 404 response.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized checks if the error is a 401 response.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsInvalidOTP checks if the error reports a rejected one-time code.
func IsInvalidOTP(err error) bool {
	return errors.Is(err, ErrInvalidOTP)
}
