package ghauth_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fivetwenty-io/ghauth/pkg/ghauth"
)

func TestRequestError(t *testing.T) {
	t.Parallel()

	headers := http.Header{"X-Github-Otp": []string{"required; app"}}
	reqErr := ghauth.NewRequestError("Must specify two-factor authentication OTP code.", 401, headers, nil, nil)

	assert.Equal(t, "Must specify two-factor authentication OTP code. (status: 401)", reqErr.Error())
	assert.True(t, ghauth.IsUnauthorized(reqErr))
	assert.False(t, ghauth.IsNotFound(reqErr))
	assert.False(t, ghauth.IsInvalidOTP(reqErr))

	wrapped := fmt.Errorf("creating token: %w", reqErr)
	assert.Equal(t, 401, ghauth.StatusCode(wrapped))

	found, ok := ghauth.AsRequestError(wrapped)
	assert.True(t, ok)
	assert.Same(t, reqErr, found)
}

func TestRequestErrorWithoutHeaders(t *testing.T) {
	t.Parallel()

	reqErr := ghauth.NewRequestError("", 404, nil, nil, nil)

	assert.Equal(t, "Not Found (status: 404)", reqErr.Error())
	assert.True(t, ghauth.IsNotFound(reqErr))

	_, ok := ghauth.AsRequestError(reqErr)
	assert.False(t, ok)

	_, ok = ghauth.AsRequestError(errors.New("dial tcp: connection refused")) //nolint:err113 // test error
	assert.False(t, ok)
	assert.Equal(t, 0, ghauth.StatusCode(errors.New("plain"))) //nolint:err113 // test error
}

func TestInvalidOTPError(t *testing.T) {
	t.Parallel()

	reqErr := ghauth.NewRequestError(ghauth.InvalidOTPMessage, 401, http.Header{}, nil, ghauth.ErrInvalidOTP)

	assert.True(t, ghauth.IsInvalidOTP(reqErr))
	assert.ErrorIs(t, reqErr, ghauth.ErrInvalidOTP)
	assert.Contains(t, reqErr.Error(), "Invalid TOTP")
}

func TestMessageFromBody(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Bad credentials", ghauth.MessageFromBody(401, []byte(`{"message":"Bad credentials"}`)))
	assert.Equal(t, "Unauthorized", ghauth.MessageFromBody(401, []byte("Unauthorized")))
	assert.Equal(t, "Internal Server Error", ghauth.MessageFromBody(500, nil))
}
