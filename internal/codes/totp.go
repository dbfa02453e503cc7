package codes

import (
	"context"
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/fivetwenty-io/ghauth/internal/constants"
	"github.com/fivetwenty-io/ghauth/pkg/ghauth"
)

// TOTP generates codes from a base32 TOTP seed, the secret an authenticator
// app is set up with. now defaults to time.Now.
func TOTP(secret string, now func() time.Time) (ghauth.CodeProvider, error) {
	secret = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(secret), " ", ""))

	_, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.TrimRight(secret, "="))
	if secret == "" || err != nil {
		return nil, constants.ErrInvalidOTPSecret
	}

	if now == nil {
		now = time.Now
	}

	return func(context.Context) (string, error) {
		code, err := totp.GenerateCode(secret, now())
		if err != nil {
			return "", fmt.Errorf("generating TOTP code: %w", err)
		}

		return code, nil
	}, nil
}
