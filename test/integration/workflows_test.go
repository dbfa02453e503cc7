//go:build integration

package integration

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTokenWorkflow issues a token, uses it and deletes it again.
func TestTokenWorkflow(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	runner := NewCommandRunner(config, t)
	note := GenerateTestNote("ghauth-it")

	// 1. Login with a token
	args := append([]string{"login", "--username", config.Username, "--note", note, "--output", "json"}, runner.OTPArgs()...)
	stdout, stderr, err := runner.Run(args...)
	require.NoError(t, err, "Failed to login: %s", stderr)

	var login struct {
		Type     string `json:"type"`
		Username string `json:"username"`
		TokenID  int64  `json:"token_id"`
	}
	DecodeJSON(t, stdout, &login)
	assert.Equal(t, "token", login.Type)
	assert.Equal(t, config.Username, login.Username)
	require.NotZero(t, login.TokenID)

	defer func() {
		// Cleanup
		cleanup := append([]string{"request", "DELETE /authorizations/:authorization_id",
			"-f", "authorization_id=" + strconv.FormatInt(login.TokenID, 10)}, runner.OTPArgs()...)

		_, stderr, err := runner.Run(cleanup...)
		if err != nil {
			t.Logf("Cleanup warning for token %d: %s", login.TokenID, stderr)
		}
	}()

	// 2. Token status
	stdout, stderr, err = runner.Run("token", "status", "--output", "json")
	require.NoError(t, err, "Failed to get token status: %s", stderr)

	var status struct {
		Note    string `json:"note"`
		TokenID int64  `json:"token_id"`
	}
	DecodeJSON(t, stdout, &status)
	assert.Equal(t, note, status.Note)
	assert.Equal(t, login.TokenID, status.TokenID)

	// 3. Use the token
	stdout, stderr, err = runner.Run("request", "GET /user", "--output", "json")
	require.NoError(t, err, "Failed to get user: %s", stderr)

	var user struct {
		Login string `json:"login"`
	}
	DecodeJSON(t, stdout, &user)
	assert.Equal(t, config.Username, user.Login)
}

// TestBasicWorkflow requests basic authentication.
func TestBasicWorkflow(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	runner := NewCommandRunner(config, t)

	args := append([]string{"login", "--username", config.Username, "--type", "basic", "--output", "json"}, runner.OTPArgs()...)
	stdout, stderr, err := runner.Run(args...)
	require.NoError(t, err, "Failed to login: %s", stderr)

	var login struct {
		Type string `json:"type"`
		Code string `json:"totp"`
	}
	DecodeJSON(t, stdout, &login)
	assert.Equal(t, "basic", login.Type)

	if config.OTPSecret != "" {
		assert.NotEmpty(t, login.Code)
	}
}
