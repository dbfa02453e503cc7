package commands_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/ghauth/cmd/ghauth/commands"
	"github.com/fivetwenty-io/ghauth/internal/constants"
)

const (
	flowUsername = "octocat"
	flowPassword = "secret"
	flowBasic    = "basic b2N0b2NhdDpzZWNyZXQ="
	flowCode     = "123456"
	flowToken    = "abc123"
)

// newFlowServer serves a 2FA-protected authorizations API and a /user
// resource that requires the issued token.
func newFlowServer(t *testing.T, created *atomic.Int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/authorizations", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != flowBasic {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		if r.Header.Get(constants.OTPHeader) != flowCode {
			w.Header().Set(constants.OTPHeader, "required; app")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Must specify two-factor authentication OTP code."}`))

			return
		}

		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)

			return
		}

		id := created.Add(1)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":    id,
			"token": flowToken,
		})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "token "+flowToken {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"login":"octocat","id":1}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

// setupFlowConfig points viper at an empty config file in a temp dir.
func setupFlowConfig(t *testing.T, server *httptest.Server) string {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	configFile := filepath.Join(t.TempDir(), "config.yml")
	viper.SetConfigFile(configFile)
	viper.Set("api", server.URL)
	viper.Set("password", flowPassword)
	viper.Set("output", constants.FormatJSON)

	return configFile
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestLoginFlow(t *testing.T) {
	var created atomic.Int32

	server := newFlowServer(t, &created)
	configFile := setupFlowConfig(t, server)

	out, err := execute(t, commands.NewLoginCommand(), "--username", flowUsername, "--otp", flowCode, "--note", "laptop")
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "token", result["type"])
	assert.Equal(t, flowUsername, result["username"])
	assert.Equal(t, "abc1***", result["token"])
	assert.EqualValues(t, 1, result["token_id"])

	data, err := os.ReadFile(configFile)
	require.NoError(t, err)

	var saved commands.Config
	require.NoError(t, yaml.Unmarshal(data, &saved))

	apiConfig := saved.APIs["127.0.0.1"]
	require.NotNil(t, apiConfig)
	assert.Equal(t, "127.0.0.1", saved.CurrentAPI)
	assert.Equal(t, server.URL, apiConfig.Endpoint)
	assert.Equal(t, flowUsername, apiConfig.Username)
	assert.Equal(t, flowToken, apiConfig.Token)
	assert.Equal(t, int64(1), apiConfig.TokenID)
	assert.Equal(t, "laptop", apiConfig.Note)
	assert.NotNil(t, apiConfig.LastIssued)
	assert.NotContains(t, string(data), flowPassword)

	t.Run("token status", func(t *testing.T) {
		out, err := execute(t, commands.NewTokenCommand(), "status")
		require.NoError(t, err)

		var status map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &status))
		assert.Equal(t, "127.0.0.1", status["api"])
		assert.Equal(t, "abc1***", status["token"])
		assert.Equal(t, "laptop", status["note"])
	})

	t.Run("request reuses the stored token", func(t *testing.T) {
		out, err := execute(t, commands.NewRequestCommand(), "GET /user")
		require.NoError(t, err)
		assert.JSONEq(t, `{"login":"octocat","id":1}`, out)
		assert.Equal(t, int32(1), created.Load())
	})

	t.Run("token refresh", func(t *testing.T) {
		_, err := execute(t, commands.NewTokenCommand(), "refresh", "--otp", flowCode)
		require.NoError(t, err)
		assert.Equal(t, int32(2), created.Load())

		data, err := os.ReadFile(configFile)
		require.NoError(t, err)

		var saved commands.Config
		require.NoError(t, yaml.Unmarshal(data, &saved))
		assert.Equal(t, int64(2), saved.APIs["127.0.0.1"].TokenID)
	})

	t.Run("basic authentication", func(t *testing.T) {
		out, err := execute(t, commands.NewLoginCommand(), "--type", "basic", "--otp", flowCode)
		require.NoError(t, err)

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, "basic", result["type"])
		assert.Equal(t, constants.MaskedSecret, result["credentials"])
		assert.Equal(t, flowCode, result["totp"])
		assert.Equal(t, int32(2), created.Load())
	})
}

func TestLoginReusesStoredToken(t *testing.T) {
	var created atomic.Int32

	server := newFlowServer(t, &created)
	configFile := setupFlowConfig(t, server)

	_, err := execute(t, commands.NewLoginCommand(), "--username", flowUsername, "--otp", flowCode)
	require.NoError(t, err)

	out, err := execute(t, commands.NewLoginCommand(), "--username", flowUsername, "--otp", flowCode)
	require.NoError(t, err)
	assert.Equal(t, int32(1), created.Load())

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.EqualValues(t, 1, result["token_id"])

	_, err = execute(t, commands.NewLoginCommand(), "--otp", flowCode, "--refresh")
	require.NoError(t, err)
	assert.Equal(t, int32(2), created.Load())

	data, err := os.ReadFile(configFile)
	require.NoError(t, err)

	var saved commands.Config
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Equal(t, int64(2), saved.APIs["127.0.0.1"].TokenID)
}

func TestLoginFlow_Errors(t *testing.T) {
	var created atomic.Int32

	server := newFlowServer(t, &created)
	setupFlowConfig(t, server)

	_, err := execute(t, commands.NewLoginCommand(), "--username", flowUsername, "--type", "oauth")
	require.ErrorIs(t, err, constants.ErrInvalidAuthType)

	_, err = execute(t, commands.NewTokenCommand(), "status")
	require.ErrorIs(t, err, constants.ErrNoAPIsConfigured)

	_, err = execute(t, commands.NewLoginCommand(), "--username", flowUsername, "--otp", "000000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid TOTP")
	assert.Zero(t, created.Load())

	// the API is saved before authenticating, without a token
	_, err = execute(t, commands.NewTokenCommand(), "status")
	require.ErrorIs(t, err, constants.ErrNoStoredToken)
}

func TestConfigCommands(t *testing.T) {
	var created atomic.Int32

	server := newFlowServer(t, &created)
	configFile := setupFlowConfig(t, server)

	_, err := execute(t, commands.NewLoginCommand(), "--username", flowUsername, "--otp", flowCode)
	require.NoError(t, err)

	_, err = execute(t, commands.NewConfigCommand(), "set", "scopes", "repo,user", "--api", "127.0.0.1")
	require.NoError(t, err)

	_, err = execute(t, commands.NewConfigCommand(), "set", "rate_limit", "10")
	require.NoError(t, err)

	data, err := os.ReadFile(configFile)
	require.NoError(t, err)

	var saved commands.Config
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Equal(t, []string{"repo", "user"}, saved.APIs["127.0.0.1"].Scopes)
	assert.Equal(t, 10, saved.RateLimit)

	out, err := execute(t, commands.NewConfigCommand(), "show")
	require.NoError(t, err)
	assert.NotContains(t, out, flowToken)
	assert.Contains(t, out, constants.MaskedSecret)

	_, err = execute(t, commands.NewConfigCommand(), "unset", "token", "--api", "127.0.0.1")
	require.NoError(t, err)

	_, err = execute(t, commands.NewTokenCommand(), "status")
	require.ErrorIs(t, err, constants.ErrNoStoredToken)

	_, err = execute(t, commands.NewConfigCommand(), "set", "color", "red")
	require.ErrorIs(t, err, constants.ErrUnknownConfigKey)
}
