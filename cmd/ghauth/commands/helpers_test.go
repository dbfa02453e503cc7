package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/ghauth/internal/constants"
	"github.com/fivetwenty-io/ghauth/pkg/ghauth"
)

func TestParseFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fields  []string
		want    ghauth.Parameters
		wantErr error
	}{
		{
			name:   "strings",
			fields: []string{"owner=octocat", "repo=hello-world"},
			want:   ghauth.Parameters{"owner": "octocat", "repo": "hello-world"},
		},
		{
			name:   "typed values",
			fields: []string{"per_page=10", "private=true", "name=True"},
			want:   ghauth.Parameters{"per_page": int64(10), "private": true, "name": "True"},
		},
		{
			name:   "repeated keys",
			fields: []string{"scopes=repo", "scopes=user", "scopes=gist"},
			want:   ghauth.Parameters{"scopes": []interface{}{"repo", "user", "gist"}},
		},
		{
			name:   "value containing equals",
			fields: []string{"note=a=b"},
			want:   ghauth.Parameters{"note": "a=b"},
		},
		{
			name:   "empty value",
			fields: []string{"note="},
			want:   ghauth.Parameters{"note": ""},
		},
		{
			name:    "missing equals",
			fields:  []string{"owner"},
			wantErr: constants.ErrInvalidField,
		},
		{
			name:    "missing key",
			fields:  []string{"=octocat"},
			wantErr: constants.ErrInvalidField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseFields(tt.fields)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseHeaders(t *testing.T) {
	t.Parallel()

	got, err := parseHeaders([]string{"Accept: application/json", "X-Custom:value:with:colons"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Accept":   "application/json",
		"X-Custom": "value:with:colons",
	}, got)

	_, err = parseHeaders([]string{"no-colon"})
	require.ErrorIs(t, err, constants.ErrInvalidHeader)

	_, err = parseHeaders([]string{": value"})
	require.ErrorIs(t, err, constants.ErrInvalidHeader)
}

func TestTokenPreview(t *testing.T) {
	t.Parallel()

	assert.Equal(t, constants.NotAvailable, tokenPreview(""))
	assert.Equal(t, "***", tokenPreview("abcd"))
	assert.Equal(t, "abc1***", tokenPreview("abc123"))
}

func TestEndpointHelpers(t *testing.T) {
	t.Parallel()

	t.Run("extract domain", func(t *testing.T) {
		t.Parallel()

		tests := map[string]string{
			"https://api.github.com":             "api.github.com",
			"http://GHE.example.com/api/v3":      "ghe.example.com",
			"https://127.0.0.1:8443":             "127.0.0.1",
			"api.github.com":                     "api.github.com",
			"https://ghe.example.com:443/api/v3/": "ghe.example.com",
		}

		for endpoint, want := range tests {
			assert.Equal(t, want, extractDomainFromEndpoint(endpoint), endpoint)
		}
	})

	t.Run("normalize", func(t *testing.T) {
		t.Parallel()

		got, err := normalizeEndpoint("api.github.com/")
		require.NoError(t, err)
		assert.Equal(t, "https://api.github.com", got)

		got, err = normalizeEndpoint("  http://localhost:8080/api/v3  ")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/api/v3", got)

		_, err = normalizeEndpoint("https://")
		require.ErrorIs(t, err, constants.ErrInvalidEndpoint)
	})
}

func testConfig() *Config {
	return &Config{
		CurrentAPI: "ghe",
		APIs: map[string]*APIConfig{
			"ghe": {
				Endpoint: "https://ghe.example.com/api/v3",
				Username: "octocat",
				Token:    "abc123",
				TokenID:  7,
			},
			"api.github.com": {
				Endpoint:  "https://api.github.com",
				OTPSecret: "JBSWY3DPEHPK3PXP",
			},
		},
	}
}

func TestResolveAPI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		config     *Config
		flag       string
		wantDomain string
		wantURL    string
	}{
		{"current API", testConfig(), "", "ghe", "https://ghe.example.com/api/v3"},
		{"short name", testConfig(), "api.github.com", "api.github.com", "https://api.github.com"},
		{"known endpoint", testConfig(), "https://ghe.example.com/api/v3/", "ghe", "https://ghe.example.com/api/v3"},
		{"new endpoint", testConfig(), "https://other.example.com", "other.example.com", "https://other.example.com"},
		{"default API", &Config{}, "", "api.github.com", constants.DefaultBaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			domain, apiConfig, err := resolveAPI(tt.config, tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDomain, domain)
			assert.Equal(t, tt.wantURL, apiConfig.Endpoint)
		})
	}

	t.Run("stored API required", func(t *testing.T) {
		t.Parallel()

		_, _, err := storedAPI(&Config{}, "")
		require.ErrorIs(t, err, constants.ErrNoAPIsConfigured)

		_, _, err = storedAPI(testConfig(), "https://other.example.com")
		require.ErrorIs(t, err, constants.ErrAPIConfigNotFound)

		domain, _, err := storedAPI(testConfig(), "")
		require.NoError(t, err)
		assert.Equal(t, "ghe", domain)
	})
}

func TestSetConfigValues(t *testing.T) {
	t.Parallel()

	t.Run("global", func(t *testing.T) {
		t.Parallel()

		config := testConfig()

		require.NoError(t, setGlobalConfigValue(config, "output", "json"))
		require.NoError(t, setGlobalConfigValue(config, "verbose", "true"))
		require.NoError(t, setGlobalConfigValue(config, "rate_limit", "5"))
		require.NoError(t, setGlobalConfigValue(config, "current_api", "api.github.com"))

		assert.Equal(t, "json", config.Output)
		assert.True(t, config.Verbose)
		assert.Equal(t, 5, config.RateLimit)
		assert.Equal(t, "api.github.com", config.CurrentAPI)

		require.ErrorIs(t, setGlobalConfigValue(config, "rate_limit", "-1"), constants.ErrInvalidField)
		require.ErrorIs(t, setGlobalConfigValue(config, "current_api", "missing"), constants.ErrAPIConfigNotFound)
		require.ErrorIs(t, setGlobalConfigValue(config, "username", "x"), constants.ErrUnknownConfigKey)
	})

	t.Run("per API", func(t *testing.T) {
		t.Parallel()

		config := testConfig()

		require.NoError(t, setAPIConfigValue(config, "ghe", "scopes", "repo, user,,gist"))
		require.NoError(t, setAPIConfigValue(config, "ghe", "endpoint", "ghe2.example.com"))
		require.NoError(t, setAPIConfigValue(config, "ghe", "token", "new"))

		apiConfig := config.APIs["ghe"]
		assert.Equal(t, []string{"repo", "user", "gist"}, apiConfig.Scopes)
		assert.Equal(t, "https://ghe2.example.com", apiConfig.Endpoint)
		assert.Equal(t, "new", apiConfig.Token)
		assert.Zero(t, apiConfig.TokenID)

		require.ErrorIs(t, setAPIConfigValue(config, "missing", "note", "x"), constants.ErrAPIConfigNotFound)
		require.ErrorIs(t, setAPIConfigValue(config, "ghe", "color", "x"), constants.ErrUnknownConfigKey)
	})
}

func TestMaskConfig(t *testing.T) {
	t.Parallel()

	config := testConfig()
	masked := maskConfig(config)

	assert.Equal(t, constants.MaskedSecret, masked.APIs["ghe"].Token)
	assert.Equal(t, constants.MaskedSecret, masked.APIs["api.github.com"].OTPSecret)
	assert.Empty(t, masked.APIs["api.github.com"].Token)

	// the input is untouched
	assert.Equal(t, "abc123", config.APIs["ghe"].Token)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", config.APIs["api.github.com"].OTPSecret)
}

func TestStoredToken(t *testing.T) {
	t.Parallel()

	assert.Nil(t, storedToken(&APIConfig{}))

	token := storedToken(testConfig().APIs["ghe"])
	require.NotNil(t, token)
	assert.Equal(t, &ghauth.TokenAuthentication{
		Kind:      ghauth.AuthTypeToken,
		TokenType: ghauth.TokenTypeOAuth,
		ID:        7,
		Token:     "abc123",
		Username:  "octocat",
	}, token)
}

func TestNewCodeProvider(t *testing.T) {
	t.Parallel()

	provider, cleanup, err := newCodeProvider(&APIConfig{OTPSecret: "JBSWY3DPEHPK3PXP"}, "654321")
	require.NoError(t, err)
	defer cleanup()

	code, err := provider(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "654321", code, "an explicit code wins")

	provider, cleanup, err = newCodeProvider(&APIConfig{OTPSecret: "JBSWY3DPEHPK3PXP"}, "")
	require.NoError(t, err)
	defer cleanup()

	code, err = provider(t.Context())
	require.NoError(t, err)
	assert.Len(t, code, 6)

	_, _, err = newCodeProvider(&APIConfig{OTPSecret: "not base32!"}, "")
	require.ErrorIs(t, err, constants.ErrInvalidOTPSecret)
}
