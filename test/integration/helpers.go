//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	API        string
	Username   string
	Password   string
	OTPSecret  string
	GhauthPath string
	Verbose    bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		API:        os.Getenv("GHAUTH_IT_API"),
		Username:   os.Getenv("GHAUTH_IT_USERNAME"),
		Password:   os.Getenv("GHAUTH_IT_PASSWORD"),
		OTPSecret:  os.Getenv("GHAUTH_IT_OTP_SECRET"),
		GhauthPath: getGhauthPath(),
		Verbose:    os.Getenv("GHAUTH_VERBOSE") == "true",
	}
}

// getGhauthPath determines the path to the ghauth binary
func getGhauthPath() string {
	if path := os.Getenv("GHAUTH_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../ghauth",
		"./ghauth",
		"../ghauth",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "ghauth" // Fallback to PATH
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.API == "" || config.Username == "" || config.Password == "" {
		t.Skip("GHAUTH_IT_API, GHAUTH_IT_USERNAME or GHAUTH_IT_PASSWORD not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.GhauthPath); err != nil {
		t.Skipf("ghauth binary not found at %s, skipping integration test", config.GhauthPath)
	}
}

// CommandRunner runs ghauth against an isolated config file.
type CommandRunner struct {
	config     *TestConfig
	configFile string
	t          *testing.T
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config:     config,
		configFile: filepath.Join(t.TempDir(), "config.yml"),
		t:          t,
	}
}

// Run executes a ghauth command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	args = append([]string{"--config", runner.configFile, "--api", runner.config.API}, args...)

	cmd := exec.Command(runner.config.GhauthPath, args...) //nolint:gosec // test binary
	cmd.Env = append(os.Environ(), "GHAUTH_PASSWORD="+runner.config.Password)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.GhauthPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// OTPArgs returns the --otp flag for accounts with 2FA enabled.
func (runner *CommandRunner) OTPArgs() []string {
	if runner.config.OTPSecret == "" {
		return nil
	}

	code, err := totp.GenerateCode(runner.config.OTPSecret, time.Now())
	require.NoError(runner.t, err)

	return []string{"--otp", code}
}

// DecodeJSON decodes command output into v.
func DecodeJSON(t *testing.T, output string, v interface{}) {
	t.Helper()

	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(output)), v), "output is not JSON: %s", output)
}

// GenerateTestNote creates a unique token note
func GenerateTestNote(prefix string) string {
	return prefix + "-" + time.Now().UTC().Format("20060102T150405")
}
