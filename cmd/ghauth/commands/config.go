package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/ghauth/internal/constants"
)

const (
	configDirName  = ".ghauth"
	configFileName = "config.yml"
)

// Config represents the CLI configuration.
type Config struct {
	APIs       map[string]*APIConfig `json:"apis,omitempty"        yaml:"apis,omitempty"`
	CurrentAPI string                `json:"current_api,omitempty" yaml:"current_api,omitempty"`

	// Global settings
	Output    string `json:"output,omitempty"     yaml:"output,omitempty"`
	Verbose   bool   `json:"verbose,omitempty"    yaml:"verbose,omitempty"`
	RateLimit int    `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
}

// APIConfig represents configuration for a single API endpoint.
type APIConfig struct {
	Endpoint    string     `json:"endpoint"              yaml:"endpoint"`
	Username    string     `json:"username,omitempty"    yaml:"username,omitempty"`
	Token       string     `json:"token,omitempty"       yaml:"token,omitempty"`
	TokenID     int64      `json:"token_id,omitempty"    yaml:"token_id,omitempty"`
	LastIssued  *time.Time `json:"last_issued,omitempty" yaml:"last_issued,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Note        string     `json:"note,omitempty"        yaml:"note,omitempty"`
	Scopes      []string   `json:"scopes,omitempty"      yaml:"scopes,omitempty"`

	// One-time code sources, tried in this order before prompting.
	OTPSecret      string `json:"otp_secret,omitempty"       yaml:"otp_secret,omitempty"`
	OTPNATSURL     string `json:"otp_nats_url,omitempty"     yaml:"otp_nats_url,omitempty"`
	OTPNATSSubject string `json:"otp_nats_subject,omitempty" yaml:"otp_nats_subject,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage ghauth configuration including API endpoints, credentials sources and settings",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var apiFlag string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := maskConfig(loadConfig())

			if apiFlag != "" {
				apiConfig, exists := config.APIs[apiFlag]
				if !exists {
					return fmt.Errorf("%w: '%s'", constants.ErrAPIConfigNotFound, apiFlag)
				}

				return writeOutput(cmd.OutOrStdout(), apiConfig, func(w io.Writer) error {
					return displayAPIConfigTable(w, apiFlag, apiConfig)
				})
			}

			return writeOutput(cmd.OutOrStdout(), config, func(w io.Writer) error {
				return displayConfigTable(w, config)
			})
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api", "", "show configuration for specific API")

	return cmd
}

func newConfigSetCommand() *cobra.Command {
	var apiFlag string

	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a global configuration value, or an API-specific one with --api",
		Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			var err error
			if apiFlag != "" {
				err = setAPIConfigValue(config, apiFlag, args[0], args[1])
			} else {
				err = setGlobalConfigValue(config, args[0], args[1])
			}

			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])

			return nil
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api", "", "target specific API for configuration")

	return cmd
}

func newConfigUnsetCommand() *cobra.Command {
	var apiFlag string

	cmd := &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a global configuration value, or an API-specific one with --api",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			var err error
			if apiFlag != "" {
				err = setAPIConfigValue(config, apiFlag, args[0], "")
			} else {
				err = setGlobalConfigValue(config, args[0], "")
			}

			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return nil
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api", "", "target specific API for configuration")

	return cmd
}

func loadConfig() *Config {
	config := &Config{
		APIs:       make(map[string]*APIConfig),
		CurrentAPI: viper.GetString("current_api"),
		Output:     viper.GetString("output"),
		Verbose:    viper.GetBool("verbose"),
		RateLimit:  viper.GetInt("rate_limit"),
	}

	for domain, apiRaw := range viper.GetStringMap("apis") {
		if apiMap, ok := apiRaw.(map[string]interface{}); ok {
			config.APIs[domain] = parseAPIConfig(apiMap)
		}
	}

	return config
}

// parseAPIConfig parses API configuration from a map.
func parseAPIConfig(apiMap map[string]interface{}) *APIConfig {
	apiConfig := &APIConfig{}

	stringFields := map[string]*string{
		"endpoint":         &apiConfig.Endpoint,
		"username":         &apiConfig.Username,
		"token":            &apiConfig.Token,
		"fingerprint":      &apiConfig.Fingerprint,
		"note":             &apiConfig.Note,
		"otp_secret":       &apiConfig.OTPSecret,
		"otp_nats_url":     &apiConfig.OTPNATSURL,
		"otp_nats_subject": &apiConfig.OTPNATSSubject,
	}

	for key, field := range stringFields {
		if value, ok := apiMap[key].(string); ok {
			*field = value
		}
	}

	switch id := apiMap["token_id"].(type) {
	case int:
		apiConfig.TokenID = int64(id)
	case int64:
		apiConfig.TokenID = id
	case float64:
		apiConfig.TokenID = int64(id)
	}

	if scopes, ok := apiMap["scopes"].([]interface{}); ok {
		for _, scope := range scopes {
			apiConfig.Scopes = append(apiConfig.Scopes, fmt.Sprint(scope))
		}
	}

	switch issued := apiMap["last_issued"].(type) {
	case time.Time:
		apiConfig.LastIssued = &issued
	case string:
		t, err := time.Parse(time.RFC3339, issued)
		if err == nil {
			apiConfig.LastIssued = &t
		}
	}

	return apiConfig
}

func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, configDirName, configFileName), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// keep later loads in this process consistent with the file
	viper.SetConfigFile(configFile)

	err = viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("failed to reload config file: %w", err)
	}

	return nil
}

// extractDomainFromEndpoint extracts the host of an API endpoint for use as
// its config key.
func extractDomainFromEndpoint(endpoint string) string {
	domain := endpoint
	if strings.HasPrefix(domain, "https://") {
		domain = strings.TrimPrefix(domain, "https://")
	} else if strings.HasPrefix(domain, "http://") {
		domain = strings.TrimPrefix(domain, "http://")
	}

	if idx := strings.Index(domain, "/"); idx != -1 {
		domain = domain[:idx]
	}

	if idx := strings.Index(domain, ":"); idx != -1 {
		domain = domain[:idx]
	}

	return strings.ToLower(domain)
}

// normalizeEndpoint adds a scheme and strips trailing slashes.
func normalizeEndpoint(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("%w: %q", constants.ErrInvalidEndpoint, endpoint)
	}

	return strings.TrimSuffix(parsed.String(), "/"), nil
}

// resolveAPI returns the config key and settings for an API given by short
// name or endpoint, falling back to the current API. Unknown endpoints get a
// fresh, unsaved APIConfig.
func resolveAPI(config *Config, apiFlag string) (string, *APIConfig, error) {
	if apiFlag == "" {
		apiFlag = config.CurrentAPI
	}

	if apiFlag == "" {
		apiFlag = constants.DefaultBaseURL
	}

	if apiConfig, exists := config.APIs[apiFlag]; exists {
		return apiFlag, apiConfig, nil
	}

	endpoint, err := normalizeEndpoint(apiFlag)
	if err != nil {
		return "", nil, err
	}

	for domain, apiConfig := range config.APIs {
		if apiConfig.Endpoint == endpoint {
			return domain, apiConfig, nil
		}
	}

	return extractDomainFromEndpoint(endpoint), &APIConfig{Endpoint: endpoint}, nil
}

// storedAPI is like resolveAPI but requires the API to be configured.
func storedAPI(config *Config, apiFlag string) (string, *APIConfig, error) {
	if len(config.APIs) == 0 {
		return "", nil, constants.ErrNoAPIsConfigured
	}

	domain, apiConfig, err := resolveAPI(config, apiFlag)
	if err != nil {
		return "", nil, err
	}

	if _, exists := config.APIs[domain]; !exists {
		return "", nil, fmt.Errorf("%w: '%s'", constants.ErrAPIConfigNotFound, domain)
	}

	return domain, apiConfig, nil
}

func setGlobalConfigValue(config *Config, key, value string) error {
	switch key {
	case "output":
		config.Output = value
	case "verbose":
		config.Verbose = value == "true" || value == "1"
	case "rate_limit":
		if value == "" {
			config.RateLimit = 0

			return nil
		}

		limit, err := strconv.Atoi(value)
		if err != nil || limit < 0 {
			return fmt.Errorf("%w: rate_limit must be a non-negative integer", constants.ErrInvalidField)
		}

		config.RateLimit = limit
	case "current_api":
		if value != "" {
			if _, exists := config.APIs[value]; !exists {
				return fmt.Errorf("%w: '%s'", constants.ErrAPIConfigNotFound, value)
			}
		}

		config.CurrentAPI = value
	default:
		return fmt.Errorf("%w: %s. Use --api flag for API-specific settings", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func setAPIConfigValue(config *Config, apiDomain, key, value string) error {
	apiConfig, exists := config.APIs[apiDomain]
	if !exists {
		return fmt.Errorf("%w: '%s'", constants.ErrAPIConfigNotFound, apiDomain)
	}

	switch key {
	case "endpoint":
		endpoint, err := normalizeEndpoint(value)
		if err != nil {
			return err
		}

		apiConfig.Endpoint = endpoint
	case "username":
		apiConfig.Username = value
	case "token":
		apiConfig.Token = value
		apiConfig.TokenID = 0
		apiConfig.LastIssued = nil
	case "fingerprint":
		apiConfig.Fingerprint = value
	case "note":
		apiConfig.Note = value
	case "scopes":
		apiConfig.Scopes = splitList(value)
	case "otp_secret":
		apiConfig.OTPSecret = value
	case "otp_nats_url":
		apiConfig.OTPNATSURL = value
	case "otp_nats_subject":
		apiConfig.OTPNATSSubject = value
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func splitList(value string) []string {
	var items []string

	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}

	return items
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}

	return constants.MaskedSecret
}

// maskConfig returns a copy of config with secrets masked for display.
func maskConfig(config *Config) *Config {
	masked := *config
	masked.APIs = make(map[string]*APIConfig, len(config.APIs))

	for domain, apiConfig := range config.APIs {
		copied := *apiConfig
		copied.Token = maskSecret(copied.Token)
		copied.OTPSecret = maskSecret(copied.OTPSecret)
		masked.APIs[domain] = &copied
	}

	return &masked
}

func displayConfigTable(w io.Writer, config *Config) error {
	table := tablewriter.NewWriter(w)
	table.Header("Setting", "Value")

	rows := [][]string{
		{"Current API", valueOrNA(config.CurrentAPI)},
		{"Output", valueOrNA(config.Output)},
		{"Verbose", strconv.FormatBool(config.Verbose)},
		{"Rate Limit", strconv.Itoa(config.RateLimit)},
	}

	for _, domain := range sortedKeys(config.APIs) {
		rows = append(rows, []string{"API " + domain, config.APIs[domain].Endpoint})
	}

	for _, row := range rows {
		err := table.Append(row)
		if err != nil {
			return fmt.Errorf("failed to append table row: %w", err)
		}
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render config table: %w", err)
	}

	return nil
}

func displayAPIConfigTable(w io.Writer, domain string, apiConfig *APIConfig) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	rows := [][]string{
		{"API", domain},
		{"Endpoint", apiConfig.Endpoint},
		{"Username", valueOrNA(apiConfig.Username)},
		{"Token", valueOrNA(apiConfig.Token)},
		{"Fingerprint", valueOrNA(apiConfig.Fingerprint)},
		{"Note", valueOrNA(apiConfig.Note)},
		{"Scopes", valueOrNA(strings.Join(apiConfig.Scopes, ", "))},
		{"OTP Secret", valueOrNA(apiConfig.OTPSecret)},
		{"OTP NATS URL", valueOrNA(apiConfig.OTPNATSURL)},
		{"OTP NATS Subject", valueOrNA(apiConfig.OTPNATSSubject)},
	}

	for _, row := range rows {
		err := table.Append(row)
		if err != nil {
			return fmt.Errorf("failed to append table row: %w", err)
		}
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render API config table: %w", err)
	}

	return nil
}

// writeOutput encodes v as JSON or YAML according to the output setting, or
// renders it with table.
func writeOutput(w io.Writer, v interface{}, table func(io.Writer) error) error {
	switch viper.GetString("output") {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		err := encoder.Encode(v)
		if err != nil {
			return fmt.Errorf("encoding output as JSON: %w", err)
		}

		return nil
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)

		err := encoder.Encode(v)
		if err != nil {
			return fmt.Errorf("encoding output as YAML: %w", err)
		}

		return encoder.Close()
	default:
		return table(w)
	}
}
