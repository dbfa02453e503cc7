package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/ghauth/internal/constants"
	"github.com/fivetwenty-io/ghauth/pkg/ghauth"
)

// loginFlags are the options of the login command.
type loginFlags struct {
	username    string
	password    string
	code        string
	authType    string
	note        string
	scopes      []string
	fingerprint string
	refresh     bool
}

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var flags loginFlags

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange a username and password for a token",
		Long: `Authenticate with a username and password, answering a two-factor
authentication challenge if the account requires one.

The issued token is stored in the configuration. Passwords are never stored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, &flags)
		},
	}

	cmd.Flags().StringVarP(&flags.username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&flags.password, "password", "p", "", "password (prompted if omitted)")
	cmd.Flags().StringVar(&flags.code, "otp", "", "one-time code for two-factor authentication")
	cmd.Flags().StringVar(&flags.authType, "type", string(ghauth.AuthTypeToken), "authentication type (token, basic)")
	cmd.Flags().StringVar(&flags.note, "note", "", "note describing the token")
	cmd.Flags().StringSliceVar(&flags.scopes, "scopes", nil, "scopes requested for the token")
	cmd.Flags().StringVar(&flags.fingerprint, "fingerprint", "", "fingerprint distinguishing tokens with the same note")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "create a new token even if one is stored")

	return cmd
}

func runLogin(cmd *cobra.Command, flags *loginFlags) error {
	authType := ghauth.AuthType(flags.authType)
	if authType != ghauth.AuthTypeToken && authType != ghauth.AuthTypeBasic {
		return fmt.Errorf("%w: %q", constants.ErrInvalidAuthType, flags.authType)
	}

	config := loadConfig()
	if config.APIs == nil {
		config.APIs = make(map[string]*APIConfig)
	}

	domain, apiConfig, err := resolveAPI(config, viper.GetString("api"))
	if err != nil {
		return err
	}

	applyLoginFlags(apiConfig, flags)

	if apiConfig.Username == "" {
		apiConfig.Username = viper.GetString("username")
	}

	if apiConfig.Username == "" {
		apiConfig.Username = promptLine(os.Stdin, os.Stderr, "Username: ")
	}

	if apiConfig.Username == "" {
		return constants.ErrUsernameRequired
	}

	password, err := resolvePassword(flags.password)
	if err != nil {
		return err
	}

	// the token persister looks the API up by domain
	config.APIs[domain] = apiConfig
	if config.CurrentAPI == "" {
		config.CurrentAPI = domain
	}

	err = saveConfigStruct(config)
	if err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	on2FA, cleanup, err := newCodeProvider(apiConfig, flags.code)
	if err != nil {
		return err
	}
	defer cleanup()

	strategy, err := newConfigStrategy(strategyParams{
		domain:       domain,
		apiConfig:    apiConfig,
		password:     password,
		on2FA:        on2FA,
		initialToken: storedToken(apiConfig),
	})
	if err != nil {
		return err
	}

	authentication, err := strategy.Auth(cmd.Context(), &ghauth.AuthOptions{
		Type:    authType,
		Refresh: flags.refresh,
	})
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	return displayAuthentication(cmd.OutOrStdout(), domain, authentication)
}

func applyLoginFlags(apiConfig *APIConfig, flags *loginFlags) {
	if flags.username != "" && flags.username != apiConfig.Username {
		// a stored token belongs to the previous user
		apiConfig.Username = flags.username
		apiConfig.Token = ""
		apiConfig.TokenID = 0
		apiConfig.LastIssued = nil
	}

	if flags.note != "" {
		apiConfig.Note = flags.note
	}

	if len(flags.scopes) > 0 {
		apiConfig.Scopes = flags.scopes
	}

	if flags.fingerprint != "" {
		apiConfig.Fingerprint = flags.fingerprint
	}
}

// loginResult is the displayed outcome of a login. Secrets are masked.
type loginResult struct {
	API         string          `json:"api"                   yaml:"api"`
	Type        ghauth.AuthType `json:"type"                  yaml:"type"`
	Username    string          `json:"username"              yaml:"username"`
	TokenID     int64           `json:"token_id,omitempty"    yaml:"token_id,omitempty"`
	Token       string          `json:"token,omitempty"       yaml:"token,omitempty"`
	Credentials string          `json:"credentials,omitempty" yaml:"credentials,omitempty"`
	Code        string          `json:"totp,omitempty"        yaml:"totp,omitempty"`
}

func newLoginResult(domain string, authentication ghauth.Authentication) loginResult {
	result := loginResult{API: domain, Type: authentication.AuthKind()}

	switch typed := authentication.(type) {
	case *ghauth.TokenAuthentication:
		result.Username = typed.Username
		result.TokenID = typed.ID
		result.Token = tokenPreview(typed.Token)
	case *ghauth.BasicAuthentication:
		result.Username = typed.Username
		result.Credentials = constants.MaskedSecret
		result.Code = typed.Code
	}

	return result
}

func displayAuthentication(w io.Writer, domain string, authentication ghauth.Authentication) error {
	result := newLoginResult(domain, authentication)

	return writeOutput(w, result, func(w io.Writer) error {
		_, _ = fmt.Fprintf(w, "Authenticated as %s on %s\n", result.Username, domain)

		table := tablewriter.NewWriter(w)
		table.Header("Property", "Value")

		rows := [][]string{
			{"Type", string(result.Type)},
			{"Username", result.Username},
		}

		if result.Type == ghauth.AuthTypeToken {
			rows = append(rows,
				[]string{"Token ID", strconv.FormatInt(result.TokenID, 10)},
				[]string{"Token", result.Token},
			)
		} else {
			rows = append(rows, []string{"One-time code", valueOrNA(result.Code)})
		}

		for _, row := range rows {
			err := table.Append(row)
			if err != nil {
				return fmt.Errorf("failed to append table row: %w", err)
			}
		}

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	})
}
