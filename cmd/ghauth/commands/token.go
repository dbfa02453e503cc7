package commands

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/ghauth/internal/constants"
	"github.com/fivetwenty-io/ghauth/pkg/ghauth"
)

// NewTokenCommand creates the token command group.
func NewTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage stored tokens",
		Long:  "Commands for inspecting and refreshing the token stored for an API",
	}

	cmd.AddCommand(newTokenStatusCommand())
	cmd.AddCommand(newTokenRefreshCommand())

	return cmd
}

// tokenStatus is the displayed state of a stored token.
type tokenStatus struct {
	API         string     `json:"api"                   yaml:"api"`
	Endpoint    string     `json:"endpoint"              yaml:"endpoint"`
	Username    string     `json:"username,omitempty"    yaml:"username,omitempty"`
	Token       string     `json:"token"                 yaml:"token"`
	TokenID     int64      `json:"token_id,omitempty"    yaml:"token_id,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Note        string     `json:"note,omitempty"        yaml:"note,omitempty"`
	LastIssued  *time.Time `json:"last_issued,omitempty" yaml:"last_issued,omitempty"`
}

func newTokenStatus(domain string, apiConfig *APIConfig) tokenStatus {
	return tokenStatus{
		API:         domain,
		Endpoint:    apiConfig.Endpoint,
		Username:    apiConfig.Username,
		Token:       tokenPreview(apiConfig.Token),
		TokenID:     apiConfig.TokenID,
		Fingerprint: apiConfig.Fingerprint,
		Note:        apiConfig.Note,
		LastIssued:  apiConfig.LastIssued,
	}
}

func newTokenStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored token",
		Long:  "Display information about the token stored for the current or selected API",
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, apiConfig, err := storedAPI(loadConfig(), viper.GetString("api"))
			if err != nil {
				return err
			}

			if apiConfig.Token == "" {
				return fmt.Errorf("%s: %w", domain, constants.ErrNoStoredToken)
			}

			status := newTokenStatus(domain, apiConfig)

			return writeOutput(cmd.OutOrStdout(), status, func(w io.Writer) error {
				return displayTokenStatusTable(w, status)
			})
		},
	}
}

func displayTokenStatusTable(w io.Writer, status tokenStatus) error {
	lastIssued := constants.NotAvailable
	if status.LastIssued != nil {
		lastIssued = status.LastIssued.Format(time.RFC3339)
	}

	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	rows := [][]string{
		{"API", status.API},
		{"Endpoint", status.Endpoint},
		{"Username", valueOrNA(status.Username)},
		{"Token", status.Token},
		{"Token ID", strconv.FormatInt(status.TokenID, 10)},
		{"Fingerprint", valueOrNA(status.Fingerprint)},
		{"Note", valueOrNA(status.Note)},
		{"Last Issued", lastIssued},
	}

	for _, row := range rows {
		err := table.Append(row)
		if err != nil {
			return fmt.Errorf("failed to append table row: %w", err)
		}
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render token table: %w", err)
	}

	return nil
}

func newTokenRefreshCommand() *cobra.Command {
	var (
		password string
		code     string
	)

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Replace the stored token with a new one",
		Long:  "Create a new token with the stored username and token options and store it",
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, apiConfig, err := storedAPI(loadConfig(), viper.GetString("api"))
			if err != nil {
				return err
			}

			if apiConfig.Username == "" {
				return fmt.Errorf("%w for '%s'", constants.ErrUsernameRequired, domain)
			}

			resolved, err := resolvePassword(password)
			if err != nil {
				return err
			}

			on2FA, cleanup, err := newCodeProvider(apiConfig, code)
			if err != nil {
				return err
			}
			defer cleanup()

			strategy, err := newConfigStrategy(strategyParams{
				domain:       domain,
				apiConfig:    apiConfig,
				password:     resolved,
				on2FA:        on2FA,
				initialToken: storedToken(apiConfig),
			})
			if err != nil {
				return err
			}

			authentication, err := strategy.Auth(cmd.Context(), &ghauth.AuthOptions{
				Type:    ghauth.AuthTypeToken,
				Refresh: true,
			})
			if err != nil {
				return fmt.Errorf("failed to refresh token: %w", err)
			}

			return displayAuthentication(cmd.OutOrStdout(), domain, authentication)
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted if omitted)")
	cmd.Flags().StringVar(&code, "otp", "", "one-time code for two-factor authentication")

	return cmd
}
