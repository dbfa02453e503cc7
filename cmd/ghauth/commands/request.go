package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/ghauth/internal/constants"
	"github.com/fivetwenty-io/ghauth/pkg/ghauth"
)

// NewRequestCommand creates the request command.
func NewRequestCommand() *cobra.Command {
	var (
		fields   []string
		headers  []string
		password string
		code     string
	)

	cmd := &cobra.Command{
		Use:   "request ROUTE",
		Short: "Send an authenticated API request",
		Long: `Send a request authenticated with the stored token, creating one first if
none is stored. Requests to authorization routes use basic authentication.

The route is "METHOD /path" where the path may contain {name} or :name
placeholders filled from fields.`,
		Example: `  ghauth request "GET /user"
  ghauth request "GET /repos/{owner}/{repo}" -f owner=octocat -f repo=hello-world
  ghauth request "DELETE /authorizations/:authorization_id" -f authorization_id=1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseFields(fields)
			if err != nil {
				return err
			}

			parsedHeaders, err := parseHeaders(headers)
			if err != nil {
				return err
			}

			if len(parsedHeaders) > 0 {
				params["headers"] = parsedHeaders
			}

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

			resp, err := strategy.Hook(cmd.Context(), nil, args[0], params)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}

			return writeResponseBody(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "request parameter as key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "request header as 'Name: value' (repeatable)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted if omitted)")
	cmd.Flags().StringVar(&code, "otp", "", "one-time code for two-factor authentication")

	return cmd
}

// writeResponseBody prints a JSON body indented, or as YAML when the output
// format is yaml. Other bodies are printed as received.
func writeResponseBody(w io.Writer, resp *ghauth.Response) error {
	if len(resp.Body) == 0 {
		_, _ = fmt.Fprintf(w, "%d\n", resp.StatusCode)

		return nil
	}

	var decoded interface{}

	err := json.Unmarshal(resp.Body, &decoded)
	if err != nil {
		_, err = w.Write(resp.Body)

		return err
	}

	if viper.GetString("output") == constants.FormatYAML {
		encoder := yaml.NewEncoder(w)

		err = encoder.Encode(decoded)
		if err != nil {
			return fmt.Errorf("encoding response as YAML: %w", err)
		}

		return encoder.Close()
	}

	var indented bytes.Buffer

	err = json.Indent(&indented, resp.Body, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting response: %w", err)
	}

	indented.WriteByte('\n')

	_, err = indented.WriteTo(w)

	return err
}
