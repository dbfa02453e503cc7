package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/fivetwenty-io/ghauth/internal/constants"
	"github.com/fivetwenty-io/ghauth/pkg/ghauth"
)

func valueOrNA(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// tokenPreview shows the first characters of a token and masks the rest.
func tokenPreview(token string) string {
	switch {
	case token == "":
		return constants.NotAvailable
	case len(token) <= constants.StringTruncationLimit:
		return constants.MaskedSecret
	default:
		return token[:constants.StringTruncationLimit] + constants.MaskedSecret
	}
}

// parseFields turns "key=value" pairs into request parameters. Integers and
// booleans are typed; repeated keys collect into a list.
func parseFields(fields []string) (ghauth.Parameters, error) {
	params := make(ghauth.Parameters, len(fields))

	for _, field := range fields {
		key, value, found := strings.Cut(field, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidField, field)
		}

		typed := typedValue(value)

		switch existing := params[key].(type) {
		case nil:
			params[key] = typed
		case []interface{}:
			params[key] = append(existing, typed)
		default:
			params[key] = []interface{}{existing, typed}
		}
	}

	return params, nil
}

func typedValue(value string) interface{} {
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}

	if b, err := strconv.ParseBool(value); err == nil && (value == "true" || value == "false") {
		return b
	}

	return value
}

// parseHeaders turns "Name: value" strings into a header map.
func parseHeaders(headers []string) (map[string]string, error) {
	parsed := make(map[string]string, len(headers))

	for _, header := range headers {
		name, value, found := strings.Cut(header, ":")
		name = strings.TrimSpace(name)

		if !found || name == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidHeader, header)
		}

		parsed[name] = strings.TrimSpace(value)
	}

	return parsed, nil
}

func promptLine(in io.Reader, out io.Writer, label string) string {
	_, _ = fmt.Fprint(out, label)

	line, _ := bufio.NewReader(in).ReadString('\n')

	return strings.TrimSpace(line)
}

func readPassword(label string) (string, error) {
	fd := int(syscall.Stdin) //nolint:unconvert // syscall.Stdin is not an int on every platform
	if !term.IsTerminal(fd) {
		return promptLine(os.Stdin, os.Stderr, label), nil
	}

	_, _ = fmt.Fprint(os.Stderr, label)

	bytePassword, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return string(bytePassword), nil
}
