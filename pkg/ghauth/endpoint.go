package ghauth

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var bracePlaceholder = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// NewEndpoint merges a route such as "PATCH /authorizations/:authorization_id"
// or "GET /repos/{owner}/{repo}" with params into a Request.
//
// Path placeholders are taken from params. The "method", "url" and "headers"
// keys are applied to the request directly; the remaining params become the
// query string for GET and HEAD requests and the JSON body otherwise.
func NewEndpoint(route string, params Parameters) (*Request, error) {
	method, path, err := splitRoute(route)
	if err != nil {
		return nil, err
	}

	remaining := make(Parameters, len(params))
	for key, value := range params {
		remaining[key] = value
	}

	if value, ok := remaining["method"].(string); ok {
		method = strings.ToUpper(value)
		delete(remaining, "method")
	}

	if value, ok := remaining["url"].(string); ok {
		path = value
		delete(remaining, "url")
	}

	req := &Request{
		Method:  method,
		Headers: make(http.Header),
	}

	if raw, ok := remaining["headers"]; ok {
		mergeHeaders(req.Headers, raw)
		delete(remaining, "headers")
	}

	req.URL, err = expandPath(path, remaining)
	if err != nil {
		return nil, err
	}

	if len(remaining) == 0 {
		return req, nil
	}

	if method == http.MethodGet || method == http.MethodHead {
		req.Query = make(url.Values, len(remaining))
		for key, value := range remaining {
			req.Query.Set(key, queryValue(value))
		}

		return req, nil
	}

	req.Body = map[string]interface{}(remaining)

	return req, nil
}

func splitRoute(route string) (string, string, error) {
	fields := strings.Fields(route)

	switch len(fields) {
	case 1:
		return http.MethodGet, fields[0], nil
	case 2:
		return strings.ToUpper(fields[0]), fields[1], nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRoute, route)
	}
}

// expandPath substitutes {name} and :name placeholders, removing the used
// parameters from params.
func expandPath(path string, params Parameters) (string, error) {
	var missing []string

	used := make(map[string]struct{})
	lookup := func(name string) string {
		value, ok := params[name]
		if !ok {
			missing = append(missing, name)

			return ""
		}

		used[name] = struct{}{}

		return url.PathEscape(fmt.Sprint(value))
	}

	path = bracePlaceholder.ReplaceAllStringFunc(path, func(match string) string {
		return lookup(match[1 : len(match)-1])
	})

	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, ":") && len(segment) > 1 {
			segments[i] = lookup(segment[1:])
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)

		return "", fmt.Errorf("%w: %s", ErrMissingParameter, strings.Join(missing, ", "))
	}

	for name := range used {
		delete(params, name)
	}

	return strings.Join(segments, "/"), nil
}

func mergeHeaders(dst http.Header, raw interface{}) {
	switch headers := raw.(type) {
	case http.Header:
		for key, values := range headers {
			for _, value := range values {
				dst.Add(key, value)
			}
		}
	case map[string]string:
		for key, value := range headers {
			dst.Set(key, value)
		}
	case map[string]interface{}:
		for key, value := range headers {
			dst.Set(key, fmt.Sprint(value))
		}
	}
}

func queryValue(value interface{}) string {
	switch v := value.(type) {
	case []string:
		return strings.Join(v, ",")
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
