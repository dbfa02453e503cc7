// Package routes classifies request URLs against the authorization
// management routes.
package routes

import (
	"net/http"
	"net/url"
	"strings"
)

// authorizationTemplates are the routes that manage authorizations. Segments
// starting with ":" are parameters.
var authorizationTemplates = []string{
	"/authorizations",
	"/authorizations/clients/:client_id",
	"/authorizations/clients/:client_id/:fingerprint",
	"/authorizations/:authorization_id",
}

var authorizationRoutes = MustCompile(authorizationTemplates...)

// smsTriggeringMethods are the methods which, sent to an authorization
// route, make the server deliver a one-time code by SMS.
var smsTriggeringMethods = map[string]struct{}{
	http.MethodPatch: {},
	http.MethodPut:   {},
	http.MethodPost:  {},
}

// IsAuthorizationRoute reports whether rawURL targets an authorization
// management route.
func IsAuthorizationRoute(rawURL string) bool {
	return authorizationRoutes.Match(rawURL)
}

// IsSMSTriggeringRoute reports whether sending method to rawURL triggers a
// one-time code delivery by SMS.
func IsSMSTriggeringRoute(method, rawURL string) bool {
	if _, ok := smsTriggeringMethods[strings.ToUpper(method)]; !ok {
		return false
	}

	return IsAuthorizationRoute(rawURL)
}

type segment struct {
	literal string
	param   bool
}

// Pattern is a compiled route template.
type Pattern struct {
	template string
	segments []segment
}

// CompilePattern parses a template such as "/authorizations/:authorization_id".
func CompilePattern(template string) Pattern {
	parts := strings.Split(strings.TrimPrefix(template, "/"), "/")
	segments := make([]segment, 0, len(parts))

	for _, part := range parts {
		if strings.HasPrefix(part, ":") {
			segments = append(segments, segment{param: true})

			continue
		}

		segments = append(segments, segment{literal: part})
	}

	return Pattern{template: template, segments: segments}
}

// String returns the template the pattern was compiled from.
func (p Pattern) String() string {
	return p.template
}

// Match reports whether path matches the pattern. Literal segments compare
// case-insensitively. A parameter matches one or more characters, and the
// last segment may be followed by extra characters other than "/".
func (p Pattern) Match(path string) bool {
	return matchSegments(p.segments, path)
}

func matchSegments(segments []segment, rest string) bool {
	if len(segments) == 0 {
		return !strings.Contains(rest, "/")
	}

	if !strings.HasPrefix(rest, "/") {
		return false
	}

	rest = rest[1:]
	current := segments[0]

	if !current.param {
		if len(rest) < len(current.literal) || !strings.EqualFold(rest[:len(current.literal)], current.literal) {
			return false
		}

		return matchSegments(segments[1:], rest[len(current.literal):])
	}

	// shortest parameter value first
	for end := 1; end <= len(rest); end++ {
		if matchSegments(segments[1:], rest[end:]) {
			return true
		}
	}

	return false
}

// Matcher matches a path against a set of patterns.
type Matcher struct {
	patterns []Pattern
}

// MustCompile compiles templates into a Matcher.
func MustCompile(templates ...string) *Matcher {
	patterns := make([]Pattern, 0, len(templates))
	for _, template := range templates {
		patterns = append(patterns, CompilePattern(template))
	}

	return &Matcher{patterns: patterns}
}

// Match reports whether rawURL matches any pattern. Absolute URLs are reduced
// to their path and query strings are ignored.
func (m *Matcher) Match(rawURL string) bool {
	path := pathOf(rawURL)
	if path == "" {
		return false
	}

	for _, pattern := range m.patterns {
		if pattern.Match(path) {
			return true
		}
	}

	return false
}

func pathOf(rawURL string) string {
	if strings.Contains(rawURL, "://") {
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return ""
		}

		return parsed.EscapedPath()
	}

	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		return rawURL[:i]
	}

	return rawURL
}
