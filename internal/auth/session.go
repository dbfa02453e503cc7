package auth

import (
	"sync"

	"github.com/fivetwenty-io/ghauth/pkg/ghauth"
)

// Session holds the state a strategy carries between calls: the issued token
// and the last accepted one-time code.
type Session struct {
	mutex sync.RWMutex
	token *ghauth.TokenAuthentication
	code  string
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// Token returns the cached token, or nil.
func (s *Session) Token() *ghauth.TokenAuthentication {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.token
}

// SetToken replaces the cached token.
func (s *Session) SetToken(token *ghauth.TokenAuthentication) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.token = token
}

// Code returns the cached one-time code, or "".
func (s *Session) Code() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.code
}

// SetCode caches a one-time code the server accepted.
func (s *Session) SetCode(code string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.code = code
}

// ClearCode forgets the cached one-time code and reports whether one was set.
func (s *Session) ClearCode() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	hadCode := s.code != ""
	s.code = ""

	return hadCode
}
