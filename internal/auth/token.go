package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fivetwenty-io/ghauth/internal/constants"
	"github.com/fivetwenty-io/ghauth/pkg/ghauth"
)

// flightKey is shared by creation and refresh, so a refresh joins an
// in-flight creation and the other way round.
const flightKey = "create"

// TokenIssuer creates personal access tokens through the authorizations API
// and caches the result in the session.
type TokenIssuer struct {
	session    *Session
	dispatcher *Dispatcher
	username   string
	password   string
	options    ghauth.TokenOptions
	logger     ghauth.Logger

	now    func() time.Time
	random RandomSource
	flight singleflight.Group
}

// NewTokenIssuer creates a token issuer for the given credentials.
func NewTokenIssuer(session *Session, dispatcher *Dispatcher, username, password string, options *ghauth.TokenOptions, logger ghauth.Logger) *TokenIssuer {
	issuer := &TokenIssuer{
		session:    session,
		dispatcher: dispatcher,
		username:   username,
		password:   password,
		logger:     logger,
		now:        time.Now,
		random:     cryptoRandom,
	}

	if options != nil {
		issuer.options = *options
	}

	if issuer.logger == nil {
		issuer.logger = ghauth.NoopLogger{}
	}

	return issuer
}

// Issue returns the cached token unless refresh is set or none is cached, in
// which case a new token is created. Concurrent calls share one request, and
// every caller gets the token it creates.
func (i *TokenIssuer) Issue(ctx context.Context, refresh bool, transport ghauth.Transport) (*ghauth.TokenAuthentication, error) {
	if token := i.session.Token(); token != nil && !refresh {
		return token, nil
	}

	result, err, _ := i.flight.Do(flightKey, func() (interface{}, error) {
		if token := i.session.Token(); token != nil && !refresh {
			return token, nil
		}

		return i.create(ctx, transport)
	})
	if err != nil {
		return nil, err
	}

	token, _ := result.(*ghauth.TokenAuthentication)

	return token, nil
}

func (i *TokenIssuer) create(ctx context.Context, transport ghauth.Transport) (*ghauth.TokenAuthentication, error) {
	req := &ghauth.Request{
		Method:  http.MethodPost,
		URL:     constants.AuthorizationsPath,
		Headers: make(http.Header),
		Body:    i.requestBody(),
	}
	req.Headers.Set("Authorization", BasicAuthorization(i.username, i.password))

	resp, err := i.dispatcher.Dispatch(ctx, req, transport)
	if err != nil {
		return nil, err
	}

	var created struct {
		ID    int64  `json:"id"`
		Token string `json:"token"`
	}

	err = resp.Decode(&created)
	if err != nil {
		return nil, fmt.Errorf("reading created token: %w", err)
	}

	token := &ghauth.TokenAuthentication{
		Kind:      ghauth.AuthTypeToken,
		TokenType: ghauth.TokenTypeOAuth,
		ID:        created.ID,
		Token:     created.Token,
		Username:  i.username,
	}
	i.session.SetToken(token)

	i.logger.Info("Created token", map[string]interface{}{
		"id":       token.ID,
		"username": i.username,
	})

	return token, nil
}

// requestBody builds the token creation body. The fingerprint defaults to a
// random value only when no note is configured, so a configured note does
// not collide with an earlier token that has the same note.
func (i *TokenIssuer) requestBody() map[string]interface{} {
	fingerprint := i.options.Fingerprint
	if fingerprint == "" && i.options.Note == "" {
		fingerprint = fingerprintFrom(i.random())
	}

	note := i.options.Note
	if note == "" {
		note = fmt.Sprintf("%s %s %s", constants.DefaultNotePrefix, i.now().UTC().Format(constants.NoteDateLayout), fingerprint)
	}

	noteURL := i.options.NoteURL
	if noteURL == "" {
		noteURL = constants.DefaultNoteURL
	}

	scopes := i.options.Scopes
	if scopes == nil {
		scopes = []string{}
	}

	body := map[string]interface{}{
		"note":     note,
		"note_url": noteURL,
		"scopes":   scopes,
	}

	if fingerprint != "" {
		body["fingerprint"] = fingerprint
	}

	if i.options.ClientID != "" {
		body["client_id"] = i.options.ClientID
		body["client_secret"] = i.options.ClientSecret
	}

	return body
}

// Credentials returns base64("<username>:<password>").
func Credentials(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}

// BasicAuthorization returns the basic authorization header value.
func BasicAuthorization(username, password string) string {
	return constants.BasicScheme + Credentials(username, password)
}
