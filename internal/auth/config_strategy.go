package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fivetwenty-io/ghauth/pkg/ghauth"
)

// Static errors for err113 compliance.
var (
	ErrNoConfigPersister = errors.New("no config persister configured")
)

// ConfigPersister defines the interface for persisting issued tokens.
type ConfigPersister interface {
	UpdateToken(apiDomain string, token *ghauth.TokenAuthentication) error
}

// ConfigStrategy wraps a Strategy and persists every newly issued token to config.
type ConfigStrategy struct {
	strategy        *Strategy
	configPersister ConfigPersister
	apiDomain       string
	mutex           sync.Mutex
	persisted       *ghauth.TokenAuthentication
}

// NewConfigStrategy creates a config-persisting strategy. A non-nil
// initialToken seeds the session so it is reused instead of created again.
func NewConfigStrategy(strategy *Strategy, configPersister ConfigPersister, apiDomain string, initialToken *ghauth.TokenAuthentication) *ConfigStrategy {
	if initialToken != nil {
		strategy.Session().SetToken(initialToken)
	}

	return &ConfigStrategy{
		strategy:        strategy,
		configPersister: configPersister,
		apiDomain:       apiDomain,
		persisted:       initialToken,
	}
}

// Auth implements ghauth.Strategy.
func (c *ConfigStrategy) Auth(ctx context.Context, options *ghauth.AuthOptions) (ghauth.Authentication, error) {
	authentication, err := c.strategy.Auth(ctx, options)
	if err != nil {
		return nil, err
	}

	c.persistIfChanged()

	return authentication, nil
}

// Hook implements ghauth.Strategy.
func (c *ConfigStrategy) Hook(ctx context.Context, transport ghauth.Transport, route string, params ghauth.Parameters) (*ghauth.Response, error) {
	resp, err := c.strategy.Hook(ctx, transport, route, params)

	// a token may have been issued even if the hooked request failed
	c.persistIfChanged()

	return resp, err
}

// Token returns the current token, or nil.
func (c *ConfigStrategy) Token() *ghauth.TokenAuthentication {
	return c.strategy.Session().Token()
}

func (c *ConfigStrategy) persistIfChanged() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	current := c.strategy.Session().Token()
	if current == nil || sameToken(current, c.persisted) {
		return
	}

	err := c.persistToken(current)
	if err != nil {
		// Log error but don't fail the request
		c.strategy.logger.Warn("Failed to persist token", map[string]interface{}{
			"api":   c.apiDomain,
			"error": err.Error(),
		})

		return
	}

	c.persisted = current
}

// persistToken saves the token to config.
func (c *ConfigStrategy) persistToken(token *ghauth.TokenAuthentication) error {
	if c.configPersister == nil {
		return ErrNoConfigPersister
	}

	err := c.configPersister.UpdateToken(c.apiDomain, token)
	if err != nil {
		return fmt.Errorf("failed to update API token: %w", err)
	}

	return nil
}

func sameToken(a, b *ghauth.TokenAuthentication) bool {
	if b == nil {
		return false
	}

	return a.ID == b.ID && a.Token == b.Token
}
