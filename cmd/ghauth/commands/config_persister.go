package commands

import (
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/ghauth/internal/constants"
	"github.com/fivetwenty-io/ghauth/pkg/ghauth"
)

// ConfigPersister implements the auth.ConfigPersister interface.
type ConfigPersister struct {
	mutex sync.Mutex
	now   func() time.Time
}

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{now: time.Now}
}

// UpdateToken stores an issued token for the API.
func (p *ConfigPersister) UpdateToken(apiDomain string, token *ghauth.TokenAuthentication) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config := loadConfig()

	apiConfig, exists := config.APIs[apiDomain]
	if !exists {
		return fmt.Errorf("API configuration for '%s': %w", apiDomain, constants.ErrAPIConfigNotFound)
	}

	apiConfig.Token = token.Token
	apiConfig.TokenID = token.ID

	if token.Username != "" {
		apiConfig.Username = token.Username
	}

	issued := p.now().UTC()
	apiConfig.LastIssued = &issued

	return saveConfigStruct(config)
}
