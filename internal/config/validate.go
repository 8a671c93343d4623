package config

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.PasswordHashCost < bcrypt.MinCost || c.Auth.PasswordHashCost > bcrypt.MaxCost {
		return fmt.Errorf("auth.password_hash_cost must be within [%d, %d] (got %d)",
			bcrypt.MinCost, bcrypt.MaxCost, c.Auth.PasswordHashCost)
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("auth.access_token_ttl must be > 0 (got %v)", c.Auth.AccessTokenTTL)
	}
	if c.Auth.RatePerMinute <= 0 {
		return fmt.Errorf("auth.rate_per_minute must be > 0 (got %d)", c.Auth.RatePerMinute)
	}

	if err := c.Sync.validate(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	return nil
}

func (s *SyncConfig) validate() error {
	if s.PingInterval <= 0 {
		return fmt.Errorf("ping_interval must be > 0 (got %v)", s.PingInterval)
	}
	if s.MaxMessageBytes <= 0 {
		return fmt.Errorf("max_message_bytes must be > 0 (got %d)", s.MaxMessageBytes)
	}
	if s.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be > 0 (got %v)", s.WriteTimeout)
	}
	return nil
}
