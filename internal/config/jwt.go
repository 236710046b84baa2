package config

import (
	"fmt"
	"strconv"
	"time"
)

// SessionTokenIssuer is the iss claim of session tokens.
const SessionTokenIssuer = "posting-assistant"

const (
	defaultTokenHours = 24
	minSecretLength   = 16
)

// JWTConfig holds the signing settings of session tokens.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
	// Issuer is set on issued tokens and required on presented ones when
	// not empty.
	Issuer string
}

// JWTConfigFromEnv reads JWT_SECRET and JWT_EXPIRATION_HOURS (default 24)
// through getenv. Session tokens are optional: without a secret it returns
// nil and no error.
func JWTConfigFromEnv(getenv func(string) string) (*JWTConfig, error) {
	secret := getenv("JWT_SECRET")
	if secret == "" {
		return nil, nil
	}

	c := &JWTConfig{Secret: secret, ExpirationHours: defaultTokenHours, Issuer: SessionTokenIssuer}
	if v := getenv("JWT_EXPIRATION_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %v", err)
		}
		c.ExpirationHours = hours
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the secret length and the token lifetime.
func (c *JWTConfig) Validate() error {
	if len(c.Secret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters, got: %d", minSecretLength, len(c.Secret))
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}

// TokenTTL returns how long an issued session token stays valid.
func (c *JWTConfig) TokenTTL() time.Duration {
	if c.ExpirationHours < 1 {
		return defaultTokenHours * time.Hour
	}
	return time.Duration(c.ExpirationHours) * time.Hour
}
