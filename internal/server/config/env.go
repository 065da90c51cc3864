package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// envConfig mirrors Config for envconfig processing. Zero values mean the
// variable was not set and the current Config value is kept. TokenTTL is a
// pointer because "0" is a meaningful setting (disables expiry) and must be
// distinguishable from an unset variable.
type envConfig struct {
	EndpointAddr string         `envconfig:"ADDRESS"`
	DatabaseDSN  string         `envconfig:"DATABASE_DSN"`
	SecretKey    string         `envconfig:"SECRET_KEY"`
	TokenTTL     *time.Duration `envconfig:"TOKEN_TTL"`
	BcryptCost   int            `envconfig:"BCRYPT_COST"`
}

// parseEnv overlays MESSAGELY_-prefixed environment variables onto config.
func parseEnv(config *Config) {
	var e envConfig
	if err := envconfig.Process("messagely", &e); err != nil {
		panic(err)
	}

	if e.EndpointAddr != "" {
		config.EndpointAddr = e.EndpointAddr
	}
	if e.DatabaseDSN != "" {
		config.DatabaseDSN = e.DatabaseDSN
	}
	if e.SecretKey != "" {
		config.SecretKey = e.SecretKey
	}
	if e.TokenTTL != nil {
		config.TokenTTL = *e.TokenTTL
	}
	if e.BcryptCost != 0 {
		config.BcryptCost = e.BcryptCost
	}
}
