package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_parseEnv_Overrides(t *testing.T) {
	t.Setenv("MESSAGELY_ADDRESS", ":9999")
	t.Setenv("MESSAGELY_TOKEN_TTL", "45m")
	t.Setenv("MESSAGELY_BCRYPT_COST", "4")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ":9999", cfg.EndpointAddr)
	assert.Equal(t, 45*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 4, cfg.BcryptCost)
	// untouched variables keep their defaults
	assert.Equal(t, "secretKey", cfg.SecretKey)
}

func Test_parseEnv_ZeroTTLDisablesExpiry(t *testing.T) {
	t.Setenv("MESSAGELY_TOKEN_TTL", "0")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, time.Duration(0), cfg.TokenTTL)
}
