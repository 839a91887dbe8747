package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.Port)
	assert.Equal(t, "dev-secret", c.SessionSecret)
	assert.Equal(t, 7*24*time.Hour, c.SessionTTL)
	assert.Equal(t, 10, c.CreateRateLimit)
	assert.Equal(t, time.Minute, c.CreateRateWindow)
	assert.Equal(t, time.Minute, c.TokenSweepInterval)
	assert.True(t, c.DemoLoginEnabled)
	assert.False(t, c.SecureCookies())
	assert.Empty(t, c.RabbitMQURL)
	assert.Empty(t, c.RedisURL)
}

func TestOverlay(t *testing.T) {
	var c Config
	c.LoadDefaults()

	err := c.overlay(lookupFrom(map[string]string{
		"APP_ENV":            "production",
		"PORT":               "9090",
		"SESSION_SECRET":     "s3cret",
		"SESSION_TTL":        "24h",
		"REDIS_URL":          "redis://cache:6379/0",
		"CREATE_RATE_LIMIT":  "5",
		"CREATE_RATE_WINDOW": "30s",
		"ALLOWED_ORIGINS":    "https://a.example, https://b.example,",
		"DEMO_LOGIN_ENABLED": "false",
		"SMTP_PORT":          "2525",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9090", c.Port)
	assert.Equal(t, "s3cret", c.SessionSecret)
	assert.Equal(t, 24*time.Hour, c.SessionTTL)
	assert.Equal(t, "redis://cache:6379/0", c.RedisURL)
	assert.Equal(t, 5, c.CreateRateLimit)
	assert.Equal(t, 30*time.Second, c.CreateRateWindow)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
	assert.False(t, c.DemoLoginEnabled)
	assert.Equal(t, 2525, c.SMTPPort)
	assert.True(t, c.SecureCookies())
}

func TestOverlay_MalformedValues(t *testing.T) {
	var c Config
	c.LoadDefaults()

	err := c.overlay(lookupFrom(map[string]string{
		"CREATE_RATE_LIMIT":  "ten",
		"CREATE_RATE_WINDOW": "soon",
		"DEMO_LOGIN_ENABLED": "maybe",
	}))
	require.Error(t, err)
	assert.ErrorContains(t, err, "CREATE_RATE_LIMIT")
	assert.ErrorContains(t, err, "CREATE_RATE_WINDOW")
	assert.ErrorContains(t, err, "DEMO_LOGIN_ENABLED")
	assert.Equal(t, 10, c.CreateRateLimit)
}

func TestOverlay_ProductionNeedsSecret(t *testing.T) {
	var c Config
	c.LoadDefaults()

	err := c.overlay(lookupFrom(map[string]string{"APP_ENV": "production"}))
	assert.ErrorContains(t, err, "SESSION_SECRET")
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/leads")
	t.Setenv("TOKEN_SWEEP_INTERVAL", "5m")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/leads", c.DatabaseURL)
	assert.Equal(t, 5*time.Minute, c.TokenSweepInterval)
}
