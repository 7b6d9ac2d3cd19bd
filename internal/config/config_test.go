package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MONGO_DB_NAME", "poliventas_test")
	t.Setenv("MAX_BUYER_CANCELLATIONS", "3")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "poliventas_test", cfg.MongoDBName)
	assert.Equal(t, 3, cfg.MaxBuyerCancellations)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	assert.Equal(t, "usd", cfg.StripeCurrency)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("MAX_BUYER_CANCELLATIONS", "dos")
	t.Setenv("RATE_LIMIT_RPS", "x")

	cfg := Load()

	assert.Equal(t, 2, cfg.MaxBuyerCancellations)
	assert.Equal(t, float64(10), cfg.RateLimitRPS)
}

func TestIsProduction(t *testing.T) {
	assert.True(t, (&Config{AppEnv: "production"}).IsProduction())
	assert.False(t, (&Config{AppEnv: "development"}).IsProduction())
}

func TestLoad_JWTSecret(t *testing.T) {
	t.Run("development falls back", func(t *testing.T) {
		t.Setenv("APP_ENV", "development")
		t.Setenv("JWT_SECRET", "")

		cfg := Load()
		assert.Equal(t, devJWTSecret, cfg.JWTSecret)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("production requires it", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "")

		cfg := Load()
		assert.Empty(t, cfg.JWTSecret)
		assert.ErrorIs(t, cfg.Validate(), ErrMissingJWTSecret)
	})

	t.Run("production with secret", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "s3cr3t")

		cfg := Load()
		assert.Equal(t, "s3cr3t", cfg.JWTSecret)
		assert.NoError(t, cfg.Validate())
	})
}
