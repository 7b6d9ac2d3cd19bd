// config.go
package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string
	Port        string
	MongoURI    string
	MongoDBName string
	RabbitURL   string
	JWTSecret   string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeCurrency      string

	// Cancelaciones propias que un comprador puede acumular
	MaxBuyerCancellations int

	RateLimitRPS   float64
	RateLimitBurst int
}

// devJWTSecret solo se usa fuera de producción
const devJWTSecret = "dev-secret"

var ErrMissingJWTSecret = errors.New("JWT_SECRET es obligatorio en producción")

func Load() *Config {
	// .env es opcional, en docker las variables vienen del entorno
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		Port:                  getEnv("PORT", "8080"),
		MongoURI:              getEnv("MONGO_URI", "mongodb://host.docker.internal:27017/?replicaSet=rs0"),
		MongoDBName:           getEnv("MONGO_DB_NAME", "poliventas"),
		RabbitURL:             getEnv("RABBIT_URL", ""),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		StripeSecretKey:       getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:   getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeCurrency:        getEnv("STRIPE_CURRENCY", "usd"),
		MaxBuyerCancellations: getEnvInt("MAX_BUYER_CANCELLATIONS", 2),
		RateLimitRPS:          getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:        getEnvInt("RATE_LIMIT_BURST", 20),
	}
	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = devJWTSecret
	}
	return cfg
}

// Validate falla si falta algo sin lo cual no se puede arrancar.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
