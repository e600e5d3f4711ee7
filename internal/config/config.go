package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppEnv  string `envconfig:"APP_ENV" default:"development"`
	AppPort string `envconfig:"APP_PORT" default:"8080"`

	// Upstream collaborators
	APIBaseURL      string        `envconfig:"API_BASE_URL" default:"http://localhost:5000/api"`
	ExchangeRateURL string        `envconfig:"EXCHANGE_RATE_URL" default:"https://api.exchangerate-api.com/v4/latest/INR"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`
	BackendRPS      float64       `envconfig:"BACKEND_RPS" default:"20"`
	BackendBurst    int           `envconfig:"BACKEND_BURST" default:"40"`

	// Inbound
	JWTSecret     string  `envconfig:"JWT_SECRET" required:"true"`
	AllowedOrigin string  `envconfig:"ALLOWED_ORIGIN" default:"http://localhost:3000"`
	ClientRPS     float64 `envconfig:"CLIENT_RPS" default:"10"`
	ClientBurst   int     `envconfig:"CLIENT_BURST" default:"20"`

	// Sessions unused for SessionIdleTTL are closed by the sweeper.
	SessionIdleTTL       time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`
	SessionSweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"1m"`

	// Cross-instance cart events. Empty address disables the bridge.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisChannel  string `envconfig:"REDIS_CART_CHANNEL" default:"cart:changed"`
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// Load binds the process environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	return &cfg, nil
}

// LoadConfig reads .env (if any) and exits when the environment is incomplete.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg, err := Load()
	if err != nil {
		log.Fatalf("Environment variables not loaded properly: %v", err)
	}

	return cfg
}
