package config

import (
	"fmt"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds all process configuration. Secrets are injected through the
// environment at startup, never hard-coded.
type Config struct {
	Port         string `env:"PORT,default=5001"`
	Env          string `env:"ENV,default=development"`
	ClientOrigin string `env:"CLIENT_URL,default=http://localhost:5173"`

	MongoURI  string `env:"MONGO_URI,required"`
	MongoDB   string `env:"MONGO_DB,default=xenochat"`
	JWTSecret string `env:"JWT_SECRET,required"`

	// Provider credentials are validated by the provider constructors so a
	// missing secret surfaces as a typed error, not a process exit.
	StreamAPIKey    string `env:"STREAM_API_KEY"`
	StreamAPISecret string `env:"STREAM_API_SECRET"`
	CloudinaryURL   string `env:"CLOUDINARY_URL"`
}

// Load reads configuration from the environment, after loading a .env file
// when one is present.
func Load() (*Config, error) {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
