// Package config loads the environment-provided configuration into an
// explicit struct that gets passed to the components that need it.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the process reads from the environment.
type Config struct {
	AppPort        string
	DatabaseDriver string // "postgres" or "sqlite"
	DatabaseDSN    string
	JWTSecret      string
	AccessTokenTTL time.Duration
	RefreshTTL     time.Duration
	BaseURL        string
	MediaDir       string
	AllowedOrigins string
	RabbitMQURL    string // empty disables event publishing
}

// Load reads configuration from environment variables with sensible defaults
// for local development.
func Load() *Config {
	v := viper.New()
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=petadopt port=5432 sslmode=disable")
	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("ACCESS_TOKEN_MINUTES", 60)
	v.SetDefault("REFRESH_TOKEN_HOURS", 24)
	v.SetDefault("BASE_URL", "http://127.0.0.1:8080")
	v.SetDefault("MEDIA_DIR", "media")
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("RABBITMQ_URL", "")
	v.AutomaticEnv()

	return &Config{
		AppPort:        v.GetString("APP_PORT"),
		DatabaseDriver: v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		AccessTokenTTL: time.Duration(v.GetInt("ACCESS_TOKEN_MINUTES")) * time.Minute,
		RefreshTTL:     time.Duration(v.GetInt("REFRESH_TOKEN_HOURS")) * time.Hour,
		BaseURL:        v.GetString("BASE_URL"),
		MediaDir:       v.GetString("MEDIA_DIR"),
		AllowedOrigins: v.GetString("ALLOWED_ORIGINS"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
	}
}
