package config

import (
	"errors"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var loadEnv sync.Once

func Config(key string) string {
	loadEnv.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Warn("Warning: .env file not found, reading from system environment variables")
		}
	})

	return os.Getenv(key)
}

func ConfigDefault(key, fallback string) string {
	if v := Config(key); v != "" {
		return v
	}
	return fallback
}

type Settings struct {
	Port          string
	DatabaseURL   string
	JWTSecret     string
	TokenTTL      time.Duration
	StoreTimeout  time.Duration
	FrontendURL   string
	RedisURL      string
	CloudinaryURL string

	BrevoAPIKey     string
	EmailSender     string
	EmailSenderName string

	SuperAdminEmail    string
	SuperAdminPassword string
	SuperAdminName     string
}

func Load() *Settings {
	return &Settings{
		Port:               ConfigDefault("PORT", "8080"),
		DatabaseURL:        Config("DATABASE_URL"),
		JWTSecret:          Config("JWT_SECRET"),
		TokenTTL:           duration("TOKEN_TTL", 24*time.Hour),
		StoreTimeout:       duration("STORE_TIMEOUT", 10*time.Second),
		FrontendURL:        ConfigDefault("FRONTEND_URL", "http://localhost:3000"),
		RedisURL:           Config("REDIS_URL"),
		CloudinaryURL:      Config("CLOUDINARY_URL"),
		BrevoAPIKey:        Config("BREVO_API_KEY"),
		EmailSender:        Config("EMAIL_SENDER"),
		EmailSenderName:    ConfigDefault("EMAIL_SENDER_NAME", "Chamswap"),
		SuperAdminEmail:    ConfigDefault("SUPER_ADMIN_EMAIL", "admin@example.com"),
		SuperAdminPassword: Config("SUPER_ADMIN_PASSWORD"),
		SuperAdminName:     ConfigDefault("SUPER_ADMIN_NAME", "Super Admin"),
	}
}

// Validate reports the first required setting that is missing.
func (s *Settings) Validate() error {
	switch {
	case s.DatabaseURL == "":
		return errors.New("DATABASE_URL is required")
	case s.JWTSecret == "":
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

func duration(key string, fallback time.Duration) time.Duration {
	raw := Config(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	// plain integers are seconds
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Errorf("Error parsing %s=%q, using %s", key, raw, fallback)
	return fallback
}
