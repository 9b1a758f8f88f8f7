package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"clinic_backend/internal/database"
	"clinic_backend/pkg/utils"

	"github.com/joho/godotenv"
)

const (
	AuthModeJWKS  = "jwks"
	AuthModeLocal = "local"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
	Location       *time.Location
	AutoMigrate    bool

	Database database.Config

	Auth  AuthConfig
	Redis RedisConfig
	S3    S3Config
}

type AuthConfig struct {
	Mode         string
	JWKSURL      string
	Issuer       string
	Audience     string
	JWTSecret    string
	TokenTTL     time.Duration
	JWKSCacheTTL time.Duration
}

// RedisConfig is optional; an empty Addr disables the identity cache.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	IdentityTTL time.Duration
}

// S3Config is optional; an empty Bucket disables uploads.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

// Load reads an optional .env file (path from ENV_FILE, default ".env") and
// then the process environment.
func Load() (*Config, error) {
	envFile := utils.Getenv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	tz := utils.Getenv("APP_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", tz, err)
	}

	cfg := &Config{
		Port:           utils.Getenv("PORT", "8080"),
		AllowedOrigins: utils.GetenvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		LogLevel:       utils.Getenv("LOG_LEVEL", "info"),
		LogFormat:      utils.Getenv("LOG_FORMAT", "console"),
		Location:       loc,
		AutoMigrate:    utils.GetenvBool("AUTO_MIGRATE", false),
		Database: database.Config{
			Host:            utils.Getenv("DB_HOST", "localhost"),
			Port:            utils.Getenv("DB_PORT", "5432"),
			User:            utils.Getenv("DB_USER", "clinic_user"),
			Password:        utils.Getenv("DB_PASSWORD", "clinic_password"),
			Name:            utils.Getenv("DB_NAME", "clinic_db"),
			SSLMode:         utils.Getenv("DB_SSLMODE", "disable"),
			MaxOpenConns:    utils.GetenvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    utils.GetenvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: utils.GetenvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Auth: AuthConfig{
			Mode:         strings.ToLower(utils.Getenv("AUTH_MODE", AuthModeJWKS)),
			JWKSURL:      utils.Getenv("AUTH_JWKS_URL", ""),
			Issuer:       utils.Getenv("AUTH_ISSUER", ""),
			Audience:     utils.Getenv("AUTH_AUDIENCE", ""),
			JWTSecret:    utils.Getenv("JWT_SECRET", ""),
			TokenTTL:     utils.GetenvDuration("JWT_TTL", time.Hour),
			JWKSCacheTTL: utils.GetenvDuration("AUTH_JWKS_CACHE_TTL", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:        utils.Getenv("REDIS_ADDR", ""),
			Password:    utils.Getenv("REDIS_PASSWORD", ""),
			DB:          utils.GetenvInt("REDIS_DB", 0),
			IdentityTTL: utils.GetenvDuration("IDENTITY_CACHE_TTL", 5*time.Minute),
		},
		S3: S3Config{
			Bucket:          utils.Getenv("S3_BUCKET", ""),
			Region:          utils.Getenv("AWS_REGION", "us-east-1"),
			Endpoint:        utils.Getenv("S3_ENDPOINT", ""),
			AccessKeyID:     utils.Getenv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: utils.Getenv("AWS_SECRET_ACCESS_KEY", ""),
			PublicBaseURL:   strings.TrimRight(utils.Getenv("S3_PUBLIC_BASE_URL", ""), "/"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case AuthModeJWKS:
		if c.Auth.JWKSURL == "" {
			return errors.New("AUTH_JWKS_URL is required when AUTH_MODE=jwks")
		}
	case AuthModeLocal:
		if len(c.Auth.JWTSecret) < 16 {
			return errors.New("JWT_SECRET must be at least 16 characters when AUTH_MODE=local")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.Auth.Mode)
	}
	if c.Database.MaxOpenConns > 0 && c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return errors.New("DB_MAX_IDLE_CONNS cannot exceed DB_MAX_OPEN_CONNS")
	}
	return nil
}
