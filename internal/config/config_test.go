package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLocalModeFromEnv(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("AUTH_MODE", "local")
	t.Setenv("JWT_SECRET", "0123456789abcdef-secret")
	t.Setenv("DB_MAX_OPEN_CONNS", "10")
	t.Setenv("DB_MAX_IDLE_CONNS", "2")
	t.Setenv("APP_TIMEZONE", "America/Sao_Paulo")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, AuthModeLocal, cfg.Auth.Mode)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 2, cfg.Database.MaxIdleConns)
	assert.Equal(t, "America/Sao_Paulo", cfg.Location.String())
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
}

func TestLoadReadsDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("AUTH_MODE=jwks\nAUTH_JWKS_URL=https://idp.test/jwks.json\nS3_BUCKET=clinic-files\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	// godotenv never overrides variables that are already set.
	t.Setenv("AUTH_MODE", "")
	t.Setenv("AUTH_JWKS_URL", "")
	t.Setenv("S3_BUCKET", "")
	os.Unsetenv("AUTH_MODE")
	os.Unsetenv("AUTH_JWKS_URL")
	os.Unsetenv("S3_BUCKET")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, AuthModeJWKS, cfg.Auth.Mode)
	assert.Equal(t, "https://idp.test/jwks.json", cfg.Auth.JWKSURL)
	assert.Equal(t, "clinic-files", cfg.S3.Bucket)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Auth: AuthConfig{Mode: AuthModeJWKS}}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Auth: AuthConfig{Mode: AuthModeLocal, JWTSecret: "short"}}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Auth: AuthConfig{Mode: "saml"}}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Auth: AuthConfig{Mode: AuthModeJWKS, JWKSURL: "https://idp.test"}}
	assert.NoError(t, cfg.Validate())
}
