package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("INKOGNITO_CONFIG", "")
	t.Setenv("SIGNING_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, SigningHS256, cfg.SigningAlg)
	assert.Equal(t, time.Hour, cfg.VerificationTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.True(t, cfg.Migrate)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inkognito.yaml")
	body := []byte("signing_key: from-file\nADDR: \":9000\"\nCORS_ORIGINS:\n  - https://a.example\n  - https://b.example\nDB_MIGRATE: false\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	t.Setenv("INKOGNITO_CONFIG", path)
	t.Setenv("ADDR", ":7000")
	t.Setenv("SIGNING_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "from-file", cfg.SigningKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.False(t, cfg.Migrate)
}

func TestLoadRejectsBadSigningSetup(t *testing.T) {
	t.Setenv("INKOGNITO_CONFIG", "")

	t.Run("hs256 without key", func(t *testing.T) {
		t.Setenv("SIGNING_ALG", SigningHS256)
		t.Setenv("SIGNING_KEY", "")
		_, err := Load()
		assert.ErrorContains(t, err, "SIGNING_KEY")
	})

	t.Run("jwks without url", func(t *testing.T) {
		t.Setenv("SIGNING_ALG", SigningJWKS)
		t.Setenv("JWKS_URL", "")
		_, err := Load()
		assert.ErrorContains(t, err, "JWKS_URL")
	})

	t.Run("unknown alg", func(t *testing.T) {
		t.Setenv("SIGNING_ALG", "RS512")
		_, err := Load()
		assert.ErrorContains(t, err, "unsupported")
	})
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("INKOGNITO_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.Error(t, err)
}
