package config

import (
	"os"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPublic = `
addr: ":8080"
base_url: "http://localhost:8080"
log_level: "debug"
cors_allowed_origins:
  - "http://localhost:3000"
jwt_ttl_seconds: 3600
`

const validPrivate = `
jwt_key: "test_secret"
pg:
  host: "localhost"
  port: 5432
  user: "keygate"
  password: "keygate"
  dbname: "keygate"
email:
  smtp_server: "smtp.example.com"
  smtp_port: 587
  username: "noreply@example.com"
  password: "pw"
  sender_name: "keygate"
  timeout: 10
`

func writeConfigs(t *testing.T, public, private string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(path.Join(dir, "public.yaml"), []byte(public), 0o600))
	require.NoError(t, os.WriteFile(path.Join(dir, "private.yaml"), []byte(private), 0o600))
	return dir
}

func TestMustLoad(t *testing.T) {
	t.Run("Valid configs", func(t *testing.T) {
		dir := writeConfigs(t, validPublic, validPrivate)

		cfg := MustLoad(dir)

		assert.Equal(t, ":8080", cfg.Public.Addr)
		assert.Equal(t, "http://localhost:8080", cfg.Public.BaseURL)
		assert.Equal(t, []string{"http://localhost:3000"}, cfg.Public.CorsAllowedOrigins)
		assert.Equal(t, "test_secret", cfg.JwtKey())
		assert.Equal(t, time.Hour, cfg.JwtTTL())
		assert.Equal(t, "localhost", cfg.Private.Pg.Host)
		assert.Equal(t, "smtp.example.com", cfg.Private.Email.SMTPServer)
	})

	t.Run("Missing config file", func(t *testing.T) {
		assert.Panics(t, func() { MustLoad(t.TempDir()) })
	})

	t.Run("Missing base_url", func(t *testing.T) {
		dir := writeConfigs(t, `addr: ":8080"`, validPrivate)
		assert.Panics(t, func() { MustLoad(dir) })
	})

	t.Run("Missing jwt_key", func(t *testing.T) {
		private := `
pg:
  host: "localhost"
  dbname: "keygate"
`
		dir := writeConfigs(t, validPublic, private)
		assert.Panics(t, func() { MustLoad(dir) })
	})

	t.Run("Missing pg dbname", func(t *testing.T) {
		private := `
jwt_key: "test_secret"
pg:
  host: "localhost"
`
		dir := writeConfigs(t, validPublic, private)
		assert.Panics(t, func() { MustLoad(dir) })
	})
}

func TestTTLDefaults(t *testing.T) {
	cfg := &Config{}

	assert.Equal(t, 7*24*time.Hour, cfg.JwtTTL())
	assert.Equal(t, 24*time.Hour, cfg.VerificationTokenTTL())
	assert.Equal(t, 10*time.Minute, cfg.ResetCodeTTL())

	cfg.Public.JwtTTLSeconds = 60
	cfg.Public.VerificationTokenTTLSeconds = 120
	cfg.Public.ResetCodeTTLSeconds = 30

	assert.Equal(t, time.Minute, cfg.JwtTTL())
	assert.Equal(t, 2*time.Minute, cfg.VerificationTokenTTL())
	assert.Equal(t, 30*time.Second, cfg.ResetCodeTTL())
}
