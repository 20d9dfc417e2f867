package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "dev", c.App.Env)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "memory", c.Storage.Driver)
	assert.Equal(t, "store", c.Cache.Kind)
	assert.Equal(t, 10*time.Minute, c.Recovery.CodeTTL)
	assert.Equal(t, 15*time.Minute, c.AccessTTL())
	assert.Equal(t, 720*time.Hour, c.RefreshTTL())
	assert.Equal(t, 8, c.Security.PasswordPolicy.MinLength)
	assert.Zero(t, c.Recovery.SweepInterval)
}

func TestLoad_YAML(t *testing.T) {
	p := writeYAML(t, `
app:
  app_env: prod
  log_level: warn
server:
  addr: ":9090"
storage:
  driver: postgres
  dsn: postgres://localhost/careid
  postgres:
    call_timeout: 5s
cache:
  kind: redis
  redis:
    addr: localhost:6379
recovery:
  code_ttl: 3m
  sweep_interval: 1h
jwt:
  issuer: careid-prod
  access_ttl: 5m
`)

	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "prod", c.App.Env)
	assert.Equal(t, ":9090", c.Server.Addr)
	assert.Equal(t, "postgres", c.Storage.Driver)
	assert.Equal(t, 5*time.Second, c.PostgresCallTimeout())
	assert.Equal(t, "redis", c.Cache.Kind)
	assert.Equal(t, 3*time.Minute, c.Recovery.CodeTTL)
	assert.Equal(t, time.Hour, c.Recovery.SweepInterval)
	assert.Equal(t, "careid-prod", c.JWT.Issuer)
	assert.Equal(t, 5*time.Minute, c.AccessTTL())
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	p := writeYAML(t, `
server:
  addr: ":9090"
storage:
  driver: memory
`)
	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("RECOVERY_CODE_TTL", "90s")
	t.Setenv("IDENTITY_STRICT_ROLES", "true")

	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, ":7070", c.Server.Addr)
	assert.Equal(t, "postgres", c.Storage.Driver)
	assert.Equal(t, 90*time.Second, c.Recovery.CodeTTL)
	assert.True(t, c.Identity.StrictRoles)
}

func TestLoad_InvalidDuration(t *testing.T) {
	p := writeYAML(t, `
jwt:
  access_ttl: "not-a-duration"
`)
	_, err := Load(p)
	assert.Error(t, err)
}

func TestLoad_BlacklistPathRelativeToYAML(t *testing.T) {
	p := writeYAML(t, `
security:
  password_blacklist_path: "blacklist.txt"
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(p), "blacklist.txt"), c.Security.PasswordBlacklistPath)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/no/such/config.yaml")
	assert.Error(t, err)
}
