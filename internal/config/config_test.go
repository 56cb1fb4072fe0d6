package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsAndEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "supersecret")
	t.Setenv("DATABASE_DRIVER", "memory")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "supersecret", cfg.JWT.Secret)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 5*time.Second, cfg.Execution.EnrichmentTimeout)
	assert.Equal(t, 4, cfg.Execution.EnrichmentConcurrency)
	assert.Equal(t, 15*time.Minute, cfg.S3.PresignExpiry)
	assert.False(t, cfg.S3.Enabled)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  address: ":9090"
jwt:
  secret: "from-file"
  expiration: "30m"
execution:
  enrichment_timeout: "2s"
  enrichment_concurrency: 8
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, 30*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, 2*time.Second, cfg.Execution.EnrichmentTimeout)
	assert.Equal(t, 8, cfg.Execution.EnrichmentConcurrency)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := LoadConfig(t.TempDir())
	assert.ErrorContains(t, err, "jwt.secret")
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := Config{
		JWT:       JWTConfig{Secret: "s"},
		Database:  DatabaseConfig{Driver: "postgres"},
		Execution: ExecutionConfig{EnrichmentConcurrency: 1},
	}
	assert.Error(t, cfg.Validate())
	cfg.Database.Driver = DriverMemory
	assert.NoError(t, cfg.Validate())
}
