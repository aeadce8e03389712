package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvDefaults(t *testing.T) {
	for _, k := range []string{"SERVER_PORT", "DB_PATH", "DATA_DIR", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOG_LEVEL", "ZEBRA_API_URL"} {
		t.Setenv(k, "")
	}
	assert.Equal(t, 8080, ServerPort())
	assert.Equal(t, ":8080", ServerAddr())
	assert.Equal(t, "data/zebra.db", DBPath())
	assert.Equal(t, "data", DataDir())
	assert.Equal(t, 20.0, RateLimitRPS())
	assert.Equal(t, 40, RateLimitBurst())
	assert.Equal(t, "info", LogLevel())
	assert.Equal(t, "http://localhost:8080", APIURL())
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SERVER_PORT=9191\nRATE_LIMIT_RPS=5\n"), 0o600))
	require.NoError(t, os.WriteFile(envFile+".secret", []byte("ADMIN_KEY=hunter2\n"), 0o600))

	t.Setenv("ZEBRA_ENV", envFile)
	// godotenv.Load never overrides variables that are already set.
	t.Setenv("SERVER_PORT", "")
	t.Setenv("RATE_LIMIT_RPS", "")
	t.Setenv("RATE_LIMIT_BURST", "")
	t.Setenv("ADMIN_KEY", "")
	os.Unsetenv("SERVER_PORT")
	os.Unsetenv("RATE_LIMIT_RPS")
	os.Unsetenv("RATE_LIMIT_BURST")
	os.Unsetenv("ADMIN_KEY")

	require.NoError(t, Load())
	assert.Equal(t, 9191, ServerPort())
	assert.Equal(t, 5.0, RateLimitRPS())
	assert.Equal(t, 10, RateLimitBurst())
	assert.Equal(t, "hunter2", AdminKey())
}
