package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"ENVIRONMENT", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "TELEGRAM_ADMIN_CHAT_ID",
	"DB_DRIVER", "DATABASE_URL", "PORT", "POLL_INTERVAL", "POLL_TIMEOUT_SECONDS",
}

// clearEnv blanks both prefixed and unprefixed forms for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedKeys {
		for _, name := range []string{k, Prefix + "_" + k} {
			if v, ok := os.LookupEnv(name); ok {
				_ = os.Unsetenv(name)
				t.Cleanup(func() { _ = os.Setenv(name, v) })
			}
		}
	}
}

func TestConfigLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "data/grievance.db", cfg.DatabaseURL)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, int64(200<<10), cfg.MaxJSONBytes)
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
	assert.Equal(t, 1, cfg.PollTimeoutSeconds)
	assert.Equal(t, "https://api.telegram.org", cfg.TelegramAPIURL)
	assert.False(t, cfg.TelegramEnabled())
}

func TestConfigLoad_UnprefixedAndPrefixed(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "5000")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "42", cfg.TelegramChatID)

	t.Setenv("GRIEVANCE_PORT", "6000")
	cfg, err = New()
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.Port, "prefixed key must win")
}

func TestResolveDefaults_AdminFallsBackToBroadcastChat(t *testing.T) {
	cfg := NewForTesting()
	cfg.TelegramChatID = "777"
	cfg.TelegramAdminChatID = ""
	require.NoError(t, cfg.ResolveDefaults())
	assert.Equal(t, "777", cfg.TelegramAdminChatID)

	cfg.TelegramAdminChatID = "999"
	require.NoError(t, cfg.ResolveDefaults())
	assert.Equal(t, "999", cfg.TelegramAdminChatID)
}

func TestResolveDefaults_DriverFromURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost/db":   DriverPostgres,
		"postgresql://u:p@localhost/db": DriverPostgres,
		"data/grievance.db":             DriverSQLite,
		"sqlite://data/x.db":            DriverSQLite,
	}
	for url, want := range cases {
		cfg := NewForTesting()
		cfg.DBDriver = DriverAuto
		cfg.DatabaseURL = url
		require.NoError(t, cfg.ResolveDefaults(), url)
		assert.Equal(t, want, cfg.DBDriver, url)
	}

	cfg := NewForTesting()
	cfg.DBDriver = "mysql"
	assert.Error(t, cfg.ResolveDefaults())
}

func TestResolveDefaults_PollTimeoutShorterThanInterval(t *testing.T) {
	cfg := NewForTesting()
	cfg.PollInterval = 2 * time.Second
	cfg.PollTimeoutSeconds = 2
	assert.Error(t, cfg.ResolveDefaults())

	cfg.PollTimeoutSeconds = 1
	assert.NoError(t, cfg.ResolveDefaults())
}

func TestResolveDefaults_Port(t *testing.T) {
	cfg := NewForTesting()
	cfg.Port = 70000
	assert.Error(t, cfg.ResolveDefaults())
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TELEGRAM_CHAT_ID=31337\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("TELEGRAM_CHAT_ID") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "31337", cfg.TelegramChatID)
}

func TestResolveDefaults_Environment(t *testing.T) {
	cfg := NewForTesting()
	cfg.Environment = ""
	require.NoError(t, cfg.ResolveDefaults())
	assert.Equal(t, EnvDevelopment, cfg.Environment)

	cfg.Environment = " Production "
	require.NoError(t, cfg.ResolveDefaults())
	assert.Equal(t, EnvProduction, cfg.Environment)

	cfg.Environment = "staging"
	assert.Error(t, cfg.ResolveDefaults())
}
