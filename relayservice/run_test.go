package relayservice

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arunsharma1203/grievance/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.NewForTesting()
	cfg.DatabaseURL = "sqlite://" + filepath.Join(dir, "db", "grievance.db")
	cfg.UploadDir = filepath.Join(dir, "uploads")
	cfg.TelegramBotToken = ""
	return cfg
}

func TestOpenStore_SQLite(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	st, err := OpenStore(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	lst, err := st.Grievances().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, lst)
}

func TestMigrate_Idempotent(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, cfg, zerolog.Nop()))
	require.NoError(t, Migrate(ctx, cfg, zerolog.Nop()))
}

func TestOpenStore_UnsupportedDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBDriver = "mysql"
	_, err := OpenStore(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestServe_StartsAndStopsCleanly(t *testing.T) {
	cfg := testConfig(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, cfg, zerolog.Nop(), ln) }()

	client := &http.Client{Timeout: 2 * time.Second}
	var h map[string]interface{}
	require.Eventually(t, func() bool {
		resp, err := client.Get(base + "/health")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		h = nil
		return json.NewDecoder(resp.Body).Decode(&h) == nil && h["status"] == "healthy"
	}, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, map[string]interface{}{"store": true}, h["components"])

	resp, err := client.Post(base+"/grievances", "application/json", strings.NewReader(`{"username":"ana","text":"hello"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
