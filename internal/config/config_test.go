package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/rag-agents-cli/internal/domain"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, key := range Keys {
		t.Setenv(envName(key), "")
		require.NoError(t, os.Unsetenv(envName(key)))
	}
	return t.TempDir()
}

func envName(key string) string {
	out := []byte(EnvPrefix + "_")
	for _, r := range []byte(key) {
		switch {
		case r == '.':
			out = append(out, '_')
		case r >= 'a' && r <= 'z':
			out = append(out, r-'a'+'A')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

func writeConfig(t *testing.T, home, body string) {
	t.Helper()
	dir := filepath.Join(home, configDir)
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFile), []byte(body), 0o600))
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(home)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Backend.URL)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "default", cfg.Agent.Default)
	assert.Equal(t, 2*time.Second, cfg.Ingest.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.Ingest.GracePeriod)
	assert.Equal(t, 2*time.Second, cfg.Ingest.Cooldown)
	assert.Equal(t, 1500*time.Millisecond, cfg.Settings.CloseDelay)
	assert.Empty(t, cfg.Path)
}

func TestLoadReadsFileAndEnvOverrides(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, `
[backend]
url = "https://rag.example.com/"
timeout = "10s"

[ingest]
poll_interval = "500ms"
`)
	t.Setenv("RA_LOG_LEVEL", "DEBUG")

	cfg, err := Load(home)
	require.NoError(t, err)

	assert.Equal(t, "https://rag.example.com", cfg.Backend.URL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Ingest.PollInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, DefaultPath(home), cfg.Path)
}

func TestLoadReadsDotEnv(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.WriteFile(".env", []byte("RA_AGENT_DEFAULT=hr\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("RA_AGENT_DEFAULT") })

	cfg, err := Load(home)
	require.NoError(t, err)
	assert.Equal(t, "hr", cfg.Agent.Default)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "scheme", env: map[string]string{"RA_BACKEND_URL": "ftp://host"}, want: "http or https"},
		{name: "host", env: map[string]string{"RA_BACKEND_URL": "http://"}, want: "host"},
		{name: "level", env: map[string]string{"RA_LOG_LEVEL": "loud"}, want: "unknown level"},
		{name: "poll", env: map[string]string{"RA_INGEST_POLL_INTERVAL": "1ms"}, want: "ingest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := isolate(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			_, err := Load(home)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAppOptions(t *testing.T) {
	home := isolate(t)
	t.Setenv("RA_AGENT_DEFAULT", "eng")
	t.Setenv("RA_INGEST_COOLDOWN", "3s")

	cfg, err := Load(home)
	require.NoError(t, err)

	opts := cfg.AppOptions()
	assert.Equal(t, domain.AgentID("eng"), opts.DefaultAgentID)
	assert.Equal(t, 3*time.Second, opts.Cooldown)
	assert.Equal(t, 2*time.Second, opts.PollInterval)
}

func TestGetCoversEveryKey(t *testing.T) {
	home := isolate(t)
	cfg, err := Load(home)
	require.NoError(t, err)

	for _, key := range Keys {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}

	_, err = cfg.Get("backend.nope")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestSetWritesNestedKeyAndKeepsOthers(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "[backend]\nurl = \"http://rag:9000\"\n")

	path, err := Set(home, KeyCooldown, "4s")
	require.NoError(t, err)
	assert.Equal(t, DefaultPath(home), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := map[string]any{}
	require.NoError(t, toml.Unmarshal(data, &doc))
	assert.Equal(t, "http://rag:9000", doc["backend"].(map[string]any)["url"])
	assert.Equal(t, "4s", doc["ingest"].(map[string]any)["cooldown"])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg, err := Load(home)
	require.NoError(t, err)
	assert.Equal(t, 4*time.Second, cfg.Ingest.Cooldown)
	assert.Equal(t, "http://rag:9000", cfg.Backend.URL)
}

func TestSetRejectsUnknownKeyAndInvalidValue(t *testing.T) {
	home := isolate(t)

	_, err := Set(home, "backend.port", "1")
	require.ErrorIs(t, err, ErrUnknownKey)

	_, err = Set(home, KeyBackendURL, "not a url")
	require.Error(t, err)

	_, statErr := os.Stat(DefaultPath(home))
	assert.True(t, os.IsNotExist(statErr))
}
