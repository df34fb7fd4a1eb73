package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvRedisAddr, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, "memory", cfg.Serve.Backend)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flowstudio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: https://file.example.com
assistant_id: from-file
serve:
  backend: redis
  redis:
    addr: redis:6379
    flow_ttl: 24h
sanitize:
  deny_keys: [client_secret]
`), 0o600))

	t.Setenv(EnvAPIURL, "https://env.example.com")
	t.Setenv(EnvAssistantID, "")
	t.Setenv(EnvRedisAddr, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.APIURL, "env wins over file")
	assert.Equal(t, "from-file", cfg.AssistantID)
	assert.Equal(t, "redis", cfg.Serve.Backend)
	assert.Equal(t, "redis:6379", cfg.Serve.Redis.Addr)
	assert.Equal(t, 24*time.Hour, time.Duration(cfg.Serve.Redis.FlowTTL))
	assert.Equal(t, []string{"client_secret"}, cfg.Sanitize.DenyKeys)
	assert.Equal(t, "flowstudio:", cfg.Serve.Redis.Prefix, "unset keys keep defaults")
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowstudio.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"log_level": "debug", "serve": {"redis": {"flow_ttl": "90s"}}}`), 0o600))
	t.Setenv(EnvLogLevel, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 90*time.Second, time.Duration(cfg.Serve.Redis.FlowTTL))
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("serve:\n  backend: etcd\n"), 0o600))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "serve.backend")
}

func TestMergeEnv(t *testing.T) {
	env := map[string]string{
		EnvRedisAddr:  "cache:6379",
		EnvRedisDB:    "2",
		EnvEncryptKey: "a2V5",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.mergeEnv(lookup))
	assert.Equal(t, "redis", cfg.Serve.Backend)
	assert.Equal(t, 2, cfg.Serve.Redis.DB)
	assert.Equal(t, "a2V5", cfg.Serve.EncryptionKey)

	env[EnvRedisDB] = "-1"
	assert.Error(t, cfg.mergeEnv(lookup))
}
