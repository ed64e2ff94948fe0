package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const yamlConfig = `
node:
  rpc_url: "http://localhost:12037"
  ws_url: "ws://localhost:12038"
  api_key: "secret-key"
  retry:
    max_attempts: 3
    initial_backoff: "500ms"
store:
  path: "/var/lib/auctionwatch"
watcher:
  big_spend_threshold: 1000000
events:
  secret: "hub-secret"
  subscriber_buffer: 128
api:
  enabled: true
  listen_address: ":8088"
logging:
  default_level: "debug"
  component_levels:
    store: "warn"
`

func TestLoadFromYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", yamlConfig)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	require.Equal(t, "http://localhost:12037", cfg.Node.RPCURL)
	require.Equal(t, "ws://localhost:12038", cfg.Node.WSURL)
	require.Equal(t, "secret-key", cfg.Node.APIKey)
	require.Equal(t, 3, cfg.Node.Retry.MaxAttempts)
	require.Equal(t, 500*time.Millisecond, cfg.Node.Retry.InitialBackoff.Duration)
	require.Equal(t, "/var/lib/auctionwatch", cfg.Store.Path)
	require.Equal(t, uint64(1000000), cfg.Watcher.BigSpendThreshold)
	require.Equal(t, "hub-secret", cfg.Events.Secret)
	require.Equal(t, 128, cfg.Events.SubscriberBuffer)
	require.True(t, cfg.API.Enabled)
	require.Equal(t, ":8088", cfg.API.ListenAddress)
	require.Equal(t, "warn", cfg.Logging.GetComponentLevel("store"))
	require.Equal(t, "debug", cfg.Logging.GetComponentLevel("classifier"))
}

func TestLoadFromYAML_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
node:
  rpc_url: "http://localhost:12037"
  ws_url: "ws://localhost:12038"
  retry: {}
store:
  path: "/tmp/index"
events:
  secret: "s"
api:
  enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	require.Equal(t, 64, cfg.Events.SubscriberBuffer)
	require.Equal(t, 5, cfg.Node.Retry.MaxAttempts)
	require.Equal(t, time.Second, cfg.Node.Retry.InitialBackoff.Duration)
	require.Equal(t, 30*time.Second, cfg.Node.Retry.MaxBackoff.Duration)
	require.Equal(t, 2.0, cfg.Node.Retry.BackoffMultiplier)
	require.Equal(t, ":8080", cfg.API.ListenAddress)
	require.Equal(t, 10*time.Second, cfg.API.ReadTimeout.Duration)
	require.Equal(t, 60*time.Second, cfg.API.IdleTimeout.Duration)
}

func TestLoadFromJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "node": {
    "rpc_url": "http://localhost:12037",
    "ws_url": "ws://localhost:12038"
  },
  "store": {"path": "/tmp/index"},
  "events": {"secret": "s"}
}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:12037", cfg.Node.RPCURL)
	require.Equal(t, "/tmp/index", cfg.Store.Path)
}

func TestLoadFromTOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[node]
rpc_url = "http://localhost:12037"
ws_url = "ws://localhost:12038"

[store]
path = "/tmp/index"

[events]
secret = "s"

[watcher]
big_spend_threshold = 42
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, uint64(42), cfg.Watcher.BigSpendThreshold)
}

func TestLoadFromFile_UnsupportedFormat(t *testing.T) {
	path := writeConfig(t, "config.ini", "node=")

	_, err := LoadFromFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported config file format")
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing rpc url",
			content: `
node:
  ws_url: "ws://localhost:12038"
store:
  path: "/tmp/index"
events:
  secret: "s"
`,
			wantErr: "node.rpc_url is required",
		},
		{
			name: "missing ws url",
			content: `
node:
  rpc_url: "http://localhost:12037"
store:
  path: "/tmp/index"
events:
  secret: "s"
`,
			wantErr: "node.ws_url is required",
		},
		{
			name: "missing store path",
			content: `
node:
  rpc_url: "http://localhost:12037"
  ws_url: "ws://localhost:12038"
events:
  secret: "s"
`,
			wantErr: "store.path is required",
		},
		{
			name: "missing events secret",
			content: `
node:
  rpc_url: "http://localhost:12037"
  ws_url: "ws://localhost:12038"
store:
  path: "/tmp/index"
`,
			wantErr: "events.secret is required",
		},
		{
			name: "bad log level",
			content: `
node:
  rpc_url: "http://localhost:12037"
  ws_url: "ws://localhost:12038"
store:
  path: "/tmp/index"
events:
  secret: "s"
logging:
  default_level: "verbose"
`,
			wantErr: "logging.default_level",
		},
		{
			name: "unknown logging component",
			content: `
node:
  rpc_url: "http://localhost:12037"
  ws_url: "ws://localhost:12038"
store:
  path: "/tmp/index"
events:
  secret: "s"
logging:
  component_levels:
    downloader: "debug"
`,
			wantErr: "unknown component",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "config.yaml", tt.content)

			_, err := LoadFromFile(path)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
