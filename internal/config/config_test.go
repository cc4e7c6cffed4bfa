package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	restrequest "github.com/apankov/kohana-restrequest"
	"github.com/apankov/kohana-restrequest/internal/transfer"
)

const testConfigContent = `
backend: resty
log_level: debug
timeout: 15s
connect_timeout: 2s
proxy: "proxy.local:3128"
insecure: true
follow_redirects: true
max_redirects: 3
user_agent: "tester/1.0"
http_version: "2"
headers:
  - "Accept: application/json"
  - "X-Team: core"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "restrequest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func validConfig() *Config {
	return &Config{
		Backend:      transfer.DefaultBackend,
		LogLevel:     "info",
		MaxRedirects: -1,
	}
}

// TestLoadDefaults tests that Load without a file falls back to defaults.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, transfer.DefaultBackend, cfg.Backend)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, -1, cfg.MaxRedirects)
	assert.Equal(t, restrequest.UserAgent(), cfg.UserAgent)
	assert.False(t, cfg.Insecure)
	assert.Empty(t, cfg.Headers)

	require.NoError(t, Validate(cfg))
	assert.Equal(t, zapcore.InfoLevel, cfg.ParsedLogLevel)
	assert.Zero(t, cfg.ParsedTimeout)
}

// TestLoadFile tests reading every setting from a YAML file.
func TestLoadFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfigContent))
	require.NoError(t, err)

	assert.Equal(t, "resty", cfg.Backend)
	assert.Equal(t, "proxy.local:3128", cfg.Proxy)
	assert.True(t, cfg.Insecure)
	assert.True(t, cfg.FollowRedirects)
	assert.Equal(t, 3, cfg.MaxRedirects)
	assert.Equal(t, "tester/1.0", cfg.UserAgent)
	assert.Equal(t, []string{"Accept: application/json", "X-Team: core"}, cfg.Headers)

	require.NoError(t, Validate(cfg))
	assert.Equal(t, zapcore.DebugLevel, cfg.ParsedLogLevel)
	assert.Equal(t, 15*time.Second, cfg.ParsedTimeout)
	assert.Equal(t, 2*time.Second, cfg.ParsedConnectTimeout)
	assert.Equal(t, transfer.Version2, cfg.ParsedHTTPVersion)
}

// TestLoadMissingFile tests that an explicit but missing file is an error.
func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config from file")
}

// TestLoadEnvironmentOverrides tests RESTREQUEST_* variables.
func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("RESTREQUEST_BACKEND", "resty")
	t.Setenv("RESTREQUEST_TIMEOUT", "750ms")
	t.Setenv("RESTREQUEST_INSECURE", "true")

	cfg, err := Load(writeConfig(t, "backend: nethttp\ntimeout: 10s\n"))
	require.NoError(t, err)

	assert.Equal(t, "resty", cfg.Backend)
	assert.Equal(t, "750ms", cfg.Timeout)
	assert.True(t, cfg.Insecure)
}

// TestValidate tests the sentinel errors returned for invalid settings.
func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		err    error
	}{
		{"valid", func(*Config) {}, nil},
		{"unknown backend", func(c *Config) { c.Backend = "curl" }, ErrUnknownBackend},
		{"unknown log level", func(c *Config) { c.LogLevel = "loud" }, ErrUnknownLogLevel},
		{"bad timeout", func(c *Config) { c.Timeout = "soon" }, ErrInvalidTimeout},
		{"negative timeout", func(c *Config) { c.Timeout = "-1s" }, ErrInvalidTimeout},
		{"bad connect timeout", func(c *Config) { c.ConnectTimeout = "x" }, ErrInvalidConnectTimeout},
		{"bad http version", func(c *Config) { c.HTTPVersion = "3" }, ErrInvalidHTTPVersion},
		{"bad max redirects", func(c *Config) { c.MaxRedirects = -2 }, ErrInvalidMaxRedirects},
		{"bad header", func(c *Config) { c.Headers = []string{"no separator"} }, ErrInvalidHeader},
		{"removal header", func(c *Config) { c.Headers = []string{"Accept:", "X-Empty;"} }, nil},
		{"zero timeout", func(c *Config) { c.Timeout = "0" }, nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)

			err := Validate(cfg)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tt.err)
		})
	}
}

// TestOptions tests conversion into client default options.
func TestOptions(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Timeout = "5s"
	cfg.Proxy = "http://proxy:8080"
	cfg.Insecure = true
	cfg.FollowRedirects = true
	cfg.MaxRedirects = 2
	cfg.UserAgent = "ua"
	cfg.HTTPVersion = "1.1"
	require.NoError(t, Validate(cfg))

	opts := cfg.Options()

	assert.Equal(t, 5*time.Second, opts[restrequest.OptTimeout])
	assert.Equal(t, "http://proxy:8080", opts[restrequest.OptProxy])
	assert.Equal(t, false, opts[restrequest.OptSSLVerifyPeer])
	assert.Equal(t, true, opts[restrequest.OptFollowLocation])
	assert.Equal(t, 2, opts[restrequest.OptMaxRedirs])
	assert.Equal(t, "ua", opts[restrequest.OptUserAgent])
	assert.Equal(t, restrequest.HTTPVersion11, opts[restrequest.OptHTTPVersion])
	assert.NotContains(t, opts, restrequest.OptConnectTimeout)
}

// TestOptionsAreAccepted tests that every generated option is accepted by a request.
func TestOptionsAreAccepted(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Timeout = "1s"
	cfg.ConnectTimeout = "500ms"
	cfg.Proxy = "localhost:1"
	cfg.FollowRedirects = true
	cfg.MaxRedirects = 0
	require.NoError(t, Validate(cfg))

	req, err := restrequest.NewRequest(cfg.Options())
	require.NoError(t, err)
	t.Cleanup(func() { _ = req.Close() })

	assert.NoError(t, req.Err())
}
