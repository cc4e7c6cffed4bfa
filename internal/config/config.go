package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	restrequest "github.com/apankov/kohana-restrequest"
	"github.com/apankov/kohana-restrequest/internal/transfer"
)

// Config holds the CLI settings loaded from .env, an optional YAML file and
// RESTREQUEST_* environment variables.
type Config struct {
	// Backend is the transfer backend name (nethttp or resty).
	Backend string `mapstructure:"backend"`
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level"`
	// Timeout bounds the whole transfer, e.g. "30s". Empty means no limit.
	Timeout string `mapstructure:"timeout"`
	// ConnectTimeout bounds connection setup.
	ConnectTimeout string `mapstructure:"connect_timeout"`
	// Proxy is a proxy URL; a bare host:port is treated as http.
	Proxy string `mapstructure:"proxy"`
	// Insecure disables TLS peer verification.
	Insecure bool `mapstructure:"insecure"`
	// FollowRedirects follows Location headers.
	FollowRedirects bool `mapstructure:"follow_redirects"`
	// MaxRedirects caps followed redirects; -1 uses the backend default.
	MaxRedirects int `mapstructure:"max_redirects"`
	// UserAgent is sent unless a User-Agent header overrides it.
	UserAgent string `mapstructure:"user_agent"`
	// HTTPVersion is "", "1.1" or "2".
	HTTPVersion string `mapstructure:"http_version"`
	// Headers are sent with every request, before headers given on the command line.
	Headers []string `mapstructure:"headers"`

	ParsedTimeout        time.Duration    `mapstructure:"-"`
	ParsedConnectTimeout time.Duration    `mapstructure:"-"`
	ParsedLogLevel       zapcore.Level    `mapstructure:"-"`
	ParsedHTTPVersion    transfer.Version `mapstructure:"-"`
}

const (
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "RESTREQUEST"

	// DefaultEnvFile is loaded into the environment when present.
	DefaultEnvFile = ".env"
)

// Static error definitions for better error handling.
var (
	// ErrUnknownBackend indicates that no transfer backend is registered under the name.
	ErrUnknownBackend = errors.New("unknown backend")
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
	// ErrInvalidTimeout indicates a negative or unparsable timeout.
	ErrInvalidTimeout = errors.New("timeout must be a non-negative duration")
	// ErrInvalidConnectTimeout indicates a negative or unparsable connect timeout.
	ErrInvalidConnectTimeout = errors.New("connect_timeout must be a non-negative duration")
	// ErrInvalidHTTPVersion indicates an HTTP version other than "", "1.1" or "2".
	ErrInvalidHTTPVersion = errors.New("http_version must be 1.1 or 2")
	// ErrInvalidMaxRedirects indicates a max_redirects value below -1.
	ErrInvalidMaxRedirects = errors.New("max_redirects must be -1 or greater")
	// ErrInvalidHeader indicates a header line without a colon or semicolon.
	ErrInvalidHeader = errors.New("header must look like 'Name: value'")
)

// Load reads configuration. configFile may be empty, in which case only
// defaults, the .env file and the environment are consulted.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load(DefaultEnvFile)

	v := viper.New()

	v.SetDefault("backend", transfer.DefaultBackend)
	v.SetDefault("log_level", "info")
	v.SetDefault("timeout", "")
	v.SetDefault("connect_timeout", "")
	v.SetDefault("proxy", "")
	v.SetDefault("insecure", false)
	v.SetDefault("follow_redirects", false)
	v.SetDefault("max_redirects", -1)
	v.SetDefault("user_agent", restrequest.UserAgent())
	v.SetDefault("http_version", "")
	v.SetDefault("headers", []string{})

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config from file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration and sets the parsed fields.
func Validate(cfg *Config) error {
	var err error

	if !transfer.Available(cfg.Backend) {
		return fmt.Errorf("%w: '%s' (available: %s)", ErrUnknownBackend, cfg.Backend, strings.Join(transfer.Backends(), ", "))
	}

	cfg.ParsedLogLevel, err = zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel)
	}

	if cfg.ParsedTimeout, err = parseDuration(cfg.Timeout); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTimeout, err)
	}

	if cfg.ParsedConnectTimeout, err = parseDuration(cfg.ConnectTimeout); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConnectTimeout, err)
	}

	switch strings.TrimSpace(cfg.HTTPVersion) {
	case "":
		cfg.ParsedHTTPVersion = transfer.VersionNone
	case "1.1":
		cfg.ParsedHTTPVersion = transfer.Version11
	case "2", "2.0":
		cfg.ParsedHTTPVersion = transfer.Version2
	default:
		return fmt.Errorf("%w: '%s'", ErrInvalidHTTPVersion, cfg.HTTPVersion)
	}

	if cfg.MaxRedirects < -1 {
		return ErrInvalidMaxRedirects
	}

	for _, h := range cfg.Headers {
		if !strings.ContainsAny(h, ":;") {
			return fmt.Errorf("%w: '%s'", ErrInvalidHeader, h)
		}
	}

	return nil
}

// Options converts a validated configuration into client default options.
func (c *Config) Options() restrequest.Options {
	opts := restrequest.Options{
		restrequest.OptSSLVerifyPeer:  !c.Insecure,
		restrequest.OptFollowLocation: c.FollowRedirects,
		restrequest.OptHTTPVersion:    c.ParsedHTTPVersion,
	}

	if c.ParsedTimeout > 0 {
		opts[restrequest.OptTimeout] = c.ParsedTimeout
	}

	if c.ParsedConnectTimeout > 0 {
		opts[restrequest.OptConnectTimeout] = c.ParsedConnectTimeout
	}

	if c.Proxy != "" {
		opts[restrequest.OptProxy] = c.Proxy
	}

	if c.FollowRedirects && c.MaxRedirects >= 0 {
		opts[restrequest.OptMaxRedirs] = c.MaxRedirects
	}

	if c.UserAgent != "" {
		opts[restrequest.OptUserAgent] = c.UserAgent
	}

	return opts
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}

	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", d)
	}

	return d, nil
}
