package restrequest

import (
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/apankov/kohana-restrequest/internal/transfer"
)

// WithBackend selects the transfer backend by name (BackendNetHTTP, BackendResty).
func WithBackend(name string) Option {
	return func(c *Client) {
		c.backend = name
	}
}

// WithOptions merges transfer options into the client's defaults. Options
// given to an individual call override these.
func WithOptions(options Options) Option {
	return func(c *Client) {
		c.options = c.options.Merge(options)
	}
}

// WithTimeout sets the default whole-transfer timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.options = c.options.Merge(Options{OptTimeout: d})
	}
}

// WithConnectTimeout sets the default connection timeout
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.options = c.options.Merge(Options{OptConnectTimeout: d})
	}
}

// WithMiddleware adds middleware to the client
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithUnmarshaler sets the decoder used by Response.DecodeJSON
func WithUnmarshaler(u Unmarshaler) Option {
	return func(c *Client) {
		c.unmarshaler = u
	}
}

// WithMetrics enables Prometheus metrics collection
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithDebug enables debug logging with default configuration
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets custom debug configuration
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithLogger sets a custom logger for debug output
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging with a development console logger
func WithSimpleLogger() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}

// ValidateConfiguration validates the client configuration and returns an error if invalid
func (c *Client) ValidateConfiguration() error {
	var errors []string

	errors = append(errors, c.validateBackendConfig()...)
	errors = append(errors, c.validateTimeoutConfig()...)
	errors = append(errors, c.validateDebugConfig()...)
	errors = append(errors, c.validateMiddlewareConfig()...)
	errors = append(errors, c.validateUnmarshalerConfig()...)

	if len(errors) > 0 {
		return &ClientError{
			Type:    ErrorTypeValidation,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", errors),
		}
	}

	return nil
}

func (c *Client) validateBackendConfig() []string {
	var errors []string

	if !transfer.Available(c.backend) {
		errors = append(errors, fmt.Sprintf("backend %q is not registered (available: %v)", c.backend, transfer.Backends()))
	}

	return errors
}

// validateTimeoutConfig checks the timeouts held in the default options
func (c *Client) validateTimeoutConfig() []string {
	var errors []string

	for _, key := range []OptionKey{OptTimeout, OptConnectTimeout} {
		value, ok := c.options[key]
		if !ok {
			continue
		}
		if d, isDuration := value.(time.Duration); isDuration {
			if d < 0 {
				errors = append(errors, fmt.Sprintf("%s must be non-negative", key))
			}
			continue
		}
		if seconds, err := cast.ToFloat64E(value); err == nil {
			if seconds < 0 {
				errors = append(errors, fmt.Sprintf("%s must be non-negative", key))
			}
			continue
		}
		d, err := cast.ToDurationE(value)
		if err != nil {
			errors = append(errors, fmt.Sprintf("%s is not a duration: %v", key, err))
		} else if d < 0 {
			errors = append(errors, fmt.Sprintf("%s must be non-negative", key))
		}
	}

	return errors
}

// validateDebugConfig validates debug configuration
func (c *Client) validateDebugConfig() []string {
	var errors []string

	if c.debug != nil && c.debug.Enabled {
		if c.debug.RequestIDGen == nil {
			errors = append(errors, "debug RequestIDGen must be set when debug is enabled")
		}
		if c.logger == nil {
			errors = append(errors, "logger must be set when debug is enabled")
		}
	}

	return errors
}

// validateMiddlewareConfig validates middleware configuration
func (c *Client) validateMiddlewareConfig() []string {
	var errors []string

	for i, middleware := range c.middleware {
		if middleware == nil {
			errors = append(errors, fmt.Sprintf("middleware[%d] cannot be nil", i))
		}
	}

	return errors
}

func (c *Client) validateUnmarshalerConfig() []string {
	if c.unmarshaler == nil {
		return []string{"unmarshaler cannot be nil"}
	}
	return nil
}
