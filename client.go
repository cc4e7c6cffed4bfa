package restrequest

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/apankov/kohana-restrequest/internal/transfer"
)

// Client holds the defaults shared by the requests it creates: the transfer
// backend, default options, middleware, logging and metrics. A Client keeps
// no per-request state and is safe for concurrent use.
type Client struct {
	backend         string
	options         Options
	middleware      []Middleware
	unmarshaler     Unmarshaler
	metrics         *MetricsCollector
	debug           *DebugConfig
	logger          Logger
	validationError error
}

// DefaultClient backs the package level Get, Post, Put, Patch, Delete and Head.
var DefaultClient = New()

// New constructs a Client using the provided functional options. A best effort
// validation is performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Client {
	client := &Client{
		backend:     transfer.DefaultBackend,
		options:     Options{},
		middleware:  []Middleware{},
		unmarshaler: DefaultUnmarshaler,
		metrics:     nil,
		debug:       DefaultDebugConfig(),
		logger:      nil,
	}

	for _, option := range options {
		option(client)
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// NewRequest opens a transfer handle on the client's backend and applies
// the client's default options followed by options. It fails with an
// EnvironmentError when the backend is not available.
func (c *Client) NewRequest(options Options) (*Request, error) {
	handle, err := transfer.Open(c.backend, transfer.Config{WrapTransport: c.wrapTransport})
	if err != nil {
		return nil, &ClientError{
			Type:      ErrorTypeEnvironment,
			Message:   "transfer capability unavailable",
			Cause:     err,
			Timestamp: time.Now(),
		}
	}

	r := &Request{
		client:  c,
		handle:  handle,
		applied: Options{},
	}

	merged := defaultOptions().Merge(c.options).Merge(options)
	for _, key := range merged.keys() {
		r.Configure(key, merged[key])
	}

	return r, nil
}

// Get performs an HTTP GET. headersOnly issues a HEAD and skips the body.
func (c *Client) Get(ctx context.Context, url string, headers []string, headersOnly bool, extra Options) (*Response, error) {
	call := Options{
		OptURL:    url,
		OptNoBody: headersOnly,
	}
	if len(headers) > 0 {
		call[OptHTTPHeader] = headers
	}
	return c.perform(ctx, extra.Merge(call))
}

// Head performs a headers-only GET.
func (c *Client) Head(ctx context.Context, url string, headers []string, extra Options) (*Response, error) {
	return c.Get(ctx, url, headers, true, extra)
}

// Post performs an HTTP POST. body may be a string, []byte, url.Values or a
// map / slice that is serialized with BuildQuery.
func (c *Client) Post(ctx context.Context, url string, body any, headers []string, headersOnly bool, extra Options) (*Response, error) {
	payload, err := EncodeBody(body)
	if err != nil {
		return nil, err
	}

	call := Options{
		OptURL:        url,
		OptNoBody:     headersOnly,
		OptPost:       true,
		OptPostFields: payload,
	}
	if len(headers) > 0 {
		call[OptHTTPHeader] = headers
	}
	return c.perform(ctx, extra.Merge(call))
}

// Put performs an HTTP PUT through the POST path with a method override.
func (c *Client) Put(ctx context.Context, url string, body any, headers []string, headersOnly bool, extra Options) (*Response, error) {
	return c.customMethod(ctx, http.MethodPut, url, body, headers, headersOnly, extra)
}

// Patch performs an HTTP PATCH through the POST path with a method override.
func (c *Client) Patch(ctx context.Context, url string, body any, headers []string, headersOnly bool, extra Options) (*Response, error) {
	return c.customMethod(ctx, http.MethodPatch, url, body, headers, headersOnly, extra)
}

// Delete performs an HTTP DELETE through the POST path with a method override.
func (c *Client) Delete(ctx context.Context, url string, body any, headers []string, headersOnly bool, extra Options) (*Response, error) {
	return c.customMethod(ctx, http.MethodDelete, url, body, headers, headersOnly, extra)
}

func (c *Client) customMethod(ctx context.Context, method, url string, body any, headers []string, headersOnly bool, extra Options) (*Response, error) {
	payload, err := EncodeBody(body)
	if err != nil {
		return nil, err
	}

	extra = extra.Merge(Options{OptCustomRequest: method})
	headers = append(headers[:len(headers):len(headers)], "Content-Length: "+strconv.Itoa(len(payload)))

	return c.Post(ctx, url, payload, headers, headersOnly, extra)
}

func (c *Client) perform(ctx context.Context, options Options) (*Response, error) {
	req, err := c.NewRequest(options)
	if err != nil {
		return nil, err
	}
	defer req.Close()

	return req.Execute(ctx)
}

// execute runs one transfer on r's handle and wraps the outcome.
func (c *Client) execute(ctx context.Context, r *Request) (*Response, error) {
	start := time.Now()
	method, rawURL := r.handle.Target()
	endpoint := getEndpoint(rawURL)

	var requestID string
	if c.debugEnabled() && c.debug.RequestIDGen != nil {
		requestID = c.debug.RequestIDGen()
	}

	if c.debugEnabled() && c.debug.LogRequests {
		c.logger.Debug("Starting request", "requestID", requestID, "method", method, "url", rawURL, "endpoint", endpoint)
	}

	c.metrics.RecordRequestStart(method, endpoint)
	result, err := r.handle.Perform(ctx)
	c.metrics.RecordRequestEnd(method, endpoint)

	duration := time.Since(start)

	if err != nil {
		c.metrics.RecordRequest(method, endpoint, 0, duration)
		c.metrics.RecordError(ErrorTypeTransport, method, endpoint)

		if c.debugEnabled() {
			c.logger.Warn("Request failed", "requestID", requestID, "method", method, "url", rawURL, "error", err.Error())
		}

		return nil, c.createClientError(ErrorTypeTransport, err.Error(), err, requestID, method, rawURL, duration)
	}

	c.metrics.RecordRequest(method, endpoint, result.StatusCode, duration)
	c.metrics.RecordResponseSize(method, endpoint, len(result.Body))

	if c.debugEnabled() && c.debug.LogResponses {
		c.logger.Debug("Request completed", "requestID", requestID, "statusCode", result.StatusCode, "bytes", len(result.Body), "duration", duration)
	}

	return newResponse(result, c.unmarshaler), nil
}

func (c *Client) debugEnabled() bool {
	return c.debug != nil && c.debug.Enabled && c.logger != nil
}

// wrapTransport applies the middleware chain; the first middleware runs outermost.
func (c *Client) wrapTransport(base http.RoundTripper) http.RoundTripper {
	if len(c.middleware) == 0 {
		return base
	}

	current := RoundTripperFunc(base.RoundTrip)

	for i := len(c.middleware) - 1; i >= 0; i-- {
		middleware := c.middleware[i]
		next := current
		current = RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return middleware(r, next)
		})
	}

	return current
}

func (c *Client) createClientError(errorType, message string, cause error, requestID, method, rawURL string, duration time.Duration) *ClientError {
	return &ClientError{
		Type:      errorType,
		Message:   message,
		Cause:     cause,
		RequestID: requestID,
		Method:    method,
		URL:       rawURL,
		Endpoint:  getEndpoint(rawURL),
		Timestamp: time.Now(),
		Duration:  duration,
	}
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

// Get performs a GET with DefaultClient.
func Get(ctx context.Context, url string, headers []string, headersOnly bool, extra Options) (*Response, error) {
	return DefaultClient.Get(ctx, url, headers, headersOnly, extra)
}

// Head performs a headers-only GET with DefaultClient.
func Head(ctx context.Context, url string, headers []string, extra Options) (*Response, error) {
	return DefaultClient.Head(ctx, url, headers, extra)
}

// Post performs a POST with DefaultClient.
func Post(ctx context.Context, url string, body any, headers []string, headersOnly bool, extra Options) (*Response, error) {
	return DefaultClient.Post(ctx, url, body, headers, headersOnly, extra)
}

// Put performs a PUT with DefaultClient.
func Put(ctx context.Context, url string, body any, headers []string, headersOnly bool, extra Options) (*Response, error) {
	return DefaultClient.Put(ctx, url, body, headers, headersOnly, extra)
}

// Patch performs a PATCH with DefaultClient.
func Patch(ctx context.Context, url string, body any, headers []string, headersOnly bool, extra Options) (*Response, error) {
	return DefaultClient.Patch(ctx, url, body, headers, headersOnly, extra)
}

// Delete performs a DELETE with DefaultClient.
func Delete(ctx context.Context, url string, body any, headers []string, headersOnly bool, extra Options) (*Response, error) {
	return DefaultClient.Delete(ctx, url, body, headers, headersOnly, extra)
}

func getEndpoint(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}

	var builder strings.Builder
	builder.WriteString(u.Host)

	if u.Path != "" && u.Path != "/" {
		builder.WriteString(u.Path)
	} else {
		builder.WriteByte('/')
	}

	return builder.String()
}
