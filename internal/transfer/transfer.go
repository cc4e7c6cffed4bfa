// Package transfer hides the HTTP transfer library behind a small handle
// interface: options are applied one at a time, then a single blocking
// Perform call executes the transfer.
package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Key identifies a transfer option.
type Key int

const (
	URL Key = iota + 1
	CustomRequest
	HTTPHeader
	Post
	PostFields
	NoBody
	Header
	Timeout
	ConnectTimeout
	Proxy
	SSLVerifyPeer
	FollowLocation
	MaxRedirs
	UserAgent
	Referer
	UserPwd
	Cookie
	HTTPVersion
)

var keyNames = map[Key]string{
	URL:            "URL",
	CustomRequest:  "CUSTOMREQUEST",
	HTTPHeader:     "HTTPHEADER",
	Post:           "POST",
	PostFields:     "POSTFIELDS",
	NoBody:         "NOBODY",
	Header:         "HEADER",
	Timeout:        "TIMEOUT",
	ConnectTimeout: "CONNECTTIMEOUT",
	Proxy:          "PROXY",
	SSLVerifyPeer:  "SSL_VERIFYPEER",
	FollowLocation: "FOLLOWLOCATION",
	MaxRedirs:      "MAXREDIRS",
	UserAgent:      "USERAGENT",
	Referer:        "REFERER",
	UserPwd:        "USERPWD",
	Cookie:         "COOKIE",
	HTTPVersion:    "HTTP_VERSION",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Key(%d)", int(k))
}

// Version selects the HTTP protocol version for HTTPVersion.
type Version int

const (
	VersionNone Version = iota
	Version11
	Version2
)

var (
	// ErrUnavailable is returned by Open when no backend is registered under the requested name.
	ErrUnavailable = errors.New("transfer: backend unavailable")

	// ErrUnknownOption is returned by Handle.Set for keys the handle does not understand.
	ErrUnknownOption = errors.New("transfer: unknown option")

	// ErrInvalidValue is returned by Handle.Set when a value cannot be coerced to the option's type.
	ErrInvalidValue = errors.New("transfer: invalid option value")

	// ErrNoURL is returned by Perform when URL was never set.
	ErrNoURL = errors.New("transfer: no URL set")
)

// Handle is an open transfer session.
type Handle interface {
	Set(key Key, value any) error
	Perform(ctx context.Context) (*Result, error)
	// Target reports the method and URL the next Perform will use.
	Target() (method, url string)
	Close() error
}

// Config carries the caller side hooks every backend honours.
type Config struct {
	// WrapTransport, when set, wraps the backend's round tripper (middleware).
	WrapTransport func(http.RoundTripper) http.RoundTripper
}

func (c Config) wrap(rt http.RoundTripper) http.RoundTripper {
	if c.WrapTransport == nil {
		return rt
	}
	return c.WrapTransport(rt)
}

// Result is the outcome of one completed transfer.
type Result struct {
	Body       []byte
	StatusCode int
	Status     string
	Header     http.Header
	Proto      string
}

func newResult(s *Settings, proto, status string, code int, header http.Header, body []byte) *Result {
	if s.IncludeHeader {
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "%s %s\r\n", proto, status)
		_ = header.Write(&buf)
		buf.WriteString("\r\n")
		buf.Write(body)
		body = buf.Bytes()
	}
	if body == nil {
		body = []byte{}
	}

	return &Result{
		Body:       body,
		StatusCode: code,
		Status:     status,
		Header:     header,
		Proto:      proto,
	}
}
