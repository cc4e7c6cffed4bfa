package transfer

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http2"
)

// TransportSettings tunes the connection level behaviour of a transfer.
type TransportSettings struct {
	Connect        time.Duration
	ConnKeepAlive  time.Duration
	ExpectContinue time.Duration
	IdleConn       time.Duration
	TLSHandshake   time.Duration
}

// DefaultTransportSettings mirrors net/http's DefaultTransport.
var DefaultTransportSettings = TransportSettings{
	Connect:        30 * time.Second,
	ConnKeepAlive:  30 * time.Second,
	ExpectContinue: 1 * time.Second,
	IdleConn:       90 * time.Second,
	TLSHandshake:   10 * time.Second,
}

// NewTransport builds a fresh *http.Transport for the settings. Each handle
// owns its transport so that no connection state leaks between handles.
func (s *Settings) NewTransport() (*http.Transport, error) {
	ts := DefaultTransportSettings
	if s.ConnectTimeout > 0 {
		ts.Connect = s.ConnectTimeout
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   ts.Connect,
			KeepAlive: ts.ConnKeepAlive,
		}).DialContext,
		IdleConnTimeout:       ts.IdleConn,
		TLSHandshakeTimeout:   ts.TLSHandshake,
		ExpectContinueTimeout: ts.ExpectContinue,
		DisableCompression:    s.headers.removes("Accept-Encoding"),
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !s.VerifyPeer, //nolint:gosec // opt-in through SSLVerifyPeer
		},
	}

	if s.Proxy != "" {
		proxyURL, err := parseProxy(s.Proxy)
		if err != nil {
			return nil, err
		}
		tr.Proxy = http.ProxyURL(proxyURL)
	}

	switch s.Version {
	case Version2:
		if err := http2.ConfigureTransport(tr); err != nil {
			return nil, fmt.Errorf("configure http2: %w", err)
		}
	case Version11:
		tr.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
	}

	return tr, nil
}

// parseProxy accepts "host:port" the way cURL does, defaulting to http://.
func parseProxy(raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse proxy %q: %w", raw, err)
	}
	return u, nil
}
