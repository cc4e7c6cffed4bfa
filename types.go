package restrequest

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/apankov/kohana-restrequest/internal/transfer"
)

// OptionKey identifies a transfer option in an Options mapping.
type OptionKey = transfer.Key

// Transfer option identifiers.
const (
	OptURL            = transfer.URL
	OptCustomRequest  = transfer.CustomRequest  // method override
	OptHTTPHeader     = transfer.HTTPHeader     // []string of "Name: value" lines
	OptPost           = transfer.Post           // bool
	OptPostFields     = transfer.PostFields     // string or []byte body, implies OptPost
	OptNoBody         = transfer.NoBody         // headers-only
	OptHeader         = transfer.Header         // echo status line and headers before the body
	OptTimeout        = transfer.Timeout        // time.Duration, or seconds
	OptConnectTimeout = transfer.ConnectTimeout // time.Duration, or seconds
	OptProxy          = transfer.Proxy
	OptSSLVerifyPeer  = transfer.SSLVerifyPeer
	OptFollowLocation = transfer.FollowLocation
	OptMaxRedirs      = transfer.MaxRedirs
	OptUserAgent      = transfer.UserAgent
	OptReferer        = transfer.Referer
	OptUserPwd        = transfer.UserPwd // "user:password" basic auth
	OptCookie         = transfer.Cookie
	OptHTTPVersion    = transfer.HTTPVersion
)

// HTTPVersion values for OptHTTPVersion.
const (
	HTTPVersionNone = transfer.VersionNone
	HTTPVersion11   = transfer.Version11
	HTTPVersion2    = transfer.Version2
)

// Backend names accepted by WithBackend.
const (
	BackendNetHTTP = transfer.NetHTTP
	BackendResty   = transfer.Resty
)

// Options maps transfer option identifiers to values.
type Options map[OptionKey]any

// Merge returns a new mapping holding o overlaid with over. Keys in over win.
func (o Options) Merge(over Options) Options {
	merged := make(Options, len(o)+len(over))
	for k, v := range o {
		merged[k] = v
	}
	for k, v := range over {
		merged[k] = v
	}
	return merged
}

// keys returns the option identifiers in ascending order so that options
// are always applied in the same sequence.
func (o Options) keys() []OptionKey {
	keys := make([]OptionKey, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// defaultOptions are applied under every request's options.
func defaultOptions() Options {
	return Options{OptHeader: false}
}

// Option configures a Client.
type Option func(*Client)

// Middleware wraps the transfer's round trip.
type Middleware func(req *http.Request, next RoundTripper) (*http.Response, error)

// RoundTripper represents the HTTP transport interface
type RoundTripper interface {
	RoundTrip(*http.Request) (*http.Response, error)
}

// RoundTripperFunc is a helper type for middleware
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Unmarshaler decodes JSON response bodies.
type Unmarshaler interface {
	Unmarshal(data []byte, v any) error
}

type jsonUnmarshaler struct{}

func (jsonUnmarshaler) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// DefaultUnmarshaler decodes with encoding/json.
var DefaultUnmarshaler Unmarshaler = jsonUnmarshaler{}
