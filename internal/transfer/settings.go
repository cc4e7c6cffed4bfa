package transfer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

const (
	defaultMaxRedirects = 10
	formContentType     = "application/x-www-form-urlencoded"
)

// Settings is the option state shared by all backends.
type Settings struct {
	URL            string
	CustomRequest  string
	Post           bool
	Body           []byte
	HasBody        bool
	NoBody         bool
	IncludeHeader  bool
	Timeout        time.Duration
	ConnectTimeout time.Duration
	Proxy          string
	VerifyPeer     bool
	FollowLocation bool
	MaxRedirects   int
	UserAgent      string
	Referer        string
	UserPwd        string
	Cookie         string
	Version        Version

	headers headerLines
}

// NewSettings returns settings with cURL's defaults.
func NewSettings() *Settings {
	return &Settings{
		VerifyPeer:   true,
		MaxRedirects: -1,
	}
}

// Set coerces value to the type of key and stores it.
func (s *Settings) Set(key Key, value any) error {
	var err error

	switch key {
	case URL:
		s.URL, err = cast.ToStringE(value)
	case CustomRequest:
		s.CustomRequest, err = cast.ToStringE(value)
	case HTTPHeader:
		var lines []string
		if lines, err = toLines(value); err == nil {
			s.headers, err = parseHeaderLines(lines)
		}
	case Post:
		s.Post, err = cast.ToBoolE(value)
	case PostFields:
		var body []byte
		if body, err = toBytes(value); err == nil {
			s.Body, s.HasBody, s.Post = body, true, true
		}
	case NoBody:
		s.NoBody, err = cast.ToBoolE(value)
	case Header:
		s.IncludeHeader, err = cast.ToBoolE(value)
	case Timeout:
		s.Timeout, err = toDuration(value)
	case ConnectTimeout:
		s.ConnectTimeout, err = toDuration(value)
	case Proxy:
		s.Proxy, err = cast.ToStringE(value)
	case SSLVerifyPeer:
		s.VerifyPeer, err = cast.ToBoolE(value)
	case FollowLocation:
		s.FollowLocation, err = cast.ToBoolE(value)
	case MaxRedirs:
		s.MaxRedirects, err = cast.ToIntE(value)
	case UserAgent:
		s.UserAgent, err = cast.ToStringE(value)
	case Referer:
		s.Referer, err = cast.ToStringE(value)
	case UserPwd:
		s.UserPwd, err = cast.ToStringE(value)
	case Cookie:
		s.Cookie, err = cast.ToStringE(value)
	case HTTPVersion:
		var v int
		if version, ok := value.(Version); ok {
			v = int(version)
		} else if v, err = cast.ToIntE(value); err != nil {
			break
		}
		if v < int(VersionNone) || v > int(Version2) {
			err = fmt.Errorf("unsupported version %d", v)
			break
		}
		s.Version = Version(v)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOption, key)
	}

	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
	}
	return nil
}

// Method resolves the request method: CustomRequest wins, then a POST,
// then HEAD for headers-only transfers, then GET.
func (s *Settings) Method() string {
	switch {
	case s.CustomRequest != "":
		return s.CustomRequest
	case s.Post:
		return http.MethodPost
	case s.NoBody:
		return http.MethodHead
	default:
		return http.MethodGet
	}
}

func (s *Settings) sendsBody() bool {
	return s.HasBody && s.Method() != http.MethodHead
}

// RequestHeader builds the outgoing header set: defaults derived from
// options first, then the caller's header lines on top.
func (s *Settings) RequestHeader() http.Header {
	h := make(http.Header)

	if s.UserAgent != "" {
		h.Set("User-Agent", s.UserAgent)
	}
	if s.Referer != "" {
		h.Set("Referer", s.Referer)
	}
	if s.Cookie != "" {
		h.Set("Cookie", s.Cookie)
	}
	if s.UserPwd != "" {
		h.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(s.UserPwd)))
	}
	if s.sendsBody() && s.Post {
		h.Set("Content-Type", formContentType)
	}

	s.headers.apply(h)
	return h
}

// NewHTTPRequest builds the *http.Request for the current settings.
func (s *Settings) NewHTTPRequest(ctx context.Context) (*http.Request, error) {
	if s.URL == "" {
		return nil, ErrNoURL
	}

	var body io.Reader
	if s.sendsBody() {
		body = bytes.NewReader(s.Body)
	}

	req, err := http.NewRequestWithContext(ctx, s.Method(), s.URL, body)
	if err != nil {
		return nil, err
	}

	req.Header = s.RequestHeader()
	s.applyContentLength(req)

	return req, nil
}

// applyContentLength copies a Content-Length header line onto req. net/http
// drops Content-Length: 0 for methods other than POST, PUT and PATCH unless
// the transfer encoding is explicitly identity.
func (s *Settings) applyContentLength(req *http.Request) {
	if s.headers.contentLength < 0 || !s.sendsBody() {
		return
	}

	req.ContentLength = s.headers.contentLength
	if req.ContentLength == 0 {
		req.Body = http.NoBody
		req.GetBody = func() (io.ReadCloser, error) { return http.NoBody, nil }
		req.TransferEncoding = []string{"identity"}
	}
}

// CheckRedirect is the http.Client redirect policy for the settings.
func (s *Settings) CheckRedirect(_ *http.Request, via []*http.Request) error {
	if !s.FollowLocation {
		return http.ErrUseLastResponse
	}

	limit := s.MaxRedirects
	if limit < 0 {
		limit = defaultMaxRedirects
	}
	if len(via) > limit {
		return fmt.Errorf("maximum (%d) redirects followed", limit)
	}
	return nil
}

func toLines(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return append([]string(nil), v...), nil
	case http.Header:
		lines := make([]string, 0, len(v))
		for name, values := range v {
			for _, val := range values {
				lines = append(lines, name+": "+val)
			}
		}
		return lines, nil
	default:
		return cast.ToStringSliceE(value)
	}
}

func toBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return []byte{}, nil
	case []byte:
		return append([]byte{}, v...), nil
	case string:
		return []byte(v), nil
	default:
		str, err := cast.ToStringE(value)
		if err != nil {
			return nil, err
		}
		return []byte(str), nil
	}
}

// toDuration follows cURL: bare numbers are seconds.
func toDuration(value any) (time.Duration, error) {
	var d time.Duration

	switch v := value.(type) {
	case time.Duration:
		d = v
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, err := cast.ToInt64E(v)
		if err != nil {
			return 0, err
		}
		d = time.Duration(n) * time.Second
	case float32, float64:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, err
		}
		d = time.Duration(f * float64(time.Second))
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			d = time.Duration(f * float64(time.Second))
			break
		}
		parsed, err := cast.ToDurationE(v)
		if err != nil {
			return 0, err
		}
		d = parsed
	default:
		parsed, err := cast.ToDurationE(value)
		if err != nil {
			return 0, err
		}
		d = parsed
	}

	if d < 0 {
		return 0, fmt.Errorf("negative duration %v", d)
	}
	return d, nil
}
