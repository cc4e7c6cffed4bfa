package transfer

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsDefaults(t *testing.T) {
	t.Parallel()

	s := NewSettings()

	assert.True(t, s.VerifyPeer)
	assert.False(t, s.FollowLocation)
	assert.False(t, s.IncludeHeader)
	assert.Equal(t, -1, s.MaxRedirects)
	assert.Equal(t, http.MethodGet, s.Method())
}

func TestSettingsMethod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		options  map[Key]any
		expected string
	}{
		{"plain get", nil, http.MethodGet},
		{"headers only get", map[Key]any{NoBody: true}, http.MethodHead},
		{"post flag", map[Key]any{Post: true}, http.MethodPost},
		{"post fields imply post", map[Key]any{PostFields: "a=1"}, http.MethodPost},
		{"headers only post keeps post", map[Key]any{Post: true, NoBody: true}, http.MethodPost},
		{"custom request wins", map[Key]any{Post: true, CustomRequest: "PUT"}, http.MethodPut},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewSettings()
			for key, value := range tt.options {
				require.NoError(t, s.Set(key, value))
			}
			assert.Equal(t, tt.expected, s.Method())
		})
	}
}

func TestSettingsCoercion(t *testing.T) {
	t.Parallel()

	s := NewSettings()

	require.NoError(t, s.Set(Timeout, 5))
	assert.Equal(t, 5*time.Second, s.Timeout)

	require.NoError(t, s.Set(Timeout, "1.5"))
	assert.Equal(t, 1500*time.Millisecond, s.Timeout)

	require.NoError(t, s.Set(Timeout, "250ms"))
	assert.Equal(t, 250*time.Millisecond, s.Timeout)

	require.NoError(t, s.Set(ConnectTimeout, 2*time.Second))
	assert.Equal(t, 2*time.Second, s.ConnectTimeout)

	require.NoError(t, s.Set(SSLVerifyPeer, "false"))
	assert.False(t, s.VerifyPeer)

	require.NoError(t, s.Set(MaxRedirs, "3"))
	assert.Equal(t, 3, s.MaxRedirects)

	require.NoError(t, s.Set(HTTPVersion, Version2))
	assert.Equal(t, Version2, s.Version)

	require.NoError(t, s.Set(PostFields, []byte("raw")))
	assert.Equal(t, []byte("raw"), s.Body)
	assert.True(t, s.Post)
}

func TestSettingsInvalidValues(t *testing.T) {
	t.Parallel()

	s := NewSettings()

	err := s.Set(Timeout, "soon")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidValue))

	err = s.Set(Timeout, -3)
	assert.ErrorIs(t, err, ErrInvalidValue)

	err = s.Set(HTTPVersion, 7)
	assert.ErrorIs(t, err, ErrInvalidValue)

	err = s.Set(HTTPHeader, []string{"no separator here"})
	assert.ErrorIs(t, err, ErrInvalidValue)

	err = s.Set(Key(999), "x")
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestSettingsRequestHeader(t *testing.T) {
	t.Parallel()

	s := NewSettings()
	require.NoError(t, s.Set(UserAgent, "agent/1.0"))
	require.NoError(t, s.Set(UserPwd, "user:secret"))
	require.NoError(t, s.Set(PostFields, "a=1"))
	require.NoError(t, s.Set(HTTPHeader, []string{
		"X-Trace: one",
		"X-Trace: two",
		"User-Agent: override",
		"Content-Type:",
		"X-Empty;",
	}))

	h := s.RequestHeader()

	assert.Equal(t, []string{"one", "two"}, h.Values("X-Trace"))
	assert.Equal(t, "override", h.Get("User-Agent"))
	assert.Equal(t, "Basic dXNlcjpzZWNyZXQ=", h.Get("Authorization"))
	assert.Empty(t, h.Values("Content-Type"))
	assert.Equal(t, []string{""}, h.Values("X-Empty"))
}

func TestSettingsDefaultFormContentType(t *testing.T) {
	t.Parallel()

	s := NewSettings()
	require.NoError(t, s.Set(PostFields, "a=1&b=2"))
	require.NoError(t, s.Set(CustomRequest, "PATCH"))

	assert.Equal(t, formContentType, s.RequestHeader().Get("Content-Type"))
}

func TestSettingsNewHTTPRequest(t *testing.T) {
	t.Parallel()

	s := NewSettings()
	_, err := s.NewHTTPRequest(context.Background())
	require.ErrorIs(t, err, ErrNoURL)

	require.NoError(t, s.Set(URL, "http://example.com/items"))
	require.NoError(t, s.Set(CustomRequest, "DELETE"))
	require.NoError(t, s.Set(PostFields, "id=7"))
	require.NoError(t, s.Set(HTTPHeader, []string{"Content-Length: 4"}))

	req, err := s.NewHTTPRequest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, int64(4), req.ContentLength)
}

func TestSettingsCheckRedirect(t *testing.T) {
	t.Parallel()

	s := NewSettings()
	assert.ErrorIs(t, s.CheckRedirect(nil, nil), http.ErrUseLastResponse)

	require.NoError(t, s.Set(FollowLocation, true))
	require.NoError(t, s.Set(MaxRedirs, 1))

	assert.NoError(t, s.CheckRedirect(nil, make([]*http.Request, 1)))
	assert.Error(t, s.CheckRedirect(nil, make([]*http.Request, 2)))
}

func TestKeyString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "CUSTOMREQUEST", CustomRequest.String())
	assert.Equal(t, "Key(999)", Key(999).String())
}
