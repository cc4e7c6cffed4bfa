package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// netHTTPHandle performs transfers with net/http.
type netHTTPHandle struct {
	cfg       Config
	settings  *Settings
	transport *http.Transport
}

func newNetHTTPHandle(cfg Config) (Handle, error) {
	return &netHTTPHandle{
		cfg:      cfg,
		settings: NewSettings(),
	}, nil
}

func (h *netHTTPHandle) Set(key Key, value any) error {
	return h.settings.Set(key, value)
}

func (h *netHTTPHandle) Target() (string, string) {
	return h.settings.Method(), h.settings.URL
}

func (h *netHTTPHandle) Perform(ctx context.Context) (*Result, error) {
	s := h.settings

	req, err := s.NewHTTPRequest(ctx)
	if err != nil {
		return nil, err
	}

	tr, err := s.NewTransport()
	if err != nil {
		return nil, err
	}
	h.closeTransport()
	h.transport = tr

	client := &http.Client{
		Transport:     h.cfg.wrap(tr),
		Timeout:       s.Timeout,
		CheckRedirect: s.CheckRedirect,
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body []byte
	if !s.NoBody {
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
	}

	return newResult(s, resp.Proto, resp.Status, resp.StatusCode, resp.Header, body), nil
}

func (h *netHTTPHandle) Close() error {
	h.closeTransport()
	return nil
}

func (h *netHTTPHandle) closeTransport() {
	if h.transport != nil {
		h.transport.CloseIdleConnections()
		h.transport = nil
	}
}
