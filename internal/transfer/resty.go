package transfer

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// restyHandle performs transfers with go-resty. The connection layer is the
// same *http.Transport the net/http backend builds; resty drives the request.
type restyHandle struct {
	cfg       Config
	settings  *Settings
	transport *http.Transport
}

func newRestyHandle(cfg Config) (Handle, error) {
	return &restyHandle{
		cfg:      cfg,
		settings: NewSettings(),
	}, nil
}

func (h *restyHandle) Set(key Key, value any) error {
	return h.settings.Set(key, value)
}

func (h *restyHandle) Target() (string, string) {
	return h.settings.Method(), h.settings.URL
}

func (h *restyHandle) Perform(ctx context.Context) (*Result, error) {
	s := h.settings
	if s.URL == "" {
		return nil, ErrNoURL
	}

	tr, err := s.NewTransport()
	if err != nil {
		return nil, err
	}
	h.closeTransport()
	h.transport = tr

	client := resty.New().
		SetTransport(h.cfg.wrap(tr)).
		SetTimeout(s.Timeout).
		SetRedirectPolicy(resty.RedirectPolicyFunc(s.CheckRedirect)).
		SetPreRequestHook(func(_ *resty.Client, req *http.Request) error {
			s.applyContentLength(req)
			return nil
		})

	req := client.R().SetContext(ctx)
	req.Header = s.RequestHeader()
	if s.sendsBody() {
		req.SetBody(s.Body)
	}
	if s.NoBody {
		req.SetDoNotParseResponse(true)
	}

	resp, err := req.Execute(s.Method(), s.URL)
	if err != nil {
		return nil, err
	}

	var body []byte
	if s.NoBody {
		if raw := resp.RawBody(); raw != nil {
			raw.Close()
		}
	} else {
		body = resp.Body()
	}

	return newResult(s, resp.Proto(), resp.Status(), resp.StatusCode(), resp.Header(), body), nil
}

func (h *restyHandle) Close() error {
	h.closeTransport()
	return nil
}

func (h *restyHandle) closeTransport() {
	if h.transport != nil {
		h.transport.CloseIdleConnections()
		h.transport = nil
	}
}
