package restrequest

import (
	"context"
	"fmt"
	"time"

	"github.com/apankov/kohana-restrequest/internal/transfer"
)

// Request owns one transfer handle. Configure it, Execute it, Close it.
// A Request is not safe for concurrent use; the Responses it returns are.
type Request struct {
	client  *Client
	handle  transfer.Handle
	applied Options
	err     error
}

// NewRequest opens a request on a client built from opts.
func NewRequest(options Options, opts ...Option) (*Request, error) {
	return New(opts...).NewRequest(options)
}

// Configure applies a single option to the handle and returns r for chaining.
// The first rejected option is kept and reported by Err and Execute.
func (r *Request) Configure(key OptionKey, value any) *Request {
	if err := r.handle.Set(key, value); err != nil {
		if r.err == nil {
			r.err = &ClientError{
				Type:      ErrorTypeOption,
				Message:   fmt.Sprintf("cannot set %s", key),
				Cause:     err,
				Timestamp: time.Now(),
			}
		}
		return r
	}

	r.applied[key] = value
	return r
}

// Err returns the first configuration error, if any.
func (r *Request) Err() error {
	return r.err
}

// Options returns a copy of the options applied so far.
func (r *Request) Options() Options {
	return Options{}.Merge(r.applied)
}

// Execute performs the blocking transfer. Transport failures come back as a
// TransportError carrying the backend's diagnostic message.
func (r *Request) Execute(ctx context.Context) (*Response, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.client.execute(ctx, r)
}

// Close releases the handle's connections.
func (r *Request) Close() error {
	return r.handle.Close()
}
