package transfer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

const (
	// NetHTTP is the net/http backend.
	NetHTTP = "nethttp"
	// Resty is the go-resty backend.
	Resty = "resty"
	// DefaultBackend is used when no backend name is given.
	DefaultBackend = NetHTTP
)

// Constructor opens a new handle on a backend.
type Constructor func(cfg Config) (Handle, error)

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{}
)

func init() {
	Register(NetHTTP, newNetHTTPHandle)
	Register(Resty, newRestyHandle)
}

// Register makes a backend available under name. Names are case-insensitive;
// registering an existing name replaces it.
func Register(name string, ctor Constructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(name)] = ctor
}

// Unregister removes a backend.
func Unregister(name string) {
	mu.Lock()
	defer mu.Unlock()
	delete(registry, strings.ToLower(name))
}

// Available reports whether a backend is registered under name.
func Available(name string) bool {
	name = normalize(name)
	mu.RLock()
	defer mu.RUnlock()
	_, ok := registry[name]
	return ok
}

// Open constructs a handle on the named backend.
func Open(name string, cfg Config) (Handle, error) {
	name = normalize(name)

	mu.RLock()
	ctor, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q not registered (available: %v)", ErrUnavailable, name, Backends())
	}

	h, err := ctor(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnavailable, name, err)
	}
	if h == nil {
		return nil, errors.New("transfer: backend constructor returned nil")
	}
	return h, nil
}

// Backends lists the registered backend names in sorted order.
func Backends() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultBackend
	}
	return name
}
