package restrequest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetricsCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewMetricsCollectorWithRegistry(registry)

	if collector == nil {
		t.Fatal("NewMetricsCollectorWithRegistry() returned nil")
	}

	if collector.requestsTotal == nil {
		t.Error("requestsTotal metric not initialized")
	}

	if collector.requestDuration == nil {
		t.Error("requestDuration metric not initialized")
	}

	if collector.requestsInFlight == nil {
		t.Error("requestsInFlight metric not initialized")
	}

	if collector.responseSize == nil {
		t.Error("responseSize metric not initialized")
	}

	if collector.errorsTotal == nil {
		t.Error("errorsTotal metric not initialized")
	}
}

func TestGetRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewMetricsCollectorWithRegistry(registry)

	if collector.GetRegistry() != registry {
		t.Error("GetRegistry() returned wrong registry")
	}

	var missing *MetricsCollector
	if missing.GetRegistry() != nil {
		t.Error("Expected nil registry from a nil collector")
	}

	wrapped := NewMetricsCollectorWithRegistry(prometheus.WrapRegistererWithPrefix("app_", prometheus.NewRegistry()))
	if wrapped.GetRegistry() != nil {
		t.Error("Expected nil registry for a non *prometheus.Registry registerer")
	}
}

func TestRecordRequest(t *testing.T) {
	collector := NewMetricsCollectorWithRegistry(prometheus.NewRegistry())

	collector.RecordRequest("GET", "example.com/api", 200, 100*time.Millisecond)
	collector.RecordRequest("GET", "example.com/api", 200, 50*time.Millisecond)

	if got := testutil.ToFloat64(collector.requestsTotal.WithLabelValues("GET", "200", "example.com/api")); got != 2 {
		t.Errorf("Expected 2 requests, got %v", got)
	}
}

func TestRecordRequestInFlight(t *testing.T) {
	collector := NewMetricsCollectorWithRegistry(prometheus.NewRegistry())
	gauge := collector.requestsInFlight.WithLabelValues("POST", "example.com/api")

	collector.RecordRequestStart("POST", "example.com/api")
	if got := testutil.ToFloat64(gauge); got != 1 {
		t.Errorf("Expected 1 in flight, got %v", got)
	}

	collector.RecordRequestEnd("POST", "example.com/api")
	if got := testutil.ToFloat64(gauge); got != 0 {
		t.Errorf("Expected 0 in flight, got %v", got)
	}
}

func TestRecordError(t *testing.T) {
	collector := NewMetricsCollectorWithRegistry(prometheus.NewRegistry())

	collector.RecordError(ErrorTypeTransport, "GET", "example.com/api")

	if got := testutil.ToFloat64(collector.errorsTotal.WithLabelValues(ErrorTypeTransport, "GET", "example.com/api")); got != 1 {
		t.Errorf("Expected 1 error, got %v", got)
	}
}

func TestMetricsCollectorWithNil(t *testing.T) {
	var collector *MetricsCollector

	collector.RecordRequest("GET", "test", 200, time.Second)
	collector.RecordRequestStart("GET", "test")
	collector.RecordRequestEnd("GET", "test")
	collector.RecordResponseSize("GET", "test", 10)
	collector.RecordError("test", "GET", "test")
}

func TestMetricsIntegration(t *testing.T) {
	registry := prometheus.NewRegistry()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("OK"))
	}))
	defer server.Close()

	collector := NewMetricsCollectorWithRegistry(registry)
	client := New(WithMetricsCollector(collector))

	resp, err := client.Get(context.Background(), server.URL+"/things", nil, false, nil)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", resp.StatusCode())
	}

	endpoint := getEndpoint(server.URL + "/things")
	if got := testutil.ToFloat64(collector.requestsTotal.WithLabelValues("GET", "201", endpoint)); got != 1 {
		t.Errorf("Expected 1 recorded request, got %v", got)
	}
	if got := testutil.ToFloat64(collector.requestsInFlight.WithLabelValues("GET", endpoint)); got != 0 {
		t.Errorf("Expected 0 in flight after completion, got %v", got)
	}

	if n := testutil.CollectAndCount(collector.responseSize); n != 1 {
		t.Errorf("Expected 1 response size series, got %d", n)
	}
}

func TestMetricsTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	collector := NewMetricsCollectorWithRegistry(prometheus.NewRegistry())
	client := New(WithMetricsCollector(collector))

	if _, err := client.Get(context.Background(), url, nil, false, nil); err == nil {
		t.Fatal("Expected transport error")
	}

	endpoint := getEndpoint(url)
	if got := testutil.ToFloat64(collector.errorsTotal.WithLabelValues(ErrorTypeTransport, "GET", endpoint)); got != 1 {
		t.Errorf("Expected 1 transport error, got %v", got)
	}
	if got := testutil.ToFloat64(collector.requestsTotal.WithLabelValues("GET", "0", endpoint)); got != 1 {
		t.Errorf("Expected failed request recorded with status 0, got %v", got)
	}
}

func TestMetricsRegisteredNames(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewMetricsCollectorWithRegistry(registry)

	collector.RecordRequest("GET", "e", 200, time.Millisecond)
	collector.RecordRequestStart("GET", "e")
	collector.RecordResponseSize("GET", "e", 128)
	collector.RecordError(ErrorTypeParse, "GET", "e")

	families, err := registry.Gather()
	if err != nil {
		t.Fatal(err)
	}

	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}

	for _, want := range []string{
		"restrequest_requests_total",
		"restrequest_request_duration_seconds",
		"restrequest_requests_in_flight",
		"restrequest_response_size_bytes",
		"restrequest_errors_total",
	} {
		if !names[want] {
			t.Errorf("Expected metric %s to be registered", want)
		}
	}
}
