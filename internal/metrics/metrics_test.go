package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func getGaugeValue(g prometheus.Gauge) float64 {
	var m dto.Metric
	if err := g.(prometheus.Metric).Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

func getCounterVecValue(cv *prometheus.CounterVec, labels ...string) float64 {
	c, err := cv.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0
	}
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func getHistogramCount(h prometheus.Histogram) uint64 {
	var m dto.Metric
	if err := h.(prometheus.Metric).Write(&m); err != nil {
		return 0
	}
	return m.GetHistogram().GetSampleCount()
}

func TestMetrics_RequestsTotal(t *testing.T) {
	before := getCounterVecValue(RequestsTotal, "video", "done")
	RequestsTotal.WithLabelValues("video", "done").Inc()
	after := getCounterVecValue(RequestsTotal, "video", "done")

	if after != before+1 {
		t.Errorf("Expected done counter to increment by 1, got diff %.0f", after-before)
	}
}

func TestMetrics_ItemsTotal(t *testing.T) {
	for _, status := range []string{"success", "error", "retry"} {
		before := getCounterVecValue(ItemsTotal, status)
		ItemsTotal.WithLabelValues(status).Inc()
		after := getCounterVecValue(ItemsTotal, status)

		if after != before+1 {
			t.Errorf("Expected %s counter to increment by 1, got diff %.0f", status, after-before)
		}
	}
}

func TestMetrics_ArchiveBytes(t *testing.T) {
	before := getHistogramCount(ArchiveBytes)
	ArchiveBytes.Observe(3 << 20)
	after := getHistogramCount(ArchiveBytes)

	if after != before+1 {
		t.Errorf("Expected one more archive observation, got diff %d", after-before)
	}
}

func TestMetrics_ActiveRequests(t *testing.T) {
	ActiveRequests.Set(3)
	if val := getGaugeValue(ActiveRequests); val != 3 {
		t.Errorf("Expected active requests to be 3, got %.0f", val)
	}
	ActiveRequests.Set(0)
}

func TestMetrics_NewHTTPServer(t *testing.T) {
	srv := NewHTTPServer("localhost", 9090)

	if srv.Addr != "localhost:9090" {
		t.Errorf("Expected address 'localhost:9090', got '%s'", srv.Addr)
	}

	if srv.Handler == nil {
		t.Error("Expected handler to be set")
	}
}

func TestMetrics_NewHTTPServer_DefaultPort(t *testing.T) {
	srv := NewHTTPServer("0.0.0.0", 0)

	if srv.Addr != "0.0.0.0:9090" {
		t.Errorf("Expected address '0.0.0.0:9090', got '%s'", srv.Addr)
	}
}

func TestMetrics_HandlerExposesEngineMetrics(t *testing.T) {
	MetadataFetchesTotal.WithLabelValues("success").Inc()

	srv := NewHTTPServer("localhost", 0)
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "mediafetch_metadata_fetches_total") {
		t.Error("Expected /metrics to expose mediafetch_metadata_fetches_total")
	}
}

func TestMetrics_Healthz(t *testing.T) {
	ts := httptest.NewServer(NewHTTPServer("localhost", 0).Handler)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}
