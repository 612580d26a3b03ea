package telemetry

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrument(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("teapot", "4xx"))

	h := Instrument("teapot", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("teapot", "4xx"))
	if after != before+1 {
		t.Fatalf("teapot 4xx counter should be %v, not %v", before+1, after)
	}
}

func TestMetricsHandler(t *testing.T) {
	SetBuildInfo("test")
	MessagesDropped.Inc()

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := ioutil.ReadAll(rec.Body)
	for _, name := range []string{
		"murmur_messages_dropped_total",
		`murmur_build_info{version="test"} 1`,
		"murmur_uptime_seconds",
	} {
		if !strings.Contains(string(body), name) {
			t.Fatalf("metrics output should contain %q", name)
		}
	}
}
