package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersAndExposition(t *testing.T) {
	c := New()
	c.EffectFailed("notify")
	c.EffectFailed("notify")
	c.VersionTransition("approved")
	c.ObserveHTTP("GET", "/api/projects", "200", 0.01)

	if got := testutil.ToFloat64(c.effectFails.WithLabelValues("notify")); got != 2 {
		t.Fatalf("notify failures = %v", got)
	}
	if got := testutil.ToFloat64(c.transitions.WithLabelValues("approved")); got != 1 {
		t.Fatalf("approved transitions = %v", got)
	}

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"nexus_side_effect_failures_total", "nexus_http_request_duration_seconds", "go_goroutines"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %s", want)
		}
	}
}
