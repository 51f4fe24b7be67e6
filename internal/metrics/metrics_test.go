package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected metrics handler to return 200, got %d", rr.Code)
	}
	return rr.Body.String()
}

func TestCollectorRecordsRequests(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	handlerInvoked := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerInvoked = true
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/catalog", nil)
	rr := httptest.NewRecorder()
	collector.InstrumentHandler(handler, []string{"/api/catalog"}, nil).ServeHTTP(rr, req)

	if !handlerInvoked {
		t.Fatal("expected handler to be invoked")
	}
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, rr.Code)
	}

	body := scrape(t, collector)
	if !strings.Contains(body, `forecast_dashboard_http_requests_total{method="GET",path="/api/catalog",status="202"} 1`) {
		t.Fatalf("expected request counter in output, got:\n%s", body)
	}
	if !strings.Contains(body, "forecast_dashboard_http_request_duration_seconds_bucket") {
		t.Fatalf("expected duration histogram in output, got:\n%s", body)
	}
}

func TestCollectorDomainCounters(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	collector.Upload("gridsearch", true)
	collector.Upload("gridsearch", false)
	collector.Upload("gridsearch", false)
	collector.Selection("RMSE")
	collector.Sessions(3)

	body := scrape(t, collector)
	for _, want := range []string{
		`forecast_dashboard_uploads_total{kind="gridsearch",status="ok"} 1`,
		`forecast_dashboard_uploads_total{kind="gridsearch",status="error"} 2`,
		`forecast_dashboard_selections_total{metric="RMSE"} 1`,
		`forecast_dashboard_sessions 3`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestCollectorBoundsPathLabels(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/catalog" || r.URL.Path == "/" || r.URL.Path == "/app.js" {
			return
		}
		http.NotFound(w, r)
	})
	handler := collector.InstrumentHandler(notFound, []string{"/api/catalog"}, []string{"/", "/app.js"})

	serve := func(path string) {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	for i := 0; i < 1000; i++ {
		serve(fmt.Sprintf("/scan/%d", i))
	}
	serve("/api/catalog")
	serve("/")
	serve("/app.js")

	body := scrape(t, collector)
	for _, want := range []string{
		`forecast_dashboard_http_requests_total{method="GET",path="other",status="404"} 1000`,
		`forecast_dashboard_http_requests_total{method="GET",path="/api/catalog",status="200"} 1`,
		`forecast_dashboard_http_requests_total{method="GET",path="static",status="200"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in output", want)
		}
	}
	if strings.Contains(body, "/scan/") {
		t.Fatal("expected raw request paths to stay out of the path label")
	}

	series := 0
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "forecast_dashboard_http_requests_total{") {
			series++
		}
	}
	if series != 3 {
		t.Fatalf("expected 3 request counter series, got %d", series)
	}
}
