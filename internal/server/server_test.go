package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"tabletrack/internal/handlers"
	"tabletrack/internal/metrics"
	"tabletrack/internal/production"
	"tabletrack/internal/store/docstore"
	"tabletrack/models"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Service == nil {
		cfg.Service = production.NewService(docstore.NewMemory())
	}
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	t.Cleanup(func() {
		handlers.Configure(nil)
	})
	return srv
}

func serve(t *testing.T, handler http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &payload)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestNewRequiresService(t *testing.T) {
	if _, err := New(Config{Addr: ":4000"}); err == nil {
		t.Fatal("expected error without production service")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	srv := newTestServer(t, Config{Addr: ":8080"})

	if srv.httpServer.Addr != ":8080" {
		t.Fatalf("expected server addr :8080, got %q", srv.httpServer.Addr)
	}
	if srv.config.AllowedOrigin != "*" {
		t.Fatalf("expected default allowed origin *, got %q", srv.config.AllowedOrigin)
	}
	if srv.Handler() == nil {
		t.Fatal("expected handler to be configured")
	}
}

func TestServerHandler(t *testing.T) {
	srv := newTestServer(t, Config{Addr: ":9090"})

	rr := serve(t, srv.Handler(), http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rr.Code)
	}
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected generated request id")
	}
	if origin := rr.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Fatalf("expected wildcard CORS origin, got %q", origin)
	}

	rr = serve(t, srv.Handler(), http.MethodGet, "/nowhere", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", rr.Code)
	}
	if body := decode[map[string]string](t, rr); body["error"] != "not found" {
		t.Fatalf("unexpected not found body %v", body)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t, Config{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if got := rr.Header().Get(RequestIDHeader); got != "req-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
}

func TestPreflight(t *testing.T) {
	srv := newTestServer(t, Config{AllowedOrigin: "https://floor.example.com"})

	rr := serve(t, srv.Handler(), http.MethodOptions, "/api/batches/1/items", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rr.Code)
	}
	if origin := rr.Header().Get("Access-Control-Allow-Origin"); origin != "https://floor.example.com" {
		t.Fatalf("unexpected allowed origin %q", origin)
	}
	if methods := rr.Header().Get("Access-Control-Allow-Methods"); methods != "GET, POST, PATCH, OPTIONS" {
		t.Fatalf("unexpected allowed methods %q", methods)
	}
}

func TestRequestsAreCounted(t *testing.T) {
	srv := newTestServer(t, Config{MetricsEnabled: true})
	counter := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/api/batches/:id", "404")
	before := testutil.ToFloat64(counter)

	rr := serve(t, srv.Handler(), http.MethodGet, "/api/batches/404", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if delta := testutil.ToFloat64(counter) - before; delta != 1 {
		t.Fatalf("expected request counter to grow by 1, got %v", delta)
	}

	rr = serve(t, srv.Handler(), http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected metrics endpoint to respond, got %d", rr.Code)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("tabletrack_http_requests_total")) {
		t.Fatal("expected request counter in metrics output")
	}
}

func TestUnknownPathsShareUnmatchedSeries(t *testing.T) {
	srv := newTestServer(t, Config{})
	counter := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "unmatched", "404")
	before := testutil.ToFloat64(counter)

	for _, path := range []string{"/api/batches/1/zz-abc123", "/api/skus/7/a/b/c"} {
		rr := serve(t, srv.Handler(), http.MethodGet, path, nil)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rr.Code)
		}
	}
	if delta := testutil.ToFloat64(counter) - before; delta != 2 {
		t.Fatalf("expected unmatched counter to grow by 2, got %v", delta)
	}
}

func TestProductionFlow(t *testing.T) {
	svc := production.NewService(docstore.NewMemory())
	if _, err := svc.SeedCatalog(context.Background()); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	handler := newTestServer(t, Config{Service: svc}).Handler()

	rr := serve(t, handler, http.MethodPost, "/api/skus", map[string]any{"name": "X"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create sku: expected 201, got %d", rr.Code)
	}

	rr = serve(t, handler, http.MethodPost, "/api/batches", map[string]any{"sku_id": 1, "planned_weight": 100})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create batch: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	batch := decode[production.BatchCreation](t, rr)

	rr = serve(t, handler, http.MethodGet, fmt.Sprintf("/api/batches/%d", batch.ID), nil)
	detail := decode[production.BatchDetail](t, rr)
	want := []models.BatchItem{
		{Material: "Active Powder", TargetWeight: 10, Unit: "kg"},
		{Material: "Binder", TargetWeight: 2, Unit: "kg"},
		{Material: "Flavor", TargetWeight: 0.5, Unit: "kg"},
	}
	if len(detail.Items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(detail.Items))
	}
	for i, item := range detail.Items {
		if item.Material != want[i].Material || item.TargetWeight != want[i].TargetWeight || item.Unit != want[i].Unit {
			t.Fatalf("item %d: expected %+v, got %+v", i, want[i], item)
		}
	}

	rr = serve(t, handler, http.MethodPatch, fmt.Sprintf("/api/batches/%d/items", batch.ID), map[string]any{
		"items": []map[string]any{{"id": detail.Items[0].ID, "picked_weight": 9.9, "lot": "L1"}},
	})
	if got := decode[map[string]int](t, rr); got["updated"] != 1 {
		t.Fatalf("expected updated 1, got %v", got)
	}

	rr = serve(t, handler, http.MethodPost, "/api/press", map[string]any{"batch_id": batch.ID, "received_weight": 50, "tablet_weight": 0.8})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create press run: expected 201, got %d", rr.Code)
	}
	run := decode[production.PressRunCreation](t, rr)
	if run.ExpectedTabletCount == nil || *run.ExpectedTabletCount != 62 {
		t.Fatalf("expected 62 tablets, got %v", run.ExpectedTabletCount)
	}

	rr = serve(t, handler, http.MethodPatch, fmt.Sprintf("/api/press/%d/complete", run.ID), map[string]any{"final_weight": 49.5, "loss_weight": 0.5})
	if got := decode[map[string]int](t, rr); got["updated"] != 1 {
		t.Fatalf("expected updated 1, got %v", got)
	}

	rr = serve(t, handler, http.MethodGet, "/api/press", nil)
	runs := decode[[]models.PressRun](t, rr)
	if len(runs) != 1 || runs[0].FinalWeight == nil || *runs[0].FinalWeight != 49.5 {
		t.Fatalf("unexpected press runs %+v", runs)
	}

	rr = serve(t, handler, http.MethodGet, fmt.Sprintf("/api/batches/%d", batch.ID), nil)
	detail = decode[production.BatchDetail](t, rr)
	if detail.Items[0].PickedWeight == nil || *detail.Items[0].PickedWeight != 9.9 {
		t.Fatalf("expected picked weight 9.9, got %v", detail.Items[0].PickedWeight)
	}

	again := serve(t, handler, http.MethodGet, fmt.Sprintf("/api/batches/%d", batch.ID), nil)
	if !bytes.Equal(rr.Body.Bytes(), again.Body.Bytes()) {
		t.Fatalf("repeated read differs:\n%s\n%s", rr.Body.String(), again.Body.String())
	}
}
