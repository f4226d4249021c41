package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRequestIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodGet, "/test", "200"))
	ObserveRequest(http.MethodGet, "/test", http.StatusOK, 10*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodGet, "/test", "200"))
	if after-before != 1 {
		t.Fatalf("expected counter to grow by 1, grew by %v", after-before)
	}
}

func TestRecordOperation(t *testing.T) {
	before := testutil.ToFloat64(Operations.WithLabelValues("test_op", OutcomeInvalid))
	RecordOperation("test_op", OutcomeInvalid)
	if got := testutil.ToFloat64(Operations.WithLabelValues("test_op", OutcomeInvalid)); got-before != 1 {
		t.Fatalf("expected operation counter to grow by 1, got %v", got-before)
	}
}

func TestHandlerExposesNamespace(t *testing.T) {
	ObserveRequest(http.MethodGet, "/exposed", http.StatusOK, time.Millisecond)

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "tabletrack_http_requests_total") {
		t.Fatal("expected http request counter in exposition")
	}
}
