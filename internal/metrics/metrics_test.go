package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	cases := map[int]string{200: "2xx", 204: "2xx", 302: "3xx", 404: "4xx", 503: "5xx", 99: "unknown"}
	for code, want := range cases {
		assert.Equal(t, want, classifyStatus(code), "status %d", code)
	}
}

func TestRecordCartMerge(t *testing.T) {
	mergedBefore := testutil.ToFloat64(cartMergedItems.WithLabelValues("merged"))
	skippedBefore := testutil.ToFloat64(cartMergedItems.WithLabelValues("skipped"))

	RecordCartMerge(3, 1)

	assert.Equal(t, mergedBefore+3, testutil.ToFloat64(cartMergedItems.WithLabelValues("merged")))
	assert.Equal(t, skippedBefore+1, testutil.ToFloat64(cartMergedItems.WithLabelValues("skipped")))
}

func TestHandlerExposesRecordedRequests(t *testing.T) {
	RecordRequest(http.MethodGet, "/api/products", http.StatusOK, 12*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `foodmart_http_requests_total{method="GET",route="/api/products",status="2xx"}`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
