package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

func TestPrometheus_Counters(t *testing.T) {
	m := NewPrometheus()

	m.ConsolidationCompleted(domain.ConsolidationQualityBased, 3, 20*time.Millisecond)
	m.ConsolidationFailed(domain.ConsolidationQualityBased)
	m.CacheLookup("consolidated", true)
	m.CacheLookup("consolidated", false)
	m.CacheLookup("consolidated", false)
	m.ExportCompleted(domain.ExportJSON, "success")
	m.ReviewRouted("auto_approve")

	assert.InDelta(t, 1, testutil.ToFloat64(m.consolidationTotal.WithLabelValues("quality_based", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.consolidationTotal.WithLabelValues("quality_based", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.cacheLookups.WithLabelValues("consolidated", "true")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.cacheLookups.WithLabelValues("consolidated", "false")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.exportTotal.WithLabelValues("json", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.reviewRouted.WithLabelValues("auto_approve")), 0)
}

func TestPrometheus_Handler(t *testing.T) {
	m := NewPrometheus()
	m.ReviewRouted("human_review")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `affinity_qa_submissions_total{action="human_review"} 1`)
}
