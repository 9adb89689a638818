package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"contractguard-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveAnalysis(t *testing.T) {
	m := New()

	report := &models.Report{
		TotalClauses:    3,
		ComplianceScore: 66.67,
		Violations: []models.Violation{
			{Rule: "foreign_arbitration"},
			{Rule: "foreign_arbitration"},
			{Rule: "unconsented_data_use"},
		},
	}
	m.ObserveAnalysis(OutcomeOK, report, 20*time.Millisecond)
	m.ObserveAnalysis(OutcomeError, nil, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues(OutcomeError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.violations.WithLabelValues("foreign_arbitration")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.violations.WithLabelValues("unconsented_data_use")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.complianceScore))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAnalysis(OutcomeOK, &models.Report{}, time.Second)
		m.ObserveConversion(OutcomeOK)
	})
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/policies/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/policies/123", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/policies/456", nil))
	m.ObserveConversion(OutcomeInvalid)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodGet, "/api/policies/:id", "404")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `contractguard_policy_conversions_total{outcome="invalid"} 1`)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
