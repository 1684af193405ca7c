package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOp(t *testing.T) {
	m := New()

	m.ObserveOp("add_area", nil)
	m.ObserveOp("add_area", nil)
	m.ObserveOp("add_area", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("add_area", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("add_area", ResultError)))
}

func TestSetCounts(t *testing.T) {
	m := New()
	m.SetCounts(2, 3, 5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Areas))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Storages))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.Items))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOp("add_area", nil)
		m.SetCounts(1, 1, 1)
		m.ImageCleanupFailed("delete_area")
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ImageCleanupFailed("delete_items")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `homeinv_image_cleanup_failures_total{op="delete_items"} 1`)
	assert.Contains(t, string(body), "homeinv_items 0")
}
