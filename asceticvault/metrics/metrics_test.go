package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCollector_Operations(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewPrometheusCollector(reg)
	require.NoError(t, err)

	c.ObserveOperation("get", "secret/app", nil)
	c.ObserveOperation("get", "secret/app", nil)
	c.ObserveOperation("get", "secret/app", errors.Wrap(missing{}, "db"))
	c.ObserveOperation("put", "secret/app", fmt.Errorf("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.operations.WithLabelValues("get", "secret/app", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("get", "secret/app", OutcomeNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("put", "secret/app", OutcomeError)))
}

type missing struct{}

func (missing) Error() string  { return "missing" }
func (missing) NotFound() bool { return true }

func TestPrometheusCollector_Queries(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewPrometheusCollector(reg)
	require.NoError(t, err)

	c.ObserveQuery("secret/app", 10*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(c.queries))
}

func TestPrometheusCollector_Requests(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewPrometheusCollector(reg)
	require.NoError(t, err)

	c.ObserveRequest(http.MethodGet, http.StatusOK, time.Millisecond)
	c.ObserveRequest(http.MethodGet, http.StatusOK, time.Millisecond)
	c.ObserveRequest(http.MethodPut, 0, time.Millisecond)

	n, err := testutil.GatherAndCount(reg, "ascetic_vault_backend_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPrometheusCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusCollector(reg)
	require.NoError(t, err)
	_, err = NewPrometheusCollector(reg)
	assert.Error(t, err)
}

func TestNopCollector(t *testing.T) {
	c := NewNopCollector()
	c.ObserveOperation("get", "k", nil)
	c.ObserveQuery("k", time.Second)
}

func TestRegistryHandler(t *testing.T) {
	registry, reg := NewRegistry("vaultquery", false)
	c, err := NewPrometheusCollector(reg)
	require.NoError(t, err)
	c.ObserveOperation("count", "secret/app", nil)

	rec := httptest.NewRecorder()
	Handler(registry).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ascetic_vault_operations_total{keyspace="secret/app",operation="count",outcome="success",service="vaultquery"} 1`)
}
