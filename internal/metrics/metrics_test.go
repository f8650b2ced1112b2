package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCacheLookup(t *testing.T) {
	m := New()

	m.ObserveCacheLookup(true)
	m.ObserveCacheLookup(true)
	m.ObserveCacheLookup(false)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.PermissionCacheOps.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PermissionCacheOps.WithLabelValues("miss")))
}

func TestHandler_ExposesRegistry(t *testing.T) {
	m := New()
	m.RateLimitedTotal.WithLabelValues("login").Inc()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	m.RegisterDB(db)
	m.RegisterDB(nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `gatekeeper_rate_limited_total{tier="login"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
	assert.Contains(t, string(body), `go_sql_max_open_connections{db_name="gatekeeper"}`)
}

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.AuthFailuresTotal.WithLabelValues("invalid_token").Inc()
	assert.Equal(t, float64(0), testutil.ToFloat64(b.AuthFailuresTotal.WithLabelValues("invalid_token")))
	assert.NotSame(t, a.Registry(), b.Registry())
}
