package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tilestore/modules/health"
	"github.com/dmitrymomot/tilestore/pkg/environment"
)

var errDown = errors.New("down")

func newHealth(db func(context.Context) error, ready ...func(context.Context) error) *health.Health {
	started := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	env := map[string]string{"PORT": "8000", "APP_ENV": ""}
	return health.New(health.Options{
		Environment: environment.Staging,
		Database:    db,
		Ready:       ready,
		StartedAt:   started,
		Now:         func() time.Time { return started.Add(time.Hour + 2*time.Minute + 3*time.Second) },
		LookupEnv: func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		},
	})
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestDiagnostics(t *testing.T) {
	t.Parallel()

	rec := get(t, newHealth(func(context.Context) error { return nil }).Router(), "/")
	require.Equal(t, http.StatusOK, rec.Code)

	var rep health.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, "OK", rep.Meta.Status)
	assert.Equal(t, "staging", rep.Meta.Environment)
	assert.Equal(t, "1h 2m 3s", rep.System.Uptime.Formatted)
	assert.InDelta(t, 3723.0, rep.System.Uptime.Raw, 0.001)
	assert.Positive(t, rep.System.Goroutines)
	assert.True(t, rep.Diagnostics.Database.Connected)
	assert.Equal(t, []health.EnvVarStatus{
		{Key: "PORT", Present: true},
		{Key: "MONGODB_URL", Present: false},
		{Key: "APP_ENV", Present: false},
	}, rep.Diagnostics.EnvVars)
}

func TestDiagnostics_DatabaseDown(t *testing.T) {
	t.Parallel()

	rec := get(t, newHealth(func(context.Context) error { return errDown }).Router(), "/")
	require.Equal(t, http.StatusOK, rec.Code)

	var rep health.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.False(t, rep.Diagnostics.Database.Connected)
	assert.Equal(t, "disconnected", rep.Diagnostics.Database.State)
}

func TestProbes(t *testing.T) {
	t.Parallel()

	t.Run("live", func(t *testing.T) {
		t.Parallel()
		rec := get(t, newHealth(nil).Router(), "/live")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ALIVE", rec.Body.String())
	})

	t.Run("ready", func(t *testing.T) {
		t.Parallel()
		rec := get(t, newHealth(func(context.Context) error { return nil }).Router(), "/ready")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "READY", rec.Body.String())
	})

	t.Run("database not ready", func(t *testing.T) {
		t.Parallel()
		rec := get(t, newHealth(func(context.Context) error { return errDown }).Router(), "/ready")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("extra check not ready", func(t *testing.T) {
		t.Parallel()
		h := newHealth(func(context.Context) error { return nil }, func(context.Context) error { return errDown })
		rec := get(t, h.Router(), "/ready")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestBanner(t *testing.T) {
	t.Parallel()

	rec := get(t, http.HandlerFunc(newHealth(nil).Banner), "/")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status   string          `json:"status"`
		Database health.DBStatus `json:"database"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.False(t, body.Database.Connected)
}

func TestDatabaseStatus(t *testing.T) {
	t.Parallel()

	rec := get(t, http.HandlerFunc(newHealth(func(context.Context) error { return nil }).DatabaseStatus), "/db-test")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Database struct {
			State     string `json:"state"`
			Connected bool   `json:"connected"`
			URL       string `json:"url"`
		} `json:"database"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "connected", body.Database.State)
	assert.Equal(t, "Missing", body.Database.URL)
}
