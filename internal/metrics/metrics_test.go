package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Independent(t *testing.T) {
	a := New()
	b := New()

	a.Runs.WithLabelValues("completed").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Runs.WithLabelValues("completed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Runs.WithLabelValues("completed")))
}

func TestCollector_Observe(t *testing.T) {
	c := New()
	c.ObserveRequest("GET", "/flow/get", "200", 10*time.Millisecond)
	c.ObserveRepo("memory", "save_flow", nil)
	c.ObserveRepo("memory", "save_flow", errors.New("x"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/flow/get", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RepoOperations.WithLabelValues("memory", "save_flow", "error")))
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	c.ConsoleLines.WithLabelValues("chunk").Add(3)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `flowstudio_console_lines_total{kind="chunk"} 3`)
}
