package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	r.Records("books", "authors", "authors", OutcomeCreated, 3)
	r.Records("books", "authors", "authors", OutcomeCreated, 2)
	r.Records("books", "authors", "authors", OutcomeUpdated, 0)
	r.StepDone("books", "authors", 120*time.Millisecond, nil)
	r.StepDone("books", "links", time.Second, errors.New("boom"))

	assert.Equal(t, 5.0, testutil.ToFloat64(r.records.WithLabelValues("books", "authors", "authors", OutcomeCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stepFailures.WithLabelValues("books", "links")))
	// zero adds do not create a series
	assert.Equal(t, 1, testutil.CollectAndCount(r.records))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.JobSucceeded("books", time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "loader.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `loader_last_success_timestamp_seconds{job="books"}`)
}

func TestHandler(t *testing.T) {
	r := NewRecorder()
	r.Records("books", "books", "books", OutcomeUnchanged, 7)

	app := fiber.New()
	app.Get("/metrics", r.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), `outcome="unchanged"`))
}
