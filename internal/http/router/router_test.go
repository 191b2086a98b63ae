package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records-api/internal/http/middleware"
	"github.com/aanand-mishra/student-records-api/internal/records"
	"github.com/aanand-mishra/student-records-api/internal/storage/memory"
)

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })
	return New(records.New(store, log), log)
}

func send(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestHome(t *testing.T) {
	rec := send(newHandler(t), http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome to Student Management API")
	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderRequestID))
}

func TestTrailingSlashOptional(t *testing.T) {
	h := newHandler(t)

	rec := send(h, http.MethodPost, "/students",
		`{"name":"Alice","roll_no":101,"course":"CS","marks":85,"email":"alice@x.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	for _, path := range []string{"/students", "/students/"} {
		rec := send(h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)

		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, float64(1), got["count"], path)
	}

	for _, path := range []string{"/students/101", "/students/101/"} {
		rec := send(h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec = send(h, http.MethodPatch, "/students/101", `{"marks":90}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = send(h, http.MethodDelete, "/students/101/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRoutes(t *testing.T) {
	h := newHandler(t)

	assert.Equal(t, http.StatusNotFound, send(h, http.MethodGet, "/students/101/extra/", "").Code)
	assert.Equal(t, http.StatusNotFound, send(h, http.MethodGet, "/nope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, send(h, http.MethodPost, "/students/101/", "{}").Code)
}
