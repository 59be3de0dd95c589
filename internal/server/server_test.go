package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scoringapi/internal/api"
	"scoringapi/internal/handlers"
	"scoringapi/internal/middleware"
	"scoringapi/internal/store"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := zerolog.Nop()
	handler := handlers.NewMethodHandler(api.NewProcessor(store.NewInMemory(), &log), &log)
	srv := NewServer("localhost:0", &log, handler, middleware.MiddlewareLogging(&log))
	return srv.httpServer.Handler
}

func do(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

func TestRouting_UnknownPath(t *testing.T) {
	router := newTestRouter(t)

	rec, decoded := do(t, router, http.MethodPost, "/unknown", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decoded["error"])
	assert.Equal(t, 404.0, decoded["code"])
}

func TestRouting_WrongMethod(t *testing.T) {
	router := newTestRouter(t)

	rec, decoded := do(t, router, http.MethodGet, "/method", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decoded["error"])
}

func TestRouting_MethodEndpoint(t *testing.T) {
	router := newTestRouter(t)

	// an empty envelope reaches the dispatcher and fails validation there
	rec, decoded := do(t, router, http.MethodPost, "/method", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 422.0, decoded["code"])
}
