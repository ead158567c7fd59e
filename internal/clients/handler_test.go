package clients

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(up *fakeUpstream) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/clients", NewHandler(nil, NewService(up, nil)).MountRoutes)
	return r
}

func TestHandlerStatusUpdate(t *testing.T) {
	up := newFakeUpstream(seededRecord())
	router := newTestRouter(up)

	req := httptest.NewRequest(http.MethodPut, "/api/clients/42/status", strings.NewReader(`{"status":"active"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got Client
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "active", got.Status)
	assert.Equal(t, "juan@example.com", got.Email)
}

func TestHandlerRejectsInvalidPatch(t *testing.T) {
	router := newTestRouter(newFakeUpstream(seededRecord()))

	req := httptest.NewRequest(http.MethodPatch, "/api/clients/42", strings.NewReader(`{"email":"not-an-email"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerMissingClient(t *testing.T) {
	router := newTestRouter(newFakeUpstream())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/clients/9", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
