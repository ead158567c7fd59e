package budget

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billdesk/billdesk/internal/remote"
)

func newTestRouter(up *fakeUpstream, cat *fakeCatalog, recorder *fakeRecorder) http.Handler {
	var opts []Option
	var reader JournalReader
	if recorder != nil {
		opts = append(opts, WithRecorder(recorder))
		reader = recorder
	}
	rec := NewReconciler(up, cat, nil, opts...)
	r := chi.NewRouter()
	r.Route("/api/clients", NewHandler(nil, rec, reader).MountRoutes)
	return r
}

type wireBudget struct {
	ClientID remote.ID  `json:"clientId"`
	Items    []WireItem `json:"items"`
	Totals   Totals     `json:"totals"`
	Applied  Applied    `json:"applied"`
}

func TestHandlerSavesAndReturnsReloadedBudget(t *testing.T) {
	up := newFakeUpstream()
	recorder := &fakeRecorder{}
	router := newTestRouter(up, &fakeCatalog{snap: testSnapshot()}, recorder)

	body := `{"items":[
		{"type":"single","id":"temp-1","catalogItemId":"1","name":"Internet Fibra 300Mb","price":45000,"quantity":1,"recurring":true},
		{"type":"package","id":"temp-2","originPlanId":"10","name":"Pack Emprendedor","price":0}
	]}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/clients/42/budget", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got wireBudget
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, remote.ID("42"), got.ClientID)
	require.Len(t, got.Items, 2)
	assert.Equal(t, KindSingle, got.Items[0].Type)
	assert.Equal(t, KindPackage, got.Items[1].Type)
	assert.Len(t, got.Applied.Assigned, 3)
	assert.True(t, got.Totals.Recurring.Equal(dec("73000")))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/clients/42/budget/journal", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"outcome":"success"`)
}

func TestHandlerReportsPartialSave(t *testing.T) {
	up := newFakeUpstream()
	up.seed(client42, remote.ServiceInstance{ID: "s1", Name: "IP Fija", Price: dec("3000")})
	up.failDelete = "s1"
	router := newTestRouter(up, &fakeCatalog{snap: testSnapshot()}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/clients/42/budget", strings.NewReader(`{"items":[]}`)))
	require.Equal(t, http.StatusBadGateway, rr.Code)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	assert.Equal(t, PhaseDelete, problem["phase"])
}

func TestHandlerRejectsUnknownItemType(t *testing.T) {
	router := newTestRouter(newFakeUpstream(), &fakeCatalog{snap: testSnapshot()}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/clients/42/budget", strings.NewReader(`{"items":[{"type":"bundle"}]}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerShowsBudgetAndEmptyJournal(t *testing.T) {
	up := newFakeUpstream()
	up.seed(client42, remote.ServiceInstance{ID: "s1", Name: "IP Fija", Price: dec("3000"), Quantity: 2})
	router := newTestRouter(up, &fakeCatalog{snap: testSnapshot()}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/clients/42/budget", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got wireBudget
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got.Items, 1)
	assert.Equal(t, remote.ID("s1"), got.Items[0].ID)
	assert.True(t, got.Totals.Recurring.Equal(dec("6000")))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/clients/42/budget/journal", nil))
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestHandlerReactivateUnknownServiceIsNotFound(t *testing.T) {
	router := newTestRouter(newFakeUpstream(), &fakeCatalog{snap: testSnapshot()}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/clients/42/budget/services/s1/reactivate", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
