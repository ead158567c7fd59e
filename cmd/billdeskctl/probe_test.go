package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billdesk/billdesk/internal/platform/httpx"
	"github.com/billdesk/billdesk/internal/remote"
)

func str(s string) *string { return &s }

// fakeAPI stores client records. With destructive set, a raw PATCH replaces
// the record with the fields present in the body.
type fakeAPI struct {
	records     map[remote.ID]remote.ClientRecord
	destructive bool
	nextID      int
	patched     []remote.ClientPayload
}

func newFakeAPI(destructive bool) *fakeAPI {
	debt := decimal.NewFromInt(1500)
	return &fakeAPI{
		destructive: destructive,
		records: map[remote.ID]remote.ClientRecord{
			"42": {
				ID:     "42",
				Name:   str("Ana Gómez"),
				Email:  str("ana@example.com"),
				Phone:  str("+54 11 5555 0000"),
				City:   str("Rosario"),
				Status: str("active"),
				Debt:   &debt,
			},
		},
	}
}

func (f *fakeAPI) GetClient(ctx context.Context, id remote.ID) (remote.ClientRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return remote.ClientRecord{}, httpx.ErrNotFound
	}
	return rec, nil
}

func fromPayload(id remote.ID, p remote.ClientPayload) remote.ClientRecord {
	active := p.IsActive
	balance, debt := p.Balance, p.Debt
	return remote.ClientRecord{
		ID: id, Name: str(p.Name), BusinessName: str(p.BusinessName), Cuit: str(p.Cuit),
		TaxCondition: str(p.TaxCondition), Email: str(p.Email), Phone: str(p.Phone),
		Address: str(p.Address), City: str(p.City), Status: str(p.Status), IsActive: &active,
		Balance: &balance, Debt: &debt, Obs: str(p.Obs), InternalObs: str(p.InternalObs),
	}
}

func (f *fakeAPI) CreateClient(ctx context.Context, body remote.ClientPayload) (remote.ClientRecord, error) {
	f.nextID++
	id := remote.ID(fmt.Sprintf("%d", 100+f.nextID))
	f.records[id] = fromPayload(id, body)
	return f.records[id], nil
}

func (f *fakeAPI) PatchClient(ctx context.Context, id remote.ID, body remote.ClientPayload) (remote.ClientRecord, error) {
	f.patched = append(f.patched, body)
	f.records[id] = fromPayload(id, body)
	return f.records[id], nil
}

func (f *fakeAPI) PatchClientRaw(ctx context.Context, id remote.ID, body map[string]any) (remote.ClientRecord, error) {
	rec := f.records[id]
	status, _ := body["status"].(string)
	if f.destructive {
		rec = remote.ClientRecord{ID: id}
	}
	rec.Status = &status
	f.records[id] = rec
	return rec, nil
}

func TestProbePatchReportsClearedFields(t *testing.T) {
	api := newFakeAPI(true)

	report, err := probePatch(context.Background(), api, "42", "probe")
	require.NoError(t, err)
	assert.Equal(t, remote.ID("101"), report.ScratchID)
	assert.True(t, report.Destructive)
	assert.Equal(t, []string{"balance", "city", "debt", "email", "name", "phone"}, report.Cleared)
	assert.Empty(t, report.Changed)

	// the source is never written, the scratch copy ends up deactivated
	assert.Equal(t, "Ana Gómez", *api.records["42"].Name)
	require.Len(t, api.patched, 1)
	assert.False(t, api.patched[0].IsActive)
	assert.Equal(t, "[probe] Ana Gómez", api.patched[0].Name)
}

func TestProbePatchOnMergingUpstream(t *testing.T) {
	report, err := probePatch(context.Background(), newFakeAPI(false), "42", "probe")
	require.NoError(t, err)
	assert.False(t, report.Destructive)
	assert.Empty(t, report.Cleared)
}

func TestProbePatchUnknownClient(t *testing.T) {
	_, err := probePatch(context.Background(), newFakeAPI(true), "7", "probe")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestProbeCommandPrintsReport(t *testing.T) {
	api := newFakeAPI(true)
	root := newRootCmd(deps{prober: func() (patchProber, error) { return api, nil }})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"probe", "patch", "--client", "42"})

	require.NoError(t, root.Execute())
	var report probeReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, remote.ID("42"), report.SourceID)
	assert.Contains(t, report.Cleared, "email")
}

func TestProbeCommandRequiresClient(t *testing.T) {
	root := newRootCmd(deps{prober: func() (patchProber, error) { return newFakeAPI(true), nil }})
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"probe", "patch"})
	require.Error(t, root.Execute())
}
