package clients

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/billdesk/billdesk/internal/platform/httpx"
	"github.com/billdesk/billdesk/internal/remote"
)

// fakeUpstream mimics the upstream's destructive PATCH: the stored record is
// rebuilt from the body alone, so any field left out is lost.
type fakeUpstream struct {
	records    map[remote.ID]remote.ClientRecord
	patches    []map[string]any
	nextID     int
	patchError error
}

func newFakeUpstream(recs ...remote.ClientRecord) *fakeUpstream {
	f := &fakeUpstream{records: map[remote.ID]remote.ClientRecord{}, nextID: 100}
	for _, rec := range recs {
		f.records[rec.ID] = rec
	}
	return f
}

func (f *fakeUpstream) ListClients(ctx context.Context) ([]remote.ClientRecord, error) {
	out := make([]remote.ClientRecord, 0, len(f.records))
	for _, rec := range f.records {
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeUpstream) GetClient(ctx context.Context, id remote.ID) (remote.ClientRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return remote.ClientRecord{}, httpx.ErrNotFound
	}
	return rec, nil
}

func (f *fakeUpstream) CreateClient(ctx context.Context, body remote.ClientPayload) (remote.ClientRecord, error) {
	f.nextID++
	rec := recordFromPayload(remote.ID(strconv.Itoa(f.nextID)), body)
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeUpstream) PatchClient(ctx context.Context, id remote.ID, body remote.ClientPayload) (remote.ClientRecord, error) {
	if f.patchError != nil {
		return remote.ClientRecord{}, f.patchError
	}
	if _, ok := f.records[id]; !ok {
		return remote.ClientRecord{}, httpx.ErrNotFound
	}
	raw, _ := json.Marshal(body)
	var asMap map[string]any
	_ = json.Unmarshal(raw, &asMap)
	f.patches = append(f.patches, asMap)

	var rec remote.ClientRecord
	_ = json.Unmarshal(raw, &rec)
	rec.ID = id
	f.records[id] = rec
	return rec, nil
}

// recordFromPayload is what the upstream echoes back after storing body.
func recordFromPayload(id remote.ID, body remote.ClientPayload) remote.ClientRecord {
	raw, _ := json.Marshal(body)
	var rec remote.ClientRecord
	_ = json.Unmarshal(raw, &rec)
	rec.ID = id
	return rec
}

func strPtr(s string) *string { return &s }
