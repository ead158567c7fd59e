package budget

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/billdesk/billdesk/internal/catalog"
	"github.com/billdesk/billdesk/internal/journal"
	"github.com/billdesk/billdesk/internal/platform/httpx"
	"github.com/billdesk/billdesk/internal/remote"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func boolPtr(b bool) *bool { return &b }

// testSnapshot carries combo 10, Pack Emprendedor: Internet Fibra 300Mb
// ($25000) plus IP Fija ($3000).
func testSnapshot() catalog.Snapshot {
	return catalog.Snapshot{
		Items: []catalog.Item{
			{ID: "1", Name: "Internet Fibra 300Mb", Price: dec("25000"), Recurring: true},
			{ID: "2", Name: "IP Fija", Price: dec("3000"), Recurring: true},
			{ID: "3", Name: "Instalación", Price: dec("10000")},
		},
		Combos: []catalog.Combo{{
			ID:   "10",
			Name: "Pack Emprendedor",
			Members: []catalog.Member{
				{CatalogItemID: "1", Quantity: 1},
				{CatalogItemID: "2", Quantity: 1},
			},
		}},
	}
}

type fakeUpstream struct {
	mu        sync.Mutex
	snap      catalog.Snapshot
	instances map[remote.ID][]remote.ServiceInstance
	nextID    int

	assigns      []remote.ServiceRequest
	updates      []remote.ID
	comboAssigns []remote.ID
	deletes      []remote.ID
	listCalls    int

	failDelete remote.ID
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{snap: testSnapshot(), instances: map[remote.ID][]remote.ServiceInstance{}}
}

func (f *fakeUpstream) seed(clientID remote.ID, inst remote.ServiceInstance) {
	inst.ClientID = clientID
	f.instances[clientID] = append(f.instances[clientID], inst)
}

func (f *fakeUpstream) newID() remote.ID {
	f.nextID++
	return remote.ID(fmt.Sprintf("%d", 900+f.nextID))
}

func (f *fakeUpstream) ListServices(ctx context.Context, clientID remote.ID) ([]remote.ServiceInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	out := make([]remote.ServiceInstance, len(f.instances[clientID]))
	copy(out, f.instances[clientID])
	return out, nil
}

func (f *fakeUpstream) AssignService(ctx context.Context, req remote.ServiceRequest) (remote.ServiceInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assigns = append(f.assigns, req)
	inst := remote.ServiceInstance{
		ID:            f.newID(),
		ClientID:      req.ClientID,
		CatalogItemID: req.CatalogItemID,
		Name:          req.Name,
		Price:         req.Price,
		Quantity:      req.Quantity,
		IsActive:      boolPtr(req.IsActive),
		Type:          req.Type,
		OriginPlanID:  req.OriginComboID,
	}
	f.instances[req.ClientID] = append(f.instances[req.ClientID], inst)
	return inst, nil
}

func (f *fakeUpstream) UpdateService(ctx context.Context, id remote.ID, req remote.ServiceRequest) (remote.ServiceInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, id)
	list := f.instances[req.ClientID]
	for i := range list {
		if list[i].ID == id {
			list[i].Price = req.Price
			list[i].Quantity = req.Quantity
			return list[i], nil
		}
	}
	return remote.ServiceInstance{}, httpx.ErrNotFound
}

func (f *fakeUpstream) DeleteService(ctx context.Context, id remote.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == f.failDelete {
		return fmt.Errorf("delete %s: %w", id, httpx.ErrUpstream)
	}
	f.deletes = append(f.deletes, id)
	for clientID, list := range f.instances {
		kept := list[:0]
		for _, inst := range list {
			if inst.ID != id {
				kept = append(kept, inst)
			}
		}
		f.instances[clientID] = kept
	}
	return nil
}

func (f *fakeUpstream) ReactivateService(ctx context.Context, id remote.ID) (remote.ServiceInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, list := range f.instances {
		for i := range list {
			if list[i].ID == id {
				list[i].IsActive = boolPtr(true)
				return list[i], nil
			}
		}
	}
	return remote.ServiceInstance{}, httpx.ErrNotFound
}

func (f *fakeUpstream) AssignComboToClient(ctx context.Context, clientID, comboID remote.ID) ([]remote.ServiceInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comboAssigns = append(f.comboAssigns, comboID)
	combo, ok := f.snap.Combo(comboID)
	if !ok {
		return nil, httpx.ErrNotFound
	}
	var out []remote.ServiceInstance
	for _, m := range combo.Members {
		item, _ := f.snap.Item(m.CatalogItemID)
		inst := remote.ServiceInstance{
			ID:            f.newID(),
			ClientID:      clientID,
			CatalogItemID: remote.IDPtr(m.CatalogItemID),
			Name:          item.Name,
			Price:         item.Price,
			Quantity:      m.Qty(),
			IsActive:      boolPtr(true),
			Type:          remote.ServiceTypeRecurring,
			OriginPlanID:  remote.IDPtr(comboID),
		}
		out = append(out, inst)
	}
	f.instances[clientID] = append(f.instances[clientID], out...)
	return out, nil
}

type fakeCatalog struct {
	mu      sync.Mutex
	snap    catalog.Snapshot
	created []catalog.ItemRequest
	nextID  int
	failFor string
}

func (c *fakeCatalog) Snapshot(ctx context.Context) (catalog.Snapshot, error) {
	return c.snap, nil
}

func (c *fakeCatalog) CreateItem(ctx context.Context, req catalog.ItemRequest) (catalog.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if req.Name == c.failFor {
		return catalog.Item{}, fmt.Errorf("create %q: %w", req.Name, httpx.ErrUpstream)
	}
	c.created = append(c.created, req)
	c.nextID++
	return catalog.Item{ID: remote.ID(fmt.Sprintf("%d", 500+c.nextID)), Name: req.Name, Price: req.Price}, nil
}

type fakeRecorder struct {
	entries []journal.Entry
}

func (r *fakeRecorder) Record(ctx context.Context, entry journal.Entry) (int64, error) {
	r.entries = append(r.entries, entry)
	return int64(len(r.entries)), nil
}

func (r *fakeRecorder) ListForClient(ctx context.Context, clientID string, limit int) ([]journal.Entry, error) {
	var out []journal.Entry
	for _, e := range r.entries {
		if e.ClientID == clientID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeMetrics struct {
	outcomes  []string
	mutations map[string]int
}

func (m *fakeMetrics) ObserveBudgetSync(outcome string) {
	m.outcomes = append(m.outcomes, outcome)
}

func (m *fakeMetrics) ObserveBudgetMutations(kind string, n int) {
	if m.mutations == nil {
		m.mutations = map[string]int{}
	}
	m.mutations[kind] += n
}
