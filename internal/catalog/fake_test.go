package catalog

import (
	"context"
	"strconv"

	"github.com/billdesk/billdesk/internal/platform/httpx"
	"github.com/billdesk/billdesk/internal/remote"
)

type fakeUpstream struct {
	items       []remote.CatalogItem
	combos      []remote.Combo
	plans       []remote.Plan
	listCalls   int
	comboBodies []remote.ComboRequest
	nextID      int
}

func (f *fakeUpstream) id() remote.ID {
	f.nextID++
	return remote.ID(strconv.Itoa(1000 + f.nextID))
}

func (f *fakeUpstream) ListCatalog(ctx context.Context) ([]remote.CatalogItem, error) {
	f.listCalls++
	return f.items, nil
}

func (f *fakeUpstream) CreateCatalogItem(ctx context.Context, req remote.CatalogItemRequest) (remote.CatalogItem, error) {
	it := remote.CatalogItem{ID: f.id(), Name: req.Name, Price: req.Price, Type: req.Type}
	f.items = append(f.items, it)
	return it, nil
}

func (f *fakeUpstream) UpdateCatalogItem(ctx context.Context, id remote.ID, req remote.CatalogItemRequest) (remote.CatalogItem, error) {
	for i, it := range f.items {
		if it.ID == id {
			f.items[i] = remote.CatalogItem{ID: id, Name: req.Name, Price: req.Price, Type: req.Type}
			return f.items[i], nil
		}
	}
	return remote.CatalogItem{}, httpx.ErrNotFound
}

func (f *fakeUpstream) DeleteCatalogItem(ctx context.Context, id remote.ID) error {
	return nil
}

func (f *fakeUpstream) ListCombos(ctx context.Context) ([]remote.Combo, error) {
	return f.combos, nil
}

func (f *fakeUpstream) CreateCombo(ctx context.Context, req remote.ComboRequest) (remote.Combo, error) {
	f.comboBodies = append(f.comboBodies, req)
	c := remote.Combo{ID: f.id(), Name: req.Name, Price: req.Price, Items: req.Items}
	f.combos = append(f.combos, c)
	return c, nil
}

func (f *fakeUpstream) UpdateCombo(ctx context.Context, id remote.ID, req remote.ComboRequest) (remote.Combo, error) {
	f.comboBodies = append(f.comboBodies, req)
	return remote.Combo{ID: id, Name: req.Name, Price: req.Price, Items: req.Items}, nil
}

func (f *fakeUpstream) DeleteCombo(ctx context.Context, id remote.ID) error {
	return nil
}

func (f *fakeUpstream) ListPlans(ctx context.Context) ([]remote.Plan, error) {
	return f.plans, nil
}

func (f *fakeUpstream) CreatePlan(ctx context.Context, req remote.PlanRequest) (remote.Plan, error) {
	return remote.Plan{ID: f.id(), Name: req.Name, Price: req.Price}, nil
}

func (f *fakeUpstream) UpdatePlan(ctx context.Context, id remote.ID, req remote.PlanRequest) (remote.Plan, error) {
	return remote.Plan{}, nil
}

func (f *fakeUpstream) DeletePlan(ctx context.Context, id remote.ID) error {
	return nil
}
