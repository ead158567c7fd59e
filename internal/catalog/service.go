package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/billdesk/billdesk/internal/platform/cache"
	"github.com/billdesk/billdesk/internal/platform/httpx"
	"github.com/billdesk/billdesk/internal/remote"
)

// Upstream is the subset of the remote client used by the catalog.
type Upstream interface {
	ListCatalog(ctx context.Context) ([]remote.CatalogItem, error)
	CreateCatalogItem(ctx context.Context, req remote.CatalogItemRequest) (remote.CatalogItem, error)
	UpdateCatalogItem(ctx context.Context, id remote.ID, req remote.CatalogItemRequest) (remote.CatalogItem, error)
	DeleteCatalogItem(ctx context.Context, id remote.ID) error
	ListCombos(ctx context.Context) ([]remote.Combo, error)
	CreateCombo(ctx context.Context, req remote.ComboRequest) (remote.Combo, error)
	UpdateCombo(ctx context.Context, id remote.ID, req remote.ComboRequest) (remote.Combo, error)
	DeleteCombo(ctx context.Context, id remote.ID) error
	ListPlans(ctx context.Context) ([]remote.Plan, error)
	CreatePlan(ctx context.Context, req remote.PlanRequest) (remote.Plan, error)
	UpdatePlan(ctx context.Context, id remote.ID, req remote.PlanRequest) (remote.Plan, error)
	DeletePlan(ctx context.Context, id remote.ID) error
}

// Service reads and writes the catalog.
type Service struct {
	upstream Upstream
	cache    *cache.JSON
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the catalog service. cache may be nil.
func NewService(upstream Upstream, c *cache.JSON, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{upstream: upstream, cache: c, logger: logger, now: time.Now}
}

// Snapshot returns the cached catalog, loading it from the upstream on a miss.
// The snapshot may lag behind concurrent catalog edits by up to the cache TTL.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	key, err := s.cache.Key(ctx, "snapshot")
	if err != nil {
		s.logger.Warn("catalog cache key", slog.Any("error", err))
		return s.load(ctx)
	}
	var snap Snapshot
	err = s.cache.Fetch(ctx, key, &snap, func(ctx context.Context) (any, error) {
		return s.load(ctx)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *Service) load(ctx context.Context) (Snapshot, error) {
	items, err := s.upstream.ListCatalog(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("catalog: list items: %w", err)
	}
	combos, err := s.upstream.ListCombos(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("catalog: list combos: %w", err)
	}
	snap := Snapshot{LoadedAt: s.now().UTC()}
	for _, it := range items {
		snap.Items = append(snap.Items, itemFromRemote(it))
	}
	for _, c := range combos {
		snap.Combos = append(snap.Combos, comboFromRemote(c))
	}
	return snap, nil
}

// Refresh drops the cached snapshot and loads a fresh one.
func (s *Service) Refresh(ctx context.Context) (Snapshot, error) {
	if err := s.cache.Bump(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("catalog: bump cache: %w", err)
	}
	return s.Snapshot(ctx)
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("catalog cache bump failed", slog.Any("error", err))
	}
}

// CreateItem adds a catalog item.
func (s *Service) CreateItem(ctx context.Context, req ItemRequest) (Item, error) {
	if req.Price.IsNegative() {
		return Item{}, fmt.Errorf("catalog: %w: price must not be negative", httpx.ErrValidation)
	}
	it, err := s.upstream.CreateCatalogItem(ctx, itemToRemote(req))
	if err != nil {
		return Item{}, fmt.Errorf("catalog: create item: %w", err)
	}
	if it.ID.IsZero() {
		return Item{}, fmt.Errorf("catalog: create item: %w: upstream returned no id", httpx.ErrUpstream)
	}
	s.invalidate(ctx)
	return itemFromRemote(it), nil
}

// UpdateItem replaces a catalog item.
func (s *Service) UpdateItem(ctx context.Context, id remote.ID, req ItemRequest) (Item, error) {
	it, err := s.upstream.UpdateCatalogItem(ctx, id, itemToRemote(req))
	if err != nil {
		return Item{}, fmt.Errorf("catalog: update item %s: %w", id, err)
	}
	s.invalidate(ctx)
	if it.ID.IsZero() {
		it.ID = id
	}
	return itemFromRemote(it), nil
}

// DeleteItem removes a catalog item.
func (s *Service) DeleteItem(ctx context.Context, id remote.ID) error {
	if err := s.upstream.DeleteCatalogItem(ctx, id); err != nil {
		return fmt.Errorf("catalog: delete item %s: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) comboRequest(ctx context.Context, req ComboRequest) (remote.ComboRequest, error) {
	if req.Price.IsNegative() {
		return remote.ComboRequest{}, fmt.Errorf("catalog: %w: price must not be negative", httpx.ErrValidation)
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return remote.ComboRequest{}, err
	}
	for _, m := range req.Members {
		if _, ok := snap.Item(m.CatalogItemID); !ok {
			return remote.ComboRequest{}, fmt.Errorf("catalog: %w: unknown catalog item %s", httpx.ErrValidation, m.CatalogItemID)
		}
	}
	return comboToRemote(req, snap), nil
}

// CreateCombo creates a combo with a fixed membership.
func (s *Service) CreateCombo(ctx context.Context, req ComboRequest) (Combo, error) {
	body, err := s.comboRequest(ctx, req)
	if err != nil {
		return Combo{}, err
	}
	c, err := s.upstream.CreateCombo(ctx, body)
	if err != nil {
		return Combo{}, fmt.Errorf("catalog: create combo: %w", err)
	}
	s.invalidate(ctx)
	return comboFromRemote(c), nil
}

// UpdateCombo replaces a combo, membership included.
func (s *Service) UpdateCombo(ctx context.Context, id remote.ID, req ComboRequest) (Combo, error) {
	body, err := s.comboRequest(ctx, req)
	if err != nil {
		return Combo{}, err
	}
	c, err := s.upstream.UpdateCombo(ctx, id, body)
	if err != nil {
		return Combo{}, fmt.Errorf("catalog: update combo %s: %w", id, err)
	}
	s.invalidate(ctx)
	if c.ID.IsZero() {
		c.ID = id
	}
	return comboFromRemote(c), nil
}

// DeleteCombo removes a combo. Instances already assigned to clients keep
// their origin_plan_id.
func (s *Service) DeleteCombo(ctx context.Context, id remote.ID) error {
	if err := s.upstream.DeleteCombo(ctx, id); err != nil {
		return fmt.Errorf("catalog: delete combo %s: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

// QuoteCombo prices a combo against the current snapshot.
func (s *Service) QuoteCombo(ctx context.Context, id remote.ID) (Quote, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Quote{}, err
	}
	c, ok := snap.Combo(id)
	if !ok {
		return Quote{}, fmt.Errorf("catalog: combo %s: %w", id, httpx.ErrNotFound)
	}
	return QuoteCombo(c, snap), nil
}

// ListPlans returns the legacy plans.
func (s *Service) ListPlans(ctx context.Context) ([]Plan, error) {
	plans, err := s.upstream.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list plans: %w", err)
	}
	out := make([]Plan, 0, len(plans))
	for _, p := range plans {
		out = append(out, planFromRemote(p))
	}
	return out, nil
}

// CreatePlan creates a plan.
func (s *Service) CreatePlan(ctx context.Context, req PlanRequest) (Plan, error) {
	p, err := s.upstream.CreatePlan(ctx, planToRemote(req))
	if err != nil {
		return Plan{}, fmt.Errorf("catalog: create plan: %w", err)
	}
	return planFromRemote(p), nil
}

// UpdatePlan updates a plan.
func (s *Service) UpdatePlan(ctx context.Context, id remote.ID, req PlanRequest) (Plan, error) {
	p, err := s.upstream.UpdatePlan(ctx, id, planToRemote(req))
	if err != nil {
		return Plan{}, fmt.Errorf("catalog: update plan %s: %w", id, err)
	}
	if p.ID.IsZero() {
		p.ID = id
	}
	return planFromRemote(p), nil
}

// DeletePlan removes a plan.
func (s *Service) DeletePlan(ctx context.Context, id remote.ID) error {
	if err := s.upstream.DeletePlan(ctx, id); err != nil {
		return fmt.Errorf("catalog: delete plan %s: %w", id, err)
	}
	return nil
}
