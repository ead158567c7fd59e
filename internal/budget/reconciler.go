package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/billdesk/billdesk/internal/catalog"
	"github.com/billdesk/billdesk/internal/journal"
	"github.com/billdesk/billdesk/internal/platform/cache"
	"github.com/billdesk/billdesk/internal/platform/httpx"
	"github.com/billdesk/billdesk/internal/remote"
)

// Upstream is the subset of the remote client the reconciler writes through.
type Upstream interface {
	ListServices(ctx context.Context, clientID remote.ID) ([]remote.ServiceInstance, error)
	AssignService(ctx context.Context, req remote.ServiceRequest) (remote.ServiceInstance, error)
	UpdateService(ctx context.Context, id remote.ID, req remote.ServiceRequest) (remote.ServiceInstance, error)
	DeleteService(ctx context.Context, id remote.ID) error
	ReactivateService(ctx context.Context, id remote.ID) (remote.ServiceInstance, error)
	AssignComboToClient(ctx context.Context, clientID, comboID remote.ID) ([]remote.ServiceInstance, error)
}

// Catalog provides the snapshot used to name packages and creates custom
// items.
type Catalog interface {
	Snapshot(ctx context.Context) (catalog.Snapshot, error)
	CreateItem(ctx context.Context, req catalog.ItemRequest) (catalog.Item, error)
}

// Locker serialises saves per client.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// Recorder stores finished save cycles.
type Recorder interface {
	Record(ctx context.Context, entry journal.Entry) (int64, error)
}

// Metrics receives save cycle outcomes.
type Metrics interface {
	ObserveBudgetSync(outcome string)
	ObserveBudgetMutations(kind string, n int)
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLocker enables per-client save locks.
func WithLocker(l Locker) Option {
	return func(r *Reconciler) { r.locker = l }
}

// WithRecorder journals every save cycle.
func WithRecorder(rec Recorder) Option {
	return func(r *Reconciler) { r.recorder = rec }
}

// WithMetrics reports save outcomes.
func WithMetrics(m Metrics) Option {
	return func(r *Reconciler) { r.metrics = m }
}

// Result is the state after a successful save.
type Result struct {
	ClientID  remote.ID               `json:"clientId"`
	Items     []Item                  `json:"-"`
	Instances []remote.ServiceInstance `json:"-"`
	Applied   Applied                 `json:"applied"`
	Warnings  []string                `json:"warnings,omitempty"`
}

// Reconciler converges a client's upstream service instances on an edited
// budget.
type Reconciler struct {
	upstream Upstream
	catalog  Catalog
	logger   *slog.Logger
	locker   Locker
	recorder Recorder
	metrics  Metrics
	now      func() time.Time
}

// NewReconciler constructs a Reconciler.
func NewReconciler(upstream Upstream, cat Catalog, logger *slog.Logger, opts ...Option) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reconciler{upstream: upstream, catalog: cat, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load returns the client's current budget.
func (r *Reconciler) Load(ctx context.Context, clientID remote.ID) ([]Item, error) {
	if clientID.IsZero() {
		return nil, fmt.Errorf("budget: %w: client id required", httpx.ErrValidation)
	}
	instances, err := r.upstream.ListServices(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("budget: list services for %s: %w", clientID, err)
	}
	return FromInstances(instances, r.snapshot(ctx)), nil
}

// Reactivate re-enables one of the client's deactivated service instances and
// returns the reloaded budget.
func (r *Reconciler) Reactivate(ctx context.Context, clientID, serviceID remote.ID) ([]Item, error) {
	if clientID.IsZero() || serviceID.IsZero() {
		return nil, fmt.Errorf("budget: %w: client and service id required", httpx.ErrValidation)
	}
	instances, err := r.upstream.ListServices(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("budget: list services for %s: %w", clientID, err)
	}
	owned := false
	for _, inst := range instances {
		if inst.ID == serviceID {
			owned = true
			break
		}
	}
	if !owned {
		return nil, fmt.Errorf("budget: service %s of client %s: %w", serviceID, clientID, httpx.ErrNotFound)
	}
	if _, err := r.upstream.ReactivateService(ctx, serviceID); err != nil {
		return nil, fmt.Errorf("budget: reactivate service %s: %w", serviceID, err)
	}
	r.logger.Info("budget service reactivated",
		slog.String("client_id", clientID.String()),
		slog.String("service_id", serviceID.String()))
	return r.Load(ctx, clientID)
}

func (r *Reconciler) snapshot(ctx context.Context) catalog.Snapshot {
	snap, err := r.catalog.Snapshot(ctx)
	if err != nil {
		r.logger.Warn("budget: catalog snapshot unavailable", slog.Any("error", err))
		return catalog.Snapshot{}
	}
	return snap
}

// Save applies the edited budget and returns the state reloaded from the
// upstream. Custom catalog items are created concurrently; every other write
// is sequential. A failure stops the cycle and returns a *SyncError listing
// the writes already applied, which stay in place.
func (r *Reconciler) Save(ctx context.Context, clientID remote.ID, current []Item) (res Result, err error) {
	if clientID.IsZero() {
		return Result{}, fmt.Errorf("budget: %w: client id required", httpx.ErrValidation)
	}
	if r.locker != nil {
		release, lerr := r.locker.Acquire(ctx, clientID.String())
		if lerr != nil {
			if errors.Is(lerr, cache.ErrLocked) {
				r.observe("locked")
				return Result{}, ErrSaveInProgress
			}
			return Result{}, fmt.Errorf("budget: acquire save lock: %w", lerr)
		}
		defer release()
	}

	started := r.now()
	var applied Applied
	defer func() {
		r.finish(ctx, clientID, started, applied, err)
	}()

	fail := func(phase string, cause error) error {
		return &SyncError{ClientID: clientID, Phase: phase, Applied: applied, Err: cause}
	}

	previous, err := r.upstream.ListServices(ctx, clientID)
	if err != nil {
		return Result{}, fail(PhaseLoad, err)
	}

	plan, err := NewPlan(previous, current)
	if err != nil {
		return Result{}, err
	}
	res = Result{ClientID: clientID}
	if plan.Resent > 0 {
		msg := fmt.Sprintf("%d saved lines no longer exist upstream and were assigned again", plan.Resent)
		r.logger.Warn("budget: "+msg, slog.String("client_id", clientID.String()))
		res.Warnings = append(res.Warnings, msg)
	}

	created, err := r.createCatalogItems(ctx, plan.CatalogCreates, &applied)
	if err != nil {
		return Result{}, fail(PhaseCatalog, err)
	}

	for _, s := range plan.Assigns {
		req := r.serviceRequest(clientID, s, created, &res)
		inst, aerr := r.upstream.AssignService(ctx, req)
		if aerr != nil {
			err = fail(PhaseAssign, fmt.Errorf("assign %q: %w", s.Name, aerr))
			return Result{}, err
		}
		applied.Assigned = append(applied.Assigned, inst.ID)
	}

	for _, u := range plan.Updates {
		req := r.serviceRequest(clientID, u.Single, created, &res)
		if _, uerr := r.upstream.UpdateService(ctx, u.ID, req); uerr != nil {
			err = fail(PhaseUpdate, fmt.Errorf("update %s: %w", u.ID, uerr))
			return Result{}, err
		}
		applied.Updated = append(applied.Updated, u.ID)
	}

	for _, comboID := range plan.Combos {
		instances, cerr := r.upstream.AssignComboToClient(ctx, clientID, comboID)
		if cerr != nil {
			err = fail(PhaseCombo, fmt.Errorf("assign combo %s: %w", comboID, cerr))
			return Result{}, err
		}
		applied.Combos = append(applied.Combos, comboID)
		for _, inst := range instances {
			applied.Assigned = append(applied.Assigned, inst.ID)
		}
	}

	for _, id := range plan.Deletes {
		if derr := r.upstream.DeleteService(ctx, id); derr != nil {
			err = fail(PhaseDelete, fmt.Errorf("delete %s: %w", id, derr))
			return Result{}, err
		}
		applied.Deleted = append(applied.Deleted, id)
	}

	instances, err := r.upstream.ListServices(ctx, clientID)
	if err != nil {
		return Result{}, fail(PhaseReload, err)
	}
	res.Instances = activeOnly(instances)
	res.Items = FromInstances(instances, r.snapshot(ctx))
	res.Applied = applied
	return res, nil
}

func (r *Reconciler) createCatalogItems(ctx context.Context, singles []Single, applied *Applied) (map[string]remote.ID, error) {
	created := make(map[string]remote.ID, len(singles))
	if len(singles) == 0 {
		return created, nil
	}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range singles {
		g.Go(func() error {
			it, err := r.catalog.CreateItem(gctx, catalog.ItemRequest{
				Name:      s.Name,
				Price:     s.Price,
				Recurring: s.Recurring,
			})
			if err != nil {
				return fmt.Errorf("create catalog item %q: %w", s.Name, err)
			}
			mu.Lock()
			created[s.Key] = it.ID
			applied.CatalogItems = append(applied.CatalogItems, it.ID)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *Reconciler) serviceRequest(clientID remote.ID, s Single, created map[string]remote.ID, res *Result) remote.ServiceRequest {
	catalogID := s.CatalogItemID
	if id, ok := created[s.Key]; ok {
		catalogID = id
	}
	if catalogID.IsZero() {
		msg := fmt.Sprintf("line %q has no catalog reference", s.Name)
		r.logger.Warn("budget: sending line without catalog reference",
			slog.String("client_id", clientID.String()),
			slog.String("name", s.Name))
		res.Warnings = append(res.Warnings, msg)
	}
	return remote.ServiceRequest{
		ClientID:      clientID,
		CatalogItemID: remote.IDPtr(catalogID),
		Name:          s.Name,
		Price:         s.Price,
		Quantity:      s.Qty(),
		Type:          catalog.ServiceType(s.Recurring),
		IsActive:      true,
	}
}

func (r *Reconciler) observe(outcome string) {
	if r.metrics != nil {
		r.metrics.ObserveBudgetSync(outcome)
	}
}

func (r *Reconciler) finish(ctx context.Context, clientID remote.ID, started time.Time, applied Applied, err error) {
	entry := journal.Entry{
		ClientID:       clientID.String(),
		StartedAt:      started.UTC(),
		FinishedAt:     r.now().UTC(),
		Outcome:        journal.OutcomeSuccess,
		CatalogCreated: len(applied.CatalogItems),
		Assigned:       len(applied.Assigned),
		CombosAssigned: len(applied.Combos),
		Updated:        len(applied.Updated),
		Deleted:        len(applied.Deleted),
		Writes:         applied.Writes(),
	}
	if err != nil {
		entry.Outcome = journal.OutcomeFailed
		entry.Error = err.Error()
		if se, ok := AsSyncError(err); ok {
			entry.Phase = se.Phase
		}
		r.logger.Error("budget: save failed",
			slog.String("client_id", clientID.String()),
			slog.String("phase", entry.Phase),
			slog.Int("applied", applied.Count()),
			slog.Any("error", err))
	} else {
		r.logger.Info("budget: saved",
			slog.String("client_id", clientID.String()),
			slog.Int("applied", applied.Count()))
	}

	r.observe(entry.Outcome)
	if r.metrics != nil {
		r.metrics.ObserveBudgetMutations("catalog", len(applied.CatalogItems))
		r.metrics.ObserveBudgetMutations("assign", len(applied.Assigned))
		r.metrics.ObserveBudgetMutations("combo", len(applied.Combos))
		r.metrics.ObserveBudgetMutations("update", len(applied.Updated))
		r.metrics.ObserveBudgetMutations("delete", len(applied.Deleted))
	}

	if r.recorder == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, rerr := r.recorder.Record(rctx, entry); rerr != nil {
		r.logger.Warn("budget: journal write failed", slog.Any("error", rerr))
	}
}
