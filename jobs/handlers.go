package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/billdesk/billdesk/internal/catalog"
	"github.com/billdesk/billdesk/internal/platform/httpx"
	"github.com/billdesk/billdesk/internal/remote"
)

// Observer records processed tasks.
type Observer interface {
	ObserveJob(task string, err error)
}

// CatalogRefresher drops and reloads the catalog snapshot.
type CatalogRefresher interface {
	Refresh(ctx context.Context) (catalog.Snapshot, error)
}

// InvoicePrerenderer renders and stores an invoice's fallback PDF.
type InvoicePrerenderer interface {
	Prerender(ctx context.Context, id remote.ID) error
}

// CatalogRefreshJob handles TaskCatalogRefresh.
type CatalogRefreshJob struct {
	Catalog  CatalogRefresher
	Logger   *slog.Logger
	Observer Observer
}

// Handle refreshes the catalog snapshot.
func (j *CatalogRefreshJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Catalog == nil {
		return errors.New("catalog refresh: handler not configured")
	}
	defer func() { observe(j.Observer, TaskCatalogRefresh, err) }()

	snap, err := j.Catalog.Refresh(ctx)
	if err != nil {
		logger(j.Logger).Error("catalog refresh failed", slog.Any("error", err))
		return err
	}
	logger(j.Logger).Info("catalog refreshed",
		slog.Int("items", len(snap.Items)),
		slog.Int("combos", len(snap.Combos)))
	return nil
}

// InvoiceRenderJob handles TaskInvoiceRender.
type InvoiceRenderJob struct {
	Invoices InvoicePrerenderer
	Logger   *slog.Logger
	Observer Observer
}

// Handle renders one invoice. Invoices missing from the cache are not
// retried.
func (j *InvoiceRenderJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Invoices == nil {
		return errors.New("invoice render: handler not configured")
	}
	defer func() { observe(j.Observer, TaskInvoiceRender, err) }()

	var payload InvoiceRenderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.InvoiceID.IsZero() {
		return fmt.Errorf("invoice render: bad payload: %w", asynq.SkipRetry)
	}
	log := logger(j.Logger).With(slog.String("invoice_id", payload.InvoiceID.String()))
	if err := j.Invoices.Prerender(ctx, payload.InvoiceID); err != nil {
		log.Error("invoice render failed", slog.Any("error", err))
		if errors.Is(err, httpx.ErrNotFound) {
			return fmt.Errorf("invoice render: %w: %w", err, asynq.SkipRetry)
		}
		return err
	}
	log.Info("invoice rendered")
	return nil
}

func observe(o Observer, task string, err error) {
	if o != nil {
		o.ObserveJob(task, err)
	}
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
