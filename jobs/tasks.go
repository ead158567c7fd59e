// Package jobs runs billdesk's background tasks on asynq.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/billdesk/billdesk/internal/remote"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCatalogRefresh re-warms the cached catalog snapshot.
	TaskCatalogRefresh = "catalog:refresh"
	// TaskInvoiceRender pre-renders the local fallback PDF of an invoice.
	TaskInvoiceRender = "invoice:render"
)

// InvoiceRenderPayload identifies the invoice to render.
type InvoiceRenderPayload struct {
	InvoiceID remote.ID `json:"invoice_id"`
}

// NewCatalogRefreshTask constructs a catalog refresh task.
func NewCatalogRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskCatalogRefresh, nil)
}

// NewInvoiceRenderTask constructs an invoice render task.
func NewInvoiceRenderTask(id remote.ID) (*asynq.Task, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("jobs: invoice id required")
	}
	data, err := json.Marshal(InvoiceRenderPayload{InvoiceID: id})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceRender, data), nil
}

// Enqueuer is the part of the asynq client the jobs client uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client submits jobs to the queue.
type Client struct {
	client Enqueuer
}

// NewClient constructs an asynq backed client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// NewClientWith wraps an existing enqueuer.
func NewClientWith(e Enqueuer) *Client {
	return &Client{client: e}
}

// EnqueueCatalogRefresh schedules an immediate catalog refresh.
func (c *Client) EnqueueCatalogRefresh(ctx context.Context) (*asynq.TaskInfo, error) {
	return c.client.EnqueueContext(ctx, NewCatalogRefreshTask(), asynq.Queue(QueueDefault), asynq.MaxRetry(3))
}

// EnqueueInvoiceRender schedules rendering of the invoice's fallback PDF.
func (c *Client) EnqueueInvoiceRender(ctx context.Context, id remote.ID) error {
	task, err := NewInvoiceRenderTask(id)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(5))
	return err
}

// Trigger enqueues a task by type name. Only tasks without payload or with a
// single id argument are supported.
func (c *Client) Trigger(ctx context.Context, taskType string, id remote.ID) error {
	switch taskType {
	case TaskCatalogRefresh:
		_, err := c.EnqueueCatalogRefresh(ctx)
		return err
	case TaskInvoiceRender:
		return c.EnqueueInvoiceRender(ctx, id)
	default:
		return fmt.Errorf("jobs: unknown task %q", taskType)
	}
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
