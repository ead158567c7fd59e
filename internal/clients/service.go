package clients

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/billdesk/billdesk/internal/platform/httpx"
	"github.com/billdesk/billdesk/internal/remote"
)

// Upstream is the subset of the remote client used for clients.
type Upstream interface {
	ListClients(ctx context.Context) ([]remote.ClientRecord, error)
	GetClient(ctx context.Context, id remote.ID) (remote.ClientRecord, error)
	CreateClient(ctx context.Context, body remote.ClientPayload) (remote.ClientRecord, error)
	PatchClient(ctx context.Context, id remote.ID, body remote.ClientPayload) (remote.ClientRecord, error)
}

// Service manages clients on the upstream.
type Service struct {
	upstream Upstream
	logger   *slog.Logger
}

// NewService constructs the client service.
func NewService(upstream Upstream, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{upstream: upstream, logger: logger}
}

// List returns all clients, optionally only the active ones.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]Client, error) {
	records, err := s.upstream.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("clients: list: %w", err)
	}
	out := make([]Client, 0, len(records))
	for _, rec := range records {
		c := Adapt(rec)
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Get loads one client.
func (s *Service) Get(ctx context.Context, id remote.ID) (Client, error) {
	if id.IsZero() {
		return Client{}, fmt.Errorf("clients: %w: id required", httpx.ErrValidation)
	}
	rec, err := s.upstream.GetClient(ctx, id)
	if err != nil {
		return Client{}, fmt.Errorf("clients: get %s: %w", id, err)
	}
	return Adapt(rec), nil
}

// Create registers a new client.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Client, error) {
	c := req.Client()
	rec, err := s.upstream.CreateClient(ctx, ToPayload(c))
	if err != nil {
		return Client{}, fmt.Errorf("clients: create: %w", err)
	}
	if rec.ID.IsZero() {
		return Client{}, fmt.Errorf("clients: create: %w: upstream returned no id", httpx.ErrUpstream)
	}
	created := Adapt(rec)
	s.logger.Info("client created", slog.String("client_id", created.ID.String()))
	return created, nil
}

// UpdateFields applies a partial change. The current record is loaded and
// the merged result is sent in full because the upstream PATCH clears every
// field missing from the body.
func (s *Service) UpdateFields(ctx context.Context, id remote.ID, patch Patch) (Client, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Client{}, err
	}
	if patch.IsEmpty() {
		return current, nil
	}
	merged, err := patch.Apply(current)
	if err != nil {
		return Client{}, err
	}
	rec, err := s.upstream.PatchClient(ctx, id, ToPayload(merged))
	if err != nil {
		return Client{}, fmt.Errorf("clients: update %s: %w", id, err)
	}
	s.logger.Debug("client updated", slog.String("client_id", id.String()))
	if rec.ID.IsZero() {
		// Some endpoints answer 204; the merged state is what was sent.
		return merged, nil
	}
	return Adapt(rec), nil
}

// UpdateStatus moves a client to another pipeline column.
func (s *Service) UpdateStatus(ctx context.Context, id remote.ID, status string) (Client, error) {
	if status == "" {
		return Client{}, fmt.Errorf("clients: %w: status required", httpx.ErrValidation)
	}
	return s.UpdateFields(ctx, id, Patch{Status: &status})
}

// Deactivate soft-deletes a client. Clients are never hard-deleted.
func (s *Service) Deactivate(ctx context.Context, id remote.ID) (Client, error) {
	active := false
	return s.UpdateFields(ctx, id, Patch{IsActive: &active})
}

// Reactivate restores a soft-deleted client.
func (s *Service) Reactivate(ctx context.Context, id remote.ID) (Client, error) {
	active := true
	return s.UpdateFields(ctx, id, Patch{IsActive: &active})
}
