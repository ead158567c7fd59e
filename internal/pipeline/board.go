// Package pipeline arranges clients on the sales Kanban board.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/billdesk/billdesk/internal/clients"
	"github.com/billdesk/billdesk/internal/platform/httpx"
	"github.com/billdesk/billdesk/internal/remote"
)

// Columns is the fixed board order. Statuses outside it get trailing
// columns sorted by name.
var Columns = []string{"lead", "contacted", "proposal", "active", "churned"}

// Column is one board lane.
type Column struct {
	Status  string           `json:"status"`
	Clients []clients.Client `json:"clients"`
}

// Board is the whole pipeline.
type Board struct {
	Columns []Column `json:"columns"`
}

// ClientService is the part of the client service the board needs.
type ClientService interface {
	List(ctx context.Context, activeOnly bool) ([]clients.Client, error)
	UpdateStatus(ctx context.Context, id remote.ID, status string) (clients.Client, error)
}

// Service builds and edits the board.
type Service struct {
	clients ClientService
	logger  *slog.Logger
}

// NewService constructs the pipeline service.
func NewService(cs ClientService, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{clients: cs, logger: logger}
}

// Group places clients into columns. Every fixed column is present even when
// empty.
func Group(list []clients.Client) Board {
	byStatus := map[string][]clients.Client{}
	for _, c := range list {
		status := normalize(c.Status)
		byStatus[status] = append(byStatus[status], c)
	}

	board := Board{Columns: make([]Column, 0, len(Columns))}
	known := map[string]bool{}
	for _, status := range Columns {
		known[status] = true
		board.Columns = append(board.Columns, column(status, byStatus[status]))
	}
	var extra []string
	for status := range byStatus {
		if !known[status] {
			extra = append(extra, status)
		}
	}
	sort.Strings(extra)
	for _, status := range extra {
		board.Columns = append(board.Columns, column(status, byStatus[status]))
	}
	return board
}

func column(status string, list []clients.Client) Column {
	if list == nil {
		list = []clients.Client{}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
	})
	return Column{Status: status, Clients: list}
}

func normalize(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return clients.DefaultStatus
	}
	return status
}

// Board loads clients and groups them. Inactive clients are left out unless
// includeInactive is set.
func (s *Service) Board(ctx context.Context, includeInactive bool) (Board, error) {
	list, err := s.clients.List(ctx, !includeInactive)
	if err != nil {
		return Board{}, fmt.Errorf("pipeline: list clients: %w", err)
	}
	return Group(list), nil
}

// Move changes a client's column. The status is stored exactly as given;
// only Group folds case and whitespace. The client service sends the full
// record, so no other field is lost.
func (s *Service) Move(ctx context.Context, id remote.ID, status string) (clients.Client, error) {
	if strings.TrimSpace(status) == "" {
		return clients.Client{}, fmt.Errorf("pipeline: %w: status required", httpx.ErrValidation)
	}
	if len(status) > 60 {
		return clients.Client{}, fmt.Errorf("pipeline: %w: status too long", httpx.ErrValidation)
	}
	c, err := s.clients.UpdateStatus(ctx, id, status)
	if err != nil {
		return clients.Client{}, fmt.Errorf("pipeline: move %s: %w", id, err)
	}
	s.logger.Info("pipeline: client moved", slog.String("client_id", id.String()), slog.String("status", status))
	return c, nil
}
