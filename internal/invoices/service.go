package invoices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/billdesk/billdesk/internal/clients"
	"github.com/billdesk/billdesk/internal/platform/cache"
	"github.com/billdesk/billdesk/internal/platform/httpx"
	"github.com/billdesk/billdesk/internal/remote"
	"github.com/billdesk/billdesk/report"
)

// Upstream is the subset of the remote client used for invoices.
type Upstream interface {
	ListInvoices(ctx context.Context, clientID remote.ID) ([]remote.Invoice, error)
	CreateInvoice(ctx context.Context, req remote.InvoiceRequest) (remote.Invoice, error)
	InvoicePDF(ctx context.Context, id remote.ID) ([]byte, error)
	ListServices(ctx context.Context, clientID remote.ID) ([]remote.ServiceInstance, error)
}

// ClientReader loads the client an invoice is addressed to.
type ClientReader interface {
	Get(ctx context.Context, id remote.ID) (clients.Client, error)
}

// Renderer turns an HTML document into PDF.
type Renderer interface {
	Render(ctx context.Context, doc report.Document) ([]byte, error)
}

// Enqueuer schedules background PDF rendering.
type Enqueuer interface {
	EnqueueInvoiceRender(ctx context.Context, id remote.ID) error
}

// cached is what the service keeps to regenerate a PDF locally.
type cached struct {
	Invoice Invoice        `json:"invoice"`
	Client  clients.Client `json:"client"`
}

// Service manages invoices.
type Service struct {
	upstream Upstream
	clients  ClientReader
	renderer Renderer
	cache    *cache.JSON
	enqueuer Enqueuer
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the invoice service. renderer and c may be nil.
func NewService(upstream Upstream, clientReader ClientReader, renderer Renderer, c *cache.JSON, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		upstream: upstream,
		clients:  clientReader,
		renderer: renderer,
		cache:    c,
		logger:   logger,
		now:      time.Now,
	}
}

// SetEnqueuer enables background pre-rendering of new invoices.
func (s *Service) SetEnqueuer(e Enqueuer) {
	s.enqueuer = e
}

// List returns the client's invoices, or every invoice when clientID is empty.
func (s *Service) List(ctx context.Context, clientID remote.ID) ([]Invoice, error) {
	items, err := s.upstream.ListInvoices(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("invoices: list: %w", err)
	}
	out := make([]Invoice, 0, len(items))
	for _, inv := range items {
		out = append(out, fromRemote(inv))
	}
	return out, nil
}

// Create drafts and persists an invoice, then caches it for local PDF
// regeneration.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Invoice, error) {
	client, err := s.clients.Get(ctx, req.ClientID)
	if err != nil {
		return Invoice{}, fmt.Errorf("invoices: load client: %w", err)
	}

	issue := s.now()
	if req.IssueDate != "" {
		issue, err = time.Parse(DateLayout, req.IssueDate)
		if err != nil {
			return Invoice{}, fmt.Errorf("invoices: %w: issue date %q", httpx.ErrValidation, req.IssueDate)
		}
	}
	dueDays := req.DueDays
	if dueDays == 0 {
		dueDays = DefaultDueDays
	}

	var inv Invoice
	if len(req.Lines) > 0 {
		inv = Draft(client, nil, issue, dueDays)
		for _, l := range req.Lines {
			if l.UnitPrice.IsNegative() {
				return Invoice{}, fmt.Errorf("invoices: %w: negative unit price", httpx.ErrValidation)
			}
			inv.Lines = append(inv.Lines, newLine(l.Description, l.Quantity, l.UnitPrice))
		}
		inv.Total = total(inv.Lines)
	} else {
		instances, err := s.upstream.ListServices(ctx, req.ClientID)
		if err != nil {
			return Invoice{}, fmt.Errorf("invoices: list services: %w", err)
		}
		inv = Draft(client, instances, issue, dueDays)
	}
	if len(inv.Lines) == 0 {
		return Invoice{}, fmt.Errorf("invoices: %w: client has no billable services", httpx.ErrValidation)
	}
	if req.Status != "" {
		inv.Status = req.Status
	}
	inv.Number = NewNumber(issue)

	stored, err := s.upstream.CreateInvoice(ctx, toRemote(inv))
	if err != nil {
		return Invoice{}, fmt.Errorf("invoices: create: %w", err)
	}
	inv.ID = stored.ID
	if stored.Number != "" {
		inv.Number = stored.Number
	}

	if err := s.cache.Set(ctx, invoiceKey(inv.ID), cached{Invoice: inv, Client: client}); err != nil {
		s.logger.Warn("invoices: cache invoice", slog.String("invoice_id", inv.ID.String()), slog.Any("error", err))
	}
	if s.enqueuer != nil && !inv.ID.IsZero() {
		if err := s.enqueuer.EnqueueInvoiceRender(ctx, inv.ID); err != nil {
			s.logger.Warn("invoices: enqueue render", slog.String("invoice_id", inv.ID.String()), slog.Any("error", err))
		}
	}
	return inv, nil
}

func invoiceKey(id remote.ID) string { return "invoice:" + id.String() }

func pdfKey(id remote.ID) string { return "pdf:" + id.String() }

// PDF returns the invoice document. The upstream renders it when it can;
// otherwise the PDF is regenerated from the cached invoice.
func (s *Service) PDF(ctx context.Context, id remote.ID) ([]byte, error) {
	pdf, err := s.upstream.InvoicePDF(ctx, id)
	if err == nil && len(pdf) > 0 {
		return pdf, nil
	}
	s.logger.Warn("invoices: upstream pdf unavailable, rendering locally",
		slog.String("invoice_id", id.String()), slog.Any("error", err))

	var pre []byte
	if cerr := s.cache.Get(ctx, pdfKey(id), &pre); cerr == nil && len(pre) > 0 {
		return pre, nil
	}
	return s.renderLocal(ctx, id)
}

// Prerender renders the cached invoice and stores the PDF for later
// fallback use.
func (s *Service) Prerender(ctx context.Context, id remote.ID) error {
	pdf, err := s.renderLocal(ctx, id)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, pdfKey(id), pdf)
}

func (s *Service) renderLocal(ctx context.Context, id remote.ID) ([]byte, error) {
	var entry cached
	if err := s.cache.Get(ctx, invoiceKey(id), &entry); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, fmt.Errorf("invoices: pdf for %s: %w", id, httpx.ErrNotFound)
		}
		return nil, fmt.Errorf("invoices: read cached invoice: %w", err)
	}
	if s.renderer == nil {
		return nil, fmt.Errorf("invoices: %w: no local renderer", httpx.ErrUpstream)
	}
	html, err := RenderHTML(entry.Invoice, entry.Client)
	if err != nil {
		return nil, fmt.Errorf("invoices: render html: %w", err)
	}
	pdf, err := s.renderer.Render(ctx, report.Document{Name: fileName(entry.Invoice), HTML: html})
	if err != nil {
		return nil, fmt.Errorf("invoices: render pdf: %w: %v", httpx.ErrUpstream, err)
	}
	return pdf, nil
}

func fileName(inv Invoice) string {
	if inv.Number == "" {
		return "factura-" + inv.ID.String() + ".pdf"
	}
	return "factura-" + inv.Number + ".pdf"
}
