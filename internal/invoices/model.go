// Package invoices drafts, persists and renders client invoices.
package invoices

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/billdesk/billdesk/internal/clients"
	"github.com/billdesk/billdesk/internal/remote"
)

// Invoice statuses.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
)

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

// DefaultDueDays is the payment term applied when none is given.
const DefaultDueDays = 10

// Line is one invoice row.
type Line struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Total       decimal.Decimal `json:"total"`
}

// Invoice is a client invoice.
type Invoice struct {
	ID        remote.ID       `json:"id"`
	Number    string          `json:"number"`
	ClientID  remote.ID       `json:"clientId"`
	IssueDate string          `json:"issueDate"`
	DueDate   string          `json:"dueDate"`
	Lines     []Line          `json:"lines"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
}

// LineRequest is a manually entered invoice row.
type LineRequest struct {
	Description string          `json:"description" validate:"required,max=300"`
	Quantity    int             `json:"quantity" validate:"gte=1,lte=10000"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// CreateRequest asks for a new invoice. Without lines the invoice is drafted
// from the client's active services.
type CreateRequest struct {
	ClientID  remote.ID     `json:"clientId" validate:"required"`
	IssueDate string        `json:"issueDate" validate:"omitempty,datetime=2006-01-02"`
	DueDays   int           `json:"dueDays" validate:"gte=0,lte=365"`
	Status    string        `json:"status" validate:"omitempty,oneof=pending paid"`
	Lines     []LineRequest `json:"lines" validate:"dive"`
}

func newLine(description string, qty int, unit decimal.Decimal) Line {
	if qty <= 0 {
		qty = 1
	}
	return Line{
		Description: description,
		Quantity:    qty,
		UnitPrice:   unit,
		Total:       unit.Mul(decimal.NewFromInt(int64(qty))),
	}
}

// Draft builds an unsaved invoice from the client's active service
// instances. One-time services are labelled as such.
func Draft(client clients.Client, instances []remote.ServiceInstance, issue time.Time, dueDays int) Invoice {
	inv := Invoice{
		ClientID:  client.ID,
		IssueDate: issue.Format(DateLayout),
		DueDate:   issue.AddDate(0, 0, dueDays).Format(DateLayout),
		Status:    StatusPending,
	}
	for _, inst := range instances {
		if !inst.Active() {
			continue
		}
		desc := strings.TrimSpace(inst.Name)
		if desc == "" {
			desc = strings.TrimSpace(inst.Description)
		}
		if inst.Type == remote.ServiceTypeOneTime {
			desc += " (pago único)"
		}
		inv.Lines = append(inv.Lines, newLine(desc, inst.Quantity, inst.Price))
	}
	inv.Total = total(inv.Lines)
	return inv
}

func total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total)
	}
	return sum
}

// NewNumber returns an invoice number for the given issue date.
func NewNumber(issue time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("FC-%s-%s", issue.Format("20060102"), suffix)
}

func fromRemote(inv remote.Invoice) Invoice {
	out := Invoice{
		ID:        inv.ID,
		Number:    inv.Number,
		ClientID:  inv.ClientID,
		IssueDate: inv.IssueDate,
		DueDate:   inv.DueDate,
		Status:    inv.Status,
		Total:     inv.Total,
	}
	if out.Status == "" {
		out.Status = StatusPending
	}
	for _, l := range inv.Items {
		out.Lines = append(out.Lines, newLine(l.Description, l.Quantity, l.UnitPrice))
	}
	if out.Total.IsZero() {
		out.Total = total(out.Lines)
	}
	return out
}

func toRemote(inv Invoice) remote.InvoiceRequest {
	req := remote.InvoiceRequest{
		Number:    inv.Number,
		ClientID:  inv.ClientID,
		IssueDate: inv.IssueDate,
		DueDate:   inv.DueDate,
		Status:    inv.Status,
		Total:     inv.Total,
		Items:     make([]remote.InvoiceLine, 0, len(inv.Lines)),
	}
	for _, l := range inv.Lines {
		req.Items = append(req.Items, remote.InvoiceLine{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}
	return req
}
