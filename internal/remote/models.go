package remote

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClientRecord is a client as the upstream returns it. Pointer fields are
// absent when the upstream omitted them; legacy names are kept alongside the
// current ones because older rows still carry them.
type ClientRecord struct {
	ID           ID               `json:"id"`
	Name         *string          `json:"name"`
	BusinessName *string          `json:"business_name"`
	RazonSocial  *string          `json:"razon_social"`
	Cuit         *string          `json:"cuit"`
	TaxID        *string          `json:"tax_id"`
	Dni          *string          `json:"dni"`
	TaxCondition *string          `json:"tax_condition"`
	Email        *string          `json:"email"`
	Phone        *string          `json:"phone"`
	Address      *string          `json:"address"`
	City         *string          `json:"city"`
	Status       *string          `json:"status"`
	IsActive     *bool            `json:"is_active"`
	Balance      *decimal.Decimal `json:"balance"`
	Debt         *decimal.Decimal `json:"debt"`
	Obs          *string          `json:"obs"`
	Notes        *string          `json:"notes"`
	InternalObs  *string          `json:"internal_obs"`
	CreatedAt    *time.Time       `json:"created_at"`
}

// ClientPayload is the complete writable client body. No field is omitted:
// the upstream clears anything missing from a PATCH.
type ClientPayload struct {
	Name         string          `json:"name"`
	BusinessName string          `json:"business_name"`
	Cuit         string          `json:"cuit"`
	TaxCondition string          `json:"tax_condition"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	City         string          `json:"city"`
	Status       string          `json:"status"`
	IsActive     bool            `json:"is_active"`
	Balance      decimal.Decimal `json:"balance"`
	Debt         decimal.Decimal `json:"debt"`
	Obs          string          `json:"obs"`
	InternalObs  string          `json:"internal_obs"`
}

// Service types.
const (
	ServiceTypeRecurring = "recurring"
	ServiceTypeOneTime   = "one_time"
)

// ServiceInstance is a billable line attached to a client.
type ServiceInstance struct {
	ID            ID              `json:"id"`
	ClientID      ID              `json:"client_id"`
	CatalogItemID *ID             `json:"catalog_item_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	IsActive      *bool           `json:"is_active"`
	Type          string          `json:"type"`
	OriginPlanID  *ID             `json:"origin_plan_id"`
	CreatedAt     *time.Time      `json:"created_at"`
}

// Active treats a missing flag as active.
func (s ServiceInstance) Active() bool {
	return s.IsActive == nil || *s.IsActive
}

// ServiceRequest assigns one service to a client.
type ServiceRequest struct {
	ClientID      ID              `json:"client_id"`
	CatalogItemID *ID             `json:"catalog_item_id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	Type          string          `json:"type"`
	IsActive      bool            `json:"is_active"`
	OriginComboID *ID             `json:"origin_combo_id"`
}

// CatalogItem is a reusable product or service definition.
type CatalogItem struct {
	ID          ID              `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Type        string          `json:"type"`
}

// CatalogItemRequest creates or updates a catalog item.
type CatalogItemRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Type        string          `json:"type"`
}

// ComboMember is one catalog item inside a combo.
type ComboMember struct {
	CatalogItemID ID               `json:"catalog_item_id"`
	Name          string           `json:"name,omitempty"`
	Quantity      int              `json:"quantity"`
	Price         *decimal.Decimal `json:"price,omitempty"`
}

// Combo is a named bundle of catalog items.
type Combo struct {
	ID          ID              `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Items       []ComboMember   `json:"items"`
}

// ComboRequest creates or replaces a combo.
type ComboRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Items       []ComboMember   `json:"items"`
}

// Plan is a legacy subscription plan.
type Plan struct {
	ID          ID              `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	IsActive    *bool           `json:"is_active"`
}

// PlanRequest creates or updates a plan.
type PlanRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	IsActive    bool            `json:"is_active"`
}

// InvoiceLine is one invoice row.
type InvoiceLine struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Invoice as stored upstream.
type Invoice struct {
	ID        ID              `json:"id"`
	Number    string          `json:"number"`
	ClientID  ID              `json:"client_id"`
	IssueDate string          `json:"issue_date"`
	DueDate   string          `json:"due_date"`
	Items     []InvoiceLine   `json:"items"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
}

// InvoiceRequest persists a generated invoice.
type InvoiceRequest struct {
	Number    string          `json:"number"`
	ClientID  ID              `json:"client_id"`
	IssueDate string          `json:"issue_date"`
	DueDate   string          `json:"due_date"`
	Items     []InvoiceLine   `json:"items"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
}
