package clients

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billdesk/billdesk/internal/platform/httpx"
	"github.com/billdesk/billdesk/internal/remote"
)

// DefaultStatus is the pipeline column of clients without a status.
const DefaultStatus = "lead"

// Client is the console's view of a client. Balance is negative when the
// client owes money; Debt is the positive amount owed.
type Client struct {
	ID           remote.ID       `json:"id"`
	Name         string          `json:"name"`
	BusinessName string          `json:"businessName"`
	Cuit         string          `json:"cuit"`
	TaxCondition string          `json:"taxCondition"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	City         string          `json:"city"`
	Status       string          `json:"status"`
	IsActive     bool            `json:"isActive"`
	Balance      decimal.Decimal `json:"balance"`
	Debt         decimal.Decimal `json:"debt"`
	Obs          string          `json:"obs"`
	InternalObs  string          `json:"internalObs"`
	CreatedAt    *time.Time      `json:"createdAt,omitempty"`
}

// Patch is a partial change. Nil fields keep their current value.
type Patch struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	BusinessName *string          `json:"businessName,omitempty" validate:"omitempty,max=200"`
	Cuit         *string          `json:"cuit,omitempty" validate:"omitempty,max=20"`
	TaxCondition *string          `json:"taxCondition,omitempty" validate:"omitempty,max=60"`
	Email        *string          `json:"email,omitempty" validate:"omitempty,email"`
	Phone        *string          `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address      *string          `json:"address,omitempty" validate:"omitempty,max=200"`
	City         *string          `json:"city,omitempty" validate:"omitempty,max=100"`
	Status       *string          `json:"status,omitempty" validate:"omitempty,min=1,max=60"`
	IsActive     *bool            `json:"isActive,omitempty"`
	Balance      *decimal.Decimal `json:"balance,omitempty"`
	Debt         *decimal.Decimal `json:"debt,omitempty"`
	Obs          *string          `json:"obs,omitempty"`
	InternalObs  *string          `json:"internalObs,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// Apply returns c with the patch applied. Balance and debt move together:
// setting one derives the other, and setting both requires debt to equal the
// negated balance (or zero when the balance is not negative).
func (p Patch) Apply(c Client) (Client, error) {
	setString(&c.Name, p.Name)
	setString(&c.BusinessName, p.BusinessName)
	setString(&c.Cuit, p.Cuit)
	setString(&c.TaxCondition, p.TaxCondition)
	setString(&c.Email, p.Email)
	setString(&c.Phone, p.Phone)
	setString(&c.Address, p.Address)
	setString(&c.City, p.City)
	setString(&c.Status, p.Status)
	setString(&c.Obs, p.Obs)
	setString(&c.InternalObs, p.InternalObs)
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	switch {
	case p.Balance != nil && p.Debt != nil:
		if _, debt := money(p.Balance, nil); !debt.Equal(*p.Debt) {
			return Client{}, fmt.Errorf("clients: %w: balance %s contradicts debt %s", httpx.ErrValidation, p.Balance, p.Debt)
		}
		c.Balance, c.Debt = *p.Balance, *p.Debt
	case p.Balance != nil:
		c.Balance, c.Debt = money(p.Balance, nil)
	case p.Debt != nil:
		c.Balance, c.Debt = money(nil, p.Debt)
	}
	return c, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// CreateRequest carries the fields of a new client.
type CreateRequest struct {
	Name         string          `json:"name" validate:"required,max=200"`
	BusinessName string          `json:"businessName" validate:"max=200"`
	Cuit         string          `json:"cuit" validate:"max=20"`
	TaxCondition string          `json:"taxCondition" validate:"max=60"`
	Email        string          `json:"email" validate:"omitempty,email"`
	Phone        string          `json:"phone" validate:"max=50"`
	Address      string          `json:"address" validate:"max=200"`
	City         string          `json:"city" validate:"max=100"`
	Status       string          `json:"status" validate:"max=60"`
	Balance      decimal.Decimal `json:"balance"`
	Obs          string          `json:"obs"`
	InternalObs  string          `json:"internalObs"`
}

// Client converts the request into a new active client.
func (r CreateRequest) Client() Client {
	status := r.Status
	if status == "" {
		status = DefaultStatus
	}
	c := Client{
		Name:         r.Name,
		BusinessName: r.BusinessName,
		Cuit:         r.Cuit,
		TaxCondition: r.TaxCondition,
		Email:        r.Email,
		Phone:        r.Phone,
		Address:      r.Address,
		City:         r.City,
		Status:       status,
		IsActive:     true,
		Balance:      r.Balance,
		Obs:          r.Obs,
		InternalObs:  r.InternalObs,
	}
	if r.Balance.IsNegative() {
		c.Debt = r.Balance.Neg()
	}
	return c
}
