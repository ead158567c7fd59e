package clients

import (
	"github.com/shopspring/decimal"

	"github.com/billdesk/billdesk/internal/remote"
)

// Adapt converts an upstream record into a Client. It never fails: every
// missing field gets a default and legacy field names are honoured.
func Adapt(rec remote.ClientRecord) Client {
	c := Client{
		ID:           rec.ID,
		Name:         first(rec.Name),
		BusinessName: first(rec.BusinessName, rec.RazonSocial),
		Cuit:         first(rec.Cuit, rec.TaxID, rec.Dni),
		TaxCondition: first(rec.TaxCondition),
		Email:        first(rec.Email),
		Phone:        first(rec.Phone),
		Address:      first(rec.Address),
		City:         first(rec.City),
		Status:       first(rec.Status),
		IsActive:     true,
		Obs:          StripHTML(first(rec.Obs, rec.Notes)),
		InternalObs:  StripHTML(first(rec.InternalObs)),
		CreatedAt:    rec.CreatedAt,
	}
	if c.Status == "" {
		c.Status = DefaultStatus
	}
	if rec.IsActive != nil {
		c.IsActive = *rec.IsActive
	}
	c.Balance, c.Debt = money(rec.Balance, rec.Debt)
	return c
}

// money fills in whichever of balance/debt the upstream left out.
func money(balance, debt *decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	switch {
	case balance != nil && debt != nil:
		return *balance, *debt
	case balance != nil:
		if balance.IsNegative() {
			return *balance, balance.Neg()
		}
		return *balance, decimal.Zero
	case debt != nil:
		return debt.Neg(), *debt
	default:
		return decimal.Zero, decimal.Zero
	}
}

func first(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

// ToPayload emits every writable field of c. Read-only fields (id,
// created_at) and legacy aliases are never sent.
func ToPayload(c Client) remote.ClientPayload {
	return remote.ClientPayload{
		Name:         c.Name,
		BusinessName: c.BusinessName,
		Cuit:         c.Cuit,
		TaxCondition: c.TaxCondition,
		Email:        c.Email,
		Phone:        c.Phone,
		Address:      c.Address,
		City:         c.City,
		Status:       c.Status,
		IsActive:     c.IsActive,
		Balance:      c.Balance,
		Debt:         c.Debt,
		Obs:          c.Obs,
		InternalObs:  c.InternalObs,
	}
}
