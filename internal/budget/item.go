// Package budget reconciles a client's edited budget against the service
// instances stored upstream.
package budget

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/billdesk/billdesk/internal/remote"
)

// Ref says whether an item already exists upstream and under which id.
type Ref struct {
	Persisted bool
	RemoteID  remote.ID
}

// Draft is the ref of an item that has not been saved yet.
var Draft = Ref{}

// Saved is the ref of a persisted service instance.
func Saved(id remote.ID) Ref {
	return Ref{Persisted: true, RemoteID: id}
}

// Item is one row of a budget: a Single or a Package.
type Item interface {
	ItemKey() string
	isItem()
}

// Single is a standalone service line.
type Single struct {
	Key             string
	Ref             Ref
	CatalogItemID   remote.ID
	Name            string
	Price           decimal.Decimal
	Quantity        int
	Recurring       bool
	CreateInCatalog bool
}

func (Single) isItem() {}

// ItemKey returns the correlation key of the line.
func (s Single) ItemKey() string { return s.Key }

// Qty returns the quantity, counting unset as one.
func (s Single) Qty() int {
	if s.Quantity <= 0 {
		return 1
	}
	return s.Quantity
}

// Total is price times quantity.
func (s Single) Total() decimal.Decimal {
	return s.Price.Mul(decimal.NewFromInt(int64(s.Qty())))
}

// Package is an instantiated combo. Its members are the service instances
// the upstream created when the combo was assigned.
type Package struct {
	Key     string
	ComboID remote.ID
	Name    string
	Price   decimal.Decimal
	Members []Single
}

func (Package) isItem() {}

// ItemKey returns the correlation key of the package.
func (p Package) ItemKey() string { return p.Key }

// Persisted reports whether any member already exists upstream.
func (p Package) Persisted() bool {
	for _, m := range p.Members {
		if m.Ref.Persisted {
			return true
		}
	}
	return false
}

// Total is the override price when set, otherwise the sum of member totals.
func (p Package) Total() decimal.Decimal {
	if !p.Price.IsZero() {
		return p.Price
	}
	sum := decimal.Zero
	for _, m := range p.Members {
		sum = sum.Add(m.Total())
	}
	return sum
}

// NewKey returns a fresh correlation key for a draft item.
func NewKey() string {
	return uuid.NewString()
}

// Totals splits a budget into recurring and one-time amounts. Packages count
// as recurring.
type Totals struct {
	Recurring decimal.Decimal `json:"recurring"`
	OneTime   decimal.Decimal `json:"oneTime"`
}

// Sum totals a budget.
func Sum(items []Item) Totals {
	t := Totals{Recurring: decimal.Zero, OneTime: decimal.Zero}
	for _, it := range items {
		switch v := it.(type) {
		case Single:
			if v.Recurring {
				t.Recurring = t.Recurring.Add(v.Total())
			} else {
				t.OneTime = t.OneTime.Add(v.Total())
			}
		case Package:
			t.Recurring = t.Recurring.Add(v.Total())
		}
	}
	return t
}
