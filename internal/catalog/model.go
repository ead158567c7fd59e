package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/billdesk/billdesk/internal/remote"
)

// Item is a reusable product or service with a list price.
type Item struct {
	ID          remote.ID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Recurring   bool            `json:"recurring"`
}

// Member is one catalog item inside a combo. Price is the member price the
// upstream stored with the combo and is only used when the catalog item no
// longer exists.
type Member struct {
	CatalogItemID remote.ID       `json:"catalogItemId"`
	Name          string          `json:"name,omitempty"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
}

// Qty returns the effective quantity; unset quantities count as one.
func (m Member) Qty() int {
	if m.Quantity <= 0 {
		return 1
	}
	return m.Quantity
}

// Combo is a named bundle of catalog items. A non-zero Price overrides the
// computed sum of its members.
type Combo struct {
	ID          remote.ID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Members     []Member        `json:"members"`
}

// HasOverride reports whether the combo carries a manual price.
func (c Combo) HasOverride() bool {
	return !c.Price.IsZero()
}

// Snapshot is the catalog as loaded at one point in time.
type Snapshot struct {
	Items    []Item    `json:"items"`
	Combos   []Combo   `json:"combos"`
	LoadedAt time.Time `json:"loadedAt"`
}

// Item looks up a catalog item by id.
func (s Snapshot) Item(id remote.ID) (Item, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Combo looks up a combo by id.
func (s Snapshot) Combo(id remote.ID) (Combo, bool) {
	for _, c := range s.Combos {
		if c.ID == id {
			return c, true
		}
	}
	return Combo{}, false
}

// ItemRequest creates or replaces a catalog item.
type ItemRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=500"`
	Price       decimal.Decimal `json:"price"`
	Recurring   bool            `json:"recurring"`
}

// MemberRequest is one line of a ComboRequest.
type MemberRequest struct {
	CatalogItemID remote.ID `json:"catalogItemId" validate:"required"`
	Quantity      int       `json:"quantity" validate:"gte=1,lte=1000"`
}

// ComboRequest creates or replaces a combo. Membership is set as a whole;
// combos are never edited member by member.
type ComboRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=500"`
	Price       decimal.Decimal `json:"price"`
	Members     []MemberRequest `json:"members" validate:"required,min=1,dive"`
}

// Plan is a legacy subscription plan.
type Plan struct {
	ID          remote.ID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	IsActive    bool            `json:"isActive"`
}

// PlanRequest creates or updates a plan.
type PlanRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=500"`
	Price       decimal.Decimal `json:"price"`
	IsActive    bool            `json:"isActive"`
}
