package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/billdesk/billdesk/internal/remote"
)

// Quote breaks down the effective price of a combo.
type Quote struct {
	ComboID  remote.ID       `json:"comboId"`
	Override bool            `json:"override"`
	Price    decimal.Decimal `json:"price"`
	Lines    []QuoteLine     `json:"lines"`
}

// QuoteLine is one member of a quoted combo.
type QuoteLine struct {
	CatalogItemID remote.ID       `json:"catalogItemId"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Total         decimal.Decimal `json:"total"`
	Stale         bool            `json:"stale,omitempty"`
}

// MemberPrice resolves the unit price of a member against the snapshot,
// falling back to the price stored with the combo.
func MemberPrice(m Member, snap Snapshot) (decimal.Decimal, string, bool) {
	if it, ok := snap.Item(m.CatalogItemID); ok {
		return it.Price, it.Name, true
	}
	return m.Price, m.Name, false
}

// EffectivePrice is the combo's manual price when set, otherwise the sum of
// catalog price times quantity over its members.
func EffectivePrice(c Combo, snap Snapshot) decimal.Decimal {
	return QuoteCombo(c, snap).Price
}

// QuoteCombo prices a combo and itemises its members.
func QuoteCombo(c Combo, snap Snapshot) Quote {
	q := Quote{ComboID: c.ID, Override: c.HasOverride()}
	sum := decimal.Zero
	for _, m := range c.Members {
		unit, name, found := MemberPrice(m, snap)
		total := unit.Mul(decimal.NewFromInt(int64(m.Qty())))
		sum = sum.Add(total)
		q.Lines = append(q.Lines, QuoteLine{
			CatalogItemID: m.CatalogItemID,
			Name:          name,
			Quantity:      m.Qty(),
			UnitPrice:     unit,
			Total:         total,
			Stale:         !found,
		})
	}
	if q.Override {
		q.Price = c.Price
	} else {
		q.Price = sum
	}
	return q
}
