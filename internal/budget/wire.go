package budget

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/billdesk/billdesk/internal/platform/httpx"
	"github.com/billdesk/billdesk/internal/remote"
)

// Item kinds on the wire.
const (
	KindSingle  = "single"
	KindPackage = "package"
)

// tempPrefix marks unsaved rows sent by older consoles.
const tempPrefix = "temp-"

// WireItem is the JSON shape of a budget row.
type WireItem struct {
	Type            string          `json:"type"`
	Key             string          `json:"key,omitempty"`
	ID              remote.ID       `json:"id,omitempty"`
	Persisted       *bool           `json:"persisted,omitempty"`
	CatalogItemID   remote.ID       `json:"catalogItemId,omitempty"`
	OriginPlanID    remote.ID       `json:"originPlanId,omitempty"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity,omitempty"`
	Recurring       bool            `json:"recurring"`
	CreateInCatalog bool            `json:"createInCatalog,omitempty"`
	Items           []WireItem      `json:"items,omitempty"`
	Total           decimal.Decimal `json:"total"`
}

// Encode converts budget items to their wire form.
func Encode(items []Item) []WireItem {
	out := make([]WireItem, 0, len(items))
	for _, it := range items {
		out = append(out, encodeItem(it))
	}
	return out
}

func encodeItem(it Item) WireItem {
	switch v := it.(type) {
	case Single:
		return encodeSingle(v)
	case Package:
		persisted := v.Persisted()
		w := WireItem{
			Type:         KindPackage,
			Key:          v.Key,
			Persisted:    &persisted,
			OriginPlanID: v.ComboID,
			Name:         v.Name,
			Price:        v.Price,
			Recurring:    true,
			Total:        v.Total(),
		}
		for _, m := range v.Members {
			w.Items = append(w.Items, encodeSingle(m))
		}
		return w
	default:
		panic(fmt.Sprintf("budget: unknown item %T", it))
	}
}

func encodeSingle(s Single) WireItem {
	persisted := s.Ref.Persisted
	return WireItem{
		Type:            KindSingle,
		Key:             s.Key,
		ID:              s.Ref.RemoteID,
		Persisted:       &persisted,
		CatalogItemID:   s.CatalogItemID,
		Name:            s.Name,
		Price:           s.Price,
		Quantity:        s.Qty(),
		Recurring:       s.Recurring,
		CreateInCatalog: s.CreateInCatalog,
		Total:           s.Total(),
	}
}

// Decode validates wire items and converts them to budget items. An id
// carrying the temp- prefix, or no id at all, marks an unsaved row unless
// persisted is given explicitly.
func Decode(wire []WireItem) ([]Item, error) {
	out := make([]Item, 0, len(wire))
	for i, w := range wire {
		it, err := decodeItem(w)
		if err != nil {
			return nil, fmt.Errorf("budget: item %d: %w", i, err)
		}
		out = append(out, it)
	}
	return out, nil
}

func decodeItem(w WireItem) (Item, error) {
	switch w.Type {
	case KindSingle, "":
		return decodeSingle(w)
	case KindPackage:
		if w.OriginPlanID.IsZero() {
			return nil, fmt.Errorf("%w: package without originPlanId", httpx.ErrValidation)
		}
		p := Package{Key: keyOf(w), ComboID: w.OriginPlanID, Name: w.Name, Price: w.Price}
		for _, m := range w.Items {
			s, err := decodeSingle(m)
			if err != nil {
				return nil, err
			}
			p.Members = append(p.Members, s)
		}
		if err := checkPackage(w, p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: unknown item type %q", httpx.ErrValidation, w.Type)
	}
}

// checkPackage keeps the package-level persisted flag consistent with its
// members. A saved package is sent back with its saved members only; new
// lines go next to it as singles.
func checkPackage(w WireItem, p Package) error {
	saved := p.Persisted()
	if w.Persisted != nil && *w.Persisted != saved {
		if *w.Persisted && len(p.Members) == 0 {
			return fmt.Errorf("%w: saved package %q sent without members", httpx.ErrValidation, p.Name)
		}
		return fmt.Errorf("%w: package %q persisted flag disagrees with its members", httpx.ErrValidation, p.Name)
	}
	if !saved {
		return nil
	}
	for _, m := range p.Members {
		if !m.Ref.Persisted {
			return fmt.Errorf("%w: saved package %q cannot take new member %q", httpx.ErrValidation, p.Name, m.Name)
		}
	}
	return nil
}

func decodeSingle(w WireItem) (Single, error) {
	if w.Price.IsNegative() {
		return Single{}, fmt.Errorf("%w: negative price", httpx.ErrValidation)
	}
	if w.Quantity < 0 {
		return Single{}, fmt.Errorf("%w: negative quantity", httpx.ErrValidation)
	}
	s := Single{
		Key:             keyOf(w),
		CatalogItemID:   w.CatalogItemID,
		Name:            strings.TrimSpace(w.Name),
		Price:           w.Price,
		Quantity:        w.Quantity,
		Recurring:       w.Recurring,
		CreateInCatalog: w.CreateInCatalog,
	}
	id := w.ID
	temp := id.IsZero() || strings.HasPrefix(id.String(), tempPrefix)
	switch {
	case w.Persisted != nil && *w.Persisted:
		if temp {
			return Single{}, fmt.Errorf("%w: persisted item without a remote id", httpx.ErrValidation)
		}
		s.Ref = Saved(id)
	case w.Persisted != nil:
		s.Ref = Draft
	case !temp:
		s.Ref = Saved(id)
	}
	if !s.Ref.Persisted && s.CreateInCatalog && s.Name == "" {
		return Single{}, fmt.Errorf("%w: custom item needs a name", httpx.ErrValidation)
	}
	return s, nil
}

func keyOf(w WireItem) string {
	switch {
	case w.Key != "":
		return w.Key
	case !w.ID.IsZero():
		return w.ID.String()
	default:
		return NewKey()
	}
}
