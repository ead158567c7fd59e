package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/billdesk/billdesk/internal/remote"
)

func itemFromRemote(it remote.CatalogItem) Item {
	return Item{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Price:       it.Price,
		Recurring:   it.Type != remote.ServiceTypeOneTime,
	}
}

func comboFromRemote(c remote.Combo) Combo {
	members := make([]Member, 0, len(c.Items))
	for _, m := range c.Items {
		price := decimal.Zero
		if m.Price != nil {
			price = *m.Price
		}
		members = append(members, Member{
			CatalogItemID: m.CatalogItemID,
			Name:          m.Name,
			Quantity:      m.Quantity,
			Price:         price,
		})
	}
	return Combo{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Price:       c.Price,
		Members:     members,
	}
}

func planFromRemote(p remote.Plan) Plan {
	return Plan{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		IsActive:    p.IsActive == nil || *p.IsActive,
	}
}

// ServiceType maps the recurring flag onto the upstream service type.
func ServiceType(recurring bool) string {
	if recurring {
		return remote.ServiceTypeRecurring
	}
	return remote.ServiceTypeOneTime
}

func itemToRemote(req ItemRequest) remote.CatalogItemRequest {
	return remote.CatalogItemRequest{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Type:        ServiceType(req.Recurring),
	}
}

func comboToRemote(req ComboRequest, snap Snapshot) remote.ComboRequest {
	items := make([]remote.ComboMember, 0, len(req.Members))
	for _, m := range req.Members {
		member := remote.ComboMember{CatalogItemID: m.CatalogItemID, Quantity: m.Quantity}
		if it, ok := snap.Item(m.CatalogItemID); ok {
			price := it.Price
			member.Name = it.Name
			member.Price = &price
		}
		items = append(items, member)
	}
	return remote.ComboRequest{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Items:       items,
	}
}

func planToRemote(req PlanRequest) remote.PlanRequest {
	return remote.PlanRequest{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		IsActive:    req.IsActive,
	}
}
