package budget

import (
	"github.com/shopspring/decimal"

	"github.com/billdesk/billdesk/internal/catalog"
	"github.com/billdesk/billdesk/internal/remote"
)

// FromInstances builds budget items from the client's service instances.
// Active instances carrying an origin_plan_id are grouped into one Package
// per combo, in order of first appearance; the rest become Singles.
func FromInstances(instances []remote.ServiceInstance, snap catalog.Snapshot) []Item {
	var (
		out    []Item
		groups = map[remote.ID]int{}
	)
	for _, inst := range instances {
		if !inst.Active() {
			continue
		}
		single := singleFromInstance(inst)
		if inst.OriginPlanID == nil || inst.OriginPlanID.IsZero() {
			out = append(out, single)
			continue
		}
		comboID := *inst.OriginPlanID
		if idx, ok := groups[comboID]; ok {
			p := out[idx].(Package)
			p.Members = append(p.Members, single)
			out[idx] = p
			continue
		}
		p := Package{Key: "combo-" + comboID.String(), ComboID: comboID, Price: decimal.Zero}
		if c, ok := snap.Combo(comboID); ok {
			p.Name = c.Name
			p.Price = c.Price
		} else {
			p.Name = "Combo " + comboID.String()
		}
		p.Members = append(p.Members, single)
		groups[comboID] = len(out)
		out = append(out, p)
	}
	return out
}

func singleFromInstance(inst remote.ServiceInstance) Single {
	s := Single{
		Key:       inst.ID.String(),
		Ref:       Saved(inst.ID),
		Name:      inst.Name,
		Price:     inst.Price,
		Quantity:  inst.Quantity,
		Recurring: inst.Type != remote.ServiceTypeOneTime,
	}
	if inst.CatalogItemID != nil {
		s.CatalogItemID = *inst.CatalogItemID
	}
	return s
}

func activeOnly(instances []remote.ServiceInstance) []remote.ServiceInstance {
	out := make([]remote.ServiceInstance, 0, len(instances))
	for _, inst := range instances {
		if inst.Active() {
			out = append(out, inst)
		}
	}
	return out
}
