package budget

import (
	"fmt"

	"github.com/billdesk/billdesk/internal/platform/httpx"
	"github.com/billdesk/billdesk/internal/remote"
)

// Update rewrites a persisted single whose price or quantity changed.
type Update struct {
	ID     remote.ID
	Single Single
}

// Plan is the set of remote mutations that converges the upstream on the
// edited budget.
type Plan struct {
	// CatalogCreates are custom lines whose catalog item is created first.
	CatalogCreates []Single
	// Assigns are singles to attach to the client, in budget order.
	Assigns []Single
	// Resent counts persisted singles whose instance no longer exists
	// upstream; they are assigned again instead of being dropped.
	Resent int
	// Combos holds one entry per combo to assign.
	Combos  []remote.ID
	Updates []Update
	Deletes []remote.ID
}

// Empty reports whether the plan writes nothing.
func (p Plan) Empty() bool {
	return len(p.CatalogCreates) == 0 && len(p.Assigns) == 0 && len(p.Combos) == 0 &&
		len(p.Updates) == 0 && len(p.Deletes) == 0
}

// NewPlan diffs the previously loaded instances against the edited budget.
// Only active instances take part. An instance id is never both deleted and
// assigned in the same plan. A saved package is immutable: adding members to
// it or repricing them is rejected with httpx.ErrValidation.
func NewPlan(previous []remote.ServiceInstance, current []Item) (Plan, error) {
	prev := make(map[remote.ID]remote.ServiceInstance, len(previous))
	for _, inst := range activeOnly(previous) {
		prev[inst.ID] = inst
	}

	var (
		plan      Plan
		kept      = map[remote.ID]bool{}
		comboSeen = map[remote.ID]bool{}
	)
	addSingle := func(s Single) {
		if s.CreateInCatalog && s.CatalogItemID.IsZero() {
			plan.CatalogCreates = append(plan.CatalogCreates, s)
		}
		plan.Assigns = append(plan.Assigns, s)
	}

	for _, it := range current {
		switch v := it.(type) {
		case Single:
			if !v.Ref.Persisted {
				addSingle(v)
				continue
			}
			inst, ok := prev[v.Ref.RemoteID]
			if !ok {
				v.Ref = Draft
				plan.Resent++
				addSingle(v)
				continue
			}
			kept[inst.ID] = true
			if changed(inst, v) {
				plan.Updates = append(plan.Updates, Update{ID: inst.ID, Single: v})
			}
		case Package:
			if v.Persisted() {
				for _, m := range v.Members {
					if !m.Ref.Persisted {
						return Plan{}, fmt.Errorf("budget: %w: package %q is saved and cannot take new member %q",
							httpx.ErrValidation, v.Name, m.Name)
					}
					if inst, ok := prev[m.Ref.RemoteID]; ok && changed(inst, m) {
						return Plan{}, fmt.Errorf("budget: %w: package %q is saved and member %q cannot be edited",
							httpx.ErrValidation, v.Name, m.Name)
					}
					kept[m.Ref.RemoteID] = true
				}
				continue
			}
			if !comboSeen[v.ComboID] {
				comboSeen[v.ComboID] = true
				plan.Combos = append(plan.Combos, v.ComboID)
			}
		}
	}

	for _, inst := range activeOnly(previous) {
		if !kept[inst.ID] {
			plan.Deletes = append(plan.Deletes, inst.ID)
		}
	}
	return plan, nil
}

func changed(inst remote.ServiceInstance, s Single) bool {
	qty := inst.Quantity
	if qty <= 0 {
		qty = 1
	}
	return !inst.Price.Equal(s.Price) || qty != s.Qty()
}
