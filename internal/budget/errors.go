package budget

import (
	"errors"
	"fmt"

	"github.com/billdesk/billdesk/internal/journal"
	"github.com/billdesk/billdesk/internal/platform/httpx"
	"github.com/billdesk/billdesk/internal/remote"
)

// ErrSaveInProgress is returned when another save for the same client holds
// the lock.
var ErrSaveInProgress = fmt.Errorf("budget: save already in progress: %w", httpx.ErrConflict)

// Phases of a save cycle.
const (
	PhaseLoad    = "load"
	PhaseCatalog = "catalog"
	PhaseAssign  = "assign"
	PhaseUpdate  = "update"
	PhaseCombo   = "combo"
	PhaseDelete  = "delete"
	PhaseReload  = "reload"
)

// Applied lists the remote writes a save cycle performed.
type Applied struct {
	CatalogItems []remote.ID `json:"catalogItems"`
	Assigned     []remote.ID `json:"assigned"`
	Combos       []remote.ID `json:"combos"`
	Updated      []remote.ID `json:"updated"`
	Deleted      []remote.ID `json:"deleted"`
}

// Count is the number of writes.
func (a Applied) Count() int {
	return len(a.CatalogItems) + len(a.Assigned) + len(a.Combos) + len(a.Updated) + len(a.Deleted)
}

// Writes flattens the applied writes for the journal.
func (a Applied) Writes() []journal.Write {
	out := make([]journal.Write, 0, a.Count())
	add := func(kind string, ids []remote.ID) {
		for _, id := range ids {
			out = append(out, journal.Write{Kind: kind, ID: id.String()})
		}
	}
	add("catalog", a.CatalogItems)
	add("assign", a.Assigned)
	add("combo", a.Combos)
	add("update", a.Updated)
	add("delete", a.Deleted)
	return out
}

// SyncError reports a save cycle that stopped part way. Writes listed in
// Applied were not rolled back.
type SyncError struct {
	ClientID remote.ID
	Phase    string
	Applied  Applied
	Err      error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("budget: save for client %s failed during %s after %d writes: %v",
		e.ClientID, e.Phase, e.Applied.Count(), e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// AsSyncError extracts a SyncError from err.
func AsSyncError(err error) (*SyncError, bool) {
	var se *SyncError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
