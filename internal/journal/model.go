// Package journal keeps a durable record of budget save cycles.
package journal

import "time"

// Outcomes of a save cycle.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Write is one remote mutation applied during a save cycle.
type Write struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Entry is one save cycle.
type Entry struct {
	ID             int64     `json:"id"`
	ClientID       string    `json:"clientId"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
	Outcome        string    `json:"outcome"`
	Phase          string    `json:"phase,omitempty"`
	CatalogCreated int       `json:"catalogCreated"`
	Assigned       int       `json:"assigned"`
	CombosAssigned int       `json:"combosAssigned"`
	Updated        int       `json:"updated"`
	Deleted        int       `json:"deleted"`
	Error          string    `json:"error,omitempty"`
	Writes         []Write   `json:"writes"`
}
