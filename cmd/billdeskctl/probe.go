package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/billdesk/billdesk/internal/clients"
	"github.com/billdesk/billdesk/internal/remote"
)

type patchProber interface {
	GetClient(ctx context.Context, id remote.ID) (remote.ClientRecord, error)
	CreateClient(ctx context.Context, body remote.ClientPayload) (remote.ClientRecord, error)
	PatchClient(ctx context.Context, id remote.ID, body remote.ClientPayload) (remote.ClientRecord, error)
	PatchClientRaw(ctx context.Context, id remote.ID, body map[string]any) (remote.ClientRecord, error)
}

// probeReport describes what a status-only PATCH did to a scratch copy.
type probeReport struct {
	SourceID    remote.ID `json:"sourceId"`
	ScratchID   remote.ID `json:"scratchId"`
	Cleared     []string  `json:"cleared"`
	Changed     []string  `json:"changed"`
	Destructive bool      `json:"destructive"`
}

func newProbeCmd(d deps) *cobra.Command {
	probe := &cobra.Command{
		Use:   "probe",
		Short: "Check upstream API behaviour",
	}

	var (
		clientID string
		status   string
		timeout  time.Duration
	)
	patch := &cobra.Command{
		Use:   "patch",
		Short: "Show which fields a partial PATCH clears",
		Long: `Copies the given client into a scratch client, sends a PATCH carrying
only the status field, and reports every other field the upstream cleared or
changed. The scratch client is deactivated afterwards; the source client is
never written.`,
		Example: `  billdeskctl probe patch --client 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clientID == "" {
				return errors.New("--client is required")
			}
			api, err := d.prober()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			report, err := probePatch(ctx, api, remote.ID(clientID), status)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	patch.Flags().StringVar(&clientID, "client", "", "id of the client to copy")
	patch.Flags().StringVar(&status, "status", "probe", "status value sent in the partial PATCH")
	patch.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall deadline")

	probe.AddCommand(patch)
	return probe
}

func probePatch(ctx context.Context, api patchProber, sourceID remote.ID, status string) (probeReport, error) {
	report := probeReport{SourceID: sourceID, Cleared: []string{}, Changed: []string{}}

	source, err := api.GetClient(ctx, sourceID)
	if err != nil {
		return report, fmt.Errorf("probe: load client %s: %w", sourceID, err)
	}
	payload := clients.ToPayload(clients.Adapt(source))
	payload.Name = "[probe] " + payload.Name
	payload.IsActive = true

	scratch, err := api.CreateClient(ctx, payload)
	if err != nil {
		return report, fmt.Errorf("probe: create scratch client: %w", err)
	}
	report.ScratchID = scratch.ID

	before, err := api.GetClient(ctx, scratch.ID)
	if err != nil {
		return report, fmt.Errorf("probe: load scratch client: %w", err)
	}
	if _, err := api.PatchClientRaw(ctx, scratch.ID, map[string]any{"status": status}); err != nil {
		return report, fmt.Errorf("probe: partial patch: %w", err)
	}
	after, err := api.GetClient(ctx, scratch.ID)
	if err != nil {
		return report, fmt.Errorf("probe: reload scratch client: %w", err)
	}

	prev, err := fieldsOf(clients.ToPayload(clients.Adapt(before)))
	if err != nil {
		return report, err
	}
	next, err := fieldsOf(clients.ToPayload(clients.Adapt(after)))
	if err != nil {
		return report, err
	}
	for field, was := range prev {
		if field == "status" {
			continue
		}
		now := next[field]
		if reflect.DeepEqual(was, now) {
			continue
		}
		if isZero(now) {
			report.Cleared = append(report.Cleared, field)
		} else {
			report.Changed = append(report.Changed, field)
		}
	}
	sort.Strings(report.Cleared)
	sort.Strings(report.Changed)
	report.Destructive = len(report.Cleared)+len(report.Changed) > 0

	retire := clients.ToPayload(clients.Adapt(before))
	retire.IsActive = false
	if _, err := api.PatchClient(ctx, scratch.ID, retire); err != nil {
		return report, fmt.Errorf("probe: deactivate scratch client %s: %w", scratch.ID, err)
	}
	return report, nil
}

func fieldsOf(p remote.ClientPayload) (map[string]any, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("probe: encode payload: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("probe: decode payload: %w", err)
	}
	return out, nil
}

func isZero(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case float64:
		return x == 0
	case bool:
		return !x
	default:
		return false
	}
}
