package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/billdesk/billdesk/internal/remote"
	"github.com/billdesk/billdesk/jobs"
)

func newJobsCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage background jobs",
	}

	var id string
	trigger := &cobra.Command{
		Use:       "trigger <task>",
		Short:     "Enqueue a background task now",
		Example:   "  billdeskctl jobs trigger catalog:refresh\n  billdeskctl jobs trigger invoice:render --id 981",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{jobs.TaskCatalogRefresh, jobs.TaskInvoiceRender},
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := d.jobs()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if err := client.Trigger(ctx, args[0], remote.ID(id)); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s\n", args[0])
			return err
		},
	}
	trigger.Flags().StringVar(&id, "id", "", "target id for tasks that need one")

	cmd.AddCommand(trigger)
	return cmd
}
