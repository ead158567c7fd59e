package main

import (
	"github.com/spf13/cobra"

	"github.com/billdesk/billdesk/internal/app"
	"github.com/billdesk/billdesk/internal/remote"
	"github.com/billdesk/billdesk/jobs"
)

// deps builds the collaborators commands need. Tests swap them for fakes.
type deps struct {
	prober func() (patchProber, error)
	jobs   func() (*jobs.Client, error)
}

func defaultDeps() deps {
	return deps{
		prober: func() (patchProber, error) {
			cfg, err := app.LoadConfig()
			if err != nil {
				return nil, err
			}
			return remote.NewClient(cfg.APIURL, cfg.APIKey,
				remote.WithTimeout(cfg.APITimeout),
				remote.WithLogger(app.NewLogger(cfg)),
			)
		},
		jobs: func() (*jobs.Client, error) {
			cfg, err := app.LoadConfig()
			if err != nil {
				return nil, err
			}
			return jobs.NewClient(cfg.Asynq()), nil
		},
	}
}

func newRootCmd(d deps) *cobra.Command {
	root := &cobra.Command{
		Use:   "billdeskctl",
		Short: "Operational helpers for billdesk",
		Long: `billdeskctl runs one-off operations against the billing API and the
job queue. It reads the same environment variables as the billdesk server
(API_URL, API_KEY, REDIS_ADDR).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newProbeCmd(d), newJobsCmd(d))
	return root
}
