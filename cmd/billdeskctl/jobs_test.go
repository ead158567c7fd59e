package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billdesk/billdesk/jobs"
)

type fakeEnqueuer struct {
	tasks  []*asynq.Task
	closed bool
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func (f *fakeEnqueuer) Close() error {
	f.closed = true
	return nil
}

func runJobs(t *testing.T, args ...string) (*fakeEnqueuer, string, error) {
	t.Helper()
	enq := &fakeEnqueuer{}
	root := newRootCmd(deps{jobs: func() (*jobs.Client, error) { return jobs.NewClientWith(enq), nil }})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	return enq, out.String(), err
}

func TestJobsTriggerCatalogRefresh(t *testing.T) {
	enq, out, err := runJobs(t, "jobs", "trigger", jobs.TaskCatalogRefresh)
	require.NoError(t, err)
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, jobs.TaskCatalogRefresh, enq.tasks[0].Type())
	assert.Equal(t, "enqueued catalog:refresh\n", out)
	assert.True(t, enq.closed)
}

func TestJobsTriggerInvoiceRenderNeedsID(t *testing.T) {
	enq, _, err := runJobs(t, "jobs", "trigger", jobs.TaskInvoiceRender)
	require.Error(t, err)
	assert.Empty(t, enq.tasks)

	enq, _, err = runJobs(t, "jobs", "trigger", jobs.TaskInvoiceRender, "--id", "981")
	require.NoError(t, err)
	require.Len(t, enq.tasks, 1)
	assert.JSONEq(t, `{"invoice_id":981}`, string(enq.tasks[0].Payload()))
}

func TestJobsTriggerUnknownTask(t *testing.T) {
	_, _, err := runJobs(t, "jobs", "trigger", "ledger:close")
	require.Error(t, err)
}
