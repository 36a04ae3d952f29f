package resource

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyemelianov/rapsflow/internal/raps"
)

type fakeInvoker struct {
	calls   int
	succeed bool
}

func (f *fakeInvoker) Execute(ctx context.Context, cmd raps.Command, timeout time.Duration, env map[string]string) (raps.Result, error) {
	f.calls++
	if f.succeed {
		return raps.Result{Success: true, ExitCode: 0}, nil
	}
	return raps.Result{Success: false, ExitCode: 1, Stderr: "boom"}, nil
}

func TestLedger_TrackAppliesDemoNaming(t *testing.T) {
	dir := t.TempDir()
	ledger := NewLedger(filepath.Join(dir, "ledger.json"), &fakeInvoker{succeed: true})

	r := New(KindBucket, Attributes{Region: "US"}, "ext-1", "production-bucket", "wf-1", nil)
	id, err := ledger.Track(r)
	require.NoError(t, err)

	tracked, ok := ledger.Get(id)
	require.True(t, ok)
	assert.True(t, IsDemoName(tracked.Name))
}

func TestLedger_UntrackRemovesFromAllIndexes(t *testing.T) {
	dir := t.TempDir()
	ledger := NewLedger(filepath.Join(dir, "ledger.json"), &fakeInvoker{succeed: true})

	r := New(KindBucket, Attributes{}, "ext-1", "demo-bucket", "wf-1", nil)
	id, err := ledger.Track(r)
	require.NoError(t, err)

	require.NoError(t, ledger.Untrack(id))
	assert.Empty(t, ledger.ResourcesFor("wf-1"))
	assert.Empty(t, ledger.AllResources())
}

func TestLedger_PersistenceAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.json")

	first := NewLedger(path, &fakeInvoker{succeed: true})
	r := New(KindBucket, Attributes{}, "ext-1", "demo-bucket", "wf-1", nil)
	id, err := first.Track(r)
	require.NoError(t, err)

	second := NewLedger(path, &fakeInvoker{succeed: true})
	tracked, ok := second.Get(id)
	require.True(t, ok)
	assert.Equal(t, "demo-bucket", tracked.Name)
}

func TestLedger_LoadMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	ledger := NewLedger(filepath.Join(dir, "does-not-exist.json"), &fakeInvoker{succeed: true})
	assert.Empty(t, ledger.AllResources())
}

func TestLedger_CleanupInvokesCleanupCommands(t *testing.T) {
	dir := t.TempDir()
	invoker := &fakeInvoker{succeed: true}
	ledger := NewLedger(filepath.Join(dir, "ledger.json"), invoker)

	r := New(KindBucket, Attributes{}, "ext-1", "demo-bucket", "w", nil)
	_, err := ledger.Track(r)
	require.NoError(t, err)

	// Scenario 5: DryRun cleanup is exercised at the cleanup orchestrator
	// layer (internal/cleanup), which never calls Ledger.Cleanup for that
	// mode. This test only asserts the ledger's own Cleanup does invoke.
	_, err = ledger.Cleanup(context.Background(), "w")
	require.NoError(t, err)
	assert.Equal(t, 1, invoker.calls)
}

func TestLedger_CostSummarySumsPerKindEstimates(t *testing.T) {
	dir := t.TempDir()
	ledger := NewLedger(filepath.Join(dir, "ledger.json"), &fakeInvoker{succeed: true})

	photoscene := New(KindPhotoscene, Attributes{}, "ps-1", "demo-photoscene", "w", nil)
	bucket := New(KindBucket, Attributes{}, "b-1", "demo-bucket", "w", nil)
	_, err := ledger.Track(photoscene)
	require.NoError(t, err)
	_, err = ledger.Track(bucket)
	require.NoError(t, err)

	summary := ledger.CostSummaryFor("w")
	assert.InDelta(t, 1.01, summary.TotalCost, 0.001)
}
