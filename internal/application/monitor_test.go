package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/bnema/rag-agents-cli/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startIngestion(t *testing.T, ctrl *Controller, loop *testutil.ManualLoop) {
	t.Helper()
	require.True(t, ctrl.StartIngestion(context.Background()))
	assert.False(t, ctrl.Ingestion.TriggerEnabled(), "trigger disables before the request settles")
	loop.Flush()
	require.True(t, ctrl.Ingestion.Polling())
}

func TestMonitorProcessingKeepsTriggerDisabled(t *testing.T) {
	ctrl, loop, backend := newHarness(t)
	backend.StartMessage = "Ingestion triggered for agent default"
	backend.Statuses = []testutil.StatusReply{testutil.Processing("Loading documents...")}

	startIngestion(t, ctrl, loop)
	loop.Advance(2 * time.Second)

	snap := ctrl.Ingestion.Snapshot()
	assert.False(t, snap.TriggerEnabled)
	assert.True(t, snap.Polling)
	assert.Equal(t, TonePending, snap.Tone)
	assert.Equal(t, "PROCESSING: Loading documents...", snap.Label())

	loop.Advance(4 * time.Second)
	assert.Len(t, backend.StatusCalls, 3)
	assert.True(t, ctrl.Ingestion.Polling())
}

func TestMonitorCompletedKeepsPollingForGracePeriod(t *testing.T) {
	ctrl, loop, backend := newHarness(t)
	backend.Statuses = []testutil.StatusReply{testutil.Completed("Ingestion complete")}

	startIngestion(t, ctrl, loop)
	loop.Advance(2 * time.Second)

	snap := ctrl.Ingestion.Snapshot()
	assert.True(t, snap.TriggerEnabled)
	assert.Equal(t, ToneSuccess, snap.Tone)
	assert.True(t, snap.Polling)
	require.Len(t, backend.StatusCalls, 1)

	loop.Advance(4 * time.Second)
	assert.True(t, ctrl.Ingestion.Polling(), "still alive inside the grace period")
	assert.Len(t, backend.StatusCalls, 3)

	loop.Advance(time.Second)
	assert.False(t, ctrl.Ingestion.Polling())

	loop.Advance(10 * time.Second)
	assert.Len(t, backend.StatusCalls, 3)
	assert.Equal(t, "COMPLETED: Ingestion complete", ctrl.Ingestion.Snapshot().Label())
}

func TestMonitorFailedStopsOnSameTick(t *testing.T) {
	ctrl, loop, backend := newHarness(t)
	backend.Statuses = []testutil.StatusReply{
		testutil.Processing("Loading"),
		testutil.Failed("drive unavailable"),
	}

	startIngestion(t, ctrl, loop)
	loop.Advance(4 * time.Second)

	snap := ctrl.Ingestion.Snapshot()
	assert.True(t, snap.TriggerEnabled)
	assert.False(t, snap.Polling)
	assert.Equal(t, ToneError, snap.Tone)
	assert.Zero(t, loop.ActiveTimers())

	loop.Advance(10 * time.Second)
	assert.Len(t, backend.StatusCalls, 2)
}

func TestMonitorPollErrorsAreIgnored(t *testing.T) {
	ctrl, loop, backend := newHarness(t)
	backend.Statuses = []testutil.StatusReply{
		testutil.Processing("Loading"),
		{Err: errors.New("connection reset")},
		testutil.Processing("Embedding"),
	}

	startIngestion(t, ctrl, loop)
	loop.Advance(2 * time.Second)
	loop.Advance(2 * time.Second)

	snap := ctrl.Ingestion.Snapshot()
	assert.Equal(t, "PROCESSING: Loading", snap.Label())
	assert.True(t, snap.Polling)

	loop.Advance(2 * time.Second)
	assert.Equal(t, "PROCESSING: Embedding", ctrl.Ingestion.Snapshot().Label())
}

func TestMonitorCooldownReenablesTrigger(t *testing.T) {
	ctrl, loop, backend := newHarness(t)
	backend.Statuses = []testutil.StatusReply{{Job: domain.IngestionJob{Status: domain.IngestionIdle, Message: "No ingestion record"}}}

	startIngestion(t, ctrl, loop)
	assert.False(t, ctrl.StartIngestion(context.Background()), "trigger is disabled during the cool-down")

	loop.Advance(2 * time.Second)

	snap := ctrl.Ingestion.Snapshot()
	assert.True(t, snap.TriggerEnabled)
	assert.Equal(t, ToneNeutral, snap.Tone)
	assert.True(t, snap.Polling, "idle does not end the cycle")
	assert.Len(t, backend.StartCalls, 1)
}

func TestMonitorCooldownDoesNotReenableWhileProcessing(t *testing.T) {
	opts := DefaultOptions()
	opts.Cooldown = 5 * time.Second
	opts.PollInterval = 2 * time.Second
	ctrl, loop, backend := newHarnessWith(t, opts)
	backend.Statuses = []testutil.StatusReply{testutil.Processing("Embedding")}

	startIngestion(t, ctrl, loop)

	loop.Advance(2 * time.Second)
	assert.False(t, ctrl.Ingestion.TriggerEnabled())

	loop.Advance(3 * time.Second)
	assert.False(t, ctrl.Ingestion.TriggerEnabled(), "processing outlasts the cool-down")
	assert.False(t, ctrl.StartIngestion(context.Background()))
	assert.Len(t, backend.StartCalls, 1)
}

func TestMonitorStartFailureStillPolls(t *testing.T) {
	ctrl, loop, backend := newHarness(t)
	backend.StartErr = &domain.APIError{StatusCode: 400, Detail: "Agent has no target folder set"}

	startIngestion(t, ctrl, loop)

	err := ctrl.Ingestion.LastErr()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIngestStart))
	line, _ := ctrl.Activity.Last()
	assert.Equal(t, "Error starting ingestion.", line.Text)
}

func TestMonitorSingleIntervalAcrossRestarts(t *testing.T) {
	ctrl, loop, backend := newHarness(t)
	backend.Statuses = []testutil.StatusReply{testutil.Processing("Loading")}
	ctx := context.Background()

	ctrl.Ingestion.Start(ctx, "default")
	loop.Flush()
	ctrl.Ingestion.Start(ctx, "default")
	loop.Flush()

	assert.Equal(t, 2, loop.ActiveTimers(), "one cool-down and one poll interval")
	loop.Advance(2 * time.Second)
	assert.Len(t, backend.StatusCalls, 1)
}

func TestMonitorDropsSupersededStartResult(t *testing.T) {
	ctrl, loop, backend := newHarness(t)
	ctx := context.Background()
	loop.Hold = true

	ctrl.Ingestion.Start(ctx, "default")
	ctrl.Ingestion.Start(ctx, "default")
	loop.RunWork(1)
	loop.RunWork(0)

	assert.Len(t, backend.StartCalls, 2)
	assert.Equal(t, 2, loop.ActiveTimers())
}

func TestMonitorDropsStalePollResponse(t *testing.T) {
	ctrl, loop, backend := newHarness(t)
	backend.Statuses = []testutil.StatusReply{
		testutil.Completed("done"),
		testutil.Processing("old news"),
	}
	loop.Hold = true

	ctrl.Ingestion.Start(context.Background(), "default")
	loop.RunWork(0)
	loop.Advance(2 * time.Second)
	loop.Advance(2 * time.Second)
	require.Equal(t, 2, loop.PendingWork())

	loop.RunWork(1)
	loop.RunWork(0)

	snap := ctrl.Ingestion.Snapshot()
	assert.Equal(t, domain.IngestionCompleted, snap.Job.Status)
	assert.True(t, snap.TriggerEnabled)
}

func TestMonitorPollsCurrentAgent(t *testing.T) {
	ctrl, loop, backend := newHarness(t)
	backend.Agents = sampleAgents()
	backend.Statuses = []testutil.StatusReply{testutil.Processing("Loading")}
	loadAgents(t, ctrl, loop)

	startIngestion(t, ctrl, loop)
	loop.Advance(2 * time.Second)
	require.NoError(t, ctrl.SelectAgent("hr"))
	loop.Advance(2 * time.Second)

	assert.Equal(t, []domain.AgentID{"eng"}, backend.StartCalls)
	assert.Equal(t, []domain.AgentID{"eng", "hr"}, backend.StatusCalls)
}

func TestMonitorStopCancelsTimers(t *testing.T) {
	ctrl, loop, _ := newHarness(t)

	startIngestion(t, ctrl, loop)
	ctrl.Shutdown()

	assert.False(t, ctrl.Ingestion.Polling())
	assert.Zero(t, loop.ActiveTimers())
}
