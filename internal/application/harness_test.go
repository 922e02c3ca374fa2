package application

import (
	"context"
	"testing"
	"time"

	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/bnema/rag-agents-cli/internal/logging"
	"github.com/bnema/rag-agents-cli/internal/testutil"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func newHarness(t *testing.T) (*Controller, *testutil.ManualLoop, *testutil.FakeBackend) {
	t.Helper()
	return newHarnessWith(t, DefaultOptions())
}

func newHarnessWith(t *testing.T, opts Options) (*Controller, *testutil.ManualLoop, *testutil.FakeBackend) {
	t.Helper()

	loop := testutil.NewManualLoop()
	backend := testutil.NewFakeBackend()
	clock := fixedClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	ctrl := NewController(backend, loop, clock, logging.Nop(), opts)
	return ctrl, loop, backend
}

func sampleAgents() []domain.Agent {
	return []domain.Agent{
		{ID: "eng", Name: "Engineering", FolderID: "f-eng", FolderName: "Eng"},
		{ID: "hr", Name: "HR", FolderID: "f-hr", FolderName: "HR"},
	}
}

func loadAgents(t *testing.T, ctrl *Controller, loop *testutil.ManualLoop) {
	t.Helper()
	ctrl.Agents.Load(context.Background())
	loop.Flush()
}
