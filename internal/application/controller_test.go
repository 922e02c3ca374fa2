package application

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type opaqueFault struct{}

func TestControllerFaultRendersDiagnostic(t *testing.T) {
	ctrl, _, _ := newHarness(t)

	ctrl.HandleFault(errors.New("nil map write"))

	assert.Equal(t, "System error: nil map write", ctrl.Agents.Diagnostic())
	assert.Empty(t, ctrl.Alert())
}

func TestControllerOpaqueFaultRaisesAlert(t *testing.T) {
	ctrl, _, _ := newHarness(t)

	ctrl.HandleFault(opaqueFault{})

	assert.Equal(t, GenericFaultAlert, ctrl.Alert())
	assert.Empty(t, ctrl.Agents.Diagnostic())
	ctrl.DismissAlert()
	assert.Empty(t, ctrl.Alert())
}

func TestControllerSuccessfulLoadClearsDiagnostic(t *testing.T) {
	ctrl, loop, _ := newHarness(t)
	ctrl.HandleFault("boom")
	require.NotEmpty(t, ctrl.Agents.Diagnostic())

	ctrl.Init(context.Background())
	loop.Flush()

	assert.Empty(t, ctrl.Agents.Diagnostic())
}

func TestControllerEditActiveAgent(t *testing.T) {
	ctrl, loop, backend := newHarness(t)

	err := ctrl.EditActiveAgent()
	assert.True(t, errors.Is(err, domain.ErrAgentNotFound))

	backend.Agents = sampleAgents()
	loadAgents(t, ctrl, loop)
	require.NoError(t, ctrl.EditActiveAgent())
	assert.Equal(t, domain.AgentID("eng"), ctrl.Editor.EditingID())
}

func TestControllerActivityLogIsBounded(t *testing.T) {
	log := NewActivityLog(fixedClock{}, 2, nil)

	log.Logf("one")
	log.Logf("two")
	log.Logf("three %d", 3)

	lines := log.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "two", lines[0].Text)
	assert.Equal(t, "three 3", lines[1].Text)
}
