package application

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLoadEmptyListKeepsSelection(t *testing.T) {
	ctrl, loop, _ := newHarness(t)

	loadAgents(t, ctrl, loop)

	assert.True(t, ctrl.Agents.Loaded())
	assert.Empty(t, ctrl.Agents.Agents())
	assert.Equal(t, domain.DefaultAgentID, ctrl.State.ActiveAgentID)
	assert.NoError(t, ctrl.Agents.LoadErr())
}

func TestRegistryLoadFallsBackToFirstAgent(t *testing.T) {
	ctrl, loop, backend := newHarness(t)
	backend.Agents = sampleAgents()

	loadAgents(t, ctrl, loop)

	assert.Equal(t, domain.AgentID("eng"), ctrl.State.ActiveAgentID)
	assert.Len(t, ctrl.Agents.Agents(), 2)
	assert.Empty(t, ctrl.Chat.Turns(), "fallback selection does not greet")
}

func TestRegistryLoadKeepsActiveAgentWhenPresent(t *testing.T) {
	ctrl, loop, backend := newHarness(t)
	backend.Agents = sampleAgents()
	loadAgents(t, ctrl, loop)
	require.NoError(t, ctrl.SelectAgent("hr"))

	loadAgents(t, ctrl, loop)

	assert.Equal(t, domain.AgentID("hr"), ctrl.State.ActiveAgentID)
	assert.Equal(t, 2, backend.ListCalls)
}

func TestRegistryLoadErrorIsReportedAndCacheKept(t *testing.T) {
	ctrl, loop, backend := newHarness(t)
	backend.Agents = sampleAgents()
	loadAgents(t, ctrl, loop)

	backend.ListErr = errors.New("connection refused")
	loadAgents(t, ctrl, loop)

	err := ctrl.Agents.LoadErr()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLoad))
	assert.Len(t, ctrl.Agents.Agents(), 2)
	assert.False(t, ctrl.Agents.Loading())

	line, ok := ctrl.Activity.Last()
	require.True(t, ok)
	assert.Contains(t, line.Text, "Error loading agents")
}

func TestRegistrySelectClearsTranscriptAndGreets(t *testing.T) {
	ctrl, loop, backend := newHarness(t)
	backend.Agents = sampleAgents()
	backend.Answer = domain.Answer{Text: "hi"}
	loadAgents(t, ctrl, loop)

	require.True(t, ctrl.SendMessage(context.Background(), "hello"))
	loop.Flush()
	require.Len(t, ctrl.Chat.Turns(), 2)

	require.NoError(t, ctrl.SelectAgent("hr"))

	turns := ctrl.Chat.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, "Switched to HR. How can I help?", turns[0].Text)
	assert.Equal(t, domain.RoleAssistant, turns[0].Role)
	assert.Equal(t, domain.AgentID("hr"), ctrl.State.ActiveAgentID)
}

func TestRegistrySelectUnknownAgent(t *testing.T) {
	ctrl, loop, backend := newHarness(t)
	backend.Agents = sampleAgents()
	loadAgents(t, ctrl, loop)

	err := ctrl.SelectAgent("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAgentNotFound))
	assert.Equal(t, domain.AgentID("eng"), ctrl.State.ActiveAgentID)
}

func TestRegistrySaveValidationSkipsNetwork(t *testing.T) {
	ctrl, loop, backend := newHarness(t)

	for _, draft := range []domain.AgentDraft{
		{Name: "", FolderID: "f-1"},
		{Name: "Docs", FolderID: "  "},
	} {
		called := false
		err := ctrl.Agents.Save(context.Background(), draft, "", func(domain.Agent, error) { called = true })
		loop.Flush()

		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrValidation))
		assert.False(t, called)
	}
	assert.Empty(t, backend.SavedAgent)
	assert.Zero(t, backend.ListCalls)
}

func TestRegistrySaveDerivesIDAndReloads(t *testing.T) {
	ctrl, loop, backend := newHarness(t)

	var saved domain.Agent
	var saveErr error
	err := ctrl.Agents.Save(context.Background(), domain.AgentDraft{
		Name:     "My Agent!",
		FolderID: "f-1",
		LLM:      domain.DefaultLLMConfig(),
	}, "", func(agent domain.Agent, err error) {
		saved = agent
		saveErr = err
	})
	require.NoError(t, err)
	loop.Flush()

	require.NoError(t, saveErr)
	assert.Equal(t, domain.AgentID("my-agent-"), saved.ID)
	require.Len(t, backend.SavedAgent, 1)
	assert.Equal(t, domain.AgentID("my-agent-"), backend.SavedAgent[0].ID)
	assert.Equal(t, 1, backend.ListCalls)
	_, found := ctrl.Agents.Find("my-agent-")
	assert.True(t, found)
}

func TestRegistrySaveEditKeepsExistingID(t *testing.T) {
	ctrl, loop, backend := newHarness(t)
	backend.Agents = []domain.Agent{{ID: "my-agent-", Name: "My Agent!", FolderID: "f-1"}}
	loadAgents(t, ctrl, loop)

	draft := domain.DraftFromAgent(backend.Agents[0])
	draft.FolderID = "f-2"
	require.NoError(t, ctrl.Agents.Save(context.Background(), draft, "my-agent-", func(domain.Agent, error) {}))
	loop.Flush()

	require.Len(t, backend.SavedAgent, 1)
	assert.Equal(t, domain.AgentID("my-agent-"), backend.SavedAgent[0].ID)
	assert.Len(t, ctrl.Agents.Agents(), 1)
	assert.Equal(t, "f-2", ctrl.Agents.Agents()[0].FolderID)
}

func TestRegistrySaveFailureIsSaveError(t *testing.T) {
	ctrl, loop, backend := newHarness(t)
	backend.SaveErr = errors.New("boom")

	var saveErr error
	require.NoError(t, ctrl.Agents.Save(context.Background(), domain.AgentDraft{Name: "Docs", FolderID: "f"}, "", func(_ domain.Agent, err error) {
		saveErr = err
	}))
	loop.Flush()

	require.Error(t, saveErr)
	assert.True(t, errors.Is(saveErr, domain.ErrSave))
	assert.Zero(t, backend.ListCalls, "no reload after a failed save")
	assert.Empty(t, ctrl.Agents.Agents(), "no optimistic insert")
}
