package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/bnema/rag-agents-cli/internal/logging"
	"github.com/bnema/rag-agents-cli/internal/ports"
)

// AgentRegistry caches the backend's agent list and owns the active agent
// selection.
type AgentRegistry struct {
	loop     ports.Loop
	store    ports.AgentStore
	state    *State
	activity *ActivityLog
	logger   *logging.Logger

	agents     []domain.Agent
	loaded     bool
	loading    bool
	loadErr    error
	diagnostic string
	onSelect   func(domain.Agent)
}

func NewAgentRegistry(loop ports.Loop, store ports.AgentStore, state *State, activity *ActivityLog, logger *logging.Logger) *AgentRegistry {
	return &AgentRegistry{
		loop:     loop,
		store:    store,
		state:    state,
		activity: activity,
		logger:   logger,
	}
}

// OnSelect registers the callback run after every explicit selection.
func (r *AgentRegistry) OnSelect(fn func(domain.Agent)) {
	r.onSelect = fn
}

func (r *AgentRegistry) Agents() []domain.Agent {
	return append([]domain.Agent(nil), r.agents...)
}

func (r *AgentRegistry) Loaded() bool { return r.loaded }

func (r *AgentRegistry) Loading() bool { return r.loading }

func (r *AgentRegistry) LoadErr() error { return r.loadErr }

// Diagnostic is the last unhandled fault shown in place of the agent list.
func (r *AgentRegistry) Diagnostic() string { return r.diagnostic }

func (r *AgentRegistry) ActiveID() domain.AgentID { return r.state.ActiveAgentID }

func (r *AgentRegistry) Active() (domain.Agent, bool) {
	return r.Find(r.state.ActiveAgentID)
}

func (r *AgentRegistry) Find(id domain.AgentID) (domain.Agent, bool) {
	for _, agent := range r.agents {
		if agent.ID == id {
			return agent, true
		}
	}
	return domain.Agent{}, false
}

func (r *AgentRegistry) Load(ctx context.Context) {
	r.Refresh(ctx, nil)
}

// Refresh reloads the list and calls done, if set, once the result has been
// applied.
func (r *AgentRegistry) Refresh(ctx context.Context, done func(error)) {
	r.loading = true
	r.activity.Logf("Fetching agents...")
	r.loop.Go(func() {
		agents, err := r.store.ListAgents(ctx)
		r.loop.Post(func() {
			err = r.applyLoad(agents, err)
			if done != nil {
				done(err)
			}
		})
	})
}

func (r *AgentRegistry) applyLoad(agents []domain.Agent, err error) error {
	r.loading = false
	if err != nil {
		if !errors.Is(err, domain.ErrLoad) {
			err = fmt.Errorf("%w: %w", domain.ErrLoad, err)
		}
		r.loadErr = err
		r.activity.Logf("Error loading agents: %v", err)
		r.logger.Error().Err(err).Msg("load agents")
		return err
	}

	r.agents = agents
	r.loaded = true
	r.loadErr = nil
	r.diagnostic = ""
	r.activity.Logf("Loaded %d agents.", len(agents))

	if len(agents) > 0 {
		if _, ok := r.Find(r.state.ActiveAgentID); !ok {
			r.state.ActiveAgentID = agents[0].ID
			r.logger.Debug().Str("agent_id", string(agents[0].ID)).Msg("active agent fell back to first entry")
		}
	}
	return nil
}

func (r *AgentRegistry) Select(id domain.AgentID) error {
	agent, ok := r.Find(id)
	if !ok {
		return fmt.Errorf("select agent %q: %w", id, domain.ErrAgentNotFound)
	}

	r.state.ActiveAgentID = agent.ID
	r.activity.Logf("Switched to agent: %s", agent.Name)
	if r.onSelect != nil {
		r.onSelect(agent)
	}
	return nil
}

// Save validates draft and upserts it. A validation failure is returned
// immediately and nothing is sent. Otherwise done receives the saved agent
// after the follow-up reload, or the save error.
func (r *AgentRegistry) Save(ctx context.Context, draft domain.AgentDraft, editingID domain.AgentID, done func(domain.Agent, error)) error {
	if err := draft.Validate(); err != nil {
		return err
	}

	agent := draft.ToAgent(editingID)
	r.loop.Go(func() {
		err := r.store.SaveAgent(ctx, agent)
		r.loop.Post(func() {
			if err != nil {
				if !errors.Is(err, domain.ErrSave) {
					err = fmt.Errorf("%w: %w", domain.ErrSave, err)
				}
				r.activity.Logf("Error saving agent %s.", agent.ID)
				r.logger.Error().Err(err).Str("agent_id", string(agent.ID)).Msg("save agent")
				done(agent, err)
				return
			}
			r.activity.Logf("Saved agent %s.", agent.ID)
			r.Refresh(ctx, func(error) { done(agent, nil) })
		})
	})
	return nil
}

func (r *AgentRegistry) ShowDiagnostic(message string) {
	r.diagnostic = message
}
