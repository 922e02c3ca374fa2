package application

import (
	"context"
	"fmt"

	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/bnema/rag-agents-cli/internal/ports"
	"golang.org/x/sync/errgroup"
)

type Overview struct {
	Agents    []domain.Agent
	Active    *domain.Agent
	Settings  domain.Settings
	Ingestion domain.IngestionJob
}

// LoadOverview fetches agents, settings and agentID's ingestion status
// concurrently. The active agent follows the registry's fallback rule.
func LoadOverview(ctx context.Context, backend ports.Backend, agentID domain.AgentID) (Overview, error) {
	var overview Overview
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		agents, err := backend.ListAgents(ctx)
		if err != nil {
			return fmt.Errorf("list agents: %w", err)
		}
		overview.Agents = agents
		return nil
	})
	g.Go(func() error {
		settings, err := backend.GetSettings(ctx)
		if err != nil {
			return fmt.Errorf("get settings: %w", err)
		}
		overview.Settings = settings.WithDefaults()
		return nil
	})
	g.Go(func() error {
		job, err := backend.IngestionStatus(ctx, agentID)
		if err != nil {
			return fmt.Errorf("get ingestion status: %w", err)
		}
		overview.Ingestion = job
		return nil
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	for i := range overview.Agents {
		if overview.Agents[i].ID == agentID {
			overview.Active = &overview.Agents[i]
			break
		}
	}
	if overview.Active == nil && len(overview.Agents) > 0 {
		overview.Active = &overview.Agents[0]
	}
	return overview, nil
}
