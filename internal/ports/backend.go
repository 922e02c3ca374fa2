package ports

import (
	"context"

	"github.com/bnema/rag-agents-cli/internal/domain"
)

type AgentStore interface {
	ListAgents(ctx context.Context) ([]domain.Agent, error)
	SaveAgent(ctx context.Context, agent domain.Agent) error
}

type FolderBrowser interface {
	ListFolders(ctx context.Context, parentID string) ([]domain.FolderNode, error)
}

type IngestionService interface {
	StartIngestion(ctx context.Context, agentID domain.AgentID) (string, error)
	IngestionStatus(ctx context.Context, agentID domain.AgentID) (domain.IngestionJob, error)
}

type ChatService interface {
	Ask(ctx context.Context, query string, agentID domain.AgentID) (domain.Answer, error)
}

type SettingsStore interface {
	GetSettings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, settings domain.Settings) (string, error)
}

// Backend is the full request/response contract of the RAG server.
type Backend interface {
	AgentStore
	FolderBrowser
	IngestionService
	ChatService
	SettingsStore
}
