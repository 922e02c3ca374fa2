package testutil

import (
	"context"
	"sync"

	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/bnema/rag-agents-cli/internal/ports"
)

type StatusReply struct {
	Job domain.IngestionJob
	Err error
}

type ChatCall struct {
	Query   string
	AgentID domain.AgentID
}

// FakeBackend is an in-memory ports.Backend with scripted replies and call
// recording. Status replies are consumed in order; the last one repeats.
type FakeBackend struct {
	mu sync.Mutex

	Agents     []domain.Agent
	ListErr    error
	ListCalls  int
	SaveErr    error
	SavedAgent []domain.Agent

	Folders     map[string][]domain.FolderNode
	BrowseErr   map[string]error
	BrowseCalls []string

	StartMessage string
	StartErr     error
	StartCalls   []domain.AgentID
	Statuses     []StatusReply
	StatusCalls  []domain.AgentID

	Answer    domain.Answer
	ChatErr   error
	ChatCalls []ChatCall

	Settings         domain.Settings
	GetSettingsErr   error
	SaveSettingsMsg  string
	SaveSettingsErr  error
	SavedSettings    []domain.Settings
	GetSettingsCalls int
}

var _ ports.Backend = (*FakeBackend)(nil)

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Folders:   map[string][]domain.FolderNode{},
		BrowseErr: map[string]error{},
		Settings:  domain.DefaultSettings(),
	}
}

func (b *FakeBackend) ListAgents(_ context.Context) ([]domain.Agent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ListCalls++
	if b.ListErr != nil {
		return nil, b.ListErr
	}
	return append([]domain.Agent(nil), b.Agents...), nil
}

func (b *FakeBackend) SaveAgent(_ context.Context, agent domain.Agent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.SavedAgent = append(b.SavedAgent, agent)
	if b.SaveErr != nil {
		return b.SaveErr
	}
	for i := range b.Agents {
		if b.Agents[i].ID == agent.ID {
			b.Agents[i] = agent
			return nil
		}
	}
	b.Agents = append(b.Agents, agent)
	return nil
}

func (b *FakeBackend) ListFolders(_ context.Context, parentID string) ([]domain.FolderNode, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.BrowseCalls = append(b.BrowseCalls, parentID)
	if err := b.BrowseErr[parentID]; err != nil {
		return nil, err
	}
	return append([]domain.FolderNode(nil), b.Folders[parentID]...), nil
}

func (b *FakeBackend) StartIngestion(_ context.Context, agentID domain.AgentID) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.StartCalls = append(b.StartCalls, agentID)
	if b.StartErr != nil {
		return "", b.StartErr
	}
	return b.StartMessage, nil
}

func (b *FakeBackend) IngestionStatus(_ context.Context, agentID domain.AgentID) (domain.IngestionJob, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.StatusCalls = append(b.StatusCalls, agentID)
	if len(b.Statuses) == 0 {
		return domain.IngestionJob{AgentID: agentID, Status: domain.IngestionIdle, Message: "No ingestion record"}, nil
	}
	reply := b.Statuses[0]
	if len(b.Statuses) > 1 {
		b.Statuses = b.Statuses[1:]
	}
	if reply.Err != nil {
		return domain.IngestionJob{}, reply.Err
	}
	job := reply.Job
	job.AgentID = agentID
	return job, nil
}

func (b *FakeBackend) Ask(_ context.Context, query string, agentID domain.AgentID) (domain.Answer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ChatCalls = append(b.ChatCalls, ChatCall{Query: query, AgentID: agentID})
	if b.ChatErr != nil {
		return domain.Answer{}, b.ChatErr
	}
	return b.Answer, nil
}

func (b *FakeBackend) GetSettings(_ context.Context) (domain.Settings, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.GetSettingsCalls++
	if b.GetSettingsErr != nil {
		return domain.Settings{}, b.GetSettingsErr
	}
	return b.Settings, nil
}

func (b *FakeBackend) SaveSettings(_ context.Context, settings domain.Settings) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.SavedSettings = append(b.SavedSettings, settings)
	if b.SaveSettingsErr != nil {
		return "", b.SaveSettingsErr
	}
	b.Settings = settings
	return b.SaveSettingsMsg, nil
}

// Processing, Completed and Failed script a status reply.
func Processing(message string) StatusReply {
	return StatusReply{Job: domain.IngestionJob{Status: domain.IngestionProcessing, Message: message}}
}

func Completed(message string) StatusReply {
	return StatusReply{Job: domain.IngestionJob{Status: domain.IngestionCompleted, Message: message}}
}

func Failed(message string) StatusReply {
	return StatusReply{Job: domain.IngestionJob{Status: domain.IngestionFailed, Message: message}}
}

// Snapshot accessors for tests that read from another goroutine.
func (b *FakeBackend) StatusCallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.StatusCalls)
}

func (b *FakeBackend) ChatCallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ChatCalls)
}
