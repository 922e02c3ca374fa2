// Package wire holds the JSON bodies exchanged with the RAG backend.
package wire

import "github.com/bnema/rag-agents-cli/internal/domain"

type Agent struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	FolderID   string     `json:"folder_id"`
	FolderName string     `json:"folder_name"`
	LLMConfig  *LLMConfig `json:"llm_config,omitempty"`
}

type LLMConfig struct {
	Provider      string `json:"provider"`
	OllamaBaseURL string `json:"ollama_base_url,omitempty"`
	OllamaModel   string `json:"ollama_model,omitempty"`
}

type Settings struct {
	LLMProvider   string `json:"llm_provider"`
	OllamaBaseURL string `json:"ollama_base_url"`
	OllamaModel   string `json:"ollama_model"`
}

type Message struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

type IngestRequest struct {
	AgentID string `json:"agent_id"`
}

type IngestStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ChatRequest struct {
	Query   string `json:"query"`
	AgentID string `json:"agent_id"`
}

type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BrowseResponse struct {
	Folders  []Folder `json:"folders"`
	ParentID string   `json:"parent_id"`
}

type ErrorBody struct {
	Detail string `json:"detail"`
}

func FromAgent(agent domain.Agent) Agent {
	encoded := Agent{
		ID:         string(agent.ID),
		Name:       agent.Name,
		FolderID:   agent.FolderID,
		FolderName: agent.FolderName,
	}
	if agent.LLM != nil {
		encoded.LLMConfig = &LLMConfig{
			Provider:      string(agent.LLM.Provider),
			OllamaBaseURL: agent.LLM.OllamaBaseURL,
			OllamaModel:   agent.LLM.OllamaModel,
		}
	}
	return encoded
}

func (a Agent) ToDomain() domain.Agent {
	agent := domain.Agent{
		ID:         domain.AgentID(a.ID),
		Name:       a.Name,
		FolderID:   a.FolderID,
		FolderName: a.FolderName,
	}
	if a.LLMConfig != nil {
		agent.LLM = &domain.LLMConfig{
			Provider:      domain.Provider(a.LLMConfig.Provider),
			OllamaBaseURL: a.LLMConfig.OllamaBaseURL,
			OllamaModel:   a.LLMConfig.OllamaModel,
		}
	}
	return agent
}

func FromSettings(settings domain.Settings) Settings {
	return Settings{
		LLMProvider:   string(settings.LLM.Provider),
		OllamaBaseURL: settings.LLM.OllamaBaseURL,
		OllamaModel:   settings.LLM.OllamaModel,
	}
}

func (s Settings) ToDomain() domain.Settings {
	return domain.Settings{LLM: domain.LLMConfig{
		Provider:      domain.Provider(s.LLMProvider),
		OllamaBaseURL: s.OllamaBaseURL,
		OllamaModel:   s.OllamaModel,
	}}
}

func FromFolders(folders []domain.FolderNode) []Folder {
	encoded := make([]Folder, 0, len(folders))
	for _, folder := range folders {
		encoded = append(encoded, Folder{ID: folder.ID, Name: folder.Name})
	}
	return encoded
}

func (r BrowseResponse) ToDomain() []domain.FolderNode {
	folders := make([]domain.FolderNode, 0, len(r.Folders))
	for _, folder := range r.Folders {
		folders = append(folders, domain.FolderNode{ID: folder.ID, Name: folder.Name})
	}
	return folders
}
