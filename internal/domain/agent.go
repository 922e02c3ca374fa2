package domain

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type AgentID string

type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOllama Provider = "ollama"

	DefaultAgentID        AgentID = "default"
	DefaultProvider               = ProviderGemini
	DefaultOllamaBaseURL          = "http://localhost:11434"
	DefaultOllamaModel            = "llama3"
)

func (p Provider) Valid() bool {
	switch p {
	case ProviderGemini, ProviderOllama:
		return true
	default:
		return false
	}
}

type LLMConfig struct {
	Provider      Provider
	OllamaBaseURL string
	OllamaModel   string
}

func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:      DefaultProvider,
		OllamaBaseURL: DefaultOllamaBaseURL,
		OllamaModel:   DefaultOllamaModel,
	}
}

// WithDefaults fills every blank field from DefaultLLMConfig.
func (c LLMConfig) WithDefaults() LLMConfig {
	defaults := DefaultLLMConfig()
	if c.Provider == "" {
		c.Provider = defaults.Provider
	}
	if c.OllamaBaseURL == "" {
		c.OllamaBaseURL = defaults.OllamaBaseURL
	}
	if c.OllamaModel == "" {
		c.OllamaModel = defaults.OllamaModel
	}
	return c
}

func (c LLMConfig) UsesOllama() bool {
	return c.Provider == ProviderOllama
}

type Agent struct {
	ID         AgentID
	Name       string
	FolderID   string
	FolderName string
	LLM        *LLMConfig
}

// EffectiveLLM returns the agent's LLM config with defaults applied.
func (a Agent) EffectiveLLM() LLMConfig {
	if a.LLM == nil {
		return DefaultLLMConfig()
	}
	return a.LLM.WithDefaults()
}

// FolderLabel is the display label for the agent's folder: the cached name,
// or the tail of the folder id when no name is known.
func (a Agent) FolderLabel() string {
	if a.FolderName != "" {
		return a.FolderName
	}
	if len(a.FolderID) > 6 {
		return "..." + a.FolderID[len(a.FolderID)-6:]
	}
	return a.FolderID
}

// DeriveAgentID lowercases name and collapses every run of characters
// outside [a-z0-9] into a single "-".
func DeriveAgentID(name string) AgentID {
	var b strings.Builder
	inRun := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			inRun = false
			continue
		}
		if !inRun {
			b.WriteByte('-')
			inRun = true
		}
	}
	return AgentID(b.String())
}

type AgentDraft struct {
	Name       string
	FolderID   string
	FolderName string
	LLM        LLMConfig
}

func NewAgentDraft() AgentDraft {
	return AgentDraft{LLM: DefaultLLMConfig()}
}

func DraftFromAgent(agent Agent) AgentDraft {
	return AgentDraft{
		Name:       agent.Name,
		FolderID:   agent.FolderID,
		FolderName: agent.FolderName,
		LLM:        agent.EffectiveLLM(),
	}
}

func (d AgentDraft) normalized() AgentDraft {
	d.Name = strings.TrimSpace(d.Name)
	d.FolderID = strings.TrimSpace(d.FolderID)
	d.FolderName = strings.TrimSpace(d.FolderName)
	return d
}

func (d AgentDraft) Validate() error {
	n := d.normalized()
	err := validation.ValidateStruct(&n,
		validation.Field(&n.Name, validation.Required.Error("name is required")),
		validation.Field(&n.FolderID, validation.Required.Error("folder is required")),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// ToAgent builds the upsert payload. existing keeps the id of an agent being
// edited; a blank existing id derives one from the name.
func (d AgentDraft) ToAgent(existing AgentID) Agent {
	n := d.normalized()
	id := existing
	if id == "" {
		id = DeriveAgentID(n.Name)
	}
	llm := n.LLM.WithDefaults()
	return Agent{
		ID:         id,
		Name:       n.Name,
		FolderID:   n.FolderID,
		FolderName: n.FolderName,
		LLM:        &llm,
	}
}
