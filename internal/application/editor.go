package application

import (
	"context"
	"errors"

	"github.com/bnema/rag-agents-cli/internal/domain"
)

var (
	ErrEditorClosed = errors.New("agent editor is not open")
	ErrNameLocked   = errors.New("agent name cannot change after creation")
)

const (
	editorRequiredMessage = "Name and Folder are required."
	editorSavingMessage   = "Saving..."
	editorFailedMessage   = "Error saving agent."
)

// AgentEditor is the local draft behind the add/edit agent form. An empty
// editing id means a new agent.
type AgentEditor struct {
	registry *AgentRegistry

	open      bool
	editingID domain.AgentID
	draft     domain.AgentDraft
	saving    bool
	message   string
	tone      Tone
	gen       uint64
}

func NewAgentEditor(registry *AgentRegistry) *AgentEditor {
	return &AgentEditor{registry: registry, draft: domain.NewAgentDraft()}
}

func (e *AgentEditor) OpenCreate() {
	e.reset()
	e.open = true
}

func (e *AgentEditor) OpenEdit(agent domain.Agent) {
	e.reset()
	e.open = true
	e.editingID = agent.ID
	e.draft = domain.DraftFromAgent(agent)
}

// Close discards the draft.
func (e *AgentEditor) Close() {
	e.reset()
}

func (e *AgentEditor) reset() {
	e.gen++
	e.open = false
	e.editingID = ""
	e.draft = domain.NewAgentDraft()
	e.saving = false
	e.message = ""
	e.tone = ToneNeutral
}

func (e *AgentEditor) IsOpen() bool { return e.open }

func (e *AgentEditor) Editing() bool { return e.editingID != "" }

func (e *AgentEditor) EditingID() domain.AgentID { return e.editingID }

func (e *AgentEditor) Draft() domain.AgentDraft { return e.draft }

func (e *AgentEditor) Saving() bool { return e.saving }

func (e *AgentEditor) Message() (string, Tone) { return e.message, e.tone }

func (e *AgentEditor) Title() string {
	if e.Editing() {
		return "Edit Agent"
	}
	return "Add New Agent"
}

// ShowOllamaFields is derived from the current provider on every call.
func (e *AgentEditor) ShowOllamaFields() bool {
	return e.open && e.draft.LLM.UsesOllama()
}

func (e *AgentEditor) SetName(name string) error {
	if e.Editing() {
		return ErrNameLocked
	}
	e.draft.Name = name
	return nil
}

// SetFolder is the browse target for the folder picker.
func (e *AgentEditor) SetFolder(folder domain.FolderNode) {
	e.draft.FolderID = folder.ID
	e.draft.FolderName = folder.Name
}

func (e *AgentEditor) SetProvider(provider domain.Provider) {
	e.draft.LLM.Provider = provider
}

func (e *AgentEditor) SetOllamaBaseURL(url string) {
	e.draft.LLM.OllamaBaseURL = url
}

func (e *AgentEditor) SetOllamaModel(model string) {
	e.draft.LLM.OllamaModel = model
}

// Submit saves the draft. The form closes once the registry has reloaded;
// closing or reopening in the meantime drops the result. Submitting again
// while a save is in flight does nothing.
func (e *AgentEditor) Submit(ctx context.Context) error {
	if !e.open {
		return ErrEditorClosed
	}
	if e.saving {
		return nil
	}

	gen := e.gen
	e.saving = true
	e.setMessage(editorSavingMessage, ToneMuted)

	err := e.registry.Save(ctx, e.draft, e.editingID, func(_ domain.Agent, err error) {
		if gen != e.gen {
			return
		}
		e.saving = false
		if err != nil {
			e.setMessage(editorFailedMessage, ToneError)
			return
		}
		e.reset()
	})
	if err != nil {
		e.saving = false
		e.setMessage(editorRequiredMessage, ToneError)
		return err
	}
	return nil
}

func (e *AgentEditor) setMessage(message string, tone Tone) {
	e.message = message
	e.tone = tone
}
