package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/bnema/rag-agents-cli/internal/logging"
	"github.com/bnema/rag-agents-cli/internal/ports"
)

const GenericFaultAlert = "Unexpected error: see the log for details."

// Controller owns the session state and wires the components together. All
// methods must run on the loop's thread.
type Controller struct {
	State     *State
	Activity  *ActivityLog
	Agents    *AgentRegistry
	Browser   *FolderNavigator
	Editor    *AgentEditor
	Ingestion *IngestionMonitor
	Chat      *ChatSession
	Settings  *SettingsEditor

	logger *logging.Logger
	alert  string
}

func NewController(backend ports.Backend, loop ports.Loop, clock ports.Clock, logger *logging.Logger, opts Options) *Controller {
	opts = opts.withDefaults()
	if logger == nil {
		logger = logging.Nop()
	}

	state := &State{ActiveAgentID: opts.DefaultAgentID}
	activity := NewActivityLog(clock, opts.ActivityLimit, logger.Sub("activity"))
	agents := NewAgentRegistry(loop, backend, state, activity, logger.Sub("registry"))
	chat := NewChatSession(loop, backend, state, logger.Sub("chat"))
	agents.OnSelect(chat.SwitchAgent)

	return &Controller{
		State:     state,
		Activity:  activity,
		Agents:    agents,
		Browser:   NewFolderNavigator(loop, backend, activity, logger.Sub("navigator")),
		Editor:    NewAgentEditor(agents),
		Ingestion: NewIngestionMonitor(loop, backend, state, activity, logger.Sub("ingest"), opts),
		Chat:      chat,
		Settings:  NewSettingsEditor(loop, backend, activity, logger.Sub("settings"), opts),
		logger:    logger,
	}
}

func (c *Controller) Init(ctx context.Context) {
	c.Agents.Load(ctx)
}

func (c *Controller) SelectAgent(id domain.AgentID) error {
	return c.Agents.Select(id)
}

// EditActiveAgent opens the editor on the active agent.
func (c *Controller) EditActiveAgent() error {
	agent, ok := c.Agents.Active()
	if !ok {
		return fmt.Errorf("edit agent %q: %w", c.State.ActiveAgentID, domain.ErrAgentNotFound)
	}
	c.Editor.OpenEdit(agent)
	return nil
}

// BrowseForEditor opens the folder browser with the editor as its target.
func (c *Controller) BrowseForEditor(ctx context.Context) {
	c.Browser.Begin(ctx, c.Editor.SetFolder)
}

func (c *Controller) StartIngestion(ctx context.Context) bool {
	if !c.Ingestion.TriggerEnabled() {
		return false
	}
	c.Ingestion.Start(ctx, c.State.ActiveAgentID)
	return true
}

func (c *Controller) SendMessage(ctx context.Context, text string) bool {
	return c.Chat.Send(ctx, text)
}

// HandleFault is the last-resort handler for panics recovered by the loop.
// Faults without a usable message raise a generic alert; the rest replace
// the agent list with a diagnostic.
func (c *Controller) HandleFault(v any) {
	c.logger.Error().Interface("fault", v).Msg("unhandled fault")
	message := faultMessage(v)
	if message == "" {
		c.alert = GenericFaultAlert
		return
	}
	c.Agents.ShowDiagnostic("System error: " + message)
}

func (c *Controller) Alert() string { return c.alert }

func (c *Controller) DismissAlert() { c.alert = "" }

// Shutdown cancels timers owned by the components.
func (c *Controller) Shutdown() {
	c.Ingestion.Stop()
	c.Settings.Close()
}

func faultMessage(v any) string {
	switch fault := v.(type) {
	case nil:
		return ""
	case error:
		return strings.TrimSpace(fault.Error())
	case string:
		return strings.TrimSpace(fault)
	case fmt.Stringer:
		return strings.TrimSpace(fault.String())
	default:
		return ""
	}
}
