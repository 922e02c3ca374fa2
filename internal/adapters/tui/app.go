// Package tui is the interactive terminal front end of the controller.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/rag-agents-cli/internal/adapters/render/console"
	"github.com/bnema/rag-agents-cli/internal/application"
	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type pane int

const (
	paneChat pane = iota
	paneAgents
)

type field int

const (
	fieldName field = iota
	fieldFolder
	fieldProvider
	fieldOllamaURL
	fieldOllamaModel
)

var providers = []domain.Provider{domain.ProviderGemini, domain.ProviderOllama}

type Options struct {
	ResolveURL func(string) string
}

// chatCache holds the rendered transcript. It is shared between copies of
// App so View can refresh it.
type chatCache struct {
	signature string
	content   string
}

type App struct {
	ctx        context.Context
	ctrl       *application.Controller
	keys       KeyMap
	theme      theme
	resolveURL func(string) string

	width  int
	height int

	pane          pane
	agentCursor   int
	browserCursor int
	formField     field
	settingsField field
	settingsReady bool

	chatView viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	nameInput  textinput.Model
	urlInput   textinput.Model
	modelInput textinput.Model

	chat *chatCache
}

func NewApp(ctx context.Context, ctrl *application.Controller, opts Options) App {
	ta := textarea.New()
	ta.Placeholder = "Ask about your documents..."
	ta.CharLimit = 4096
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	return App{
		ctx:        ctx,
		ctrl:       ctrl,
		keys:       DefaultKeyMap(),
		theme:      newTheme(),
		resolveURL: opts.ResolveURL,
		chatView:   viewport.New(80, 20),
		input:      ta,
		spinner:    sp,
		nameInput:  newInput("Agent name"),
		urlInput:   newInput(domain.DefaultOllamaBaseURL),
		modelInput: newInput(domain.DefaultOllamaModel),
		chat:       &chatCache{},
	}
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	return ti
}

func (a App) Init() tea.Cmd {
	ctrl, ctx := a.ctrl, a.ctx
	return tea.Batch(
		textarea.Blink,
		a.spinner.Tick,
		func() tea.Msg { return runMsg{fn: func() { ctrl.Init(ctx) }} },
	)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case runMsg:
		a.run(msg.fn)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.relayout()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		if key.Matches(msg, a.keys.Quit) {
			a.ctrl.Shutdown()
			return a, tea.Quit
		}
		var cmd tea.Cmd
		a.run(func() { a, cmd = a.handleKey(msg) })
		cmds = append(cmds, cmd)
	}

	a.sync()
	return a, tea.Batch(cmds...)
}

// run executes fn on the loop thread and routes panics to the controller's
// fault handler.
func (a *App) run(fn func()) {
	defer func() {
		if v := recover(); v != nil {
			a.ctrl.HandleFault(v)
		}
	}()
	fn()
}

func (a App) handleKey(msg tea.KeyMsg) (App, tea.Cmd) {
	switch {
	case a.ctrl.Alert() != "":
		a.ctrl.DismissAlert()
		return a, nil
	case a.ctrl.Browser.IsOpen():
		return a.handleBrowserKey(msg)
	case a.ctrl.Editor.IsOpen():
		return a.handleEditorKey(msg)
	case a.ctrl.Settings.IsOpen():
		return a.handleSettingsKey(msg)
	}

	if key.Matches(msg, a.keys.SwitchPane) {
		if a.pane == paneChat {
			a.pane = paneAgents
			a.input.Blur()
			a.agentCursor = a.activeIndex()
			return a, nil
		}
		a.pane = paneChat
		return a, a.input.Focus()
	}

	if a.pane == paneAgents {
		return a.handleAgentsKey(msg)
	}
	return a.handleChatKey(msg)
}

func (a App) handleAgentsKey(msg tea.KeyMsg) (App, tea.Cmd) {
	agents := a.ctrl.Agents.Agents()
	switch {
	case key.Matches(msg, a.keys.Up):
		if a.agentCursor > 0 {
			a.agentCursor--
		}
	case key.Matches(msg, a.keys.Down):
		if a.agentCursor < len(agents)-1 {
			a.agentCursor++
		}
	case key.Matches(msg, a.keys.Submit):
		if a.agentCursor < len(agents) {
			_ = a.ctrl.SelectAgent(agents[a.agentCursor].ID)
			a.pane = paneChat
			return a, a.input.Focus()
		}
	case key.Matches(msg, a.keys.NewAgent):
		a.ctrl.Editor.OpenCreate()
		return a.openEditorForm()
	case key.Matches(msg, a.keys.EditAgent):
		if err := a.ctrl.EditActiveAgent(); err == nil {
			return a.openEditorForm()
		}
	case key.Matches(msg, a.keys.Ingest):
		a.ctrl.StartIngestion(a.ctx)
	case key.Matches(msg, a.keys.Settings):
		a.ctrl.Settings.Open(a.ctx)
		a.settingsField = fieldProvider
		a.settingsReady = false
	case key.Matches(msg, a.keys.Reload):
		a.ctrl.Agents.Load(a.ctx)
	}
	return a, nil
}

func (a App) handleChatKey(msg tea.KeyMsg) (App, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Submit):
		if a.ctrl.SendMessage(a.ctx, a.input.Value()) {
			a.input.Reset()
		}
		return a, nil
	case key.Matches(msg, a.keys.PageUp), key.Matches(msg, a.keys.PageDown):
		var cmd tea.Cmd
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a App) openEditorForm() (App, tea.Cmd) {
	draft := a.ctrl.Editor.Draft()
	a.nameInput.SetValue(draft.Name)
	a.urlInput.SetValue(draft.LLM.OllamaBaseURL)
	a.modelInput.SetValue(draft.LLM.OllamaModel)
	a.input.Blur()
	if a.ctrl.Editor.Editing() {
		return a.focusEditorField(fieldFolder)
	}
	return a.focusEditorField(fieldName)
}

func (a App) editorFields() []field {
	fields := []field{fieldName, fieldFolder, fieldProvider}
	if a.ctrl.Editor.Editing() {
		fields = fields[1:]
	}
	if a.ctrl.Editor.ShowOllamaFields() {
		fields = append(fields, fieldOllamaURL, fieldOllamaModel)
	}
	return fields
}

func (a App) focusEditorField(f field) (App, tea.Cmd) {
	a.formField = f
	a.nameInput.Blur()
	a.urlInput.Blur()
	a.modelInput.Blur()
	switch f {
	case fieldName:
		return a, a.nameInput.Focus()
	case fieldOllamaURL:
		return a, a.urlInput.Focus()
	case fieldOllamaModel:
		return a, a.modelInput.Focus()
	}
	return a, nil
}

func (a App) handleEditorKey(msg tea.KeyMsg) (App, tea.Cmd) {
	editor := a.ctrl.Editor
	switch {
	case key.Matches(msg, a.keys.Cancel):
		editor.Close()
		a.pane = paneChat
		return a, a.input.Focus()
	case key.Matches(msg, a.keys.Browse):
		a.ctrl.BrowseForEditor(a.ctx)
		a.browserCursor = 0
		return a, nil
	case key.Matches(msg, a.keys.NextField):
		return a.focusEditorField(step(a.editorFields(), a.formField, 1))
	case key.Matches(msg, a.keys.PrevField):
		return a.focusEditorField(step(a.editorFields(), a.formField, -1))
	case key.Matches(msg, a.keys.Submit):
		if a.formField == fieldFolder {
			a.ctrl.BrowseForEditor(a.ctx)
			a.browserCursor = 0
			return a, nil
		}
		_ = editor.Submit(a.ctx)
		return a, nil
	}

	var cmd tea.Cmd
	switch a.formField {
	case fieldName:
		a.nameInput, cmd = a.nameInput.Update(msg)
		if err := editor.SetName(a.nameInput.Value()); err != nil {
			a.nameInput.SetValue(editor.Draft().Name)
		}
	case fieldProvider:
		if key.Matches(msg, a.keys.Left) || key.Matches(msg, a.keys.Right) {
			editor.SetProvider(toggleProvider(editor.Draft().LLM.Provider))
		}
	case fieldOllamaURL:
		a.urlInput, cmd = a.urlInput.Update(msg)
		editor.SetOllamaBaseURL(a.urlInput.Value())
	case fieldOllamaModel:
		a.modelInput, cmd = a.modelInput.Update(msg)
		editor.SetOllamaModel(a.modelInput.Value())
	}
	return a, cmd
}

func (a App) handleBrowserKey(msg tea.KeyMsg) (App, tea.Cmd) {
	browser := a.ctrl.Browser
	folders := browser.Folders()
	switch {
	case key.Matches(msg, a.keys.Cancel):
		browser.Close()
	case key.Matches(msg, a.keys.Up):
		if a.browserCursor > 0 {
			a.browserCursor--
		}
	case key.Matches(msg, a.keys.Down):
		if a.browserCursor < len(folders)-1 {
			a.browserCursor++
		}
	case key.Matches(msg, a.keys.Submit):
		if a.browserCursor < len(folders) {
			browser.Open(a.ctx, folders[a.browserCursor])
			a.browserCursor = 0
		}
	case key.Matches(msg, a.keys.Parent):
		if depth := browser.Depth(); depth > 1 {
			_ = browser.NavigateTo(a.ctx, depth-2)
			a.browserCursor = 0
		}
	case key.Matches(msg, a.keys.Ancestor):
		if index := int(msg.Runes[0] - '1'); index < browser.Depth()-1 {
			_ = browser.NavigateTo(a.ctx, index)
			a.browserCursor = 0
		}
	case key.Matches(msg, a.keys.Choose):
		if a.browserCursor < len(folders) {
			browser.Select(folders[a.browserCursor])
		} else if current := browser.Current(); current.ID != domain.RootFolderID {
			browser.Select(current)
		}
	}
	return a, nil
}

func (a App) settingsFields() []field {
	if a.ctrl.Settings.ShowOllamaFields() {
		return []field{fieldProvider, fieldOllamaURL, fieldOllamaModel}
	}
	return []field{fieldProvider}
}

func (a App) focusSettingsField(f field) (App, tea.Cmd) {
	a.settingsField = f
	a.urlInput.Blur()
	a.modelInput.Blur()
	switch f {
	case fieldOllamaURL:
		return a, a.urlInput.Focus()
	case fieldOllamaModel:
		return a, a.modelInput.Focus()
	}
	return a, nil
}

func (a App) handleSettingsKey(msg tea.KeyMsg) (App, tea.Cmd) {
	settings := a.ctrl.Settings
	switch {
	case key.Matches(msg, a.keys.Cancel):
		settings.Close()
		return a, nil
	case settings.Loading():
		return a, nil
	case key.Matches(msg, a.keys.NextField):
		return a.focusSettingsField(step(a.settingsFields(), a.settingsField, 1))
	case key.Matches(msg, a.keys.PrevField):
		return a.focusSettingsField(step(a.settingsFields(), a.settingsField, -1))
	case key.Matches(msg, a.keys.Submit):
		_ = settings.Save(a.ctx)
		return a, nil
	}

	var cmd tea.Cmd
	switch a.settingsField {
	case fieldProvider:
		if key.Matches(msg, a.keys.Left) || key.Matches(msg, a.keys.Right) {
			settings.SetProvider(toggleProvider(settings.Settings().LLM.Provider))
		}
	case fieldOllamaURL:
		a.urlInput, cmd = a.urlInput.Update(msg)
		settings.SetOllamaBaseURL(a.urlInput.Value())
	case fieldOllamaModel:
		a.modelInput, cmd = a.modelInput.Update(msg)
		settings.SetOllamaModel(a.modelInput.Value())
	}
	return a, cmd
}

// sync pulls controller state the widgets mirror.
func (a *App) sync() {
	if a.ctrl.Settings.IsOpen() && !a.ctrl.Settings.Loading() && !a.settingsReady {
		llm := a.ctrl.Settings.Settings().LLM
		a.urlInput.SetValue(llm.OllamaBaseURL)
		a.modelInput.SetValue(llm.OllamaModel)
		a.settingsReady = true
	}
	if !a.ctrl.Editor.IsOpen() && !a.ctrl.Settings.IsOpen() && a.pane == paneChat && !a.input.Focused() {
		a.input.Focus()
	}

	if agents := a.ctrl.Agents.Agents(); a.agentCursor >= len(agents) {
		a.agentCursor = max(len(agents)-1, 0)
	}
	if folders := a.ctrl.Browser.Folders(); a.browserCursor >= len(folders) {
		a.browserCursor = max(len(folders)-1, 0)
	}

	if content, changed := a.transcript(); changed {
		a.chatView.SetContent(content)
		a.chatView.GotoBottom()
	}
}

func (a App) transcript() (string, bool) {
	turns := a.ctrl.Chat.Turns()
	signature := fmt.Sprintf("%d/%d", len(turns), a.chatView.Width)
	if len(turns) > 0 {
		signature += "/" + turns[0].Text + "/" + turns[len(turns)-1].Text
	}
	if signature == a.chat.signature {
		return a.chat.content, false
	}

	rendered := make([]string, 0, len(turns))
	opts := console.RenderOptions{Width: a.chatView.Width, ResolveURL: a.resolveURL}
	for _, turn := range turns {
		rendered = append(rendered, console.RenderTurn(turn, opts))
	}
	a.chat.signature = signature
	a.chat.content = strings.Join(rendered, "\n\n")
	return a.chat.content, true
}

func (a *App) relayout() {
	mainWidth := a.width - a.sidebarWidth()
	if mainWidth < 20 {
		mainWidth = 20
	}
	height := a.height - inputHeight - statusHeight - headerHeight
	if height < 3 {
		height = 3
	}

	a.chatView.Width = mainWidth - 2
	a.chatView.Height = height
	a.input.SetWidth(mainWidth - 4)
	a.nameInput.Width = mainWidth - 20
	a.urlInput.Width = mainWidth - 20
	a.modelInput.Width = mainWidth - 20
}

func (a App) activeIndex() int {
	for i, agent := range a.ctrl.Agents.Agents() {
		if agent.ID == a.ctrl.State.ActiveAgentID {
			return i
		}
	}
	return 0
}

func step(fields []field, current field, delta int) field {
	for i, f := range fields {
		if f == current {
			return fields[(i+delta+len(fields))%len(fields)]
		}
	}
	return fields[0]
}

func toggleProvider(current domain.Provider) domain.Provider {
	for i, provider := range providers {
		if provider == current {
			return providers[(i+1)%len(providers)]
		}
	}
	return domain.DefaultProvider
}
