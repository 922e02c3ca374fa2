package tui

import (
	"fmt"
	"strings"

	"github.com/bnema/rag-agents-cli/internal/adapters/render/console"
	"github.com/bnema/rag-agents-cli/internal/application"
	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const (
	inputHeight   = 5
	statusHeight  = 1
	headerHeight  = 2
	activityLines = 5
)

func (a App) sidebarWidth() int {
	if a.width < 80 {
		return 0
	}
	return min(max(a.width*30/100, 28), 44)
}

func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Initializing..."
	}

	var main string
	switch {
	case a.ctrl.Browser.IsOpen():
		main = a.renderBrowser()
	case a.ctrl.Editor.IsOpen():
		main = a.renderEditor()
	case a.ctrl.Settings.IsOpen():
		main = a.renderSettings()
	default:
		main = a.renderChat()
	}

	if width := a.sidebarWidth(); width > 0 {
		main = lipgloss.JoinHorizontal(lipgloss.Top, a.renderSidebar(width), main)
	}
	return lipgloss.JoinVertical(lipgloss.Left, main, a.renderStatusBar())
}

func (a App) renderSidebar(width int) string {
	t := a.theme
	parts := []string{t.title.Render("Agents")}

	registry := a.ctrl.Agents
	switch {
	case registry.Diagnostic() != "":
		parts = append(parts, t.errorMsg.Render(registry.Diagnostic()))
	case registry.Loading() && !registry.Loaded():
		parts = append(parts, t.muted.Render("Fetching agents..."))
	default:
		for i, agent := range registry.Agents() {
			line := agent.Name + " " + t.muted.Render(agent.FolderLabel())
			if agent.ID == registry.ActiveID() {
				line = t.active.Render("● "+agent.Name) + " " + t.muted.Render(agent.FolderLabel())
			} else {
				line = "  " + line
			}
			if a.pane == paneAgents && i == a.agentCursor {
				line = t.cursor.Render(">") + line
			} else {
				line = " " + line
			}
			parts = append(parts, line)
		}
	}

	parts = append(parts, "", t.title.Render("Ingestion"))
	snapshot := a.ctrl.Ingestion.Snapshot()
	if status := console.RenderIngestion(snapshot); status != "" {
		parts = append(parts, status)
	}
	if snapshot.TriggerEnabled {
		parts = append(parts, t.muted.Render("[i] start ingestion"))
	} else {
		parts = append(parts, t.muted.Render(a.spinner.View()+" ingestion busy"))
	}

	parts = append(parts, "", t.title.Render("Activity"))
	lines := a.ctrl.Activity.Lines()
	if len(lines) > activityLines {
		lines = lines[len(lines)-activityLines:]
	}
	for _, line := range lines {
		parts = append(parts, t.muted.Render(line.At.Format("15:04:05")+" "+line.Text))
	}

	return t.sidebar.Width(width).Height(a.height - statusHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}

func (a App) renderChat() string {
	t := a.theme
	header := t.title.Render("Chat")
	if agent, ok := a.ctrl.Agents.Active(); ok {
		header += " " + t.muted.Render("with "+agent.Name)
	}
	if a.ctrl.Chat.Typing() {
		header += " " + a.spinner.View() + t.muted.Render(" thinking...")
	}

	body := a.chatView.View()
	if len(a.ctrl.Chat.Turns()) == 0 {
		body = t.muted.Render("Select an agent with tab, then ask a question.")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		lipgloss.NewStyle().Height(a.chatView.Height).Render(body),
		t.input.Render(a.input.View()),
	)
}

func (a App) renderEditor() string {
	t := a.theme
	editor := a.ctrl.Editor
	draft := editor.Draft()

	rows := []string{t.title.Render(editor.Title()), ""}
	if editor.Editing() {
		rows = append(rows, a.formRow("Name", t.muted.Render(draft.Name+" (locked)"), false))
	} else {
		rows = append(rows, a.formRow("Name", a.nameInput.View(), a.formField == fieldName))
	}

	folder := t.muted.Render("none, press enter to browse")
	if draft.FolderID != "" {
		folder = draft.FolderName + " " + t.muted.Render(draft.FolderID)
	}
	rows = append(rows,
		a.formRow("Folder", folder, a.formField == fieldFolder),
		a.formRow("Provider", providerToggle(draft.LLM.Provider), a.formField == fieldProvider),
	)
	if editor.ShowOllamaFields() {
		rows = append(rows,
			a.formRow("Ollama URL", a.urlInput.View(), a.formField == fieldOllamaURL),
			a.formRow("Ollama model", a.modelInput.View(), a.formField == fieldOllamaModel),
		)
	}

	if message, tone := editor.Message(); message != "" {
		rows = append(rows, "", console.ToneStyle(tone).Render(message))
	}
	rows = append(rows, "", t.muted.Render("enter save · ctrl+b browse · tab next field · esc cancel"))
	return t.panel.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) renderBrowser() string {
	t := a.theme
	browser := a.ctrl.Browser

	crumbs := make([]string, 0, browser.Depth())
	for i, node := range browser.Path() {
		crumbs = append(crumbs, fmt.Sprintf("%d %s", i+1, node.Name))
	}
	rows := []string{t.title.Render("Select Folder"), t.muted.Render(strings.Join(crumbs, " > ")), ""}

	switch {
	case browser.Loading():
		rows = append(rows, a.spinner.View()+" Loading...")
	case browser.Err() != nil:
		rows = append(rows, t.errorMsg.Render("Error loading folders"))
	case browser.Empty():
		rows = append(rows, t.muted.Render(application.NoSubfoldersMessage))
	default:
		for i, folder := range browser.Folders() {
			line := "  📁 " + folder.Name
			if i == a.browserCursor {
				line = t.cursor.Render(">") + " 📁 " + t.focused.Render(folder.Name)
			}
			rows = append(rows, line)
		}
	}

	rows = append(rows, "", t.muted.Render("enter open · s select · ⌫ up · 1-9 jump · esc close"))
	return t.panel.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) renderSettings() string {
	t := a.theme
	settings := a.ctrl.Settings

	rows := []string{t.title.Render("Settings"), ""}
	if settings.Loading() {
		rows = append(rows, a.spinner.View()+" Loading...")
	} else {
		llm := settings.Settings().LLM
		rows = append(rows, a.formRow("Provider", providerToggle(llm.Provider), a.settingsField == fieldProvider))
		if settings.ShowOllamaFields() {
			rows = append(rows,
				a.formRow("Ollama URL", a.urlInput.View(), a.settingsField == fieldOllamaURL),
				a.formRow("Ollama model", a.modelInput.View(), a.settingsField == fieldOllamaModel),
			)
		}
	}

	if message, tone := settings.Message(); message != "" {
		rows = append(rows, "", console.ToneStyle(tone).Render(message))
	}
	rows = append(rows, "", t.muted.Render("enter save · ←/→ provider · tab next field · esc close"))
	return t.panel.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) renderStatusBar() string {
	if alert := a.ctrl.Alert(); alert != "" {
		return a.theme.alert.Render(alert + " (press any key)")
	}

	help := "tab agents · enter send · ctrl+c quit"
	if a.pane == paneAgents {
		help = "enter select · n new · e edit · i ingest · s settings · r reload · tab chat"
	}
	if last, ok := a.ctrl.Activity.Last(); ok {
		help = last.Text + " · " + help
	}
	return a.theme.status.Render(help)
}

func (a App) formRow(label string, value string, focused bool) string {
	l := a.theme.label.Render(label)
	if focused {
		l = a.theme.label.Inherit(a.theme.focused).Render(label)
	}
	return l + value
}

func providerToggle(current domain.Provider) string {
	parts := make([]string, 0, len(providers))
	for _, provider := range providers {
		if provider == current {
			parts = append(parts, fmt.Sprintf("[%s]", provider))
			continue
		}
		parts = append(parts, fmt.Sprintf(" %s ", provider))
	}
	return strings.Join(parts, " ")
}
