// Package console renders controller state for the non-interactive commands.
package console

import (
	"fmt"
	"strings"

	"github.com/bnema/rag-agents-cli/internal/application"
	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const defaultWidth = 80

type RenderOptions struct {
	Width int
	// ResolveURL turns a citation path into a link. Nil keeps paths as is.
	ResolveURL func(string) string
}

func (o RenderOptions) width() int {
	if o.Width <= 0 {
		return defaultWidth
	}
	return o.Width
}

func (o RenderOptions) resolve(path string) string {
	if o.ResolveURL == nil {
		return path
	}
	return o.ResolveURL(path)
}

func RenderAgents(agents []domain.Agent, activeID domain.AgentID) (string, error) {
	return render(func(s styles) string { return agentsView(agents, activeID, s) })
}

func RenderOverview(overview application.Overview) (string, error) {
	return render(func(s styles) string { return overviewView(overview, s) })
}

func RenderFolders(path []domain.FolderNode, folders []domain.FolderNode) (string, error) {
	return render(func(s styles) string { return foldersView(path, folders, s) })
}

func RenderSettings(settings domain.Settings) (string, error) {
	return render(func(s styles) string { return settingsView(settings, s) })
}

// RenderIngestion renders the status line the ingestion panel shows.
func RenderIngestion(snapshot application.IngestionSnapshot) string {
	label := snapshot.Label()
	if label == "" {
		return ""
	}
	return ToneStyle(snapshot.Tone).Render(label)
}

// RenderTurn renders one chat turn. Assistant text is markdown.
func RenderTurn(turn domain.ChatTurn, opts RenderOptions) string {
	s := newStyles()
	if turn.Role == domain.RoleUser {
		return s.user.Render("you") + " " + turn.Text
	}

	parts := []string{s.assistant.Render("assistant"), RenderMarkdown(turn.Text, opts.width())}
	if citations := turn.Citations(); len(citations) > 0 {
		parts = append(parts, citationsView(citations, opts, s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// RenderMarkdown falls back to the raw text when glamour cannot render it.
func RenderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}

	return strings.Trim(rendered, "\n")
}

func agentsView(agents []domain.Agent, activeID domain.AgentID, s styles) string {
	lines := []string{
		s.title.Render("Agents"),
		s.header.Render(fmt.Sprintf("agents: %d", len(agents))),
	}

	if len(agents) == 0 {
		lines = append(lines, s.empty.Render("No agents configured."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, agent := range agents {
		lines = append(lines, agentLine(agent, agent.ID == activeID, s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func agentLine(agent domain.Agent, active bool, s styles) string {
	marker, nameStyle := "  ", s.agent
	if active {
		marker, nameStyle = "* ", s.active
	}
	return marker + nameStyle.Render(agent.Name) + " " +
		s.header.Render("("+string(agent.ID)+")") + " " +
		s.folder.Render(agent.FolderLabel())
}

func overviewView(overview application.Overview, s styles) string {
	activeID := domain.AgentID("")
	if overview.Active != nil {
		activeID = overview.Active.ID
	}

	lines := []string{agentsView(overview.Agents, activeID, s)}
	lines = append(lines, s.section.Render(settingsView(overview.Settings, s)))

	ingestion := s.title.Render("Ingestion")
	if overview.Active != nil {
		ingestion += " " + s.header.Render(overview.Active.Name)
	}
	snapshot := application.IngestionSnapshot{Job: overview.Ingestion, Visible: true, Tone: application.ToneFor(overview.Ingestion.Status)}
	status := RenderIngestion(snapshot)
	if status == "" {
		status = s.empty.Render("No ingestion record.")
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, ingestion, status)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func foldersView(path []domain.FolderNode, folders []domain.FolderNode, s styles) string {
	stack := domain.NewPathStack()
	for _, node := range path {
		if node.ID == domain.RootFolderID {
			continue
		}
		stack.Push(node)
	}

	lines := []string{
		s.title.Render(stack.Breadcrumb()),
		s.header.Render(fmt.Sprintf("current: %s (%s)", stack.Top().Name, stack.Top().ID)),
	}
	if len(folders) == 0 {
		lines = append(lines, s.empty.Render(application.NoSubfoldersMessage))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for i, folder := range folders {
		lines = append(lines, fmt.Sprintf("%3d. %s %s", i+1, s.agent.Render(folder.Name), s.header.Render(folder.ID)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func settingsView(settings domain.Settings, s styles) string {
	llm := settings.WithDefaults().LLM
	lines := []string{
		s.title.Render("Settings"),
		s.key.Render("provider: ") + string(llm.Provider),
	}
	if llm.UsesOllama() {
		lines = append(lines,
			s.key.Render("ollama url: ")+llm.OllamaBaseURL,
			s.key.Render("ollama model: ")+llm.OllamaModel,
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func citationsView(citations []domain.Citation, opts RenderOptions, s styles) string {
	lines := []string{s.citation.Render("Sources:")}
	for _, citation := range citations {
		lines = append(lines, s.citation.Render("  - "+citation.Filename+" ")+s.link.Render(opts.resolve(citation.Path)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
