package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bnema/rag-agents-cli/internal/adapters/render/console"
	"github.com/bnema/rag-agents-cli/internal/application"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const ingestStatusRefresh = 250 * time.Millisecond

type ingestWaitDoneMsg struct {
	err error
}

type ingestStatusMsg struct {
	snapshot application.IngestionSnapshot
}

// ingestWaitModel spins until the wait command reports, showing the latest
// ingestion status next to the spinner.
type ingestWaitModel struct {
	spinner  spinner.Model
	fallback string
	snapshot application.IngestionSnapshot
	status   func() application.IngestionSnapshot
	wait     tea.Cmd
	err      error
	done     bool
}

func newIngestWaitModel(fallback string, status func() application.IngestionSnapshot, wait tea.Cmd) ingestWaitModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return ingestWaitModel{
		spinner:  s,
		fallback: fallback,
		status:   status,
		wait:     wait,
	}
}

func (m ingestWaitModel) refresh() tea.Cmd {
	return tea.Tick(ingestStatusRefresh, func(time.Time) tea.Msg {
		return ingestStatusMsg{snapshot: m.status()}
	})
}

func (m ingestWaitModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.wait, m.refresh())
}

func (m ingestWaitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case ingestStatusMsg:
		if m.done {
			return m, nil
		}
		m.snapshot = msg.snapshot
		return m, m.refresh()
	case ingestWaitDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m ingestWaitModel) View() string {
	if m.done {
		return ""
	}

	label := console.RenderIngestion(m.snapshot)
	if label == "" {
		label = m.fallback
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), label)
}

// runIngestWait shows a spinner on output until wait returns. status is
// sampled periodically for the label.
func runIngestWait(ctx context.Context, output io.Writer, fallback string, status func() application.IngestionSnapshot, wait func(context.Context) error) error {
	waitCmd := func() tea.Msg {
		return ingestWaitDoneMsg{err: wait(ctx)}
	}

	p := tea.NewProgram(
		newIngestWaitModel(fallback, status, waitCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(ingestWaitModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
