package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bnema/rag-agents-cli/internal/adapters/tui"
	"github.com/bnema/rag-agents-cli/internal/application"
	"github.com/bnema/rag-agents-cli/internal/ports"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const (
	uiLogFile     = "ra.log"
	uiLogFileMode = 0o600
	uiLogDirMode  = 0o700
)

func newUICmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive terminal UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logPath := filepath.Join(app.home, ".ra", uiLogFile)
			if err := os.MkdirAll(filepath.Dir(logPath), uiLogDirMode); err != nil {
				return fmt.Errorf("create log directory: %w", err)
			}
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, uiLogFileMode)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer func() { _ = logFile.Close() }()

			// The terminal belongs to the UI while it runs.
			app.setLogOutput(logFile)

			loop := tui.NewProgramLoop()
			defer loop.Close()

			ctrl := application.NewController(app.backend, loop, ports.SystemClock{}, app.logger, app.cfg.AppOptions())
			model := tui.NewApp(cmd.Context(), ctrl, tui.Options{ResolveURL: app.backend.ResolveURL})

			p := tea.NewProgram(model,
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
			)
			loop.Attach(p)

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run ui: %w", err)
			}
			return nil
		},
	}
}
