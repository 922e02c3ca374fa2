package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/rag-agents-cli/internal/adapters/render/console"
	"github.com/bnema/rag-agents-cli/internal/application"
	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

const chatPrompt = "> "

var replCommands = []string{
	"/agents      list agents",
	"/use ID      switch to agent ID",
	"/quit        leave the chat",
}

func newChatCmd(app *app) *cobra.Command {
	var agentID string

	cmd := &cobra.Command{
		Use:   "chat [QUESTION...]",
		Short: "Ask the active agent, or start an interactive chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := app.newSession(cmd.Context(), agentID)
			defer s.close()

			if err := s.start(); err != nil {
				return err
			}

			opts := console.RenderOptions{ResolveURL: app.backend.ResolveURL}
			if len(args) > 0 {
				return askOnce(cmd.Context(), s, cmd.OutOrStdout(), strings.Join(args, " "), opts)
			}
			return runChatREPL(cmd, s, app.cfg.Chat.HistoryFile, opts)
		},
	}

	cmd.Flags().StringVar(&agentID, "agent", "", "agent to chat with (default: agent.default)")
	return cmd
}

// askOnce sends question and prints the answer turn.
func askOnce(ctx context.Context, s *session, out io.Writer, question string, opts console.RenderOptions) error {
	var sent bool
	s.do(func(ctrl *application.Controller) { sent = ctrl.SendMessage(ctx, question) })
	if !sent {
		return nil
	}

	if err := s.await(ctx, func(ctrl *application.Controller) bool {
		return !ctrl.Chat.Typing()
	}); err != nil {
		return err
	}

	var (
		turns []domain.ChatTurn
		err   error
	)
	s.do(func(ctrl *application.Controller) {
		turns = ctrl.Chat.Turns()
		err = ctrl.Chat.LastErr()
	})
	if len(turns) > 0 {
		_, _ = fmt.Fprintln(out, console.RenderTurn(turns[len(turns)-1], opts))
	}
	return err
}

func runChatREPL(cmd *cobra.Command, s *session, historyPath string, opts console.RenderOptions) error {
	out := cmd.OutOrStdout()

	if historyPath != "" {
		if err := os.MkdirAll(filepath.Dir(historyPath), 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            chatPrompt,
		HistoryFile:       historyPath,
		HistorySearchFold: true,
		Stdout:            out,
		Stderr:            cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("start line editor: %w", err)
	}
	defer func() { _ = rl.Close() }()

	var active domain.Agent
	s.do(func(ctrl *application.Controller) { active, _ = ctrl.Agents.Active() })
	_, _ = fmt.Fprintf(out, "Chatting with %s. Type /quit to leave.\n", active.Name)

	for {
		line, err := rl.Readline()
		if err != nil {
			switch {
			case errors.Is(err, readline.ErrInterrupt):
				continue
			case errors.Is(err, io.EOF):
				return nil
			default:
				return fmt.Errorf("read input: %w", err)
			}
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := handleREPLCommand(s, out, input)
			if err != nil {
				_, _ = fmt.Fprintln(out, console.ToneStyle(application.ToneError).Render(err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}

		if err := askOnce(cmd.Context(), s, out, input, opts); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
		}
	}
}

func handleREPLCommand(s *session, out io.Writer, input string) (bool, error) {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/agents":
		var (
			agents   []domain.Agent
			activeID domain.AgentID
		)
		s.do(func(ctrl *application.Controller) {
			agents = ctrl.Agents.Agents()
			activeID = ctrl.State.ActiveAgentID
		})
		rendered, err := console.RenderAgents(agents, activeID)
		if err != nil {
			return false, err
		}
		_, _ = fmt.Fprintln(out, rendered)
		return false, nil
	case "/use":
		if len(fields) != 2 {
			return false, errors.New("usage: /use ID")
		}
		var (
			greeting string
			err      error
		)
		s.do(func(ctrl *application.Controller) {
			if err = ctrl.SelectAgent(domain.AgentID(fields[1])); err != nil {
				return
			}
			turns := ctrl.Chat.Turns()
			greeting = turns[len(turns)-1].Text
		})
		if err != nil {
			return false, err
		}
		_, _ = fmt.Fprintln(out, greeting)
		return false, nil
	default:
		_, _ = fmt.Fprintln(out, "commands:")
		for _, c := range replCommands {
			_, _ = fmt.Fprintf(out, "  %s\n", c)
		}
		return false, nil
	}
}
