package cmd

import (
	"errors"
	"fmt"

	"github.com/bnema/rag-agents-cli/internal/adapters/render/console"
	"github.com/bnema/rag-agents-cli/internal/application"
	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newAgentCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage RAG agents",
	}

	cmd.AddCommand(
		newAgentListCmd(app),
		newAgentSaveCmd(app),
		newAgentSelectCmd(app),
	)

	return cmd
}

func newAgentListCmd(app *app) *cobra.Command {
	var agentID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List agents and mark the active one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := app.newSession(cmd.Context(), agentID)
			defer s.close()

			if err := s.start(); err != nil {
				return err
			}

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
				return fmt.Errorf("render agents: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&agentID, "agent", "", "agent to mark as active")
	return cmd
}

type agentSaveFlags struct {
	editID      string
	name        string
	folderID    string
	folderName  string
	provider    string
	ollamaURL   string
	ollamaModel string
}

func newAgentSaveCmd(app *app) *cobra.Command {
	var flags agentSaveFlags

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create an agent, or update one with --edit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := app.newSession(cmd.Context(), flags.editID)
			defer s.close()

			if err := s.start(); err != nil {
				return err
			}

			var (
				saved     domain.AgentID
				submitErr error
			)
			s.do(func(ctrl *application.Controller) {
				saved, submitErr = submitAgent(cmd, ctrl, flags)
			})
			if submitErr != nil {
				return submitErr
			}

			if err := s.await(cmd.Context(), func(ctrl *application.Controller) bool {
				return !ctrl.Editor.Saving()
			}); err != nil {
				return err
			}

			var failure string
			s.do(func(ctrl *application.Controller) {
				if ctrl.Editor.IsOpen() {
					failure, _ = ctrl.Editor.Message()
				}
			})
			if failure != "" {
				return errors.New(failure)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved agent %s\n", saved)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.editID, "edit", "", "id of an existing agent to update")
	cmd.Flags().StringVar(&flags.name, "name", "", "agent name (new agents only)")
	cmd.Flags().StringVar(&flags.folderID, "folder-id", "", "drive folder id")
	cmd.Flags().StringVar(&flags.folderName, "folder-name", "", "drive folder display name")
	cmd.Flags().StringVar(&flags.provider, "provider", "", "LLM provider: gemini or ollama")
	cmd.Flags().StringVar(&flags.ollamaURL, "ollama-url", "", "ollama base URL")
	cmd.Flags().StringVar(&flags.ollamaModel, "ollama-model", "", "ollama model")
	return cmd
}

// submitAgent fills the editor from flags and submits it. It runs on the
// loop.
func submitAgent(cmd *cobra.Command, ctrl *application.Controller, flags agentSaveFlags) (domain.AgentID, error) {
	if flags.editID != "" {
		agent, ok := ctrl.Agents.Find(domain.AgentID(flags.editID))
		if !ok {
			return "", fmt.Errorf("edit agent %q: %w", flags.editID, domain.ErrAgentNotFound)
		}
		ctrl.Editor.OpenEdit(agent)
		if cmd.Flags().Changed("name") && flags.name != agent.Name {
			return "", application.ErrNameLocked
		}
	} else {
		ctrl.Editor.OpenCreate()
		if err := ctrl.Editor.SetName(flags.name); err != nil {
			return "", err
		}
	}

	draft := ctrl.Editor.Draft()
	if cmd.Flags().Changed("folder-id") {
		name := flags.folderName
		if name == "" && flags.folderID == draft.FolderID {
			name = draft.FolderName
		}
		ctrl.Editor.SetFolder(domain.FolderNode{ID: flags.folderID, Name: name})
	}
	if cmd.Flags().Changed("provider") {
		provider := domain.Provider(flags.provider)
		if !provider.Valid() {
			return "", fmt.Errorf("%w: unknown provider %q", domain.ErrValidation, flags.provider)
		}
		ctrl.Editor.SetProvider(provider)
	}
	if cmd.Flags().Changed("ollama-url") {
		ctrl.Editor.SetOllamaBaseURL(flags.ollamaURL)
	}
	if cmd.Flags().Changed("ollama-model") {
		ctrl.Editor.SetOllamaModel(flags.ollamaModel)
	}

	id := ctrl.Editor.Draft().ToAgent(ctrl.Editor.EditingID()).ID
	if err := ctrl.Editor.Submit(cmd.Context()); err != nil {
		message, _ := ctrl.Editor.Message()
		return "", fmt.Errorf("%s: %w", message, err)
	}
	return id, nil
}

func newAgentSelectCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "select ID",
		Short: "Check that an agent exists and greet as it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := app.newSession(cmd.Context(), "")
			defer s.close()

			if err := s.start(); err != nil {
				return err
			}

			var (
				greeting string
				err      error
			)
			s.do(func(ctrl *application.Controller) {
				if err = ctrl.SelectAgent(domain.AgentID(args[0])); err != nil {
					return
				}
				turns := ctrl.Chat.Turns()
				if len(turns) > 0 {
					greeting = turns[0].Text
				}
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), greeting)
			return err
		},
	}
}
