package cmd

import (
	"fmt"

	"github.com/bnema/rag-agents-cli/internal/adapters/render/console"
	"github.com/bnema/rag-agents-cli/internal/application"
	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newSettingsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the backend LLM settings",
	}

	cmd.AddCommand(
		newSettingsShowCmd(app),
		newSettingsSetCmd(app),
	)

	return cmd
}

// openSettings opens the settings editor and waits for the load.
func openSettings(cmd *cobra.Command, s *session) (domain.Settings, error) {
	s.do(func(ctrl *application.Controller) { ctrl.Settings.Open(cmd.Context()) })
	if err := s.await(cmd.Context(), func(ctrl *application.Controller) bool {
		return !ctrl.Settings.Loading()
	}); err != nil {
		return domain.Settings{}, err
	}

	var (
		settings domain.Settings
		err      error
	)
	s.do(func(ctrl *application.Controller) {
		settings = ctrl.Settings.Settings()
		err = ctrl.Settings.LastErr()
	})
	return settings, err
}

func newSettingsShowCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current LLM settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := app.newSession(cmd.Context(), "")
			defer s.close()

			settings, err := openSettings(cmd, s)
			if err != nil {
				return err
			}

			rendered, err := console.RenderSettings(settings)
			if err != nil {
				return fmt.Errorf("render settings: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}
}

func newSettingsSetCmd(app *app) *cobra.Command {
	var (
		provider    string
		ollamaURL   string
		ollamaModel string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the LLM settings and reload the backend's RAG chain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := app.newSession(cmd.Context(), "")
			defer s.close()

			if _, err := openSettings(cmd, s); err != nil {
				return err
			}

			var err error
			s.do(func(ctrl *application.Controller) {
				if cmd.Flags().Changed("provider") {
					ctrl.Settings.SetProvider(domain.Provider(provider))
				}
				if cmd.Flags().Changed("ollama-url") {
					ctrl.Settings.SetOllamaBaseURL(ollamaURL)
				}
				if cmd.Flags().Changed("ollama-model") {
					ctrl.Settings.SetOllamaModel(ollamaModel)
				}
				err = ctrl.Settings.Save(cmd.Context())
			})
			if err != nil {
				return err
			}

			if err := s.await(cmd.Context(), func(ctrl *application.Controller) bool {
				return !ctrl.Settings.Saving()
			}); err != nil {
				return err
			}

			var (
				message string
				saveErr error
			)
			s.do(func(ctrl *application.Controller) {
				message, _ = ctrl.Settings.Message()
				saveErr = ctrl.Settings.LastErr()
			})
			if saveErr != nil {
				return saveErr
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), message)
			return err
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider: gemini or ollama")
	cmd.Flags().StringVar(&ollamaURL, "ollama-url", "", "ollama base URL")
	cmd.Flags().StringVar(&ollamaModel, "ollama-model", "", "ollama model")
	return cmd
}
