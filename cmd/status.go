package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/bnema/rag-agents-cli/internal/adapters/render/console"
	"github.com/bnema/rag-agents-cli/internal/application"
	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *app) *cobra.Command {
	var (
		agentID string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show agents, settings and the active agent's ingestion status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if agentID == "" {
				agentID = app.cfg.Agent.Default
			}

			overview, err := application.LoadOverview(cmd.Context(), app.backend, domain.AgentID(agentID))
			if err != nil {
				return err
			}

			return writeOverviewOutput(cmd, overview, asJSON)
		},
	}

	cmd.Flags().StringVar(&agentID, "agent", "", "agent whose ingestion status to show (default: agent.default)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of the styled view")
	return cmd
}

func writeOverviewOutput(cmd *cobra.Command, overview application.Overview, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(overview)
	}

	rendered, err := console.RenderOverview(overview)
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
