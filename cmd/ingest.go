package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/rag-agents-cli/internal/adapters/render/console"
	"github.com/bnema/rag-agents-cli/internal/application"
	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/spf13/cobra"
)

var errIngestionFailed = errors.New("ingestion failed")

func newIngestCmd(app *app) *cobra.Command {
	var (
		agentID string
		wait    bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Start ingesting the active agent's folder",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := app.newSession(cmd.Context(), agentID)
			defer s.close()

			if err := s.start(); err != nil {
				return err
			}

			var (
				before int
				target domain.AgentID
			)
			s.do(func(ctrl *application.Controller) {
				before = len(ctrl.Activity.Lines())
				target = ctrl.State.ActiveAgentID
				ctrl.StartIngestion(cmd.Context())
			})

			if err := s.await(cmd.Context(), func(ctrl *application.Controller) bool {
				return ctrl.Ingestion.Snapshot().Visible
			}); err != nil {
				return err
			}

			var (
				lines    []application.ActivityLine
				startErr error
			)
			s.do(func(ctrl *application.Controller) {
				lines = ctrl.Activity.Lines()
				startErr = ctrl.Ingestion.LastErr()
			})
			if before < len(lines) {
				for _, line := range lines[before:] {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), line.Text)
				}
			}
			if startErr != nil {
				return startErr
			}
			if !wait {
				return nil
			}

			fallback := fmt.Sprintf("Waiting for ingestion of %s...", target)
			status := func() (snapshot application.IngestionSnapshot) {
				s.do(func(ctrl *application.Controller) { snapshot = ctrl.Ingestion.Snapshot() })
				return snapshot
			}
			err := runIngestWait(cmd.Context(), cmd.ErrOrStderr(), fallback, status, func(ctx context.Context) error {
				return s.await(ctx, func(ctrl *application.Controller) bool {
					snapshot := ctrl.Ingestion.Snapshot()
					return snapshot.Job.Status.Terminal() || !snapshot.Polling
				})
			})
			if err != nil {
				return err
			}

			var snapshot application.IngestionSnapshot
			s.do(func(ctrl *application.Controller) { snapshot = ctrl.Ingestion.Snapshot() })
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), console.RenderIngestion(snapshot))

			if snapshot.Job.Status == domain.IngestionFailed {
				return fmt.Errorf("%w: %s", errIngestionFailed, snapshot.Job.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&agentID, "agent", "", "agent to ingest (default: agent.default)")
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the job completes or fails")
	return cmd
}
