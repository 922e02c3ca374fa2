package cmd

import (
	"fmt"

	"github.com/bnema/rag-agents-cli/internal/adapters/render/console"
	"github.com/bnema/rag-agents-cli/internal/application"
	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newBrowseCmd(app *app) *cobra.Command {
	var (
		open []string
		up   int
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse drive folders from the root",
		Long:  "browse lists the sub-folders of the drive root. --open descends into folders by id, in order; --up then walks back up the path.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := app.newSession(cmd.Context(), "")
			defer s.close()

			settle := func() error {
				if err := s.await(cmd.Context(), func(ctrl *application.Controller) bool {
					return !ctrl.Browser.Loading()
				}); err != nil {
					return err
				}
				var err error
				s.do(func(ctrl *application.Controller) { err = ctrl.Browser.Err() })
				return err
			}

			s.do(func(ctrl *application.Controller) { ctrl.Browser.Begin(cmd.Context(), nil) })
			if err := settle(); err != nil {
				return err
			}

			for _, id := range open {
				var found bool
				s.do(func(ctrl *application.Controller) {
					for _, folder := range ctrl.Browser.Folders() {
						if folder.ID == id {
							found = true
							ctrl.Browser.Open(cmd.Context(), folder)
							return
						}
					}
				})
				if !found {
					return fmt.Errorf("open folder %q: not a sub-folder of the current folder", id)
				}
				if err := settle(); err != nil {
					return err
				}
			}

			if up > 0 {
				var err error
				s.do(func(ctrl *application.Controller) {
					err = ctrl.Browser.NavigateTo(cmd.Context(), ctrl.Browser.Depth()-1-up)
				})
				if err != nil {
					return err
				}
				if err := settle(); err != nil {
					return err
				}
			}

			var path, folders []domain.FolderNode
			s.do(func(ctrl *application.Controller) {
				path = ctrl.Browser.Path()
				folders = ctrl.Browser.Folders()
			})

			rendered, err := console.RenderFolders(path, folders)
			if err != nil {
				return fmt.Errorf("render folders: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringSliceVar(&open, "open", nil, "folder id to descend into (repeatable)")
	cmd.Flags().IntVar(&up, "up", 0, "levels to walk back up after --open")
	return cmd
}
