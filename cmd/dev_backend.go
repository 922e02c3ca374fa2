package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bnema/rag-agents-cli/internal/adapters/backend/stub"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const devBackendShutdownTimeout = 10 * time.Second

func newDevBackendCmd(app *app) *cobra.Command {
	var (
		listen         string
		ingestDuration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "dev-backend",
		Short: "Serve an in-memory RAG backend with a sample drive",
		Long:  "dev-backend serves the backend API from memory: agents, settings, a sample drive folder tree, simulated ingestion and keyword answers with citations. Point backend.url at it to try ra without the real backend.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := app.logger.Sub("devbackend")
			server := stub.New(stub.Options{
				IngestDuration: ingestDuration,
				Logger:         logger,
			})

			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", listen, err)
			}

			httpServer := &http.Server{
				Handler:           server.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Dev backend listening on http://%s\n", ln.Addr())

			g, gCtx := errgroup.WithContext(cmd.Context())

			g.Go(func() error {
				if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("serve dev backend: %w", err)
				}
				return nil
			})

			g.Go(func() error {
				quit := make(chan os.Signal, 1)
				signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
				defer signal.Stop(quit)

				select {
				case sig := <-quit:
					logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
				case <-gCtx.Done():
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), devBackendShutdownTimeout)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					logger.Error().Err(err).Msg("shutdown dev backend")
				}
				return nil
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:8000", "address to listen on")
	cmd.Flags().DurationVar(&ingestDuration, "ingest-duration", stub.DefaultIngestDuration, "how long simulated ingestion stays processing")
	return cmd
}
