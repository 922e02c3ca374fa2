package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/bnema/rag-agents-cli/internal/adapters/backend/httpapi"
	"github.com/bnema/rag-agents-cli/internal/config"
	"github.com/bnema/rag-agents-cli/internal/logging"
	"github.com/bnema/rag-agents-cli/internal/version"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	backendURL string
	logLevel   string
}

type app struct {
	flags rootFlags

	home       string
	cfg        *config.Config
	logger     *logging.Logger
	backend    *httpapi.Client
	httpClient *http.Client
	now        func() time.Time
}

// load resolves the config and builds the shared dependencies. Flags win
// over the config file and RA_* variables.
func (a *app) load(cmd *cobra.Command) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}

	cfg, err := config.Load(home)
	if err != nil {
		return err
	}
	if a.flags.backendURL != "" {
		cfg.Backend.URL = a.flags.backendURL
	}
	if a.flags.logLevel != "" {
		cfg.Log.Level = a.flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	a.home = home
	a.cfg = cfg
	if a.httpClient == nil {
		a.httpClient = http.DefaultClient
	}
	if a.now == nil {
		a.now = time.Now
	}
	a.setLogOutput(cmd.ErrOrStderr())
	return nil
}

// setLogOutput points the logger, and the backend client built from it,
// at w.
func (a *app) setLogOutput(w io.Writer) {
	if w == os.Stderr {
		w = nil
	}
	a.logger = logging.New(w, a.cfg.Log.Level)
	a.backend = &httpapi.Client{
		BaseURL:        a.cfg.Backend.URL,
		HTTPClient:     a.httpClient,
		RequestTimeout: a.cfg.Backend.Timeout,
		UserAgent:      "ra/" + version.Version,
		Now:            a.now,
		Logger:         a.logger.Sub("backend"),
	}
}
