package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/bnema/rag-agents-cli/internal/logging"
	"github.com/bnema/rag-agents-cli/internal/ports"
)

const (
	settingsLoadFailedMessage = "Error loading settings"
	settingsSaveFailedMessage = "Error saving settings"
)

// SettingsEditor edits the backend-wide LLM settings.
type SettingsEditor struct {
	loop       ports.Loop
	store      ports.SettingsStore
	activity   *ActivityLog
	logger     *logging.Logger
	closeDelay time.Duration

	open       bool
	loading    bool
	saving     bool
	settings   domain.Settings
	message    string
	tone       Tone
	lastErr    error
	closeTimer ports.Timer
	gen        uint64
}

func NewSettingsEditor(loop ports.Loop, store ports.SettingsStore, activity *ActivityLog, logger *logging.Logger, opts Options) *SettingsEditor {
	opts = opts.withDefaults()
	return &SettingsEditor{
		loop:       loop,
		store:      store,
		activity:   activity,
		logger:     logger,
		closeDelay: opts.SettingsCloseDelay,
		settings:   domain.DefaultSettings(),
	}
}

// Open shows the form and loads the current settings into it. Missing
// fields fall back to defaults; a failed load keeps the defaults.
func (s *SettingsEditor) Open(ctx context.Context) {
	s.reset()
	s.open = true
	s.loading = true
	gen := s.gen

	s.loop.Go(func() {
		settings, err := s.store.GetSettings(ctx)
		s.loop.Post(func() {
			if gen != s.gen {
				return
			}
			s.loading = false
			if err != nil {
				s.fail(settingsLoadFailedMessage, err, "load settings")
				return
			}
			s.settings = settings.WithDefaults()
		})
	})
}

func (s *SettingsEditor) Close() {
	s.reset()
}

func (s *SettingsEditor) reset() {
	s.gen++
	if s.closeTimer != nil {
		s.closeTimer.Stop()
		s.closeTimer = nil
	}
	s.open = false
	s.loading = false
	s.saving = false
	s.settings = domain.DefaultSettings()
	s.message = ""
	s.tone = ToneNeutral
	s.lastErr = nil
}

func (s *SettingsEditor) IsOpen() bool { return s.open }

func (s *SettingsEditor) Loading() bool { return s.loading }

func (s *SettingsEditor) Saving() bool { return s.saving }

func (s *SettingsEditor) Settings() domain.Settings { return s.settings }

func (s *SettingsEditor) Message() (string, Tone) { return s.message, s.tone }

func (s *SettingsEditor) LastErr() error { return s.lastErr }

func (s *SettingsEditor) ShowOllamaFields() bool {
	return s.open && s.settings.LLM.UsesOllama()
}

func (s *SettingsEditor) SetProvider(provider domain.Provider) {
	s.settings.LLM.Provider = provider
}

func (s *SettingsEditor) SetOllamaBaseURL(url string) {
	s.settings.LLM.OllamaBaseURL = url
}

func (s *SettingsEditor) SetOllamaModel(model string) {
	s.settings.LLM.OllamaModel = model
}

// Save posts the settings, shows the server's reply and closes the form
// after the configured delay.
func (s *SettingsEditor) Save(ctx context.Context) error {
	if !s.open {
		return errors.New("settings editor is not open")
	}
	if err := s.settings.Validate(); err != nil {
		s.setMessage(err.Error(), ToneError)
		return err
	}

	gen := s.gen
	settings := s.settings
	s.saving = true
	s.setMessage("Saving...", ToneMuted)

	s.loop.Go(func() {
		message, err := s.store.SaveSettings(ctx, settings)
		s.loop.Post(func() {
			if gen != s.gen {
				return
			}
			s.saving = false
			if err != nil {
				s.fail(settingsSaveFailedMessage, err, "save settings")
				return
			}
			s.lastErr = nil
			s.setMessage(message, ToneSuccess)
			s.activity.Logf("Systems updated: RAG chain reloaded with new settings.")
			s.closeTimer = s.loop.AfterFunc(s.closeDelay, func() {
				if gen == s.gen {
					s.closeTimer = nil
					s.reset()
				}
			})
		})
	})
	return nil
}

func (s *SettingsEditor) fail(message string, err error, op string) {
	if !errors.Is(err, domain.ErrSettings) {
		err = fmt.Errorf("%w: %w", domain.ErrSettings, err)
	}
	s.lastErr = err
	s.setMessage(message, ToneError)
	s.logger.Error().Err(err).Msg(op)
}

func (s *SettingsEditor) setMessage(message string, tone Tone) {
	s.message = message
	s.tone = tone
}
