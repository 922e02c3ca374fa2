package application

import (
	"time"

	"github.com/bnema/rag-agents-cli/internal/domain"
)

// State is the session state read by every component. ActiveAgentID is
// written only by AgentRegistry.
type State struct {
	ActiveAgentID domain.AgentID
}

type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneMuted   Tone = "muted"
	TonePending Tone = "pending"
	ToneSuccess Tone = "success"
	ToneError   Tone = "error"
)

type Options struct {
	DefaultAgentID     domain.AgentID
	PollInterval       time.Duration
	GracePeriod        time.Duration
	Cooldown           time.Duration
	SettingsCloseDelay time.Duration
	ActivityLimit      int
}

func DefaultOptions() Options {
	return Options{
		DefaultAgentID:     domain.DefaultAgentID,
		PollInterval:       2 * time.Second,
		GracePeriod:        5 * time.Second,
		Cooldown:           2 * time.Second,
		SettingsCloseDelay: 1500 * time.Millisecond,
		ActivityLimit:      200,
	}
}

func (o Options) withDefaults() Options {
	defaults := DefaultOptions()
	if o.DefaultAgentID == "" {
		o.DefaultAgentID = defaults.DefaultAgentID
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.GracePeriod <= 0 {
		o.GracePeriod = defaults.GracePeriod
	}
	if o.Cooldown <= 0 {
		o.Cooldown = defaults.Cooldown
	}
	if o.SettingsCloseDelay <= 0 {
		o.SettingsCloseDelay = defaults.SettingsCloseDelay
	}
	if o.ActivityLimit <= 0 {
		o.ActivityLimit = defaults.ActivityLimit
	}
	return o
}
