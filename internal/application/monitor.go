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

type IngestionSnapshot struct {
	Job            domain.IngestionJob
	Visible        bool
	Tone           Tone
	TriggerEnabled bool
	Polling        bool
	LastErr        error
}

func (s IngestionSnapshot) Label() string {
	if !s.Visible || s.Job.Status == "" {
		return ""
	}
	return s.Job.Label()
}

// IngestionMonitor starts ingestion jobs and polls their status until a
// terminal state.
//
// Start and poll requests carry per-agent sequence numbers: a start result
// is applied only if no newer start was issued, and a poll result only if it
// is newer than the last applied poll for that agent. Results of a cancelled
// poll cycle are dropped.
type IngestionMonitor struct {
	loop     ports.Loop
	svc      ports.IngestionService
	state    *State
	activity *ActivityLog
	logger   *logging.Logger

	pollInterval time.Duration
	gracePeriod  time.Duration
	cooldown     time.Duration

	triggerEnabled bool
	cooldownTimer  ports.Timer
	interval       ports.Timer
	grace          ports.Timer
	cycle          uint64

	startSeq   uint64
	pollSeq    map[domain.AgentID]uint64
	appliedSeq map[domain.AgentID]uint64

	visible bool
	job     domain.IngestionJob
	lastErr error
}

func NewIngestionMonitor(loop ports.Loop, svc ports.IngestionService, state *State, activity *ActivityLog, logger *logging.Logger, opts Options) *IngestionMonitor {
	opts = opts.withDefaults()
	return &IngestionMonitor{
		loop:           loop,
		svc:            svc,
		state:          state,
		activity:       activity,
		logger:         logger,
		pollInterval:   opts.PollInterval,
		gracePeriod:    opts.GracePeriod,
		cooldown:       opts.Cooldown,
		triggerEnabled: true,
		pollSeq:        map[domain.AgentID]uint64{},
		appliedSeq:     map[domain.AgentID]uint64{},
	}
}

func (m *IngestionMonitor) TriggerEnabled() bool { return m.triggerEnabled }

func (m *IngestionMonitor) Polling() bool { return m.interval != nil }

func (m *IngestionMonitor) LastErr() error { return m.lastErr }

func (m *IngestionMonitor) Snapshot() IngestionSnapshot {
	return IngestionSnapshot{
		Job:            m.job,
		Visible:        m.visible,
		Tone:           ToneFor(m.job.Status),
		TriggerEnabled: m.triggerEnabled,
		Polling:        m.Polling(),
		LastErr:        m.lastErr,
	}
}

// Start asks the backend to ingest agentID's folder. The trigger stays
// disabled for at least the cool-down, and polling begins once the request
// settles either way.
func (m *IngestionMonitor) Start(ctx context.Context, agentID domain.AgentID) {
	m.triggerEnabled = false
	m.stopCooldown()
	m.startSeq++
	seq := m.startSeq
	m.activity.Logf("Starting ingestion process...")

	m.loop.Go(func() {
		message, err := m.svc.StartIngestion(ctx, agentID)
		m.loop.Post(func() { m.started(ctx, agentID, seq, message, err) })
	})
}

func (m *IngestionMonitor) started(ctx context.Context, agentID domain.AgentID, seq uint64, message string, err error) {
	if seq != m.startSeq {
		m.logger.Debug().Str("agent_id", string(agentID)).Uint64("seq", seq).Msg("dropped superseded start result")
		return
	}

	if err != nil {
		if !errors.Is(err, domain.ErrIngestStart) {
			err = fmt.Errorf("%w: %w", domain.ErrIngestStart, err)
		}
		m.lastErr = err
		m.activity.Logf("Error starting ingestion.")
		m.logger.Error().Err(err).Str("agent_id", string(agentID)).Msg("start ingestion")
	} else {
		m.lastErr = nil
		m.activity.Logf("%s", message)
		m.activity.Logf("(Check server terminal for detailed progress)")
	}

	m.cooldownTimer = m.loop.AfterFunc(m.cooldown, func() {
		m.cooldownTimer = nil
		if m.job.Status != domain.IngestionProcessing {
			m.triggerEnabled = true
		}
	})
	m.beginPolling(ctx)
}

func (m *IngestionMonitor) beginPolling(ctx context.Context) {
	m.stopPolling()
	m.cycle++
	cycle := m.cycle
	m.visible = true
	m.job = domain.IngestionJob{}
	m.interval = m.loop.Every(m.pollInterval, func() { m.tick(ctx, cycle) })
}

func (m *IngestionMonitor) tick(ctx context.Context, cycle uint64) {
	if cycle != m.cycle || m.interval == nil {
		return
	}

	agentID := m.state.ActiveAgentID
	m.pollSeq[agentID]++
	seq := m.pollSeq[agentID]

	m.loop.Go(func() {
		job, err := m.svc.IngestionStatus(ctx, agentID)
		m.loop.Post(func() { m.polled(cycle, agentID, seq, job, err) })
	})
}

func (m *IngestionMonitor) polled(cycle uint64, agentID domain.AgentID, seq uint64, job domain.IngestionJob, err error) {
	if cycle != m.cycle || m.interval == nil {
		return
	}
	if err != nil {
		m.logger.Warn().Err(err).Str("agent_id", string(agentID)).Msg("poll ingestion status")
		return
	}
	if seq <= m.appliedSeq[agentID] {
		m.logger.Debug().Str("agent_id", string(agentID)).Uint64("seq", seq).Msg("dropped stale status")
		return
	}
	m.appliedSeq[agentID] = seq
	if agentID != m.state.ActiveAgentID {
		return
	}

	m.job = job
	switch job.Status {
	case domain.IngestionProcessing:
		m.triggerEnabled = false
	case domain.IngestionCompleted:
		m.triggerEnabled = true
		if m.grace == nil {
			interval := m.interval
			m.grace = m.loop.AfterFunc(m.gracePeriod, func() {
				m.grace = nil
				if m.interval == interval {
					m.stopPolling()
				}
			})
		}
	case domain.IngestionFailed:
		m.triggerEnabled = true
		m.stopPolling()
	}
}

// Stop cancels polling and any pending cool-down.
func (m *IngestionMonitor) Stop() {
	m.stopPolling()
	m.stopCooldown()
}

func (m *IngestionMonitor) stopPolling() {
	if m.interval != nil {
		m.interval.Stop()
		m.interval = nil
	}
	if m.grace != nil {
		m.grace.Stop()
		m.grace = nil
	}
}

func (m *IngestionMonitor) stopCooldown() {
	if m.cooldownTimer != nil {
		m.cooldownTimer.Stop()
		m.cooldownTimer = nil
	}
}

// ToneFor is the display tone of an ingestion status.
func ToneFor(status domain.IngestionStatus) Tone {
	switch status {
	case domain.IngestionProcessing:
		return TonePending
	case domain.IngestionCompleted:
		return ToneSuccess
	case domain.IngestionFailed:
		return ToneError
	default:
		return ToneNeutral
	}
}
