package cmd

import (
	"context"
	"fmt"

	"github.com/bnema/rag-agents-cli/internal/adapters/eventloop"
	"github.com/bnema/rag-agents-cli/internal/application"
	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/bnema/rag-agents-cli/internal/ports"
)

// session runs a controller on its own event loop for one headless command.
// The controller is only touched on the loop, through do and await.
type session struct {
	ctx       context.Context
	requested domain.AgentID
	loop      *eventloop.Loop
	ctrl      *application.Controller
	waiter    func()
}

func (a *app) newSession(ctx context.Context, agentID string) *session {
	s := &session{ctx: ctx}
	opts := a.cfg.AppOptions()
	if agentID != "" {
		opts.DefaultAgentID = domain.AgentID(agentID)
		s.requested = opts.DefaultAgentID
	}

	s.loop = eventloop.New(
		eventloop.WithAfterEach(func() {
			if s.waiter != nil {
				s.waiter()
			}
		}),
		eventloop.WithFaultHandler(func(v any) { s.ctrl.HandleFault(v) }),
	)
	s.ctrl = application.NewController(a.backend, s.loop, ports.SystemClock{}, a.logger, opts)
	return s
}

func (s *session) do(fn func(ctrl *application.Controller)) {
	s.loop.Do(func() { fn(s.ctrl) })
}

// await blocks until cond holds after some loop callback, or ctx ends.
func (s *session) await(ctx context.Context, cond func(ctrl *application.Controller) bool) error {
	met := make(chan struct{})
	s.loop.Post(func() {
		s.waiter = func() {
			if cond(s.ctrl) {
				s.waiter = nil
				close(met)
			}
		}
	})

	select {
	case <-met:
		return nil
	case <-ctx.Done():
		s.loop.Do(func() { s.waiter = nil })
		return ctx.Err()
	}
}

// start loads the agent list and waits for the result. An agent asked for
// by id must exist; only the configured default may fall back to the first
// agent.
func (s *session) start() error {
	s.do(func(ctrl *application.Controller) { ctrl.Init(s.ctx) })
	if err := s.await(s.ctx, func(ctrl *application.Controller) bool {
		return !ctrl.Agents.Loading()
	}); err != nil {
		return err
	}

	var (
		err   error
		found = true
	)
	s.do(func(ctrl *application.Controller) {
		err = ctrl.Agents.LoadErr()
		if err == nil && s.requested != "" {
			_, found = ctrl.Agents.Find(s.requested)
		}
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("agent %q: %w", s.requested, domain.ErrAgentNotFound)
	}
	return nil
}

func (s *session) close() {
	s.do(func(ctrl *application.Controller) { ctrl.Shutdown() })
	s.loop.Close()
}
