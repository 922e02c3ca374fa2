package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/bnema/rag-agents-cli/internal/logging"
	"github.com/bnema/rag-agents-cli/internal/ports"
)

const chatFailureText = "Error: Failed to get answer"

type ChatSession struct {
	loop   ports.Loop
	svc    ports.ChatService
	state  *State
	logger *logging.Logger

	turns   []domain.ChatTurn
	pending int
	lastErr error
}

func NewChatSession(loop ports.Loop, svc ports.ChatService, state *State, logger *logging.Logger) *ChatSession {
	return &ChatSession{
		loop:   loop,
		svc:    svc,
		state:  state,
		logger: logger,
	}
}

func (c *ChatSession) Turns() []domain.ChatTurn {
	return append([]domain.ChatTurn(nil), c.turns...)
}

// LastErr is the error of the most recent answer, nil when it succeeded.
func (c *ChatSession) LastErr() error { return c.lastErr }

// Typing reports an unanswered request.
func (c *ChatSession) Typing() bool { return c.pending > 0 }

// Send appends the user turn and asks the backend on behalf of the active
// agent. Blank input is ignored and reported as false.
func (c *ChatSession) Send(ctx context.Context, text string) bool {
	query := strings.TrimSpace(text)
	if query == "" {
		return false
	}

	agentID := c.state.ActiveAgentID
	c.turns = append(c.turns, domain.ChatTurn{Text: query, Role: domain.RoleUser})
	c.pending++

	c.loop.Go(func() {
		answer, err := c.svc.Ask(ctx, query, agentID)
		c.loop.Post(func() { c.answered(agentID, answer, err) })
	})
	return true
}

func (c *ChatSession) answered(agentID domain.AgentID, answer domain.Answer, err error) {
	if c.pending > 0 {
		c.pending--
	}
	if err != nil {
		if !errors.Is(err, domain.ErrChat) {
			err = fmt.Errorf("%w: %w", domain.ErrChat, err)
		}
		c.lastErr = err
		c.logger.Warn().Err(err).Str("agent_id", string(agentID)).Msg("chat request")
		c.turns = append(c.turns, domain.ChatTurn{Text: ChatFailureText(err), Role: domain.RoleAssistant})
		return
	}
	c.lastErr = nil
	c.turns = append(c.turns, domain.ChatTurn{
		Text:    answer.Text,
		Role:    domain.RoleAssistant,
		Sources: answer.Sources,
	})
}

// SwitchAgent clears the transcript and greets with the new agent's name.
func (c *ChatSession) SwitchAgent(agent domain.Agent) {
	c.pending = 0
	c.turns = []domain.ChatTurn{{
		Text: fmt.Sprintf("Switched to %s. How can I help?", agent.Name),
		Role: domain.RoleAssistant,
	}}
}

// ChatFailureText prefers the server's detail over the generic message.
func ChatFailureText(err error) string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return "Error: " + apiErr.Detail
	}
	return chatFailureText
}
