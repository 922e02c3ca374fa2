package application

import (
	"fmt"
	"time"

	"github.com/bnema/rag-agents-cli/internal/logging"
	"github.com/bnema/rag-agents-cli/internal/ports"
)

type ActivityLine struct {
	At   time.Time
	Text string
}

// ActivityLog is the user-facing progress log. It keeps the newest lines up
// to its limit.
type ActivityLog struct {
	clock  ports.Clock
	limit  int
	lines  []ActivityLine
	logger *logging.Logger
}

func NewActivityLog(clock ports.Clock, limit int, logger *logging.Logger) *ActivityLog {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if limit <= 0 {
		limit = DefaultOptions().ActivityLimit
	}
	return &ActivityLog{clock: clock, limit: limit, logger: logger}
}

func (a *ActivityLog) Logf(format string, args ...any) {
	line := ActivityLine{At: a.clock.Now(), Text: fmt.Sprintf(format, args...)}
	a.lines = append(a.lines, line)
	if over := len(a.lines) - a.limit; over > 0 {
		a.lines = append([]ActivityLine(nil), a.lines[over:]...)
	}
	a.logger.Info().Msg(line.Text)
}

func (a *ActivityLog) Lines() []ActivityLine {
	return append([]ActivityLine(nil), a.lines...)
}

func (a *ActivityLog) Last() (ActivityLine, bool) {
	if len(a.lines) == 0 {
		return ActivityLine{}, false
	}
	return a.lines[len(a.lines)-1], true
}
