package tui

import (
	"sync"
	"time"

	"github.com/bnema/rag-agents-cli/internal/adapters/eventloop"
	"github.com/bnema/rag-agents-cli/internal/ports"
	tea "github.com/charmbracelet/bubbletea"
)

// runMsg carries a loop callback into Update.
type runMsg struct {
	fn func()
}

// ProgramLoop is a ports.Loop whose thread is the bubbletea event loop.
// Callbacks are delivered to App.Update as messages, in post order.
type ProgramLoop struct {
	mu     sync.Mutex
	queue  []func()
	send   func(tea.Msg)
	closed bool

	wake chan struct{}
	done chan struct{}
}

var _ ports.Loop = (*ProgramLoop)(nil)

func NewProgramLoop() *ProgramLoop {
	return &ProgramLoop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Attach starts delivering callbacks to p. Callbacks posted earlier are
// delivered first.
func (l *ProgramLoop) Attach(p *tea.Program) {
	l.attach(p.Send)
}

func (l *ProgramLoop) attach(send func(tea.Msg)) {
	l.mu.Lock()
	l.send = send
	l.mu.Unlock()

	go l.pump()
	l.signal()
}

func (l *ProgramLoop) pump() {
	for {
		select {
		case <-l.done:
			return
		case <-l.wake:
		}

		for {
			l.mu.Lock()
			batch := l.queue
			l.queue = nil
			send := l.send
			l.mu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, fn := range batch {
				send(runMsg{fn: fn})
			}
		}
	}
}

func (l *ProgramLoop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *ProgramLoop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.signal()
}

func (l *ProgramLoop) Go(fn func()) {
	go func() {
		defer func() {
			if v := recover(); v != nil {
				l.Post(func() { panic(v) })
			}
		}()
		fn()
	}()
}

func (l *ProgramLoop) AfterFunc(d time.Duration, fn func()) ports.Timer {
	return eventloop.AfterFunc(l.Post, d, fn)
}

func (l *ProgramLoop) Every(d time.Duration, fn func()) ports.Timer {
	return eventloop.Every(l.Post, l.done, d, fn)
}

func (l *ProgramLoop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.queue = nil
	close(l.done)
}
