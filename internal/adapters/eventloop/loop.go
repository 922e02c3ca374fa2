// Package eventloop runs controller callbacks on a single goroutine.
package eventloop

import (
	"sync"
	"time"

	"github.com/bnema/rag-agents-cli/internal/ports"
)

type Option func(*Loop)

// WithAfterEach runs fn on the loop after every callback, e.g. to redraw.
func WithAfterEach(fn func()) Option {
	return func(l *Loop) { l.afterEach = fn }
}

// WithFaultHandler receives values recovered from panicking callbacks. It
// runs on the loop.
func WithFaultHandler(fn func(any)) Option {
	return func(l *Loop) { l.onFault = fn }
}

// Loop is a ports.Loop backed by one goroutine draining an unbounded queue.
// Post never blocks, so callbacks may post further work.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool

	wake    chan struct{}
	stopCh  chan struct{}
	stopped chan struct{}

	afterEach func()
	onFault   func(any)
}

var _ ports.Loop = (*Loop)(nil)

func New(opts ...Option) *Loop {
	l := &Loop{
		wake:    make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.stopped)

	for {
		select {
		case <-l.stopCh:
			return
		case <-l.wake:
		}

		for {
			l.mu.Lock()
			batch := l.queue
			l.queue = nil
			l.mu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, fn := range batch {
				select {
				case <-l.stopCh:
					return
				default:
				}
				l.exec(fn)
			}
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if l.afterEach != nil {
			l.afterEach()
		}
	}()
	defer func() {
		if v := recover(); v != nil && l.onFault != nil {
			l.onFault(v)
		}
	}()
	fn()
}

func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Go runs fn on its own goroutine. A panic is reported to the fault
// handler on the loop.
func (l *Loop) Go(fn func()) {
	go func() {
		defer func() {
			if v := recover(); v != nil {
				l.Post(func() { panic(v) })
			}
		}()
		fn()
	}()
}

// Do runs fn on the loop and waits for it. Calling Do from the loop
// deadlocks.
func (l *Loop) Do(fn func()) {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
	case <-l.stopped:
	}
}

func (l *Loop) AfterFunc(d time.Duration, fn func()) ports.Timer {
	return AfterFunc(l.Post, d, fn)
}

func (l *Loop) Every(d time.Duration, fn func()) ports.Timer {
	return Every(l.Post, l.stopCh, d, fn)
}

// Close stops the loop. Queued callbacks that have not started are dropped.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.queue = nil
	l.mu.Unlock()
	close(l.stopCh)
}

// Done is closed once the loop goroutine has exited.
func (l *Loop) Done() <-chan struct{} { return l.stopped }
