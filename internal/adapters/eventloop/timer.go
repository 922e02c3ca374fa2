package eventloop

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/rag-agents-cli/internal/ports"
)

// AfterFunc hands fn to post once d has elapsed. A Stop that lands after
// the hand-off still keeps fn from running.
func AfterFunc(post func(func()), d time.Duration, fn func()) ports.Timer {
	t := &timer{}
	t.timer = time.AfterFunc(d, func() { post(t.guard(fn)) })
	return t
}

// Every hands fn to post every d until the timer is stopped or done is
// closed.
func Every(post func(func()), done <-chan struct{}, d time.Duration, fn func()) ports.Timer {
	t := &timer{halt: make(chan struct{})}
	ticker := time.NewTicker(d)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				post(t.guard(fn))
			case <-t.halt:
				return
			case <-done:
				return
			}
		}
	}()
	return t
}

type timer struct {
	timer   *time.Timer
	halt    chan struct{}
	stopped atomic.Bool
	once    sync.Once
}

func (t *timer) guard(fn func()) func() {
	return func() {
		if !t.stopped.Load() {
			fn()
		}
	}
}

func (t *timer) Stop() {
	t.once.Do(func() {
		t.stopped.Store(true)
		if t.timer != nil {
			t.timer.Stop()
		}
		if t.halt != nil {
			close(t.halt)
		}
	})
}
