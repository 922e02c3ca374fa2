// Package testutil provides deterministic stand-ins for the event loop and
// the backend.
package testutil

import (
	"sort"
	"time"

	"github.com/bnema/rag-agents-cli/internal/ports"
)

// ManualLoop runs every callback on the calling goroutine in virtual time.
// Nothing happens until Flush or Advance is called.
type ManualLoop struct {
	now    time.Duration
	seq    int
	posted []func()
	work   []func()
	timers []*manualTimer

	// Hold keeps Go work queued until RunWork releases it.
	Hold bool
}

var _ ports.Loop = (*ManualLoop)(nil)

type manualTimer struct {
	loop     *ManualLoop
	due      time.Duration
	seq      int
	interval time.Duration
	fn       func()
	stopped  bool
}

func (t *manualTimer) Stop() {
	if t.stopped {
		return
	}
	t.stopped = true
	t.loop.remove(t)
}

func NewManualLoop() *ManualLoop {
	return &ManualLoop{}
}

func (l *ManualLoop) Post(fn func()) {
	l.posted = append(l.posted, fn)
}

func (l *ManualLoop) Go(fn func()) {
	l.work = append(l.work, fn)
}

func (l *ManualLoop) AfterFunc(d time.Duration, fn func()) ports.Timer {
	return l.schedule(d, 0, fn)
}

func (l *ManualLoop) Every(d time.Duration, fn func()) ports.Timer {
	return l.schedule(d, d, fn)
}

// Now is the virtual time elapsed since the loop was created.
func (l *ManualLoop) Now() time.Duration {
	return l.now
}

func (l *ManualLoop) PendingWork() int {
	return len(l.work)
}

func (l *ManualLoop) ActiveTimers() int {
	return len(l.timers)
}

// Flush runs posted callbacks and, unless Hold is set, queued Go work until
// both queues are empty.
func (l *ManualLoop) Flush() {
	for {
		if len(l.posted) > 0 {
			fn := l.posted[0]
			l.posted = l.posted[1:]
			fn()
			continue
		}
		if !l.Hold && len(l.work) > 0 {
			fn := l.work[0]
			l.work = l.work[1:]
			fn()
			continue
		}
		return
	}
}

// RunWork releases the i-th queued Go work item and flushes what it posts.
func (l *ManualLoop) RunWork(i int) {
	fn := l.work[i]
	l.work = append(l.work[:i:i], l.work[i+1:]...)
	fn()
	l.Flush()
}

// Advance moves virtual time forward, firing due timers in deadline order
// and flushing after each one.
func (l *ManualLoop) Advance(d time.Duration) {
	target := l.now + d
	l.Flush()
	for {
		next := l.nextDue(target)
		if next == nil {
			break
		}
		l.now = next.due
		if next.interval > 0 {
			next.due += next.interval
			l.seq++
			next.seq = l.seq
		} else {
			next.stopped = true
			l.remove(next)
		}
		next.fn()
		l.Flush()
	}
	l.now = target
	l.Flush()
}

func (l *ManualLoop) schedule(d, interval time.Duration, fn func()) *manualTimer {
	l.seq++
	t := &manualTimer{loop: l, due: l.now + d, seq: l.seq, interval: interval, fn: fn}
	l.timers = append(l.timers, t)
	return t
}

func (l *ManualLoop) nextDue(target time.Duration) *manualTimer {
	candidates := make([]*manualTimer, 0, len(l.timers))
	for _, t := range l.timers {
		if t.due <= target {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].due != candidates[j].due {
			return candidates[i].due < candidates[j].due
		}
		return candidates[i].seq < candidates[j].seq
	})
	return candidates[0]
}

func (l *ManualLoop) remove(t *manualTimer) {
	for i, candidate := range l.timers {
		if candidate == t {
			l.timers = append(l.timers[:i], l.timers[i+1:]...)
			return
		}
	}
}
