package ports

import "time"

type Timer interface {
	Stop()
}

// Loop serializes every state transition onto one logical thread.
//
// Post and timer callbacks run on that thread. Go runs fn elsewhere; fn must
// hand its result back through Post. A stopped Timer never invokes its
// callback again, even if a tick was already queued.
type Loop interface {
	Post(fn func())
	Go(fn func())
	AfterFunc(d time.Duration, fn func()) Timer
	Every(d time.Duration, fn func()) Timer
}
