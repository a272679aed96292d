// Package loop provides the single execution context a node map runs on.
//
// A map is mutated only from inside its loop: relaxation ticks, timeouts,
// drag and resize events are all posted onto the same [Scheduler] and run
// one at a time. Two implementations exist:
//
//   - [EventLoop] drains tasks on one goroutine and schedules delayed work
//     with real timers. Other goroutines (HTTP handlers, terminal input,
//     file watchers) hand work to it with Post or Call.
//   - [Manual] runs on a virtual clock that only moves when told to. Tests
//     and the headless render pipeline use it to drive a map
//     deterministically and much faster than wall time.
package loop

import (
	"errors"
	"time"
)

// ErrClosed is returned by Call when the loop has been closed.
var ErrClosed = errors.New("loop: closed")

// Scheduler is the cooperative timer abstraction a map runs on.
type Scheduler interface {
	// Now returns the scheduler's current time.
	Now() time.Time

	// Post queues fn to run on the scheduler as soon as possible.
	Post(fn func())

	// AfterFunc queues fn to run on the scheduler once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a handle to a delayed task.
type Timer interface {
	// Stop prevents the task from running. It reports whether the call
	// stopped the task; false means it already ran, was already stopped, or
	// has already been handed to the loop.
	Stop() bool
}
