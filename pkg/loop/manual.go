package loop

import (
	"container/heap"
	"time"
)

// Manual is a Scheduler on a virtual clock.
//
// Nothing runs until the owner calls Advance or RunUntilIdle, and both run
// every task on the calling goroutine. Manual is not safe for concurrent
// use.
type Manual struct {
	start  time.Time
	now    time.Time
	seq    uint64
	queue  []func()
	timers timerHeap
}

// NewManual creates a virtual clock reading start.
func NewManual(start time.Time) *Manual {
	return &Manual{start: start, now: start}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	return m.now
}

// Elapsed returns the virtual time passed since creation.
func (m *Manual) Elapsed() time.Duration {
	return m.now.Sub(m.start)
}

// Post queues fn to run at the current virtual time.
func (m *Manual) Post(fn func()) {
	m.queue = append(m.queue, fn)
}

// AfterFunc queues fn to run once the virtual clock has moved by d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{owner: m, when: m.now.Add(d), seq: m.seq, fn: fn}
	heap.Push(&m.timers, t)
	return t
}

// Pending returns the number of queued tasks and armed timers.
func (m *Manual) Pending() int {
	return len(m.queue) + len(m.timers)
}

// Advance moves the clock forward by d, running every task that becomes
// due on the way in time order.
func (m *Manual) Advance(d time.Duration) {
	deadline := m.now.Add(d)
	for {
		m.drain()
		if len(m.timers) == 0 || m.timers[0].when.After(deadline) {
			break
		}
		m.fire()
	}
	m.now = deadline
}

// RunUntilIdle runs tasks until nothing is pending or the clock would move
// past limit from the current time. It returns the virtual time consumed
// and whether the scheduler went idle.
func (m *Manual) RunUntilIdle(limit time.Duration) (time.Duration, bool) {
	from := m.now
	deadline := from.Add(limit)
	for {
		m.drain()
		if len(m.timers) == 0 {
			return m.now.Sub(from), true
		}
		if m.timers[0].when.After(deadline) {
			m.now = deadline
			return limit, false
		}
		m.fire()
	}
}

func (m *Manual) drain() {
	for len(m.queue) > 0 {
		fn := m.queue[0]
		m.queue[0] = nil
		m.queue = m.queue[1:]
		fn()
	}
}

func (m *Manual) fire() {
	t := heap.Pop(&m.timers).(*manualTimer)
	t.index = -1
	if t.when.After(m.now) {
		m.now = t.when
	}
	t.fn()
}

type manualTimer struct {
	owner *Manual
	when  time.Time
	seq   uint64
	fn    func()
	index int
}

// Stop removes the timer from the virtual clock.
func (t *manualTimer) Stop() bool {
	if t.index < 0 {
		return false
	}
	heap.Remove(&t.owner.timers, t.index)
	t.index = -1
	return true
}

type timerHeap []*manualTimer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*manualTimer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
