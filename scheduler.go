package baraza

import (
	"container/heap"
	"time"
)

// The whole simulation runs on a discrete-event scheduler over a simulated
// clock: a min-heap of callbacks keyed by due time. Node handlers, message
// deliveries, phase deadlines and failure checks are all events, so a run is
// fully deterministic under a fixed random seed. Equal-time events run in the
// order they were scheduled.
type event struct {
	at  time.Duration
	seq uint64
	fn  func()
}

type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(*event)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return ev
}

type scheduler struct {
	now   time.Duration
	seq   uint64
	queue eventQueue
}

func newScheduler() *scheduler {
	s := &scheduler{}
	heap.Init(&s.queue)
	return s
}

// Now returns the current simulated time.
func (s *scheduler) Now() time.Duration {
	return s.now
}

// After schedules fn to run d after the current simulated time.
// A non-positive d schedules fn for the current tick.
func (s *scheduler) After(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	s.seq++
	heap.Push(&s.queue, &event{at: s.now + d, seq: s.seq, fn: fn})
}

// nextAt returns the due time of the earliest pending event.
func (s *scheduler) nextAt() (time.Duration, bool) {
	if len(s.queue) == 0 {
		return 0, false
	}
	return s.queue[0].at, true
}

// step advances the clock to the earliest pending event and runs it.
// It returns false when the queue is empty.
func (s *scheduler) step() bool {
	if len(s.queue) == 0 {
		return false
	}
	ev := heap.Pop(&s.queue).(*event)
	s.now = ev.at
	ev.fn()
	return true
}
