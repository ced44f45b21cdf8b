package baraza

import (
	"math/rand"
	"time"
)

// captureNode records everything delivered to it, standing in for whichever
// role a test is not exercising.
type captureNode struct {
	id   uint64
	role Role
	msgs []Message
}

func (c *captureNode) ID() uint64              { return c.id }
func (c *captureNode) Role() Role              { return c.role }
func (c *captureNode) deliver(m Message) error { c.msgs = append(c.msgs, m); return nil }
func (c *captureNode) onFail()                 {}
func (c *captureNode) onRecover()              {}

func newTestNetwork(loss float64, minDelay, maxDelay time.Duration, seed int64, sink Sink) (*scheduler, *Network) {
	if sink == nil {
		sink = nopSink{}
	}
	s := newScheduler()
	return s, newNetwork(s, rand.New(rand.NewSource(seed)), minDelay, maxDelay, loss, sink)
}

func drain(s *scheduler) {
	for s.step() {
	}
}
