package baraza

import (
	"math/rand"
	"time"
)

// Network simulates an unreliable network between the registered nodes.
// Every send is independently dropped with probability loss, otherwise
// delivered after a delay sampled uniformly from [minDelay, maxDelay].
// Independent delays mean delivery order across distinct messages need not
// match send order; reordering is intended and the protocol must tolerate it.
//
// The network also owns the liveness flags: a failed node neither sends nor
// receives. A message already in flight toward a node that fails before its
// delivery time is dropped at delivery time, not at failure time.
//
// The randomness source is injected so runs can be replayed deterministically.
type Network struct {
	sched *scheduler
	rng   *rand.Rand
	sink  Sink

	minDelay time.Duration
	maxDelay time.Duration
	loss     float64

	nodes  map[uint64]node
	order  []uint64
	failed map[uint64]struct{}

	// onFatal halts the run on a protocol violation raised by a handler.
	onFatal func(err error)
}

func newNetwork(sched *scheduler, rng *rand.Rand, minDelay, maxDelay time.Duration, loss float64, sink Sink) *Network {
	return &Network{
		sched:    sched,
		rng:      rng,
		sink:     sink,
		minDelay: minDelay,
		maxDelay: maxDelay,
		loss:     loss,
		nodes:    make(map[uint64]node),
		failed:   make(map[uint64]struct{}),
		onFatal:  func(error) {},
	}
}

// register adds a node to the network's registry.
func (nw *Network) register(n node) {
	nw.nodes[n.ID()] = n
	nw.order = append(nw.order, n.ID())
}

// alive reports whether the node is currently up.
func (nw *Network) alive(id uint64) bool {
	_, down := nw.failed[id]
	return !down
}

// fail marks a node as failed. In-flight messages toward it stay scheduled
// and are dropped when their delivery time comes.
func (nw *Network) fail(id uint64) {
	if _, down := nw.failed[id]; down {
		return
	}
	nw.failed[id] = struct{}{}
	nw.nodes[id].onFail()
	nw.sink.Emit(Event{Kind: EventNodeFailed, At: nw.sched.Now(), Node: id})
}

// recover marks a failed node as alive again and invokes its recovery hook.
func (nw *Network) recover(id uint64) {
	if _, down := nw.failed[id]; !down {
		return
	}
	delete(nw.failed, id)
	nw.sink.Emit(Event{Kind: EventNodeRecovered, At: nw.sched.Now(), Node: id})
	nw.nodes[id].onRecover()
}

// Send submits a message for (unreliable) delivery.
func (nw *Network) Send(m Message) {
	// failed nodes neither send nor receive
	if !nw.alive(m.From) {
		nw.drop(m)
		return
	}
	if nw.rng.Float64() < nw.loss {
		nw.drop(m)
		return
	}
	delay := nw.minDelay
	if span := nw.maxDelay - nw.minDelay; span > 0 {
		delay += time.Duration(nw.rng.Int63n(int64(span) + 1))
	}
	nw.sched.After(delay, func() {
		nw.deliver(m)
	})
}

func (nw *Network) deliver(m Message) {
	if !nw.alive(m.To) {
		nw.drop(m)
		return
	}
	n, ok := nw.nodes[m.To]
	if !ok {
		nw.drop(m)
		return
	}
	if err := n.deliver(m); err != nil {
		nw.onFatal(err)
	}
}

func (nw *Network) drop(m Message) {
	nw.sink.Emit(Event{
		Kind:   EventMessageDropped,
		At:     nw.sched.Now(),
		Node:   m.To,
		From:   m.From,
		Ballot: m.Ballot,
	})
}
