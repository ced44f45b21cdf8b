package baraza

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// EventKind enumerates the observable events the core emits. Everything that
// happens during a run, including losses and failures, surfaces here; nothing
// is silently swallowed.
type EventKind uint8

const (
	EventProposalSent EventKind = iota + 1
	EventPromiseReceived
	EventAcceptSent
	EventAcceptedReceived
	EventNackReceived
	EventConsensusReached
	EventNodeFailed
	EventNodeRecovered
	EventRoundTimeout
	EventRoundSucceeded
	EventMessageDropped
)

func (k EventKind) String() string {
	switch k {
	case EventProposalSent:
		return "proposal-sent"
	case EventPromiseReceived:
		return "promise-received"
	case EventAcceptSent:
		return "accept-sent"
	case EventAcceptedReceived:
		return "accepted-received"
	case EventNackReceived:
		return "nack-received"
	case EventConsensusReached:
		return "consensus-reached"
	case EventNodeFailed:
		return "node-failed"
	case EventNodeRecovered:
		return "node-recovered"
	case EventRoundTimeout:
		return "round-timeout"
	case EventRoundSucceeded:
		return "round-succeeded"
	case EventMessageDropped:
		return "message-dropped"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Event is a single observation from the simulation. Node is the node the
// event is about; From is the counterpart node where one exists (eg the
// acceptor a promise came from). At is the simulated time of the event.
type Event struct {
	Kind   EventKind
	At     time.Duration
	Node   uint64
	From   uint64
	Ballot Ballot
	Value  string
}

// Sink consumes events emitted by the core. Implementations must be cheap;
// they are called inline from node handlers.
type Sink interface {
	Emit(e Event)
}

type nopSink struct{}

func (nopSink) Emit(Event) {}

// LogSink writes events to a logrus logger: message flow at debug, outcomes
// and liveness changes at info, timeouts at warn.
type LogSink struct {
	Log logrus.FieldLogger
}

// NewLogSink returns a sink writing to l.
func NewLogSink(l logrus.FieldLogger) *LogSink {
	return &LogSink{Log: l}
}

// Emit implements the Sink interface.
func (s *LogSink) Emit(e Event) {
	entry := s.Log.WithFields(logrus.Fields{
		"event":  e.Kind.String(),
		"at":     e.At.String(),
		"node":   e.Node,
		"ballot": e.Ballot.String(),
	})
	if e.From != 0 {
		entry = entry.WithField("from", e.From)
	}
	if e.Value != "" {
		entry = entry.WithField("value", e.Value)
	}
	switch e.Kind {
	case EventConsensusReached:
		entry.Infof("consensus reached: learner %d chose %q with ballot %v", e.Node, e.Value, e.Ballot)
	case EventNodeFailed:
		entry.Infof("node %d has failed", e.Node)
	case EventNodeRecovered:
		entry.Infof("node %d has recovered", e.Node)
	case EventRoundSucceeded:
		entry.Infof("proposer %d round %v succeeded", e.Node, e.Ballot)
	case EventRoundTimeout:
		entry.Warnf("proposer %d round %v timed out", e.Node, e.Ballot)
	case EventMessageDropped:
		entry.Debugf("message from %d to %d dropped", e.From, e.Node)
	default:
		entry.Debug(e.Kind.String())
	}
}

// Recorder is a Sink that keeps every event in memory, for tests and
// post-run analysis.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements the Sink interface.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of every recorded event, in emission order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Filter returns the recorded events of the given kind, in emission order.
func (r *Recorder) Filter(kind EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type multiSink []Sink

// MultiSink fans events out to every sink in order.
func MultiSink(sinks ...Sink) Sink {
	return multiSink(sinks)
}

// Emit implements the Sink interface.
func (m multiSink) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}
