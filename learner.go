package baraza

type acceptKey struct {
	ballot Ballot
	value  string
}

// Learner aggregates ACCEPTED notifications into a decided value: once a
// majority of distinct acceptors report accepting the same (ballot, value)
// pair the value is chosen. The decision is made at most once; further
// ACCEPTED messages are still recorded but can never change it.
type Learner struct {
	id       uint64
	majority int
	sink     Sink
	sched    *scheduler

	accepts       map[acceptKey]map[uint64]struct{}
	decided       bool
	decidedValue  string
	decidedBallot Ballot
}

func newLearner(id uint64, numAcceptors int, sched *scheduler, sink Sink) *Learner {
	return &Learner{
		id:       id,
		majority: numAcceptors/2 + 1,
		sched:    sched,
		sink:     sink,
		accepts:  make(map[acceptKey]map[uint64]struct{}),
	}
}

// ID implements the node interface.
func (l *Learner) ID() uint64 { return l.id }

// Role implements the node interface.
func (l *Learner) Role() Role { return RoleLearner }

func (l *Learner) deliver(m Message) error {
	if m.Kind != MsgAccepted {
		return nil
	}
	key := acceptKey{ballot: m.Ballot, value: m.Value}
	senders, ok := l.accepts[key]
	if !ok {
		senders = make(map[uint64]struct{})
		l.accepts[key] = senders
	}
	senders[m.From] = struct{}{}

	if len(senders) >= l.majority && !l.decided {
		l.decided = true
		l.decidedValue = m.Value
		l.decidedBallot = m.Ballot
		l.sink.Emit(Event{
			Kind:   EventConsensusReached,
			At:     l.sched.Now(),
			Node:   l.id,
			Ballot: m.Ballot,
			Value:  m.Value,
		})
	}
	return nil
}

// Decided returns the chosen value, if this learner has observed one.
func (l *Learner) Decided() (string, bool) {
	return l.decidedValue, l.decided
}

// DecidedBallot returns the ballot the chosen value was decided under.
func (l *Learner) DecidedBallot() Ballot {
	return l.decidedBallot
}

// onFail implements the node interface: learner state is volatile.
func (l *Learner) onFail() {
	l.accepts = make(map[acceptKey]map[uint64]struct{})
	l.decided = false
	l.decidedValue = ""
	l.decidedBallot = Ballot{}
}

// onRecover implements the node interface. A recovered learner starts empty
// and re-learns from whatever ACCEPTED broadcasts still reach it.
func (l *Learner) onRecover() {}
