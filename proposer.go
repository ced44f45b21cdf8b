package baraza

import "time"

// Phase is a proposer's position in its round state machine.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseAwaitingPromises
	PhaseAwaitingAccepts
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingPromises:
		return "awaiting-promises"
	case PhaseAwaitingAccepts:
		return "awaiting-accepts"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Proposer drives rounds: it picks ballots, solicits promises, chooses a
// value and drives acceptance. Its per-round state is volatile and is thrown
// away on simulated failure; only the round counter survives recovery, so a
// recovered proposer can never reuse a ballot it already spent on a
// different value.
type Proposer struct {
	id    uint64
	nw    *Network
	sched *scheduler
	sink  Sink

	acceptors    []uint64
	majority     int
	initialValue string
	timeout      time.Duration
	maxRounds    int

	// round and highestSeen survive failure; everything below them is
	// volatile and reset by onFail.
	round       uint64
	highestSeen uint64
	roundsUsed  int
	exhausted   bool

	phase       Phase
	ballot      Ballot
	candidate   string
	promises    map[uint64]struct{}
	accepts     map[uint64]struct{}
	nacks       map[uint64]struct{}
	priorAccept Ballot
	priorValue  string
}

func newProposer(id uint64, initialValue string, acceptors []uint64, nw *Network, sched *scheduler, timeout time.Duration, maxRounds int, sink Sink) *Proposer {
	return &Proposer{
		id:           id,
		nw:           nw,
		sched:        sched,
		sink:         sink,
		acceptors:    acceptors,
		majority:     len(acceptors)/2 + 1,
		initialValue: initialValue,
		timeout:      timeout,
		maxRounds:    maxRounds,
		phase:        PhaseIdle,
	}
}

// ID implements the node interface.
func (p *Proposer) ID() uint64 { return p.id }

// Role implements the node interface.
func (p *Proposer) Role() Role { return RoleProposer }

// Phase returns the proposer's current phase.
func (p *Proposer) Phase() Phase { return p.phase }

// Rounds returns how many rounds this proposer has started.
func (p *Proposer) Rounds() int { return p.roundsUsed }

// Exhausted reports whether the proposer ran out of its round budget without
// completing a round. That is a reported outcome, not an error.
func (p *Proposer) Exhausted() bool { return p.exhausted }

// startRound begins phase 1a: bump the round past anything observed in
// rejections, reset per-round state and PREPARE every acceptor. The
// simulation targets all acceptors rather than a hand-picked majority since
// delivery is unreliable.
func (p *Proposer) startRound() {
	if p.phase == PhaseDone || p.exhausted || !p.nw.alive(p.id) {
		return
	}
	if p.maxRounds > 0 && p.roundsUsed >= p.maxRounds {
		p.exhausted = true
		return
	}
	p.roundsUsed++

	next := p.round + 1
	if p.highestSeen >= next {
		next = p.highestSeen + 1
	}
	p.round = next
	p.ballot = Ballot{Round: p.round, ProposerID: p.id}
	p.phase = PhaseAwaitingPromises
	p.candidate = ""
	p.promises = make(map[uint64]struct{})
	p.accepts = make(map[uint64]struct{})
	p.nacks = make(map[uint64]struct{})
	p.priorAccept = Ballot{}
	p.priorValue = ""

	p.sink.Emit(Event{Kind: EventProposalSent, At: p.sched.Now(), Node: p.id, Ballot: p.ballot, Value: p.initialValue})
	for _, id := range p.acceptors {
		p.nw.Send(Message{Kind: MsgPrepare, Ballot: p.ballot, From: p.id, To: id})
	}
	p.armTimeout()
}

// armTimeout schedules the phase deadline. The closure captures the ballot
// and phase it was armed for; if either has moved on by the time it fires,
// the deadline is moot.
func (p *Proposer) armTimeout() {
	ballot, phase := p.ballot, p.phase
	p.sched.After(p.timeout, func() {
		if p.ballot != ballot || p.phase != phase {
			return
		}
		if !p.nw.alive(p.id) {
			return
		}
		p.sink.Emit(Event{Kind: EventRoundTimeout, At: p.sched.Now(), Node: p.id, Ballot: ballot})
		p.retry()
	})
}

func (p *Proposer) retry() {
	p.phase = PhaseIdle
	p.startRound()
}

func (p *Proposer) deliver(m Message) error {
	switch m.Kind {
	case MsgPromise:
		p.handlePromise(m)
	case MsgAccepted:
		p.handleAccepted(m)
	case MsgNack:
		p.handleNack(m)
	default:
		// acceptors never address PREPARE/ACCEPT to a proposer
	}
	return nil
}

// handlePromise aggregates phase 1b. Once a majority of distinct acceptors
// promised the current ballot the proposer must adopt the value of the
// highest-numbered prior accept it saw, or fall back to its own initial
// value; that adoption rule is what keeps a new round from overriding a
// value already anchored by an earlier majority.
func (p *Proposer) handlePromise(m Message) {
	if p.phase != PhaseAwaitingPromises || m.Ballot != p.ballot {
		return // stale reply for an abandoned round
	}
	p.promises[m.From] = struct{}{}
	p.sink.Emit(Event{Kind: EventPromiseReceived, At: p.sched.Now(), Node: p.id, From: m.From, Ballot: m.Ballot})

	if !m.AcceptedBallot.IsZero() && m.AcceptedBallot.Cmp(p.priorAccept) > 0 {
		p.priorAccept = m.AcceptedBallot
		p.priorValue = m.AcceptedValue
	}
	if len(p.promises) < p.majority {
		return
	}

	p.candidate = p.initialValue
	if !p.priorAccept.IsZero() {
		p.candidate = p.priorValue
	}
	p.phase = PhaseAwaitingAccepts
	p.sink.Emit(Event{Kind: EventAcceptSent, At: p.sched.Now(), Node: p.id, Ballot: p.ballot, Value: p.candidate})
	for _, id := range p.acceptors {
		p.nw.Send(Message{Kind: MsgAccept, Ballot: p.ballot, Value: p.candidate, From: p.id, To: id})
	}
	p.armTimeout()
}

// handleAccepted aggregates phase 2b. At a majority the round succeeded; the
// proposer itself does not decide, learners do.
func (p *Proposer) handleAccepted(m Message) {
	if p.phase != PhaseAwaitingAccepts || m.Ballot != p.ballot {
		return
	}
	p.accepts[m.From] = struct{}{}
	p.sink.Emit(Event{Kind: EventAcceptedReceived, At: p.sched.Now(), Node: p.id, From: m.From, Ballot: m.Ballot, Value: m.Value})

	if len(p.accepts) >= p.majority {
		p.phase = PhaseDone
		p.sink.Emit(Event{Kind: EventRoundSucceeded, At: p.sched.Now(), Node: p.id, Ballot: p.ballot, Value: p.candidate})
	}
}

// handleNack records a rejection. The promised ballot it carries lets the
// next round leapfrog the competition; a majority of rejections abandons the
// round immediately instead of waiting out the deadline.
func (p *Proposer) handleNack(m Message) {
	if m.Ballot != p.ballot || p.phase == PhaseDone || p.phase == PhaseIdle {
		return
	}
	p.nacks[m.From] = struct{}{}
	p.sink.Emit(Event{Kind: EventNackReceived, At: p.sched.Now(), Node: p.id, From: m.From, Ballot: m.Ballot})

	if m.Promised.Round > p.highestSeen {
		p.highestSeen = m.Promised.Round
	}
	if len(p.nacks) >= p.majority {
		p.retry()
	}
}

// onFail implements the node interface: volatile state is discarded.
func (p *Proposer) onFail() {
	p.phase = PhaseIdle
	p.ballot = Ballot{}
	p.candidate = ""
	p.promises = nil
	p.accepts = nil
	p.nacks = nil
	p.priorAccept = Ballot{}
	p.priorValue = ""
}

// onRecover implements the node interface: the proposer comes back idle and
// starts a fresh round with a strictly larger ballot.
func (p *Proposer) onRecover() {
	p.startRound()
}
