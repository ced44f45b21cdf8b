package baraza

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

// StoreFactory builds the StableStore backing one acceptor's durable state.
// A nil factory means every acceptor gets its own InmemStore.
type StoreFactory func(acceptorID uint64) (StableStore, error)

// LearnerOutcome is one learner's verdict at the end of a run.
type LearnerOutcome struct {
	Learner uint64
	Decided bool
	Value   string
	Ballot  Ballot
}

// AcceptorSnapshot pairs an acceptor id with its final durable state.
type AcceptorSnapshot struct {
	ID    uint64
	State AcceptorState
}

// Report is the outcome of a run.
type Report struct {
	Outcomes  []LearnerOutcome
	Acceptors []AcceptorSnapshot
	// Rounds maps each proposer id to the number of rounds it started.
	Rounds map[uint64]int
	// Elapsed is the simulated time consumed.
	Elapsed time.Duration
	// Decided is true when every learner reached a value. TimedOut is set
	// when the run ended on an exhausted time or round budget instead.
	Decided  bool
	TimedOut bool
}

// Coordinator wires the simulation together: it builds the node set from the
// configuration, registers everything with the network simulator, kicks off
// the proposers and drives the event loop until every learner decided or a
// budget runs out.
type Coordinator struct {
	cfg   Config
	sched *scheduler
	nw    *Network
	fsim  *failureSimulator
	sink  Sink

	proposers []*Proposer
	acceptors []*Acceptor
	learners  []*Learner

	fatal error
}

// NewCoordinator validates cfg and constructs the full node set. A nil sink
// discards events; a nil stores factory backs every acceptor with an
// in-memory store.
func NewCoordinator(cfg Config, sink Sink, stores StoreFactory) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	if sink == nil {
		sink = nopSink{}
	}

	sched := newScheduler()
	netRng := rand.New(rand.NewSource(cfg.Seed))
	failRng := rand.New(rand.NewSource(cfg.Seed + 1))
	nw := newNetwork(sched, netRng, cfg.MinDelay, cfg.MaxDelay, cfg.MessageLoss, sink)

	c := &Coordinator{cfg: cfg, sched: sched, nw: nw, sink: sink}
	nw.onFatal = func(err error) {
		if c.fatal == nil {
			c.fatal = err
		}
	}

	// ids are assigned densely: proposers first, then acceptors, then
	// learners.
	var acceptorIDs, learnerIDs []uint64
	nextID := uint64(1)
	proposerIDs := make([]uint64, 0, cfg.NumProposers)
	for i := 0; i < cfg.NumProposers; i++ {
		proposerIDs = append(proposerIDs, nextID)
		nextID++
	}
	for i := 0; i < cfg.NumAcceptors; i++ {
		acceptorIDs = append(acceptorIDs, nextID)
		nextID++
	}
	for i := 0; i < cfg.NumLearners; i++ {
		learnerIDs = append(learnerIDs, nextID)
		nextID++
	}

	for i, id := range proposerIDs {
		p := newProposer(id, cfg.InitialValues[i], acceptorIDs, nw, sched, cfg.RoundTimeout, cfg.MaxRounds, sink)
		c.proposers = append(c.proposers, p)
		nw.register(p)
	}
	for _, id := range acceptorIDs {
		store := StableStore(NewInmemStore())
		if stores != nil {
			var err error
			store, err = stores(id)
			if err != nil {
				return nil, errors.Wrapf(err, "unable to build store for acceptor:%d", id)
			}
		}
		a := newAcceptor(id, store, nw, learnerIDs, cfg.SilentRejects, sink)
		c.acceptors = append(c.acceptors, a)
		nw.register(a)
	}
	for _, id := range learnerIDs {
		l := newLearner(id, cfg.NumAcceptors, sched, sink)
		c.learners = append(c.learners, l)
		nw.register(l)
	}

	c.fsim = newFailureSimulator(nw, sched, failRng, cfg.FailureProb, cfg.RecoveryProb, cfg.CheckInterval)
	return c, nil
}

// Run drives the simulation to completion and reports the outcome. The only
// error it can return is a ProtocolViolation, which indicates a bug in the
// protocol engine; timeouts and exhausted budgets are reported in the
// Report, not as errors.
func (c *Coordinator) Run() (Report, error) {
	// stagger the proposers slightly so a fixed seed produces a readable,
	// repeatable interleaving
	for i, p := range c.proposers {
		p := p
		c.sched.After(time.Duration(i)*time.Millisecond, p.startRound)
	}
	if c.cfg.FailureProb > 0 {
		c.fsim.start()
	}

	for c.fatal == nil && !c.allDecided() {
		at, ok := c.sched.nextAt()
		if !ok || at > c.cfg.MaxSimTime {
			break
		}
		c.sched.step()
	}
	c.fsim.stop()

	return c.report(), c.fatal
}

func (c *Coordinator) allDecided() bool {
	for _, l := range c.learners {
		if _, ok := l.Decided(); !ok {
			return false
		}
	}
	return true
}

func (c *Coordinator) report() Report {
	r := Report{
		Rounds:  make(map[uint64]int, len(c.proposers)),
		Elapsed: c.sched.Now(),
		Decided: c.allDecided(),
	}
	r.TimedOut = !r.Decided
	for _, l := range c.learners {
		v, ok := l.Decided()
		r.Outcomes = append(r.Outcomes, LearnerOutcome{
			Learner: l.ID(),
			Decided: ok,
			Value:   v,
			Ballot:  l.DecidedBallot(),
		})
	}
	for _, a := range c.acceptors {
		state, err := a.State()
		if err != nil {
			continue
		}
		r.Acceptors = append(r.Acceptors, AcceptorSnapshot{ID: a.ID(), State: state})
	}
	for _, p := range c.proposers {
		r.Rounds[p.ID()] = p.Rounds()
	}
	return r
}
