package baraza

import (
	"testing"
)

func newTestLearner(numAcceptors int, sink Sink) (*scheduler, *Learner) {
	if sink == nil {
		sink = nopSink{}
	}
	sched := newScheduler()
	return sched, newLearner(100, numAcceptors, sched, sink)
}

func accepted(b Ballot, value string, from uint64) Message {
	return Message{Kind: MsgAccepted, Ballot: b, Value: value, From: from, To: 100}
}

func Test_learner_decidesAtMajority(t *testing.T) {
	recorder := &Recorder{}
	_, l := newTestLearner(5, recorder)
	b := Ballot{Round: 1, ProposerID: 1}

	for _, from := range []uint64{10, 11} {
		if err := l.deliver(accepted(b, "X", from)); err != nil {
			t.Fatalf("deliver error: %#+v", err)
		}
	}
	if _, ok := l.Decided(); ok {
		t.Fatalf("learner decided below the majority threshold")
	}

	if err := l.deliver(accepted(b, "X", 12)); err != nil {
		t.Fatalf("deliver error: %#+v", err)
	}
	v, ok := l.Decided()
	if !ok || v != "X" {
		t.Errorf("\nlearner decision \ngot = %#+v, %v \nwanted = %#+v, true", v, ok, "X")
	}
	if l.DecidedBallot() != b {
		t.Errorf("\ndecided ballot \ngot = %v, \nwanted = %v", l.DecidedBallot(), b)
	}
	if got := len(recorder.Filter(EventConsensusReached)); got != 1 {
		t.Errorf("\nconsensus events \ngot = %#+v, \nwanted = %#+v", got, 1)
	}
}

// Once set, the decided value never changes, whatever arrives afterwards;
// duplicates from the same acceptor never inflate the count.
func Test_learner_decisionIsFinal(t *testing.T) {
	recorder := &Recorder{}
	_, l := newTestLearner(3, recorder)
	b := Ballot{Round: 1, ProposerID: 1}

	// duplicate sender counts once
	if err := l.deliver(accepted(b, "X", 10)); err != nil {
		t.Fatalf("deliver error: %#+v", err)
	}
	if err := l.deliver(accepted(b, "X", 10)); err != nil {
		t.Fatalf("deliver error: %#+v", err)
	}
	if _, ok := l.Decided(); ok {
		t.Fatalf("duplicate ACCEPTED from one acceptor reached majority")
	}

	if err := l.deliver(accepted(b, "X", 11)); err != nil {
		t.Fatalf("deliver error: %#+v", err)
	}
	if v, ok := l.Decided(); !ok || v != "X" {
		t.Fatalf("learner should have decided X")
	}

	// a later majority for another (ballot, value) cannot change the decision
	later := Ballot{Round: 9, ProposerID: 2}
	for _, from := range []uint64{10, 11, 12} {
		if err := l.deliver(accepted(later, "Y", from)); err != nil {
			t.Fatalf("deliver error: %#+v", err)
		}
	}
	if v, _ := l.Decided(); v != "X" {
		t.Errorf("\ndecided value changed \ngot = %#+v, \nwanted = %#+v", v, "X")
	}
	if got := len(recorder.Filter(EventConsensusReached)); got != 1 {
		t.Errorf("\nconsensus events \ngot = %#+v, \nwanted = %#+v", got, 1)
	}
}

func Test_learner_onFailResets(t *testing.T) {
	_, l := newTestLearner(3, nil)
	b := Ballot{Round: 1, ProposerID: 1}
	for _, from := range []uint64{10, 11} {
		if err := l.deliver(accepted(b, "X", from)); err != nil {
			t.Fatalf("deliver error: %#+v", err)
		}
	}
	if _, ok := l.Decided(); !ok {
		t.Fatalf("learner should have decided before the failure")
	}

	l.onFail()
	if _, ok := l.Decided(); ok {
		t.Errorf("volatile learner state survived failure")
	}
	if len(l.accepts) != 0 {
		t.Errorf("\naccept counts survived failure: %#+v", l.accepts)
	}
}
