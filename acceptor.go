package baraza

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/pkg/errors"
)

// acceptor durable state lives under reserved, per-acceptor keys so several
// acceptors can share one StableStore, the way several nodes can share one
// bolt database.
func promisedBallotKey(id uint64) []byte {
	return []byte(fmt.Sprintf("acceptor/%d/promised-ballot", id))
}

func acceptedBallotKey(id uint64) []byte {
	return []byte(fmt.Sprintf("acceptor/%d/accepted-ballot", id))
}

func acceptedValueKey(id uint64) []byte {
	return []byte(fmt.Sprintf("acceptor/%d/accepted-value", id))
}

func encodeBallot(b Ballot) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(b); err != nil {
		return nil, errors.Wrapf(err, "unable to encode ballot:%v", b)
	}
	return buf.Bytes(), nil
}

func decodeBallot(raw []byte) (Ballot, error) {
	var b Ballot
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&b); err != nil {
		return Ballot{}, errors.Wrap(err, "unable to decode ballot")
	}
	return b, nil
}

// AcceptorState is a snapshot of an acceptor's durable state.
// Accepted.IsZero() means nothing has been accepted yet.
type AcceptorState struct {
	Promised Ballot
	Accepted Ballot
	Value    string
}

// Acceptor is the safety anchor of the protocol: it never accepts a proposal
// numbered below what it has promised, and never promises below what it
// already promised. Both guards are enforced against durable state kept in a
// StableStore, which outlives simulated failure and recovery within a run.
type Acceptor struct {
	id            uint64
	nw            *Network
	store         StableStore
	learners      []uint64
	sink          Sink
	silentRejects bool
}

func newAcceptor(id uint64, store StableStore, nw *Network, learners []uint64, silentRejects bool, sink Sink) *Acceptor {
	return &Acceptor{
		id:            id,
		nw:            nw,
		store:         store,
		learners:      learners,
		sink:          sink,
		silentRejects: silentRejects,
	}
}

// ID implements the node interface.
func (a *Acceptor) ID() uint64 { return a.id }

// Role implements the node interface.
func (a *Acceptor) Role() Role { return RoleAcceptor }

// onFail implements the node interface. Durable state stays in the store.
func (a *Acceptor) onFail() {}

// onRecover implements the node interface. Nothing to rebuild: the promise
// and accept guards read the store on every message.
func (a *Acceptor) onRecover() {}

func (a *Acceptor) deliver(m Message) error {
	switch m.Kind {
	case MsgPrepare:
		return a.handlePrepare(m)
	case MsgAccept:
		return a.handleAccept(m)
	default:
		// stale or misrouted; acceptors only answer proposers
		return nil
	}
}

// handlePrepare answers phase 1a. If the ballot is strictly above the highest
// promise so far the acceptor persists the new promise and replies PROMISE
// carrying its prior accept, if any. Otherwise it replies NACK with its
// promised ballot, or stays silent when configured to; either policy
// preserves safety, the NACK only lets the proposer advance its round sooner.
func (a *Acceptor) handlePrepare(m Message) error {
	promised, err := a.getBallot(promisedBallotKey(a.id))
	if err != nil {
		return errors.Wrapf(err, "unable to get promised ballot of acceptor:%d", a.id)
	}
	if m.Ballot.Cmp(promised) <= 0 {
		a.reject(m)
		return nil
	}

	if err := a.setBallot(promisedBallotKey(a.id), m.Ballot); err != nil {
		return errors.Wrapf(err, "unable to persist promised ballot:%v of acceptor:%d", m.Ballot, a.id)
	}
	acceptedBallot, acceptedValue, err := a.accepted()
	if err != nil {
		return err
	}
	a.nw.Send(Message{
		Kind:           MsgPromise,
		Ballot:         m.Ballot,
		From:           a.id,
		To:             m.From,
		AcceptedBallot: acceptedBallot,
		AcceptedValue:  acceptedValue,
	})
	return nil
}

// handleAccept answers phase 2a. A ballot at or above the highest promise is
// accepted: the acceptor persists (ballot, value), confirms to the proposer
// and broadcasts ACCEPTED to every learner.
func (a *Acceptor) handleAccept(m Message) error {
	promised, err := a.getBallot(promisedBallotKey(a.id))
	if err != nil {
		return errors.Wrapf(err, "unable to get promised ballot of acceptor:%d", a.id)
	}
	if m.Ballot.Cmp(promised) < 0 {
		a.reject(m)
		return nil
	}

	prevAccepted, _, err := a.accepted()
	if err != nil {
		return err
	}
	if prevAccepted.Cmp(m.Ballot) > 0 {
		// accepting m would move highest_accepted backward
		return ProtocolViolation(fmt.Sprintf(
			"acceptor:%d asked to accept ballot:%v below accepted ballot:%v while promised:%v",
			a.id, m.Ballot, prevAccepted, promised))
	}

	if err := a.setBallot(promisedBallotKey(a.id), m.Ballot); err != nil {
		return errors.Wrapf(err, "unable to persist promised ballot:%v of acceptor:%d", m.Ballot, a.id)
	}
	if err := a.setBallot(acceptedBallotKey(a.id), m.Ballot); err != nil {
		return errors.Wrapf(err, "unable to persist accepted ballot:%v of acceptor:%d", m.Ballot, a.id)
	}
	if err := a.store.Set(acceptedValueKey(a.id), []byte(m.Value)); err != nil {
		return errors.Wrapf(err, "unable to persist accepted value of acceptor:%d", a.id)
	}

	accepted := Message{
		Kind:   MsgAccepted,
		Ballot: m.Ballot,
		Value:  m.Value,
		From:   a.id,
		To:     m.From,
	}
	a.nw.Send(accepted)
	for _, learner := range a.learners {
		accepted.To = learner
		a.nw.Send(accepted)
	}
	return nil
}

func (a *Acceptor) reject(m Message) {
	if a.silentRejects {
		return
	}
	promised, err := a.getBallot(promisedBallotKey(a.id))
	if err != nil {
		promised = Ballot{}
	}
	a.nw.Send(Message{
		Kind:     MsgNack,
		Ballot:   m.Ballot,
		From:     a.id,
		To:       m.From,
		Promised: promised,
	})
}

// State returns a snapshot of the acceptor's durable state.
func (a *Acceptor) State() (AcceptorState, error) {
	promised, err := a.getBallot(promisedBallotKey(a.id))
	if err != nil {
		return AcceptorState{}, errors.Wrapf(err, "unable to get promised ballot of acceptor:%d", a.id)
	}
	acceptedBallot, acceptedValue, err := a.accepted()
	if err != nil {
		return AcceptorState{}, err
	}
	return AcceptorState{Promised: promised, Accepted: acceptedBallot, Value: acceptedValue}, nil
}

func (a *Acceptor) accepted() (Ballot, string, error) {
	acceptedBallot, err := a.getBallot(acceptedBallotKey(a.id))
	if err != nil {
		return Ballot{}, "", errors.Wrapf(err, "unable to get accepted ballot of acceptor:%d", a.id)
	}
	if acceptedBallot.IsZero() {
		return Ballot{}, "", nil
	}
	raw, err := a.store.Get(acceptedValueKey(a.id))
	if err != nil && err.Error() == stableStoreNotFoundErr {
		raw, err = nil, nil
	}
	if err != nil {
		return Ballot{}, "", errors.Wrapf(err, "unable to get accepted value of acceptor:%d", a.id)
	}
	return acceptedBallot, string(raw), nil
}

func (a *Acceptor) getBallot(key []byte) (Ballot, error) {
	raw, err := a.store.Get(key)
	if err != nil && err.Error() == stableStoreNotFoundErr {
		return Ballot{}, nil
	}
	if err != nil {
		return Ballot{}, err
	}
	return decodeBallot(raw)
}

func (a *Acceptor) setBallot(key []byte, b Ballot) error {
	raw, err := encodeBallot(b)
	if err != nil {
		return err
	}
	return a.store.Set(key, raw)
}
