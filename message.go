package baraza

import "fmt"

// MsgKind tags the five message kinds exchanged between nodes.
type MsgKind uint8

const (
	MsgPrepare MsgKind = iota + 1
	MsgPromise
	MsgAccept
	MsgAccepted
	MsgNack
)

func (k MsgKind) String() string {
	switch k {
	case MsgPrepare:
		return "PREPARE"
	case MsgPromise:
		return "PROMISE"
	case MsgAccept:
		return "ACCEPT"
	case MsgAccepted:
		return "ACCEPTED"
	case MsgNack:
		return "NACK"
	default:
		return fmt.Sprintf("MsgKind(%d)", uint8(k))
	}
}

// Message is the immutable value object that nodes exchange. Ballot is the
// proposal the message is about. A PROMISE piggybacks the acceptor's prior
// accept, if any, in AcceptedBallot/AcceptedValue. A NACK carries the
// acceptor's highest promised ballot in Promised so the proposer can advance
// its round past it.
//
// A dropped or delayed message has no representation once the network
// simulator discards it.
type Message struct {
	Kind   MsgKind
	Ballot Ballot
	Value  string
	From   uint64
	To     uint64

	AcceptedBallot Ballot
	AcceptedValue  string
	Promised       Ballot
}

func (m Message) String() string {
	switch m.Kind {
	case MsgPrepare:
		return fmt.Sprintf("PREPARE %v", m.Ballot)
	case MsgPromise:
		if !m.AcceptedBallot.IsZero() {
			return fmt.Sprintf("PROMISE %v prior <%v, %q>", m.Ballot, m.AcceptedBallot, m.AcceptedValue)
		}
		return fmt.Sprintf("PROMISE %v", m.Ballot)
	case MsgAccept:
		return fmt.Sprintf("ACCEPT <%v, %q>", m.Ballot, m.Value)
	case MsgAccepted:
		return fmt.Sprintf("ACCEPTED <%v, %q>", m.Ballot, m.Value)
	case MsgNack:
		return fmt.Sprintf("NACK %v promised %v", m.Ballot, m.Promised)
	default:
		return fmt.Sprintf("unknown message kind: %d", m.Kind)
	}
}
