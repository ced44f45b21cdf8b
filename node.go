package baraza

// Role types a node as proposer, acceptor or learner.
type Role uint8

const (
	RoleProposer Role = iota + 1
	RoleAcceptor
	RoleLearner
)

func (r Role) String() string {
	switch r {
	case RoleProposer:
		return "proposer"
	case RoleAcceptor:
		return "acceptor"
	case RoleLearner:
		return "learner"
	default:
		return "unknown"
	}
}

// node is anything registered with the network simulator. Handlers run inline
// on the simulation loop, so no two handlers ever run concurrently against
// the same node's state.
//
// deliver processes one inbound message; its error return is reserved for
// protocol violations, which halt the run. onFail and onRecover are invoked
// by the network when the failure simulator toggles the node's liveness;
// volatile roles reset their state in onRecover, an acceptor's durable state
// survives in its StableStore.
type node interface {
	ID() uint64
	Role() Role
	deliver(m Message) error
	onFail()
	onRecover()
}
