package baraza

// ConfigError reports a configuration that failed validation. It is fatal and
// surfaced to the caller before the simulation starts; it is never retried.
type ConfigError string

func (e ConfigError) Error() string {
	return string(e)
}

// ProtocolViolation reports a broken internal invariant, eg an acceptor's
// durable state moving backward. It indicates a bug and halts the run.
// Message loss, round timeouts and node failures are NOT errors; they are
// expected operating conditions reported through the event sink.
type ProtocolViolation string

func (e ProtocolViolation) Error() string {
	return string(e)
}
