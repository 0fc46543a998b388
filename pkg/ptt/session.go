package ptt

type Status string

const (
	StatusConnected = Status("connected")
	StatusOn        = Status("ptt_on")
	StatusOff       = Status("ptt_off")
)

func StatusOf(state State) Status {
	if state.IsActive() {
		return StatusOn
	}
	return StatusOff
}

// Session is one connected control client as seen by the Registry.
type Session interface {
	Id() string
	RemoteAddr() string

	// Send enqueues the status for delivery without blocking.
	Send(Status) error

	// Close releases the session's connection. It has to be idempotent.
	Close()
}
