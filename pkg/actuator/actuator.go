package actuator

import (
	"fmt"

	"github.com/blaubaer/remote-ptt/pkg/signal"
)

// Actuator asserts or releases the transmit signal on the host. Both
// operations are safe to call when the signal is already in that position.
// Implementations are not synchronized; callers confine them to one
// goroutine.
type Actuator interface {
	Assert() error
	Release() error
}

// Error reports that the underlying signal could not be actuated.
type Error struct {
	Op     string
	Signal signal.Signal
	Cause  error
}

func (this *Error) Error() string {
	return fmt.Sprintf("cannot %s signal %v: %v", this.Op, this.Signal, this.Cause)
}

func (this *Error) Unwrap() error {
	return this.Cause
}
