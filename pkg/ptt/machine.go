package ptt

import (
	log "github.com/echocat/slf4g"

	"github.com/blaubaer/remote-ptt/pkg/actuator"
)

// Machine holds the authoritative PTT state. Every transition goes through
// it and it is the only caller of the actuator. It is not synchronized and
// must be confined to one goroutine.
type Machine struct {
	// OnTransition is called after every applied transition.
	OnTransition func(State)

	actuator actuator.Actuator
	state    State
}

func NewMachine(act actuator.Actuator) *Machine {
	return &Machine{
		actuator: act,
		state:    StateIdle,
	}
}

func (this *Machine) State() State {
	return this.state
}

func (this *Machine) Transmitting() bool {
	return this.state == StateTransmitting
}

// RequestOn asserts the signal if idle and reports whether the state changed.
func (this *Machine) RequestOn() bool {
	return this.transition(StateTransmitting)
}

// RequestOff releases the signal if transmitting and reports whether the
// state changed.
func (this *Machine) RequestOff() bool {
	return this.transition(StateIdle)
}

// ForceOff is the internal safety transition. It behaves like RequestOff
// but is used by shutdown and by the registry on session departure.
func (this *Machine) ForceOff() bool {
	if !this.transition(StateIdle) {
		return false
	}
	log.Info("PTT forcibly released.")
	return true
}

// Request applies RequestOn or RequestOff.
func (this *Machine) Request(active bool) bool {
	if active {
		return this.RequestOn()
	}
	return this.RequestOff()
}

func (this *Machine) transition(target State) bool {
	if this.state == target {
		return false
	}

	var err error
	if target == StateTransmitting {
		err = this.actuator.Assert()
	} else {
		err = this.actuator.Release()
	}
	if err != nil {
		// The transition stays applied even if the actuator failed.
		log.WithError(err).
			With("state", target).
			Error("Cannot actuate signal.")
	}

	this.state = target
	if v := this.OnTransition; v != nil {
		v(target)
	}
	return true
}
