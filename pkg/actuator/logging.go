package actuator

import (
	log "github.com/echocat/slf4g"

	"github.com/blaubaer/remote-ptt/pkg/signal"
)

// Logging only tracks the logical position of the signal and logs each
// change. It is used where no native input mechanism exists.
type Logging struct {
	Signal signal.Signal

	asserted bool
}

func (this *Logging) Assert() error {
	if !this.asserted {
		log.With("signal", this.Signal).
			Info("Signal asserted.")
	}
	this.asserted = true
	return nil
}

func (this *Logging) Release() error {
	if this.asserted {
		log.With("signal", this.Signal).
			Info("Signal released.")
	}
	this.asserted = false
	return nil
}

func (this *Logging) Asserted() bool {
	return this.asserted
}
