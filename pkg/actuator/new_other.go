//go:build !windows

package actuator

import (
	log "github.com/echocat/slf4g"

	"github.com/blaubaer/remote-ptt/pkg/signal"
)

// New creates the actuator for the current platform.
func New(s signal.Signal) (Actuator, error) {
	log.With("signal", s).
		Warn("No native key simulation available on this platform. The signal is only logged.")
	return &Logging{Signal: s}, nil
}
