package indicator

import (
	"github.com/blaubaer/remote-ptt/pkg/ptt"
)

// Indicator mirrors the PTT state to something visible, like an "on air"
// light. Indicators are driven from the notification dispatcher and never
// from the control loop.
type Indicator interface {
	Dispose() error
	Ensure(ptt.State) error
	Update() error

	GetType() Type
}
