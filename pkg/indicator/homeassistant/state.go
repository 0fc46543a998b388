package homeassistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/blaubaer/remote-ptt/pkg/ptt"
)

// entityState is the representation of ptt.State an input_boolean accepts.
type entityState string

const (
	entityStateOn  = entityState("on")
	entityStateOff = entityState("off")
)

func entityStateOf(v ptt.State) entityState {
	if v.IsActive() {
		return entityStateOn
	}
	return entityStateOff
}

func (this *entityState) UnmarshalText(text []byte) error {
	switch v := entityState(strings.ToLower(strings.TrimSpace(string(text)))); v {
	case entityStateOn, entityStateOff:
		*this = v
		return nil
	case "unavailable", "unknown", "":
		*this = ""
		return nil
	default:
		return fmt.Errorf("illegal entity state: %s", string(text))
	}
}

type stateGetResponse struct {
	EntityId    string         `json:"entity_id"`
	State       entityState    `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastChanged time.Time      `json:"last_changed"`
	LastUpdated time.Time      `json:"last_updated"`
}

type statePostRequest struct {
	State      entityState    `json:"state"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

type state struct {
	timestamp time.Time
	state     entityState
}
