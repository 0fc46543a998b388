package ptt

import (
	"fmt"
	"strings"
)

type State uint8

const (
	StateIdle         = State(0)
	StateTransmitting = State(1)
)

var (
	AllStates = States{
		StateIdle,
		StateTransmitting,
	}
)

func StateOf(active bool) State {
	if active {
		return StateTransmitting
	}
	return StateIdle
}

func (this State) IsActive() bool {
	return this == StateTransmitting
}

func (this *State) Set(plain string) error {
	switch strings.TrimSpace(strings.ToLower(plain)) {
	case "idle", "off", "0", "false", "no":
		*this = StateIdle
		return nil
	case "transmitting", "on", "1", "true", "yes":
		*this = StateTransmitting
		return nil
	default:
		return fmt.Errorf("illegal-ptt-state: %s", plain)
	}
}

func (this State) String() string {
	v, err := this.MarshalText()
	if err != nil {
		return fmt.Sprintf("illegal-ptt-state-%d", this)
	}
	return string(v)
}

func (this State) MarshalText() (text []byte, err error) {
	switch this {
	case StateIdle:
		return []byte("idle"), nil
	case StateTransmitting:
		return []byte("transmitting"), nil
	default:
		return nil, fmt.Errorf("illegal ptt state: %d", this)
	}
}

func (this *State) UnmarshalText(text []byte) error {
	return this.Set(string(text))
}

type States []State

func (this States) Strings() []string {
	result := make([]string, len(this))
	for i, v := range this {
		result[i] = v.String()
	}
	return result
}

func (this States) String() string {
	return strings.Join(this.Strings(), ",")
}
