package credentials

import (
	"encoding/json"
)

const appName = "github.com/blaubaer/remote-ptt"

// Credentials of the indicators. They are kept out of the configuration
// file where the platform provides a credential store.
type Credentials struct {
	HueBridge string `json:"hue_bridge,omitempty"`
	HueUser   string `json:"hue_user,omitempty"`

	HomeAssistantServer string `json:"homeAssistant_server,omitempty"`
	HomeAssistantToken  string `json:"homeAssistant_token,omitempty"`
}

func (this *Credentials) IsZero() bool {
	return this.IsHueZero() && this.IsHomeAssistantZero()
}

func (this *Credentials) IsHueZero() bool {
	return this.HueBridge == "" || this.HueUser == ""
}

func (this *Credentials) IsHomeAssistantZero() bool {
	return this.HomeAssistantServer == "" || this.HomeAssistantToken == ""
}

// Merge fills all empty fields of this instance from the other one.
func (this *Credentials) Merge(o Credentials) {
	if this.HueBridge == "" {
		this.HueBridge = o.HueBridge
	}
	if this.HueUser == "" {
		this.HueUser = o.HueUser
	}
	if this.HomeAssistantServer == "" {
		this.HomeAssistantServer = o.HomeAssistantServer
	}
	if this.HomeAssistantToken == "" {
		this.HomeAssistantToken = o.HomeAssistantToken
	}
}

func (this *Credentials) MarshalBinary() (data []byte, err error) {
	return json.Marshal(this)
}

func (this *Credentials) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, this)
}
