package facade

import (
	"github.com/blaubaer/remote-ptt/pkg/common"
	"github.com/blaubaer/remote-ptt/pkg/indicator"
	"github.com/blaubaer/remote-ptt/pkg/indicator/homeassistant"
	"github.com/blaubaer/remote-ptt/pkg/indicator/hue"
)

func NewConfiguration() Configuration {
	return Configuration{
		Type:          indicator.TypeDefault,
		Hue:           hue.NewConfiguration(),
		HomeAssistant: homeassistant.NewConfiguration(),
	}
}

type Configuration struct {
	Type          indicator.Type              `yaml:"type"`
	Hue           hue.Configuration           `yaml:"hue,omitempty"`
	HomeAssistant homeassistant.Configuration `yaml:"homeAssistant,omitempty"`
}

func (this *Configuration) SetupConfiguration(using common.FlagHolder) {
	using.Flag("indicator", "On air indicator which reflects the PTT state. Possible values: "+indicator.AllTypes.String()).
		Envar("RP_INDICATOR").
		SetValue(&this.Type)

	this.Hue.SetupConfiguration(using)
	this.HomeAssistant.SetupConfiguration(using)
}
