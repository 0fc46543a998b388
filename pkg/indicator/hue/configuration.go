package hue

import (
	"time"

	"github.com/blaubaer/remote-ptt/pkg/common"
)

func NewConfiguration() Configuration {
	return Configuration{
		Name: common.MustNewRegexp("^OnAir"),

		Brightness: 254,
		Hue:        65535,
		Saturation: 254,

		PairTimeout: time.Minute * 2,
	}
}

type Configuration struct {
	Pair   bool   `yaml:"pair,omitempty"`
	Bridge string `yaml:"bridge,omitempty"`
	User   string `yaml:"user,omitempty"`

	Name  common.Regexp `yaml:"target"`
	Kinds Kinds         `yaml:"kinds,omitempty"`

	Brightness uint8  `yaml:"brightness"`
	Hue        uint16 `yaml:"hue"`
	Saturation uint8  `yaml:"saturation"`

	PairTimeout time.Duration `yaml:"pairTimeout,omitempty"`
}

func (this *Configuration) SetupConfiguration(using common.FlagHolder) {
	using.Flag("indicator.hue.pair", "If true this application will pair again with an existing hue. This will be implicit enabled if this application is not already paired.").
		Envar("RP_INDICATOR_HUE_PAIR").
		BoolVar(&this.Pair)
	using.Flag("indicator.hue.bridge", "Usually the bridge is automatically detected. You can specify an explicit one if they are more than one. This is only required while pairing and will afterwards be ignored.").
		Envar("RP_INDICATOR_HUE_BRIDGE").
		StringVar(&this.Bridge)
	using.Flag("indicator.hue.user", "Usually this is set while pairing and will then be persisted. If this set this will be used and not be persisted.").
		Envar("RP_INDICATOR_HUE_USER").
		StringVar(&this.User)
	using.Flag("indicator.hue.name", "Name as regex of the lights/groups which should be switched on while transmitting.").
		Envar("RP_INDICATOR_HUE_NAME").
		SetValue(&this.Name)
	using.Flag("indicator.hue.kind", "Kind(s) of what should be handled. Possible values: "+AllKinds.String()).
		Envar("RP_INDICATOR_HUE_KIND").
		SetValue(&this.Kinds)

	using.Flag("indicator.hue.brightness", "The brightness value to set the light to. Brightness is a scale from 1 (the minimum the light is capable of) to 254 (the maximum).").
		Envar("RP_INDICATOR_HUE_BRIGHTNESS").
		Uint8Var(&this.Brightness)
	using.Flag("indicator.hue.hue", "The hue value to set light to. The hue value is a wrapping value between 0 and 65535. Both 0 and 65535 are red, 25500 is green and 46920 is blue.").
		Envar("RP_INDICATOR_HUE_HUE").
		Uint16Var(&this.Hue)
	using.Flag("indicator.hue.saturation", "Saturation of the light. 254 is the most saturated (colored) and 0 is the least saturated (white).").
		Envar("RP_INDICATOR_HUE_SATURATION").
		Uint8Var(&this.Saturation)
	using.Flag("indicator.hue.pairTimeout", "How long to wait for the link button of the bridge been pressed while pairing.").
		Envar("RP_INDICATOR_HUE_PAIR_TIMEOUT").
		DurationVar(&this.PairTimeout)
}
