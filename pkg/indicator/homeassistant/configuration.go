package homeassistant

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/blaubaer/remote-ptt/pkg/common"
)

func NewConfiguration() Configuration {
	return Configuration{
		EntityId:         fmt.Sprintf("input_boolean.%s_ptt", computerId),
		DeadZoneInterval: time.Second * 60,
		RequestTimeout:   time.Second * 10,
	}
}

var forbiddenEntityIdChars = regexp.MustCompile("[^a-z0-9_]")

func normalizeEntityIdPrefix(id string) string {
	id = strings.ToLower(id)
	id = strings.TrimSpace(id)
	return forbiddenEntityIdChars.ReplaceAllString(id, "_")
}

var computerId = func() string {
	if result, err := os.Hostname(); err == nil && result != "" {
		return normalizeEntityIdPrefix(result)
	}

	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Errorf("cannot generate entity id: %v", err))
	}
	return hex.EncodeToString(buf)
}()

type Configuration struct {
	Server   string `yaml:"server,omitempty"`
	Token    string `yaml:"token,omitempty"`
	EntityId string `yaml:"entityId"`

	DeadZoneInterval time.Duration `yaml:"deadZoneInterval,omitempty"`
	RequestTimeout   time.Duration `yaml:"requestTimeout,omitempty"`
}

func (this *Configuration) SetupConfiguration(using common.FlagHolder) {
	using.Flag("indicator.homeassistant.server", "URL of the Home Assistant instance.").
		Envar("RP_INDICATOR_HOMEASSISTANT_SERVER").
		StringVar(&this.Server)
	using.Flag("indicator.homeassistant.token", "Long life token to access the Home Assistant instance.").
		Envar("RP_INDICATOR_HOMEASSISTANT_TOKEN").
		StringVar(&this.Token)
	using.Flag("indicator.homeassistant.entityId", "Entity ID which reflects whether this host is transmitting.").
		Envar("RP_INDICATOR_HOMEASSISTANT_ENTITY_ID").
		StringVar(&this.EntityId)
	using.Flag("indicator.homeassistant.deadZoneInterval", "Duration for how long a local state is used to compare to. To prevent too often check of the remote system. As this is the source of truth.").
		Envar("RP_INDICATOR_HOMEASSISTANT_DEAD_ZONE_INTERVAL").
		DurationVar(&this.DeadZoneInterval)
	using.Flag("indicator.homeassistant.requestTimeout", "Timeout of each request against Home Assistant.").
		Envar("RP_INDICATOR_HOMEASSISTANT_REQUEST_TIMEOUT").
		DurationVar(&this.RequestTimeout)
}
