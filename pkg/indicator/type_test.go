package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestType_Set(t *testing.T) {
	var actual Type
	require.NoError(t, actual.Set(" Hue "))
	assert.Equal(t, TypeHue, actual)
	require.NoError(t, actual.Set("home-assistant"))
	assert.Equal(t, TypeHomeAssistant, actual)
	require.NoError(t, actual.Set(""))
	assert.Equal(t, TypeNone, actual)
	assert.Error(t, actual.Set("lava-lamp"))
}

func TestType_yaml(t *testing.T) {
	var holder struct {
		Type Type `yaml:"type"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("type: homeassistant"), &holder))
	assert.Equal(t, TypeHomeAssistant, holder.Type)

	b, err := yaml.Marshal(holder)
	require.NoError(t, err)
	assert.Equal(t, "type: homeassistant\n", string(b))
	assert.Equal(t, "none,hue,homeassistant", AllTypes.String())
}
