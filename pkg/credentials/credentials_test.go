package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentials_binaryRoundTrip(t *testing.T) {
	given := Credentials{HueBridge: "10.0.0.2", HueUser: "abc"}

	b, err := given.MarshalBinary()
	require.NoError(t, err)
	assert.JSONEq(t, `{"hue_bridge":"10.0.0.2","hue_user":"abc"}`, string(b))

	var actual Credentials
	require.NoError(t, actual.UnmarshalBinary(b))
	assert.Equal(t, given, actual)
	assert.False(t, actual.IsHueZero())
	assert.True(t, actual.IsHomeAssistantZero())
}

func TestCredentials_merge(t *testing.T) {
	actual := Credentials{HueBridge: "stored"}
	actual.Merge(Credentials{HueBridge: "configured", HueUser: "user", HomeAssistantToken: "token"})

	assert.Equal(t, Credentials{HueBridge: "stored", HueUser: "user", HomeAssistantToken: "token"}, actual)
	assert.False(t, actual.IsZero())
}
