package actuator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blaubaer/remote-ptt/pkg/common"
	"github.com/blaubaer/remote-ptt/pkg/signal"
)

func TestLogging_isIdempotent(t *testing.T) {
	instance := &Logging{Signal: signal.MustResolve("caps_lock")}

	require.NoError(t, instance.Assert())
	require.NoError(t, instance.Assert())
	assert.True(t, instance.Asserted())

	require.NoError(t, instance.Release())
	require.NoError(t, instance.Release())
	assert.False(t, instance.Asserted())
}

func TestError_unwraps(t *testing.T) {
	cause := errors.New("expected")
	var err error = &Error{"assert", signal.MustResolve("f13"), cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "cannot assert signal f13: expected", err.Error())

	actual, ok := common.AsError[*Error](err)
	require.True(t, ok)
	assert.Equal(t, "assert", actual.Op)
}
