package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsError(t *testing.T) {
	cause := errors.New("address already in use")
	err := fmt.Errorf("start: %w", &BindError{Server: "content", Address: "0.0.0.0:8080", Cause: cause})

	actual, ok := AsError[*BindError](err)
	assert.True(t, ok)
	assert.Equal(t, "content", actual.Server)
	assert.ErrorIs(t, err, cause)

	_, ok = AsError[*BindError](cause)
	assert.False(t, ok)
}

func TestBindError_Error(t *testing.T) {
	err := &BindError{Server: "content", Address: "0.0.0.0:8080", Cause: errors.New("in use")}
	assert.Equal(t, "cannot bind content server to 0.0.0.0:8080: in use", err.Error())

	err.Holder = "nginx (pid 12)"
	assert.Equal(t, "cannot bind content server to 0.0.0.0:8080 (already used by nginx (pid 12)): in use", err.Error())
}
