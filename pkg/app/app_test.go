package app

import (
	"net"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blaubaer/remote-ptt/pkg/common"
	"github.com/blaubaer/remote-ptt/pkg/control"
	"github.com/blaubaer/remote-ptt/pkg/signal"
)

const waitFor = 2 * time.Second

func freePort(t *testing.T) uint16 {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() {
		_ = ln.Close()
	}()
	return uint16(ln.Addr().(*net.TCPAddr).Port)
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	instance := NewApp()
	instance.config.BindAddress = "127.0.0.1"
	instance.config.ControlPort = freePort(t)
	instance.config.ContentPort = freePort(t)
	instance.config.AssetRoot = t.TempDir()
	instance.config.ShutdownTimeout = waitFor
	t.Cleanup(func() {
		_ = instance.Dispose()
	})
	return instance
}

type recordingObserver struct {
	states  chan bool
	clients chan int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		states:  make(chan bool, 16),
		clients: make(chan int, 16),
	}
}

func (this *recordingObserver) OnStateChanged(active bool) {
	this.states <- active
}

func (this *recordingObserver) OnClientCountChanged(count int) {
	this.clients <- count
}

func receive[T any](t *testing.T, from <-chan T) T {
	t.Helper()
	select {
	case v := <-from:
		return v
	case <-time.After(waitFor):
		t.Fatal("nothing received")
		var zero T
		return zero
	}
}

func TestApp_EmitLocal_notRunning(t *testing.T) {
	instance := newTestApp(t)

	assert.ErrorIs(t, instance.EmitLocal(true), control.ErrNotRunning)
	assert.False(t, instance.State())
	assert.Equal(t, 0, instance.ClientCount())
}

func TestApp_Stop_neverStarted(t *testing.T) {
	instance := newTestApp(t)

	assert.NoError(t, instance.Stop())
	assert.NoError(t, instance.Stop())
}

func TestApp_StartStop(t *testing.T) {
	instance := newTestApp(t)

	require.NoError(t, instance.Start(nil))
	assert.True(t, instance.Running())
	assert.False(t, instance.State())
	require.NoError(t, instance.Start(nil))

	require.NoError(t, instance.Stop())
	assert.False(t, instance.Running())
	assertBindable(t, instance.config.ControlAddress())
	assertBindable(t, instance.config.ContentAddress())
	assert.NoError(t, instance.Stop())

	require.NoError(t, instance.Start(nil))
	assert.True(t, instance.Running())
}

func assertBindable(t *testing.T, address string) {
	t.Helper()
	ln, err := net.Listen("tcp", address)
	require.NoError(t, err, "%s is still bound", address)
	_ = ln.Close()
}

func TestApp_Start_unknownSignal(t *testing.T) {
	instance := newTestApp(t)
	instance.config.SignalName = "not-a-key"

	err := instance.Start(nil)
	var use *signal.UnknownSignalError
	require.ErrorAs(t, err, &use)
	assert.False(t, instance.Running())
}

func TestApp_Start_bindFailureLeavesNothingRunning(t *testing.T) {
	instance := newTestApp(t)
	occupied, err := net.Listen("tcp", instance.config.ControlAddress())
	require.NoError(t, err)
	defer func() {
		_ = occupied.Close()
	}()

	err = instance.Start(nil)
	var be *common.BindError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "control", be.Server)
	assert.False(t, instance.Running())

	assertBindable(t, instance.config.ContentAddress())
}

func TestApp_Start_contentBindFailureLeavesNothingRunning(t *testing.T) {
	instance := newTestApp(t)
	occupied, err := net.Listen("tcp", instance.config.ContentAddress())
	require.NoError(t, err)
	defer func() {
		_ = occupied.Close()
	}()

	err = instance.Start(nil)
	var be *common.BindError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "content", be.Server)
	assert.False(t, instance.Running())
	assert.ErrorIs(t, instance.EmitLocal(true), control.ErrNotRunning)

	assertBindable(t, instance.config.ControlAddress())
}

func TestApp_observerIsNotified(t *testing.T) {
	instance := newTestApp(t)
	observer := newRecordingObserver()
	require.NoError(t, instance.Start(observer))

	require.NoError(t, instance.EmitLocal(true))
	assert.True(t, receive(t, observer.states))
	assert.True(t, instance.State())

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+instance.config.ControlAddress()+"/", nil)
	require.NoError(t, err)
	defer func() {
		_ = conn.Close()
	}()
	assert.Equal(t, 1, receive(t, observer.clients))
	assert.Equal(t, 1, instance.ClientCount())

	require.NoError(t, instance.Stop())
	assert.False(t, receive(t, observer.states))
	assert.Equal(t, 0, receive(t, observer.clients))
	assert.False(t, instance.State())
}

func TestObserverFuncs(t *testing.T) {
	var active bool
	var count int
	observer := ObserverFuncs{
		StateChanged:       func(v bool) { active = v },
		ClientCountChanged: func(v int) { count = v },
	}
	observer.OnStateChanged(true)
	observer.OnClientCountChanged(3)
	assert.True(t, active)
	assert.Equal(t, 3, count)

	ObserverFuncs{}.OnStateChanged(true)
}
