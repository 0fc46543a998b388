package ptt

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingActuator struct {
	calls []string
	fail  error
}

func (this *recordingActuator) Assert() error {
	this.calls = append(this.calls, "assert")
	return this.fail
}

func (this *recordingActuator) Release() error {
	this.calls = append(this.calls, "release")
	return this.fail
}

type fakeSession struct {
	id       string
	received []Status
	fail     error
	closed   int
}

func newFakeSession(id string) *fakeSession {
	return &fakeSession{id: id}
}

func (this *fakeSession) Id() string         { return this.id }
func (this *fakeSession) RemoteAddr() string { return "test:" + this.id }
func (this *fakeSession) Close()             { this.closed++ }

func (this *fakeSession) Send(s Status) error {
	if this.fail != nil {
		return this.fail
	}
	this.received = append(this.received, s)
	return nil
}

func newTestRegistry(t testing.TB) (*Registry, *Machine, *recordingActuator) {
	t.Helper()
	act := &recordingActuator{}
	machine := NewMachine(act)
	return NewRegistry(machine), machine, act
}

func TestMachine_duplicateRequestsAreNoOps(t *testing.T) {
	act := &recordingActuator{}
	instance := NewMachine(act)

	assert.Equal(t, StateIdle, instance.State())
	assert.True(t, instance.RequestOn())
	assert.False(t, instance.RequestOn())
	assert.True(t, instance.RequestOff())
	assert.False(t, instance.RequestOff())
	assert.True(t, instance.RequestOn())

	assert.Equal(t, StateTransmitting, instance.State())
	assert.Equal(t, []string{"assert", "release", "assert"}, act.calls)
}

func TestMachine_sequencesMatchCollapsedRequests(t *testing.T) {
	cases := [][]bool{
		{},
		{true},
		{false},
		{true, true, false, false, true},
		{false, true, false, true, true, false},
		{true, false, false, false},
	}
	for i, requests := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			act := &recordingActuator{}
			instance := NewMachine(act)

			expected := false
			expectedCalls := 0
			for _, r := range requests {
				changed := instance.Request(r)
				assert.Equal(t, expected != r, changed)
				if expected != r {
					expectedCalls++
				}
				expected = r
			}

			assert.Equal(t, StateOf(expected), instance.State())
			assert.Len(t, act.calls, expectedCalls)
		})
	}
}

func TestMachine_forceOff(t *testing.T) {
	act := &recordingActuator{}
	instance := NewMachine(act)

	assert.False(t, instance.ForceOff())
	assert.Empty(t, act.calls)

	instance.RequestOn()
	assert.True(t, instance.ForceOff())
	assert.Equal(t, StateIdle, instance.State())
	assert.Equal(t, []string{"assert", "release"}, act.calls)
}

func TestMachine_actuationFailureStillTransitions(t *testing.T) {
	act := &recordingActuator{fail: errors.New("expected")}
	instance := NewMachine(act)
	var transitions []State
	instance.OnTransition = func(s State) {
		transitions = append(transitions, s)
	}

	assert.True(t, instance.RequestOn())
	assert.True(t, instance.Transmitting())
	assert.True(t, instance.RequestOff())
	assert.Equal(t, []State{StateTransmitting, StateIdle}, transitions)
}

func TestRegistry_removingAllWhileTransmittingForcesOffOnce(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			instance, machine, act := newTestRegistry(t)
			sessions := make([]*fakeSession, n)
			for i := range sessions {
				sessions[i] = newFakeSession(fmt.Sprint(i))
				instance.Add(sessions[i])
			}
			require.True(t, machine.RequestOn())

			released := 0
			for i, s := range sessions {
				r := instance.Remove(s)
				assert.Equal(t, 1, r.Removed)
				if r.Released {
					released++
					assert.Equal(t, n-1, i, "only the last removal may release")
				}
			}

			assert.Equal(t, 1, released)
			assert.Equal(t, StateIdle, machine.State())
			assert.Equal(t, []string{"assert", "release"}, act.calls)
			assert.Equal(t, 0, instance.Count())
			for _, s := range sessions {
				assert.Empty(t, s.received)
				assert.Equal(t, 1, s.closed)
			}
		})
	}
}

func TestRegistry_removeUnknownSessionIsNoOp(t *testing.T) {
	instance, machine, _ := newTestRegistry(t)
	machine.RequestOn()

	assert.Equal(t, Removal{}, instance.Remove(newFakeSession("x")))
	assert.True(t, machine.Transmitting())
}

func TestRegistry_broadcastIsolatesFailures(t *testing.T) {
	instance, _, _ := newTestRegistry(t)
	const k = 5
	sessions := make([]*fakeSession, k)
	for i := range sessions {
		sessions[i] = newFakeSession(fmt.Sprint(i))
		instance.Add(sessions[i])
	}
	failing := sessions[2]
	failing.fail = errors.New("expected")

	r := instance.Broadcast(StatusOn)

	assert.Equal(t, 1, r.Removed)
	assert.False(t, r.Released)
	assert.Equal(t, k-1, instance.Count())
	assert.False(t, instance.Contains(failing))
	assert.Equal(t, 1, failing.closed)
	for _, s := range sessions {
		if s != failing {
			assert.Equal(t, []Status{StatusOn}, s.received, s.id)
		}
	}
}

func TestRegistry_holderDepartureReleasesAndNotifiesOthers(t *testing.T) {
	instance, machine, _ := newTestRegistry(t)
	a := newFakeSession("a")
	b := newFakeSession("b")
	instance.Add(a)
	instance.Add(b)

	require.True(t, machine.RequestOn())
	instance.SetHolder(a)

	r := instance.Remove(a)

	assert.True(t, r.Released)
	assert.Equal(t, StateIdle, machine.State())
	assert.Nil(t, instance.Holder())
	assert.Equal(t, []Status{StatusOff}, b.received)
	assert.Empty(t, a.received)
}

func TestRegistry_nonHolderDepartureKeepsTransmitting(t *testing.T) {
	instance, machine, _ := newTestRegistry(t)
	a := newFakeSession("a")
	b := newFakeSession("b")
	instance.Add(a)
	instance.Add(b)

	require.True(t, machine.RequestOn())
	instance.SetHolder(a)

	r := instance.Remove(b)

	assert.False(t, r.Released)
	assert.True(t, machine.Transmitting())
	assert.Equal(t, a, instance.Holder())
}

func TestRegistry_failingLastSessionDuringBroadcastReleases(t *testing.T) {
	instance, machine, _ := newTestRegistry(t)
	a := newFakeSession("a")
	a.fail = errors.New("expected")
	instance.Add(a)

	require.True(t, machine.RequestOn())
	r := instance.Broadcast(StatusOn)

	assert.True(t, r.Released)
	assert.Equal(t, 0, instance.Count())
	assert.Equal(t, StateIdle, machine.State())
}

func TestRegistry_clear(t *testing.T) {
	instance, machine, _ := newTestRegistry(t)
	a := newFakeSession("a")
	instance.Add(a)
	instance.SetHolder(a)
	machine.RequestOn()

	assert.Equal(t, 1, instance.Clear())
	assert.Equal(t, 0, instance.Count())
	assert.Nil(t, instance.Holder())
	assert.Equal(t, 1, a.closed)
	assert.True(t, machine.Transmitting(), "clear does not apply safety rules")
}

func TestState_set(t *testing.T) {
	var actual State
	require.NoError(t, actual.Set(" On "))
	assert.Equal(t, StateTransmitting, actual)
	require.NoError(t, actual.Set("idle"))
	assert.Equal(t, StateIdle, actual)
	assert.Error(t, actual.Set("maybe"))
	assert.Equal(t, "transmitting", StateTransmitting.String())
	assert.Equal(t, StatusOn, StatusOf(StateTransmitting))
}
