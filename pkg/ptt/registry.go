package ptt

import (
	log "github.com/echocat/slf4g"
)

// Registry tracks the live sessions. Like Machine it is confined to the
// control loop and therefore not synchronized.
type Registry struct {
	machine  *Machine
	sessions map[Session]struct{}
	holder   Session
}

// Removal describes the outcome of removing one or more sessions.
type Removal struct {
	// Removed is the number of sessions which were actually removed.
	Removed int
	// Released is true if a removal forced the PTT state back to idle.
	Released bool
}

func (this Removal) merge(o Removal) Removal {
	return Removal{
		Removed:  this.Removed + o.Removed,
		Released: this.Released || o.Released,
	}
}

func NewRegistry(machine *Machine) *Registry {
	return &Registry{
		machine:  machine,
		sessions: make(map[Session]struct{}),
	}
}

func (this *Registry) Add(s Session) {
	this.sessions[s] = struct{}{}
}

func (this *Registry) Contains(s Session) bool {
	_, ok := this.sessions[s]
	return ok
}

func (this *Registry) Count() int {
	return len(this.sessions)
}

// Holder returns the session whose request put the state to transmitting,
// or nil if the transmission was not started by a session.
func (this *Registry) Holder() Session {
	return this.holder
}

func (this *Registry) SetHolder(s Session) {
	this.holder = s
}

// Remove closes and unregisters the session and applies the safety rules:
// if nobody is left while transmitting, or the holder of the transmission
// left, the state is forced back to idle. In the latter case the remaining
// sessions are told about it.
func (this *Registry) Remove(s Session) Removal {
	if _, ok := this.sessions[s]; !ok {
		return Removal{}
	}
	delete(this.sessions, s)
	s.Close()

	result := Removal{Removed: 1}
	wasHolder := this.holder == s
	if wasHolder {
		this.holder = nil
	}

	if !this.machine.Transmitting() {
		return result
	}

	if len(this.sessions) == 0 {
		if this.machine.ForceOff() {
			log.With("session", s.Id()).
				Info("PTT released as the last client disconnected.")
			result.Released = true
		}
		return result
	}

	if wasHolder && this.machine.ForceOff() {
		log.With("session", s.Id()).
			With("remaining", len(this.sessions)).
			Info("PTT released as its holder disconnected.")
		result.Released = true
		result = result.merge(this.Broadcast(StatusOff))
	}

	return result
}

// Broadcast sends the status to every session. Sessions which fail to
// accept it are removed; the others still receive it.
func (this *Registry) Broadcast(status Status) Removal {
	var failed []Session
	for s := range this.sessions {
		if err := s.Send(status); err != nil {
			log.WithError(err).
				With("session", s.Id()).
				With("remote", s.RemoteAddr()).
				With("status", status).
				Warn("Cannot send status to client. Removing it.")
			failed = append(failed, s)
		}
	}

	var result Removal
	for _, s := range failed {
		result = result.merge(this.Remove(s))
	}
	return result
}

// Clear closes and forgets every session without applying the safety rules.
func (this *Registry) Clear() int {
	n := len(this.sessions)
	for s := range this.sessions {
		s.Close()
		delete(this.sessions, s)
	}
	this.holder = nil
	return n
}
