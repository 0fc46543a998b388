package app

// Observer is informed about changes of the PTT state and the number of
// connected clients. It is never called from the control loop, so it may
// block briefly, but slow observers lose notifications.
type Observer interface {
	OnStateChanged(active bool)
	OnClientCountChanged(count int)
}

// ObserverFuncs adapts plain functions to Observer. Nil functions are
// ignored.
type ObserverFuncs struct {
	StateChanged       func(active bool)
	ClientCountChanged func(count int)
}

func (this ObserverFuncs) OnStateChanged(active bool) {
	if f := this.StateChanged; f != nil {
		f(active)
	}
}

func (this ObserverFuncs) OnClientCountChanged(count int) {
	if f := this.ClientCountChanged; f != nil {
		f(count)
	}
}
