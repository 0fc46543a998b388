package control

type event interface {
	event()
}

type connected struct {
	session *session
}

type received struct {
	session *session
	request Request
	payload []byte
}

type disconnected struct {
	session *session
	cause   error
}

type emit struct {
	active bool
}

type shutdown struct{}

func (connected) event()    {}
func (received) event()     {}
func (disconnected) event() {}
func (emit) event()         {}
func (shutdown) event()     {}

type NotificationKind uint8

const (
	NotificationState   = NotificationKind(0)
	NotificationClients = NotificationKind(1)
)

// Notification is emitted by the loop whenever the PTT state or the number
// of clients changed.
type Notification struct {
	Kind    NotificationKind
	Active  bool
	Clients int
}
