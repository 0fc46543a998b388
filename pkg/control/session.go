package control

import (
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/echocat/slf4g"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/blaubaer/remote-ptt/pkg/ptt"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 20 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 16
)

var (
	ErrSessionClosed    = errors.New("session closed")
	ErrSessionSaturated = errors.New("send queue of session is full")
)

// SessionIOError reports a failed send or receive of a session.
type SessionIOError struct {
	Session string
	Op      string
	Cause   error
}

func (this *SessionIOError) Error() string {
	return fmt.Sprintf("cannot %s on session %s: %v", this.Op, this.Session, this.Cause)
}

func (this *SessionIOError) Unwrap() error {
	return this.Cause
}

// session is the websocket backed ptt.Session. Send is only called from the
// server loop; the pumps run in their own goroutines. Close is idempotent.
type session struct {
	id         string
	remoteAddr string
	conn       *websocket.Conn
	send       chan []byte

	mutex  sync.Mutex
	closed bool
}

func newSession(conn *websocket.Conn, remoteAddr string) *session {
	return &session{
		id:         uuid.NewString(),
		remoteAddr: remoteAddr,
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
	}
}

func (this *session) Id() string {
	return this.id
}

func (this *session) RemoteAddr() string {
	return this.remoteAddr
}

func (this *session) String() string {
	return this.id + "@" + this.remoteAddr
}

func (this *session) Send(status ptt.Status) error {
	b, err := EncodeStatus(status)
	if err != nil {
		return &SessionIOError{this.id, "encode", err}
	}

	this.mutex.Lock()
	defer this.mutex.Unlock()

	if this.closed {
		return &SessionIOError{this.id, "send", ErrSessionClosed}
	}
	select {
	case this.send <- b:
		return nil
	default:
		return &SessionIOError{this.id, "send", ErrSessionSaturated}
	}
}

func (this *session) Close() {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	if this.closed {
		return
	}
	this.closed = true
	// Closing send makes the write pump say goodbye and close the connection.
	close(this.send)
}

func (this *session) logger() log.Logger {
	return log.With("session", this.id).
		With("remote", this.remoteAddr)
}

func closeStatus(err error) (code int, text string, ok bool) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text, true
	}
	return 0, "", false
}

// writePump delivers queued messages and keeps the connection alive. It
// reports write failures to the loop and closes the connection on exit.
func (this *session) writePump(owner *Server) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = this.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-this.send:
			_ = this.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = this.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := this.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				owner.post(disconnected{this, &SessionIOError{this.id, "write", err}})
				return
			}

		case <-ticker.C:
			_ = this.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := this.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				owner.post(disconnected{this, &SessionIOError{this.id, "ping", err}})
				return
			}
		}
	}
}

// readPump decodes incoming messages and hands them to the loop until the
// connection fails or is closed.
func (this *session) readPump(owner *Server) {
	this.conn.SetReadLimit(maxMessageSize)
	_ = this.conn.SetReadDeadline(time.Now().Add(pongWait))
	this.conn.SetPongHandler(func(string) error {
		return this.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := this.conn.ReadMessage()
		if err != nil {
			var cause error
			if code, _, ok := closeStatus(err); !ok || (code != websocket.CloseNormalClosure && code != websocket.CloseGoingAway) {
				cause = &SessionIOError{this.id, "read", err}
			}
			if !owner.post(disconnected{this, cause}) || owner.stopped() {
				this.Close()
			}
			return
		}
		if !owner.post(received{this, DecodeRequest(payload), payload}) || owner.stopped() {
			this.Close()
			return
		}
	}
}
