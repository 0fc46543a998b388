package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	log "github.com/echocat/slf4g"
	"github.com/gorilla/websocket"

	"github.com/blaubaer/remote-ptt/pkg/actuator"
	"github.com/blaubaer/remote-ptt/pkg/common"
	"github.com/blaubaer/remote-ptt/pkg/ptt"
)

const (
	eventBuffer        = 256
	notificationBuffer = 64
)

var (
	ErrNotRunning      = errors.New("control server is not running")
	ErrShutdownTimeout = errors.New("control server did not shut down in time")
)

// Server accepts websocket control connections. All PTT state and the
// session registry are owned by a single loop goroutine; everything else
// talks to it through the events channel.
type Server struct {
	address string

	machine  *ptt.Machine
	registry *ptt.Registry

	events        chan event
	notifications chan Notification
	done          chan struct{}

	listener net.Listener
	http     *http.Server
	upgrader websocket.Upgrader

	running atomic.Bool
	started sync.Once
	active  atomic.Bool
	clients atomic.Int32
}

func NewServer(address string, act actuator.Actuator) *Server {
	result := &Server{
		address:       address,
		machine:       ptt.NewMachine(act),
		events:        make(chan event, eventBuffer),
		notifications: make(chan Notification, notificationBuffer),
		done:          make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	result.registry = ptt.NewRegistry(result.machine)
	result.machine.OnTransition = result.onTransition
	result.http = &http.Server{
		Handler: result,
	}
	return result
}

// Start binds the listener and starts the loop. It returns a
// *common.BindError if the address is not available.
func (this *Server) Start() error {
	if this.running.Load() {
		return nil
	}
	started := false
	this.started.Do(func() {
		started = true
	})
	if !started {
		return fmt.Errorf("control server cannot be started twice")
	}

	ln, err := net.Listen("tcp", this.address)
	if err != nil {
		close(this.done)
		close(this.notifications)
		return &common.BindError{Server: "control", Address: this.address, Cause: err}
	}
	this.listener = ln
	this.running.Store(true)

	go this.loop()
	go func() {
		if err := this.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).
				With("address", this.Addr()).
				Error("Control server stopped accepting connections.")
		}
	}()

	log.With("address", this.Addr()).
		Info("Control server listening.")
	return nil
}

// Addr returns the address the server is listening on.
func (this *Server) Addr() string {
	if ln := this.listener; ln != nil {
		return ln.Addr().String()
	}
	return this.address
}

// Notifications delivers state and client count changes. The channel is
// closed once the loop exited. Notifications are dropped if nobody drains it.
func (this *Server) Notifications() <-chan Notification {
	return this.notifications
}

func (this *Server) Transmitting() bool {
	return this.active.Load()
}

func (this *Server) ClientCount() int {
	return int(this.clients.Load())
}

// Emit schedules a local transition. It does not wait for its broadcast.
func (this *Server) Emit(active bool) error {
	if !this.running.Load() {
		return ErrNotRunning
	}
	if !this.post(emit{active}) {
		return ErrNotRunning
	}
	return nil
}

// Stop closes the listener and lets the loop release the signal, tell the
// clients and close their sessions. It waits for the loop until ctx is done.
func (this *Server) Stop(ctx context.Context) error {
	if !this.running.CompareAndSwap(true, false) {
		return nil
	}

	if err := this.http.Close(); err != nil {
		log.WithError(err).
			Debug("Cannot close control listener.")
	}

	select {
	case this.events <- shutdown{}:
	case <-this.done:
	case <-ctx.Done():
	}

	select {
	case <-this.done:
		log.Info("Control server stopped.")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrShutdownTimeout, ctx.Err())
	}
}

func (this *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := this.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).
			With("remote", r.RemoteAddr).
			Warn("Cannot upgrade control connection.")
		return
	}

	s := newSession(conn, r.RemoteAddr)
	go s.writePump(this)
	if !this.post(connected{s}) || this.stopped() {
		s.Close()
		return
	}
	go s.readPump(this)
}

func (this *Server) stopped() bool {
	select {
	case <-this.done:
		return true
	default:
		return false
	}
}

// post hands the event to the loop. It returns false if the loop is gone.
func (this *Server) post(ev event) bool {
	select {
	case <-this.done:
		return false
	default:
	}
	select {
	case this.events <- ev:
		return true
	case <-this.done:
		return false
	}
}

// loop handles events until shutdown. Events posted while stopping are
// discarded and their sessions closed. Whoever posted after done is closed
// closes its session itself.
func (this *Server) loop() {
	defer close(this.notifications)

	for ev := range this.events {
		if stop := this.handle(ev); stop {
			break
		}
		this.publishClients()
	}

	this.discardPending()
	close(this.done)
	this.discardPending()
}

func (this *Server) discardPending() {
	for {
		select {
		case ev := <-this.events:
			switch v := ev.(type) {
			case connected:
				v.session.Close()
			case received:
				v.session.Close()
			case disconnected:
				v.session.Close()
			}
		default:
			return
		}
	}
}

func (this *Server) handle(ev event) (stop bool) {
	switch v := ev.(type) {
	case connected:
		this.onConnected(v.session)
	case received:
		this.onReceived(v.session, v.request, v.payload)
	case disconnected:
		this.onDisconnected(v.session, v.cause)
	case emit:
		this.onEmit(v.active)
	case shutdown:
		this.onShutdown()
		return true
	default:
		log.With("event", fmt.Sprintf("%T", ev)).
			Warn("Unknown event.")
	}
	return false
}

func (this *Server) onConnected(s *session) {
	logger := s.logger()
	if err := s.Send(ptt.StatusConnected); err != nil {
		logger.WithError(err).Warn("Cannot greet client.")
		s.Close()
		return
	}
	if this.machine.Transmitting() {
		if err := s.Send(ptt.StatusOn); err != nil {
			logger.WithError(err).Warn("Cannot sync state to client.")
			s.Close()
			return
		}
	}
	this.registry.Add(s)

	logger.With("clients", this.registry.Count()).
		Info("Client connected.")
}

func (this *Server) onReceived(s *session, r Request, payload []byte) {
	if !this.registry.Contains(s) {
		return
	}
	logger := s.logger()

	switch r.Kind {
	case RequestOn:
		if !this.machine.RequestOn() {
			logger.Debug("PTT already on, ignoring.")
			return
		}
		this.registry.SetHolder(s)
		logger.Info("PTT ON.")
		this.registry.Broadcast(ptt.StatusOn)

	case RequestOff:
		if !this.machine.RequestOff() {
			logger.Debug("PTT already off, ignoring.")
			return
		}
		this.registry.SetHolder(nil)
		logger.Info("PTT OFF.")
		this.registry.Broadcast(ptt.StatusOff)

	default:
		logger.WithError(&ProtocolError{r.Reason, string(payload)}).
			Warn("Ignoring client message.")
	}
}

func (this *Server) onDisconnected(s *session, cause error) {
	r := this.registry.Remove(s)
	if r.Removed == 0 {
		s.Close()
		return
	}
	logger := s.logger().
		With("clients", this.registry.Count())
	if cause != nil {
		logger = logger.WithError(cause)
	}
	logger.Info("Client disconnected.")
}

func (this *Server) onEmit(active bool) {
	if !this.machine.Request(active) {
		log.With("active", active).
			Debug("Local PTT request without effect, ignoring.")
		return
	}
	this.registry.SetHolder(nil)
	log.With("state", this.machine.State()).
		With("clients", this.registry.Count()).
		Info("PTT changed locally.")
	this.registry.Broadcast(ptt.StatusOf(this.machine.State()))
}

func (this *Server) onShutdown() {
	if this.machine.ForceOff() {
		log.Info("PTT released as the server is stopping.")
		this.registry.Broadcast(ptt.StatusOff)
	}
	if n := this.registry.Clear(); n > 0 {
		log.With("clients", n).
			Info("Closed remaining client connections.")
	}
	this.publishClients()
}

func (this *Server) onTransition(state ptt.State) {
	this.active.Store(state.IsActive())
	this.notify(Notification{Kind: NotificationState, Active: state.IsActive()})
}

func (this *Server) publishClients() {
	n := this.registry.Count()
	if int(this.clients.Swap(int32(n))) != n {
		this.notify(Notification{Kind: NotificationClients, Clients: n})
	}
}

func (this *Server) notify(n Notification) {
	select {
	case this.notifications <- n:
	default:
		log.With("kind", n.Kind).
			Warn("Notification queue full, dropping notification.")
	}
}
