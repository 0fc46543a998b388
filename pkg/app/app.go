package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dario.cat/mergo"
	log "github.com/echocat/slf4g"

	"github.com/blaubaer/remote-ptt/pkg/actuator"
	"github.com/blaubaer/remote-ptt/pkg/common"
	"github.com/blaubaer/remote-ptt/pkg/content"
	"github.com/blaubaer/remote-ptt/pkg/control"
	"github.com/blaubaer/remote-ptt/pkg/host"
	"github.com/blaubaer/remote-ptt/pkg/indicator/facade"
	"github.com/blaubaer/remote-ptt/pkg/ptt"
)

func NewApp() *App {
	return &App{
		config: NewConfiguration(),
	}
}

// App owns the content and the control server. Both are either running
// together or not at all.
type App struct {
	ConfigurationFile string
	Indicator         facade.Facade

	configFromFlags Configuration
	config          Configuration

	lifecycle  sync.Mutex
	mutex      sync.Mutex
	content    *content.Server
	control    *control.Server
	dispatcher chan struct{}
}

func (this *App) SetupConfiguration(using common.FlagHolder) {
	this.configFromFlags.SetupConfiguration(using)

	using.Flag("configuration", "Defines the file from which the configuration should be loaded and/or stored to.").
		Short('c').
		Envar("RP_CONFIGURATION").
		PlaceHolder(DefaultConfigurationFile()).
		StringVar(&this.ConfigurationFile)
}

// Configuration returns the effective configuration.
func (this *App) Configuration() Configuration {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return this.config
}

func (this *App) Initialize() (rErr error) {
	success := false
	defer func() {
		if !success {
			if err := this.Dispose(); err != nil && rErr == nil {
				rErr = err
			}
		}
	}()

	exists := this.loadConf()

	if err := mergo.Merge(&this.config, this.configFromFlags, mergo.WithOverride, mergo.WithTransformers(mergeTransformers{})); err != nil {
		return err
	}
	if err := this.config.Validate(); err != nil {
		return &ConfigError{Cause: err}
	}

	if !exists {
		if err := this.saveConf(); err != nil {
			log.WithError(err).
				Warn("Cannot save configuration.")
		}
	}

	if err := this.Indicator.Initialize(&this.config.Indicator, this.saveConf); err != nil {
		log.WithError(err).
			With("indicator", this.config.Indicator.Type).
			Warn("Cannot initialize indicator. Continue without it.")
	}

	success = true
	return nil
}

// loadConf falls back to the defaults if the file is absent or unusable.
func (this *App) loadConf() (exists bool) {
	fn := this.configurationFile()
	buf := NewConfiguration()
	exists, err := buf.loadFromFile(fn)
	if err != nil {
		log.WithError(err).
			With("file", fn).
			Warn("Configuration cannot be used. Continue with defaults.")
		this.config = NewConfiguration()
		return exists
	}
	if !exists {
		log.With("file", fn).
			Info("Configuration absent. Continue with defaults.")
		this.config = NewConfiguration()
		return false
	}

	log.With("file", fn).
		Debug("Configuration loaded.")
	this.config = buf
	return true
}

func (this *App) saveConf() error {
	if this.config.PreventAutoSave {
		log.Debug("Automatically save of configuration disabled.")
		return nil
	}

	fn := this.configurationFile()
	if err := this.config.saveToFile(fn); err != nil {
		return err
	}

	log.With("file", fn).
		Info("Configuration saved.")
	return nil
}

func (this *App) configurationFile() string {
	if v := this.ConfigurationFile; v != "" {
		return v
	}
	return DefaultConfigurationFile()
}

// Start resolves the signal and starts the content and then the control
// server. If anything fails, nothing is left running. Notifications are
// delivered to the observer from a dedicated goroutine.
func (this *App) Start(observer Observer) error {
	this.lifecycle.Lock()
	defer this.lifecycle.Unlock()

	if this.Running() {
		return nil
	}

	sig, err := this.config.Signal()
	if err != nil {
		return err
	}
	act, err := actuator.New(sig)
	if err != nil {
		return err
	}

	contentServer := content.NewServer(this.config.ContentAddress(), this.config.AssetRoot, this.config.ControlPort)
	if err := contentServer.Start(); err != nil {
		return this.enrichBindError(err, this.config.ContentPort)
	}

	controlServer := control.NewServer(this.config.ControlAddress(), act)
	if err := controlServer.Start(); err != nil {
		ctx, cancel := context.WithTimeout(context.Background(), this.shutdownTimeout())
		defer cancel()
		if sErr := contentServer.Stop(ctx); sErr != nil {
			log.WithError(sErr).
				Warn("Cannot stop content server.")
		}
		return this.enrichBindError(err, this.config.ControlPort)
	}

	dispatcher := make(chan struct{})
	go this.dispatch(controlServer.Notifications(), observer, dispatcher)

	this.mutex.Lock()
	this.content, this.control, this.dispatcher = contentServer, controlServer, dispatcher
	this.mutex.Unlock()

	log.With("signal", sig).
		Info("Remote PTT started.")
	return nil
}

func (this *App) dispatch(notifications <-chan control.Notification, observer Observer, done chan struct{}) {
	defer close(done)
	for n := range notifications {
		switch n.Kind {
		case control.NotificationState:
			if err := this.Indicator.Ensure(ptt.StateOf(n.Active)); err != nil {
				log.WithError(err).
					Warn("Cannot ensure indicator state.")
			}
			if observer != nil {
				observer.OnStateChanged(n.Active)
			}
		case control.NotificationClients:
			if observer != nil {
				observer.OnClientCountChanged(n.Clients)
			}
		}
	}
}

func (this *App) enrichBindError(err error, port uint16) error {
	if be, ok := common.AsError[*common.BindError](err); ok && be.Holder == "" {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
		defer cancel()
		if h, ok := host.PortHolder(ctx, port); ok {
			be.Holder = h.String()
		}
	}
	return err
}

// Stop is a no-op if the app is not running. Exceeding the shutdown
// timeout is logged but not reported.
func (this *App) Stop() error {
	this.lifecycle.Lock()
	defer this.lifecycle.Unlock()

	this.mutex.Lock()
	controlServer, contentServer, dispatcher := this.control, this.content, this.dispatcher
	this.control, this.content, this.dispatcher = nil, nil, nil
	this.mutex.Unlock()

	if controlServer == nil {
		return nil
	}

	timeout := this.shutdownTimeout()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := controlServer.Stop(ctx); errors.Is(err, control.ErrShutdownTimeout) {
		log.WithError(err).
			With("timeout", timeout).
			Warn("Control server did not shut down in time.")
	} else if err != nil {
		log.WithError(err).
			Warn("Cannot stop control server.")
	}

	var rErr error
	if err := contentServer.Stop(ctx); err != nil {
		rErr = err
	}

	select {
	case <-dispatcher:
	case <-ctx.Done():
		log.Debug("Notification dispatcher did not finish in time.")
	}

	log.Info("Remote PTT stopped.")
	return rErr
}

func (this *App) shutdownTimeout() time.Duration {
	if v := this.config.ShutdownTimeout; v > 0 {
		return v
	}
	return DefaultShutdownTimeout
}

// EmitLocal requests a PTT change on behalf of the host. It returns before
// the change was applied.
func (this *App) EmitLocal(active bool) error {
	this.mutex.Lock()
	c := this.control
	this.mutex.Unlock()

	if c == nil {
		return control.ErrNotRunning
	}
	return c.Emit(active)
}

// State reports whether PTT is currently held.
func (this *App) State() bool {
	this.mutex.Lock()
	c := this.control
	this.mutex.Unlock()

	return c != nil && c.Transmitting()
}

func (this *App) ClientCount() int {
	this.mutex.Lock()
	c := this.control
	this.mutex.Unlock()

	if c == nil {
		return 0
	}
	return c.ClientCount()
}

// Running reports whether the servers are started.
func (this *App) Running() bool {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return this.control != nil
}

// Run starts the app, blocks until ctx is done and stops it again.
func (this *App) Run(ctx context.Context, observer Observer) error {
	if err := this.Start(observer); err != nil {
		return err
	}
	this.logBanner(ctx)

	<-ctx.Done()

	return this.Stop()
}

func (this *App) logBanner(ctx context.Context) {
	conf := this.Configuration()
	for _, addr := range host.Addresses(ctx) {
		log.With("webUi", fmt.Sprintf("http://%s:%d", addr, conf.ContentPort)).
			With("control", fmt.Sprintf("ws://%s:%d", addr, conf.ControlPort)).
			With("signal", conf.SignalName).
			Info("Open the web UI from another device in the same network.")
	}
}

func (this *App) Dispose() (rErr error) {
	defer func() {
		if err := this.Indicator.Dispose(); err != nil && rErr == nil {
			rErr = err
		}
	}()

	return this.Stop()
}
