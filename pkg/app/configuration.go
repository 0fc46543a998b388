package app

import (
	"fmt"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"reflect"
	"strconv"
	"time"

	"github.com/blaubaer/remote-ptt/pkg/common"
	"github.com/blaubaer/remote-ptt/pkg/indicator/facade"
	"github.com/blaubaer/remote-ptt/pkg/signal"
)

const (
	DefaultSignalName      = "caps_lock"
	DefaultControlPort     = uint16(8765)
	DefaultContentPort     = uint16(8080)
	DefaultBindAddress     = "0.0.0.0"
	DefaultShutdownTimeout = 3 * time.Second

	minPort = 1024
)

func NewConfiguration() Configuration {
	return Configuration{
		SignalName:      DefaultSignalName,
		ControlPort:     DefaultControlPort,
		ContentPort:     DefaultContentPort,
		AssetRoot:       defaultAssetRoot(),
		BindAddress:     DefaultBindAddress,
		ShutdownTimeout: DefaultShutdownTimeout,

		Indicator: facade.NewConfiguration(),
	}
}

type Configuration struct {
	SignalName  string `yaml:"signal_name"`
	ControlPort uint16 `yaml:"control_port"`
	ContentPort uint16 `yaml:"content_port"`

	AssetRoot       string        `yaml:"asset_root,omitempty"`
	BindAddress     string        `yaml:"bind_address,omitempty"`
	PreventAutoSave bool          `yaml:"prevent_auto_save,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`

	Indicator facade.Configuration `yaml:"indicator,omitempty"`

	// Keys of the config.json of former releases.
	LegacyPttKey   string `yaml:"ptt_key,omitempty"`
	LegacyWsPort   uint16 `yaml:"ws_port,omitempty"`
	LegacyHttpPort uint16 `yaml:"http_port,omitempty"`
}

func (this *Configuration) SetupConfiguration(using common.FlagHolder) {
	using.Flag("signal", "Name of the key which is held down while transmitting. See command 'signals' for all symbolic names; every single printable character is valid too.").
		Envar("RP_SIGNAL").
		StringVar(&this.SignalName)
	using.Flag("control.port", "Port the websocket control channel listens on.").
		Envar("RP_CONTROL_PORT").
		Uint16Var(&this.ControlPort)
	using.Flag("content.port", "Port the web client is delivered from.").
		Envar("RP_CONTENT_PORT").
		Uint16Var(&this.ContentPort)
	using.Flag("content.assets", "Directory containing the web client.").
		Envar("RP_CONTENT_ASSETS").
		StringVar(&this.AssetRoot)
	using.Flag("bind", "Address both servers bind to.").
		Envar("RP_BIND").
		StringVar(&this.BindAddress)
	using.Flag("preventAutoSave", "If provided configuration will NOT automatically be saved upon changes.").
		Envar("RP_PREVENT_AUTO_SAVE").
		BoolVar(&this.PreventAutoSave)
	using.Flag("shutdownTimeout", "How long to wait for the control channel to release the signal and close all clients while stopping.").
		Envar("RP_SHUTDOWN_TIMEOUT").
		DurationVar(&this.ShutdownTimeout)

	this.Indicator.SetupConfiguration(using)
}

// Validate reports the first violated constraint.
func (this Configuration) Validate() error {
	if this.SignalName == "" {
		return fmt.Errorf("signal_name must not be empty")
	}
	if this.ControlPort < minPort {
		return fmt.Errorf("control_port %d is out of range %d-65535", this.ControlPort, minPort)
	}
	if this.ContentPort < minPort {
		return fmt.Errorf("content_port %d is out of range %d-65535", this.ContentPort, minPort)
	}
	if this.ControlPort == this.ContentPort {
		return fmt.Errorf("control_port and content_port must differ, but both are %d", this.ControlPort)
	}
	if this.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown_timeout must not be negative")
	}
	return nil
}

func (this *Configuration) adoptLegacy() {
	if v := this.LegacyPttKey; v != "" {
		this.SignalName = v
	}
	if v := this.LegacyWsPort; v != 0 {
		this.ControlPort = v
	}
	if v := this.LegacyHttpPort; v != 0 {
		this.ContentPort = v
	}
	this.LegacyPttKey = ""
	this.LegacyWsPort = 0
	this.LegacyHttpPort = 0
}

// Signal resolves the configured signal name.
func (this Configuration) Signal() (signal.Signal, error) {
	return signal.Resolve(this.SignalName)
}

func (this Configuration) ControlAddress() string {
	return net.JoinHostPort(this.BindAddress, strconv.Itoa(int(this.ControlPort)))
}

func (this Configuration) ContentAddress() string {
	return net.JoinHostPort(this.BindAddress, strconv.Itoa(int(this.ContentPort)))
}

var regexpType = reflect.TypeOf(common.Regexp{})

// mergeTransformers keeps mergo from replacing a configured regexp with the
// empty one of the flags.
type mergeTransformers struct{}

func (mergeTransformers) Transformer(t reflect.Type) func(dst, src reflect.Value) error {
	if t != regexpType {
		return nil
	}
	return func(dst, src reflect.Value) error {
		if dst.CanSet() && !src.Interface().(common.Regexp).IsZero() {
			dst.Set(src)
		}
		return nil
	}
}

// ConfigError describes a configuration document which cannot be used.
type ConfigError struct {
	File  string
	Cause error
}

func (this *ConfigError) Error() string {
	if this.File == "" {
		return fmt.Sprintf("illegal configuration: %v", this.Cause)
	}
	return fmt.Sprintf("illegal configuration %q: %v", this.File, this.Cause)
}

func (this *ConfigError) Unwrap() error {
	return this.Cause
}

func DefaultConfigurationFile() string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		fs, err := os.Stat(appData)
		if err == nil && fs.IsDir() {
			return filepath.Join(appData, "remote-ptt", "configuration.yml")
		}
	}

	u, err := user.Current()
	if err != nil {
		return "configuration.yml"
	}

	return filepath.Join(u.HomeDir, ".config", "remote-ptt", "configuration.yml")
}

func defaultAssetRoot() string {
	if exe, err := os.Executable(); err == nil {
		return filepath.Join(filepath.Dir(exe), "web")
	}
	return "web"
}
