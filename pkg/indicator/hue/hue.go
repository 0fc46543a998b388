package hue

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/amimof/huego"
	log "github.com/echocat/slf4g"

	"github.com/blaubaer/remote-ptt/pkg/credentials"
	"github.com/blaubaer/remote-ptt/pkg/indicator"
	"github.com/blaubaer/remote-ptt/pkg/ptt"
)

const deviceType = "github.com/blaubaer/remote-ptt"

var ErrPairTimeout = errors.New("link button of hue bridge was not pressed in time")

// Hue switches all lights and groups matching the configured name on while
// transmitting and off while idle.
type Hue struct {
	conf         *Configuration
	saveConfFunc func() error

	lights      []huego.Light
	groups      []huego.Group
	credentials credentials.Credentials
	mutex       sync.Mutex
}

func (this *Hue) Initialize(conf *Configuration, saveConfFunc func() error) error {
	this.conf = conf
	this.saveConfFunc = saveConfFunc

	v, err := this.resolveCredentials()
	if err != nil {
		return err
	}
	this.credentials = v

	return this.Update()
}

func (this *Hue) Update() error {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	bridge, err := this.bridge()
	if err != nil {
		return err
	}

	lights, err := this.discoverLights(bridge)
	if err != nil {
		return err
	}
	groups, err := this.discoverGroups(bridge)
	if err != nil {
		return err
	}

	this.lights = lights
	this.groups = groups

	log.With("bridge", bridge.Host).
		With("lights", len(lights)).
		With("groups", len(groups)).
		Debug("Hue targets discovered.")

	return nil
}

func (this *Hue) discoverLights(bridge *huego.Bridge) (result []huego.Light, _ error) {
	if this.conf.Kinds.Has(KindLight) {
		candidates, err := bridge.GetLights()
		if err != nil {
			return nil, fmt.Errorf("cannot discover lights of bridge %s: %w", bridge.Host, err)
		}
		for _, candidate := range candidates {
			if this.conf.Name.MatchString(candidate.Name) {
				if candidate.State == nil {
					candidate.State = &huego.State{}
				}
				result = append(result, candidate)
			}
		}
	}
	return
}

func (this *Hue) discoverGroups(bridge *huego.Bridge) (result []huego.Group, _ error) {
	if this.conf.Kinds.Has(KindGroup) {
		candidates, err := bridge.GetGroups()
		if err != nil {
			return nil, fmt.Errorf("cannot discover groups of bridge %s: %w", bridge.Host, err)
		}
		for _, candidate := range candidates {
			if this.conf.Name.MatchString(candidate.Name) {
				if candidate.State == nil {
					candidate.State = &huego.State{}
				}
				result = append(result, candidate)
			}
		}
	}
	return
}

func (this *Hue) Ensure(state ptt.State) error {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	bridge, err := this.bridge()
	if err != nil {
		return err
	}

	var errs []error
	for i, v := range this.lights {
		if next := this.conf.desiredState(state, v.State); next != nil {
			if _, err := bridge.SetLightState(v.ID, *next); err != nil {
				errs = append(errs, fmt.Errorf("cannot switch light %q#%d to %v: %w", v.Name, v.ID, state, err))
				continue
			}
			this.lights[i].State = next
		}
	}
	for i, v := range this.groups {
		if next := this.conf.desiredState(state, v.State); next != nil {
			if _, err := bridge.SetGroupState(v.ID, *next); err != nil {
				errs = append(errs, fmt.Errorf("cannot switch group %q#%d to %v: %w", v.Name, v.ID, state, err))
				continue
			}
			this.groups[i].State = next
		}
	}

	return errors.Join(errs...)
}

// desiredState returns nil if current already reflects the given state.
func (this *Configuration) desiredState(state ptt.State, current *huego.State) *huego.State {
	if state.IsActive() {
		if current == nil || !current.On || current.Bri != this.Brightness || current.Hue != this.Hue || current.Sat != this.Saturation {
			return &huego.State{
				On:  true,
				Bri: this.Brightness,
				Hue: this.Hue,
				Sat: this.Saturation,
			}
		}
		return nil
	}
	if current == nil || current.On {
		return &huego.State{On: false}
	}
	return nil
}

func (this *Hue) bridge() (*huego.Bridge, error) {
	v := this.credentials
	if v.IsHueZero() {
		return nil, fmt.Errorf("not paired with hue bridge")
	}
	return huego.New(v.HueBridge, v.HueUser), nil
}

func (this *Hue) resolveCredentials() (credentials.Credentials, error) {
	if u := this.conf.User; u != "" {
		bridge, err := this.discoverBridge()
		if err != nil {
			return credentials.Credentials{}, err
		}
		return credentials.Credentials{
			HueBridge: bridge.Host,
			HueUser:   u,
		}, nil
	}

	if this.conf.Pair {
		return this.pair()
	}

	v, err := this.readCredentials()
	if err != nil {
		return credentials.Credentials{}, err
	}
	if !v.IsHueZero() {
		return v, nil
	}

	return this.pair()
}

func (this *Hue) discoverBridge() (*huego.Bridge, error) {
	if this.conf.Bridge != "" {
		return &huego.Bridge{
			Host: this.conf.Bridge,
		}, nil
	}

	return huego.Discover()
}

func (this *Hue) pair() (credentials.Credentials, error) {
	bridge, err := this.discoverBridge()
	if err != nil {
		return credentials.Credentials{}, err
	}

	deadline := time.Now().Add(this.conf.PairTimeout)
	log.With("bridge", bridge.Host).
		Info("Press the link button of the hue bridge to pair...")
	for {
		user, err := bridge.CreateUser(deviceType)
		var apiErr *huego.APIError
		if errors.As(err, &apiErr) && apiErr.Type == 101 {
			if this.conf.PairTimeout > 0 && time.Now().After(deadline) {
				return credentials.Credentials{}, ErrPairTimeout
			}
			time.Sleep(1 * time.Second)
			continue
		} else if err != nil {
			return credentials.Credentials{}, fmt.Errorf("was not able to pair with %s: %w", bridge.Host, err)
		}

		v := credentials.Credentials{
			HueBridge: bridge.Host,
			HueUser:   user,
		}
		if err := this.storeCredentials(v); err != nil {
			log.WithError(err).
				Warn("Cannot store credentials. The app will work now, but next time the pairing might be required again.")
		}

		log.With("bridge", bridge.Host).
			Info("Successful paired.")
		return v, nil
	}
}

func (this *Hue) readCredentials() (credentials.Credentials, error) {
	var v credentials.Credentials
	if _, err := v.ReadFromStore(); err != nil {
		return credentials.Credentials{}, err
	}
	v.Merge(credentials.Credentials{
		HueBridge: this.conf.Bridge,
		HueUser:   this.conf.User,
	})
	return v, nil
}

func (this *Hue) storeCredentials(v credentials.Credentials) error {
	var existing credentials.Credentials
	if _, err := existing.ReadFromStore(); err != nil {
		return err
	}
	existing.HueBridge = v.HueBridge
	existing.HueUser = v.HueUser

	supported, err := existing.WriteToStore()
	if err != nil {
		return err
	}
	if supported {
		return nil
	}

	this.conf.Bridge = v.HueBridge
	this.conf.User = v.HueUser
	if this.saveConfFunc == nil {
		return nil
	}
	return this.saveConfFunc()
}

func (this *Hue) Dispose() error {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	this.lights = nil
	this.groups = nil
	this.saveConfFunc = nil
	return nil
}

func (this *Hue) GetType() indicator.Type {
	return indicator.TypeHue
}
