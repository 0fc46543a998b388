package facade

import (
	"fmt"
	"sync"

	"github.com/blaubaer/remote-ptt/pkg/indicator"
	"github.com/blaubaer/remote-ptt/pkg/indicator/homeassistant"
	"github.com/blaubaer/remote-ptt/pkg/indicator/hue"
	"github.com/blaubaer/remote-ptt/pkg/ptt"
)

// Facade holds the configured indicator. Without one all operations are
// no-ops.
type Facade struct {
	indicator.Indicator

	lock sync.RWMutex
}

func (this *Facade) Ensure(v ptt.State) error {
	this.lock.RLock()
	defer this.lock.RUnlock()

	if i := this.Indicator; i != nil {
		return i.Ensure(v)
	}
	return nil
}

func (this *Facade) Update() error {
	this.lock.RLock()
	defer this.lock.RUnlock()

	if i := this.Indicator; i != nil {
		return i.Update()
	}
	return nil
}

func (this *Facade) Initialize(conf *Configuration, saveConfFunc func() error) error {
	this.lock.Lock()
	defer this.lock.Unlock()

	if this.Indicator != nil {
		return nil
	}

	switch conf.Type {
	case indicator.TypeNone:
	case indicator.TypeHue:
		var buf hue.Hue
		if err := buf.Initialize(&conf.Hue, saveConfFunc); err != nil {
			return err
		}
		this.Indicator = &buf
	case indicator.TypeHomeAssistant:
		var buf homeassistant.Homeassistant
		if err := buf.Initialize(&conf.HomeAssistant, saveConfFunc); err != nil {
			return err
		}
		this.Indicator = &buf
	default:
		return fmt.Errorf("unsupported indicator type: %v", conf.Type)
	}

	return nil
}

func (this *Facade) Dispose() error {
	this.lock.Lock()
	defer this.lock.Unlock()

	defer func() {
		this.Indicator = nil
	}()

	if i := this.Indicator; i != nil {
		return i.Dispose()
	}
	return nil
}

func (this *Facade) GetType() indicator.Type {
	this.lock.RLock()
	defer this.lock.RUnlock()

	if i := this.Indicator; i != nil {
		return i.GetType()
	}
	return indicator.TypeNone
}
