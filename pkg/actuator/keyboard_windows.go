//go:build windows

package actuator

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/blaubaer/remote-ptt/pkg/signal"
)

var (
	dllUser32     = windows.NewLazySystemDLL("user32.dll")
	procSendInput = dllUser32.NewProc("SendInput")
)

const (
	inputKeyboard = 1

	keyEventExtendedKey = 0x0001
	keyEventKeyUp       = 0x0002
	keyEventUnicode     = 0x0004
)

type keyboardInput struct {
	vk        uint16
	scan      uint16
	flags     uint32
	time      uint32
	extraInfo uintptr
}

// input mirrors the INPUT structure; the padding covers the larger mouse
// variant of the union.
type input struct {
	typ uint32
	ki  keyboardInput
	_   [8]byte
}

// New creates the actuator for the current platform.
func New(s signal.Signal) (Actuator, error) {
	return NewKeyboard(s)
}

// Keyboard simulates holding down a key using SendInput.
type Keyboard struct {
	signal signal.Signal
}

func NewKeyboard(s signal.Signal) (*Keyboard, error) {
	if s.IsZero() {
		return nil, fmt.Errorf("no signal provided")
	}
	if err := procSendInput.Find(); err != nil {
		return nil, fmt.Errorf("cannot find SendInput of user32.dll: %w", err)
	}
	return &Keyboard{s}, nil
}

func (this *Keyboard) Assert() error {
	if err := this.send(0); err != nil {
		return &Error{"assert", this.signal, err}
	}
	return nil
}

func (this *Keyboard) Release() error {
	if err := this.send(keyEventKeyUp); err != nil {
		return &Error{"release", this.signal, err}
	}
	return nil
}

func (this *Keyboard) send(flags uint32) error {
	in := input{typ: inputKeyboard}
	if this.signal.IsLiteral() {
		in.ki.scan = uint16(this.signal.Char())
		in.ki.flags = flags | keyEventUnicode
	} else {
		in.ki.vk = this.signal.Code()
		in.ki.flags = flags
		if this.signal.Extended() {
			in.ki.flags |= keyEventExtendedKey
		}
	}

	n, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
	if n != 1 {
		return fmt.Errorf("SendInput inserted %d events: %w", n, err)
	}
	return nil
}
