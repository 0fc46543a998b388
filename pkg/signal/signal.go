package signal

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Signal is the resolved form of a configured signal name. It is either one
// of the symbolic keys or a single literal character.
type Signal struct {
	name     string
	code     uint16
	extended bool
	char     rune
}

// Resolve maps the given name (case-insensitive, trimmed) to its Signal. If
// the name is neither a symbolic key nor a single printable character an
// *UnknownSignalError is returned.
func Resolve(plain string) (Signal, error) {
	normalized := normalize(plain)

	if v, ok := symbols[normalized]; ok {
		return Signal{
			name:     normalized,
			code:     v.code,
			extended: v.extended,
		}, nil
	}

	if utf8.RuneCountInString(normalized) == 1 {
		r, _ := utf8.DecodeRuneInString(normalized)
		if unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return Signal{
				name: normalized,
				char: r,
			}, nil
		}
	}

	return Signal{}, &UnknownSignalError{
		Name:  plain,
		Valid: AllNames(),
	}
}

// MustResolve is like Resolve but panics on unknown names.
func MustResolve(plain string) Signal {
	result, err := Resolve(plain)
	if err != nil {
		panic(err)
	}
	return result
}

var separators = strings.NewReplacer(" ", "_", "-", "_")

// normalize rewrites separators of symbolic names but never shortens a
// name, so "a-" is not mistaken for the literal "a".
func normalize(plain string) string {
	result := strings.ToLower(strings.TrimSpace(plain))
	if utf8.RuneCountInString(result) > 1 {
		result = separators.Replace(result)
	}
	return result
}

func (this Signal) Name() string {
	return this.name
}

// Code is the virtual key code of a symbolic signal; 0 for literals.
func (this Signal) Code() uint16 {
	return this.code
}

// Extended reports whether the key belongs to the extended key set.
func (this Signal) Extended() bool {
	return this.extended
}

// Char is the literal character of a literal signal; 0 for symbolic ones.
func (this Signal) Char() rune {
	return this.char
}

func (this Signal) IsLiteral() bool {
	return this.char != 0
}

func (this Signal) IsZero() bool {
	return this.name == ""
}

func (this *Signal) Set(plain string) error {
	v, err := Resolve(plain)
	if err != nil {
		return err
	}
	*this = v
	return nil
}

func (this Signal) String() string {
	if this.IsZero() {
		return ""
	}
	if this.IsLiteral() {
		return fmt.Sprintf("%q", this.char)
	}
	return this.name
}

func (this Signal) MarshalText() (text []byte, err error) {
	return []byte(this.name), nil
}

func (this *Signal) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*this = Signal{}
		return nil
	}
	return this.Set(string(text))
}
