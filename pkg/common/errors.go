package common

import (
	"errors"
	"fmt"
)

// AsError is errors.As returning the match instead of filling a target.
func AsError[T error](err error) (T, bool) {
	var target T
	return target, errors.As(err, &target)
}

// BindError is returned when one of the servers cannot listen on its address.
type BindError struct {
	Server  string
	Address string
	Holder  string
	Cause   error
}

func (this *BindError) Error() string {
	if this.Holder != "" {
		return fmt.Sprintf("cannot bind %s server to %s (already used by %s): %v", this.Server, this.Address, this.Holder, this.Cause)
	}
	return fmt.Sprintf("cannot bind %s server to %s: %v", this.Server, this.Address, this.Cause)
}

func (this *BindError) Unwrap() error {
	return this.Cause
}
