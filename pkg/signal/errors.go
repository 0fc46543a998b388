package signal

import (
	"fmt"
	"strings"
)

type UnknownSignalError struct {
	Name  string
	Valid []string
}

func (this *UnknownSignalError) Error() string {
	return fmt.Sprintf("unknown signal name %q; valid names are %s or a single character like 'b'", this.Name, strings.Join(this.Valid, ", "))
}
