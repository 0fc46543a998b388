//go:build !windows

package credentials

// ReadFromStore is not supported on this platform; credentials live in the
// configuration file instead.
func (this *Credentials) ReadFromStore() (supported bool, err error) {
	return false, nil
}

// WriteToStore is not supported on this platform.
func (this *Credentials) WriteToStore() (supported bool, err error) {
	return false, nil
}
