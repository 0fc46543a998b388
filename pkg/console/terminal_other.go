//go:build !windows

package console

func prepareTerminal() (restore func(), err error) {
	return func() {}, nil
}
