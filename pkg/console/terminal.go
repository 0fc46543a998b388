package console

// PrepareTerminal makes the terminal render the colored log output. The
// returned function restores the former terminal modes.
func PrepareTerminal() (restore func(), err error) {
	return prepareTerminal()
}
