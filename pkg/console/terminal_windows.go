package console

import (
	"fmt"

	"golang.org/x/sys/windows"
)

func prepareTerminal() (restore func(), err error) {
	var restores []func()
	restore = func() {
		for _, r := range restores {
			r()
		}
	}

	for _, ht := range []uint32{windows.STD_OUTPUT_HANDLE, windows.STD_ERROR_HANDLE} {
		h, err := windows.GetStdHandle(ht)
		if err != nil {
			restore()
			return nil, fmt.Errorf("cannot get std handle %d: %w", ht, err)
		}
		r, err := enableVirtualTerminalProcessing(h)
		if err != nil {
			restore()
			return nil, err
		}
		restores = append(restores, r)
	}

	return restore, nil
}

func enableVirtualTerminalProcessing(handle windows.Handle) (restore func(), _ error) {
	var mode uint32
	if err := windows.GetConsoleMode(handle, &mode); err != nil {
		// Not a console, maybe redirected into a file.
		return func() {}, nil
	}

	tMode := mode |
		windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING |
		windows.ENABLE_PROCESSED_OUTPUT
	if err := windows.SetConsoleMode(handle, tMode); err != nil {
		return nil, fmt.Errorf("cannot enable virtual terminal processing: %w", err)
	}

	return func() {
		_ = windows.SetConsoleMode(handle, mode)
	}, nil
}
