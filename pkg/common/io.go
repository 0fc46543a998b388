package common

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
)

// RequestStringContentIfRequiredFromTerminal prompts on the terminal until
// a value was entered, if the given one is empty. With canBeEmpty a single
// empty answer is accepted.
func RequestStringContentIfRequiredFromTerminal(of *string, promptName string, canBeEmpty, isPassword bool) error {
	if *of != "" {
		return nil
	}

	l, err := readline.NewEx(&readline.Config{
		Stdin:  io.NopCloser(os.Stdin),
		Stdout: os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("could not read from terminal for prompt %q: %w", promptName, err)
	}
	defer func() {
		_ = l.Close()
	}()

	prompt := fmt.Sprintf("Enter %s: ", promptName)
	l.SetPrompt(prompt)
	l.ResetHistory()
	for {
		var line string
		if isPassword {
			var b []byte
			b, err = l.ReadPassword(prompt)
			line = string(b)
		} else {
			line, err = l.Readline()
		}
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return fmt.Errorf("prompt %q aborted", promptName)
		}
		if err != nil {
			return fmt.Errorf("could not read from terminal for prompt %q: %w", promptName, err)
		}
		if line = strings.TrimSpace(line); line != "" || canBeEmpty {
			*of = line
			return nil
		}
	}
}
