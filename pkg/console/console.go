package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	log "github.com/echocat/slf4g"

	"github.com/blaubaer/remote-ptt/pkg/common"
)

const defaultLogLines = 20

// Control is the part of the app the console operates on.
type Control interface {
	EmitLocal(active bool) error
	State() bool
	ClientCount() int
}

// Console is an interactive prompt for manual PTT control on the host.
type Console struct {
	Control Control
	Log     *common.RingLineBuffer

	// RedirectLog is called with the writer log output should go to while
	// the prompt is shown. The returned function restores the former one.
	RedirectLog func(to io.Writer) (restore func())
}

var commands = []struct {
	name, usage string
}{
	{"on", "press the PTT key"},
	{"off", "release the PTT key"},
	{"toggle", "switch the PTT key"},
	{"status", "print whether PTT is active"},
	{"clients", "print the number of connected clients"},
	{"log", "print the last log lines (log [n])"},
	{"help", "print this help"},
	{"quit", "stop the server and exit"},
}

// Execute runs a single command line. It returns true if the console should
// be left.
func (this *Console) Execute(line string, out io.Writer) (quit bool, err error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "on":
		return false, this.emit(true, out)
	case "off":
		return false, this.emit(false, out)
	case "toggle":
		return false, this.emit(!this.Control.State(), out)
	case "status", "state":
		_, err = fmt.Fprintf(out, "PTT: %s\n", onOff(this.Control.State()))
		return false, err
	case "clients":
		_, err = fmt.Fprintf(out, "Clients: %d\n", this.Control.ClientCount())
		return false, err
	case "log":
		return false, this.printLog(fields[1:], out)
	case "help", "?":
		for _, c := range commands {
			if _, err := fmt.Fprintf(out, "  %-8s %s\n", c.name, c.usage); err != nil {
				return false, err
			}
		}
		return false, nil
	case "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q, try 'help'", fields[0])
	}
}

func (this *Console) emit(active bool, out io.Writer) error {
	if err := this.Control.EmitLocal(active); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "PTT %s requested.\n", onOff(active))
	return err
}

func (this *Console) printLog(args []string, out io.Writer) error {
	n := defaultLogLines
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			return fmt.Errorf("illegal number of lines: %s", args[0])
		}
		n = v
	}
	if this.Log == nil {
		return nil
	}
	for _, line := range this.Log.Tail(n) {
		if _, err := fmt.Fprintf(out, "%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

func onOff(active bool) string {
	if active {
		return "on"
	}
	return "off"
}

// Run shows the prompt until quit is entered, the input ends or ctx is done.
func (this *Console) Run(ctx context.Context) error {
	completer := make([]readline.PrefixCompleterInterface, len(commands))
	for i, c := range commands {
		completer[i] = readline.PcItem(c.name)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ptt> ",
		Stdin:           os.Stdin,
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
		AutoComplete:    readline.NewPrefixCompleter(completer...),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("cannot open console: %w", err)
	}
	defer func() {
		_ = rl.Close()
	}()

	if v := this.RedirectLog; v != nil {
		defer v(rl.Stdout())()
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = rl.Close()
		case <-done:
		}
	}()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		quit, err := this.Execute(line, rl.Stdout())
		if err != nil {
			log.WithError(err).
				Warn("Command failed.")
		}
		if quit {
			return nil
		}
	}
}
