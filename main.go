package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	log "github.com/echocat/slf4g"
	"github.com/echocat/slf4g/native"
	"github.com/echocat/slf4g/native/consumer"
	"github.com/echocat/slf4g/native/facade/value"
	"github.com/echocat/slf4g/native/formatter"

	"github.com/blaubaer/remote-ptt/pkg/app"
	"github.com/blaubaer/remote-ptt/pkg/common"
	"github.com/blaubaer/remote-ptt/pkg/console"
	ps "github.com/blaubaer/remote-ptt/pkg/signal"
)

func main() {
	buf := common.NewRingLineBuffer(2000, 4096)
	buf.TruncateTooLongLines = true
	wf := &writerFacade{delegates: []io.Writer{os.Stderr, buf}}
	consumer.Default = consumer.NewWriter(wf)

	lv := value.NewProvider(native.DefaultProvider)
	lv.Consumer.Formatter.Codec = value.MappingFormatterCodec{
		"text": formatter.NewText(func(v *formatter.Text) {
			bv := true
			v.AllowMultiLineMessage = &bv
			v.MultiLineMessageAfterFields = &bv
		}),
		"json": formatter.NewJson(),
	}

	a := app.NewApp()
	var withConsole bool

	cmd := kingpin.New("remote-ptt", "Presses a key of this host while any browser in the network holds the PTT button.")

	serveCmd := cmd.Command("serve", "Serves the web client and the control channel until terminated.").
		Default().
		Action(func(*kingpin.ParseContext) error {
			return serve(a, withConsole, buf, wf)
		})
	a.SetupConfiguration(serveCmd)
	serveCmd.Flag("console", "Shows an interactive prompt to control PTT from this host.").
		Envar("RP_CONSOLE").
		BoolVar(&withConsole)

	cmd.Command("signals", "Prints all symbolic signal names. Every single printable character is a valid signal, too.").
		Action(func(*kingpin.ParseContext) error {
			for _, name := range ps.AllNames() {
				fmt.Println(name)
			}
			return nil
		})

	cmd.Flag("log.level", "").
		SetValue(lv.Level)
	cmd.Flag("log.format", "").
		Default("text").
		SetValue(lv.Consumer.Formatter)
	cmd.Flag("log.color", "").
		Default("auto").
		SetValue(lv.Consumer.Formatter.ColorMode)

	kingpin.MustParse(cmd.Parse(os.Args[1:]))
}

func serve(a *app.App, withConsole bool, buf *common.RingLineBuffer, wf *writerFacade) error {
	if restore, err := console.PrepareTerminal(); err != nil {
		log.WithError(err).
			Debug("Cannot prepare terminal.")
	} else {
		defer restore()
	}

	if err := a.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := a.Dispose(); err != nil {
			log.WithError(err).
				Warn("Cannot dispose app.")
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if withConsole {
		c := console.Console{
			Control: a,
			Log:     buf,
			RedirectLog: func(to io.Writer) func() {
				var previous []io.Writer
				wf.set([]io.Writer{to, buf}, func(current, _ []io.Writer) {
					previous = current
				})
				return func() {
					wf.set(previous)
				}
			},
		}
		go func() {
			defer cancel()
			if err := c.Run(ctx); err != nil {
				log.WithError(err).
					Warn("Console failed.")
			}
		}()
	}

	if err := a.Run(ctx, nil); err != nil {
		return err
	}
	log.Info("Terminated. Bye.")
	return nil
}

type writerFacade struct {
	delegates []io.Writer
	mutex     sync.RWMutex
}

func (this *writerFacade) Write(p []byte) (n int, err error) {
	this.mutex.RLock()
	defer this.mutex.RUnlock()

	for i, w := range this.delegates {
		var nn int
		if nn, err = w.Write(p); err != nil {
			return n, err
		}
		if i == 0 {
			n = nn
		} else if n != nn {
			return n, fmt.Errorf("the previous writer wrote %d, but the current one wrote %d bytes", n, nn)
		}
	}

	return
}

func (this *writerFacade) set(next []io.Writer, whileChange ...func(current, next []io.Writer)) {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	current := this.delegates
	for _, fn := range whileChange {
		fn(current, next)
	}
	this.delegates = next
}
