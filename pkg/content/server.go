package content

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"strconv"

	log "github.com/echocat/slf4g"

	"github.com/blaubaer/remote-ptt/pkg/common"
)

const (
	EntryAsset       = "index.html"
	ControlPortParam = "ws_port"
)

// Server delivers the static web client. It knows nothing about the PTT
// state; it only tells browsers on which port the control channel listens.
type Server struct {
	address     string
	assetRoot   string
	controlPort uint16

	files    http.FileSystem
	listener net.Listener
	http     *http.Server
}

func NewServer(address, assetRoot string, controlPort uint16) *Server {
	result := &Server{
		address:     address,
		assetRoot:   assetRoot,
		controlPort: controlPort,
	}
	if fi, err := os.Stat(assetRoot); assetRoot == "" || err != nil || !fi.IsDir() {
		log.With("assetRoot", assetRoot).
			Warn("Asset directory not found. Every request will be answered with not found.")
	} else {
		result.files = http.Dir(assetRoot)
	}
	result.http = &http.Server{
		Handler: result,
	}
	return result
}

// Start binds the listener and serves in the background. It returns a
// *common.BindError if the address is not available.
func (this *Server) Start() error {
	ln, err := net.Listen("tcp", this.address)
	if err != nil {
		return &common.BindError{Server: "content", Address: this.address, Cause: err}
	}
	this.listener = ln

	go func() {
		if err := this.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).
				With("address", this.Addr()).
				Error("Content server stopped accepting connections.")
		}
	}()

	log.With("address", this.Addr()).
		With("assetRoot", this.assetRoot).
		Info("Content server listening.")
	return nil
}

func (this *Server) Addr() string {
	if ln := this.listener; ln != nil {
		return ln.Addr().String()
	}
	return this.address
}

// Stop shuts the server down gracefully; it is a no-op if it never started.
func (this *Server) Stop(ctx context.Context) error {
	if this.listener == nil {
		return nil
	}
	if err := this.http.Shutdown(ctx); err != nil {
		_ = this.http.Close()
		return fmt.Errorf("cannot shut down content server: %w", err)
	}
	log.Info("Content server stopped.")
	return nil
}

// EntryLocation is where browsers are redirected to when they request the root.
func (this *Server) EntryLocation() string {
	return "/" + EntryAsset + "?" + ControlPortParam + "=" + strconv.Itoa(int(this.controlPort))
}

func (this *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log.With("method", r.Method).
		With("path", r.URL.Path).
		With("remote", r.RemoteAddr).
		Debug("Content requested.")

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path == "/" {
		http.Redirect(w, r, this.EntryLocation(), http.StatusFound)
		return
	}
	this.serveFile(w, r, r.URL.Path)
}

// serveFile uses ServeContent directly as the FileServer would redirect
// requests of index.html back to the root.
func (this *Server) serveFile(w http.ResponseWriter, r *http.Request, name string) {
	if this.files == nil {
		http.NotFound(w, r)
		return
	}

	f, err := this.files.Open(path.Clean("/" + name))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer func() {
		_ = f.Close()
	}()

	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		http.NotFound(w, r)
		return
	}

	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}
