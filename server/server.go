// Package server provides the connection-level glue that drives the
// request pipeline: accept connections, read a single HTTP request off
// each, and dispatch it through path resolution, realm
// authentication, and response emission. Request-line and header parsing
// themselves are not this package's concern — that parsing is delegated
// to the standard library's http.ReadRequest, the same way the pipeline
// treats header parsing as an external collaborator's job.
package server

import (
	"bufio"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jow-/uhttpgo/pathresolve"
	"github.com/jow-/uhttpgo/realm"
	"github.com/jow-/uhttpgo/response"
	"github.com/jow-/uhttpgo/transport"
)

// Config bundles everything a Server needs to answer requests.
type Config struct {
	// Path configures document-root containment and index selection.
	Path pathresolve.Config

	// Realms is consulted for every resolved path; nil means nothing is
	// protected.
	Realms *realm.Registry

	// Timeout bounds both the wait for the connection's single request to
	// arrive and each send through transport.Conn while writing the
	// response. Zero means block indefinitely.
	Timeout time.Duration

	// AllowListing controls whether a bare directory with no index file
	// gets an HTML listing or a 403.
	AllowListing bool

	// ExtraHeaders are pre-rendered "Name: value" lines appended to every
	// response, success or error alike.
	ExtraHeaders []string

	// Logger receives structured connection and request events. A nil
	// Logger is replaced with zap.NewNop() by New.
	Logger *zap.Logger
}

// Server accepts connections and serves the static-content pipeline on
// each. The original implementation is a single-threaded event loop
// cooperatively multiplexing every client socket; the idiomatic Go
// rendition is one goroutine per connection instead, since building a
// from-scratch event loop is explicitly out of scope and Go's scheduler
// already does this multiplexing for us.
type Server struct {
	cfg Config
	log *zap.Logger

	mu      sync.Mutex
	clients map[net.Conn]struct{}
}

// New builds a Server from cfg.
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:     cfg,
		log:     log,
		clients: make(map[net.Conn]struct{}),
	}
}

// Serve accepts connections from ln until it returns an error (typically
// because ln was closed by Shutdown or the caller).
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		s.track(conn)
		go s.handleConn(conn)
	}
}

// Shutdown closes every connection currently tracked by the server. It
// does not close any listener; the caller owns those.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.Close()
	}
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
}

// handleConn serves exactly one request off conn and then closes it.
// Keep-alive is not supported: every response already declares
// Connection: close, and this is the other half of that contract — a
// client that pipelines or reuses the connection anyway gets nothing more
// than a closed socket.
func (s *Server) handleConn(conn net.Conn) {
	log := s.log.With(zap.String("remote", conn.RemoteAddr().String()))
	defer func() {
		conn.Close()
		s.untrack(conn)
	}()

	out := transport.New(conn, s.cfg.Timeout)
	emit := response.New(out, s.cfg.AllowListing, s.cfg.ExtraHeaders)
	br := bufio.NewReader(conn)

	if s.cfg.Timeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.Timeout)); err != nil {
			return
		}
	}

	req, err := http.ReadRequest(br)
	if err != nil {
		return
	}

	version := response.HTTP10
	if req.ProtoAtLeast(1, 1) {
		version = response.HTTP11
	}
	rreq := response.Request{Method: req.Method, Version: version, Header: req.Header}

	if err := s.dispatch(emit, rreq, req, log); err != nil {
		log.Warn("response write failed", zap.Error(err))
	}
}

// dispatch resolves and serves a single already-parsed request.
func (s *Server) dispatch(emit *response.Emitter, rreq response.Request, req *http.Request, log *zap.Logger) error {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return emit.WriteError(rreq, 501, "Not Implemented")
	}

	pi, err := pathresolve.Resolve(s.cfg.Path, req.RequestURI)
	if err != nil {
		return emit.WriteError(rreq, 404, "Not Found")
	}

	if pi.Redirected {
		return emit.WriteRedirect(rreq, pi.RedirectLocation)
	}

	if s.cfg.Realms != nil {
		result := realm.Authenticate(s.cfg.Realms, pi.Name, req.Header.Get("Authorization"))
		if result.Outcome == realm.Denied {
			return emit.WriteUnauthorized(rreq, result.Matched.PathPrefix)
		}
	}

	log.Info("request",
		zap.String("method", req.Method),
		zap.String("path", pi.Name),
	)

	if pi.Stat.IsDir() {
		return emit.ServeDirectory(rreq, pi)
	}
	return emit.ServeFile(rreq, pi)
}
