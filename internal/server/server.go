// Package server serves the status page and its websocket feed.
package server

import (
	"context"
	"io/fs"
	"net"
	"net/http"
	"sync"

	"github.com/lxzan/gws"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/soar/joymidi/internal/hub"
)

type Server struct {
	hub         *hub.Hub
	broadcaster *hub.Broadcaster
	pageFS      fs.FS
	addr        string
	logger      *zap.SugaredLogger

	mu         sync.Mutex
	httpServer *http.Server
	closed     bool
}

func New(h *hub.Hub, b *hub.Broadcaster, pageFS fs.FS, addr string, logger *zap.SugaredLogger) *Server {
	return &Server{
		hub:         h,
		broadcaster: b,
		pageFS:      pageFS,
		addr:        addr,
		logger:      logger,
	}
}

// Handler returns the routes: the websocket feed on /ws and the minified
// page assets everywhere else.
func (s *Server) Handler() (http.Handler, error) {
	pages, err := loadAssets(s.pageFS)
	if err != nil {
		return nil, err
	}

	upgrader := gws.NewUpgrader(&wsHandler{hub: s.hub, broadcaster: s.broadcaster, logger: s.logger}, &gws.ServerOption{
		PermessageDeflate: gws.PermessageDeflate{Enabled: true},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r)
		if err != nil {
			s.logger.Warnw("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		go conn.ReadLoop()
	})
	mux.Handle("/", pages)
	return mux, nil
}

// ListenAndServe blocks until Shutdown. It returns http.ErrServerClosed
// after a clean shutdown, including one that happened before it started.
func (s *Server) ListenAndServe() error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return http.ErrServerClosed
	}
	srv := &http.Server{Handler: handler}
	s.httpServer = srv
	s.mu.Unlock()

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", s.addr)
	}

	s.logger.Infow("status server listening", "url", URL(ln.Addr().String()))
	// Serve closes ln and returns ErrServerClosed once Shutdown has run.
	return srv.Serve(ln)
}

// Shutdown stops the server, or keeps it from starting when
// ListenAndServe has not got that far yet.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	s.logger.Debug("shutting down status server")
	return srv.Shutdown(ctx)
}

// URL returns the page address for a listen address such as ":8080".
func URL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
