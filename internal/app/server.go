package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/atomic"

	"agentlink/internal/domain"
	"agentlink/internal/metrics"
	"agentlink/internal/services/agent"
	"agentlink/internal/services/session"
	"agentlink/internal/transport"
)

const shutdownTimeout = 10 * time.Second

// Server is agentd: the HTTP agent surface, the optional metrics listener
// and the expiry sweeper.
type Server struct {
	wire      *Wire
	id        domain.Identity
	responder *agent.Responder
	running   atomic.Bool
}

// NewServer returns a Server answering as id with h (Echo when nil).
func (w *Wire) NewServer(id domain.Identity, h agent.Handler) *Server {
	return &Server{wire: w, id: id, responder: w.Responder(id, h)}
}

// Router returns the agent routes. The server's own record is served from
// the registry so peers can resolve it.
func (s *Server) Router() (http.Handler, error) {
	rec, err := domain.NewIdentityRecord(s.id.DID, s.id.Signing.Public, s.id.KEM.Public)
	if err != nil {
		return nil, err
	}
	if err := s.wire.Registry.Register(rec); err != nil {
		return nil, err
	}
	log := s.wire.Log.With().Str("component", "http").Logger()
	return transport.NewHandler(s.responder, s.wire.Registry, s.wire.Auth, log).Router(), nil
}

// Sweeper schedules session expiry and replay cache purging.
func (s *Server) Sweeper() (*session.Sweeper, error) {
	cfg := s.wire.Config
	sw := session.NewSweeper(cfg.SweepInterval, s.wire.Log.With().Str("component", "sweeper").Logger())
	if err := sw.Register("sessions", func() int {
		n := s.wire.Sessions.CleanupExpired()
		metrics.SetActiveSessions(s.wire.Sessions.Count())
		return n
	}); err != nil {
		return nil, err
	}
	if err := sw.Register("replay", s.wire.Auth.Replay().Sweep); err != nil {
		return nil, err
	}
	return sw, nil
}

// Run serves until ctx is done, then shuts the listeners down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if !s.running.CAS(false, true) {
		return errors.New("server already running")
	}
	defer s.running.Store(false)

	cfg := s.wire.Config
	log := s.wire.Log
	handler, err := s.Router()
	if err != nil {
		return err
	}

	if cfg.SweepInterval > 0 {
		sw, err := s.Sweeper()
		if err != nil {
			return err
		}
		sw.Start()
		defer sw.Stop()
	}

	servers := []*http.Server{{Addr: cfg.Listen, Handler: handler, ReadHeaderTimeout: 10 * time.Second}}
	if cfg.MetricsListen != "" {
		metrics.RegisterMetrics()
		mux := chi.NewRouter()
		mux.Handle("/metrics", metrics.Handler())
		servers = append(servers, &http.Server{Addr: cfg.MetricsListen, Handler: mux, ReadHeaderTimeout: 10 * time.Second})
	}

	errc := make(chan error, len(servers))
	for _, srv := range servers {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			shutdown(servers)
			return fmt.Errorf("listen %s: %w", srv.Addr, err)
		}
		log.Info().Str("addr", ln.Addr().String()).Str("did", s.id.DID.String()).Msg("listening")
		go func(srv *http.Server, ln net.Listener) {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
		}(srv, ln)
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		err := shutdown(servers)
		s.wire.Sessions.Clear()
		return err
	case err := <-errc:
		_ = shutdown(servers)
		return err
	}
}

func shutdown(servers []*http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	var errs []error
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
