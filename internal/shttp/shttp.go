package shttp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/do/v2"
	"golang.org/x/sync/errgroup"

	"github.com/willie68/go_slippymap/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// Config of the http servers, Healthport 0 disables the separate health server
type Config struct {
	Port       int
	Healthport int
}

// SHttp runs the api and the health server
type SHttp struct {
	log       *slog.Logger
	cfg       Config
	servers   []*http.Server
	listeners []net.Listener
	eg        *errgroup.Group
	done      chan struct{}
	err       error
}

type httpConfig interface {
	GetHTTPConfig() Config
}

func Init(inj do.Injector) {
	cfg := do.MustInvokeAs[httpConfig](inj).GetHTTPConfig()
	do.ProvideValue(inj, New(cfg))
}

func New(cfg Config) *SHttp {
	return &SHttp{
		log:  logging.New("shttp"),
		cfg:  cfg,
		done: make(chan struct{}),
	}
}

// StartServers listens on the configured ports and serves in the background
func (s *SHttp) StartServers(router, healthRouter http.Handler) error {
	s.eg = &errgroup.Group{}
	if err := s.start(fmt.Sprintf(":%d", s.cfg.Port), router); err != nil {
		return err
	}
	if healthRouter != nil && s.cfg.Healthport > 0 && s.cfg.Healthport != s.cfg.Port {
		if err := s.start(fmt.Sprintf(":%d", s.cfg.Healthport), healthRouter); err != nil {
			s.ShutdownServers()
			return err
		}
	}
	go func() {
		s.err = s.eg.Wait()
		close(s.done)
	}()
	return nil
}

func (s *SHttp) start(addr string, handler http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", addr)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.servers = append(s.servers, srv)
	s.listeners = append(s.listeners, ln)
	s.log.Info("http server started", "addr", ln.Addr().String())
	s.eg.Go(func() error {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	return nil
}

// Addrs of the running servers, api first
func (s *SHttp) Addrs() []net.Addr {
	as := make([]net.Addr, 0, len(s.listeners))
	for _, l := range s.listeners {
		as = append(as, l.Addr())
	}
	return as
}

// Done is closed when all servers stopped
func (s *SHttp) Done() <-chan struct{} {
	return s.done
}

// ShutdownServers stops all servers gracefully and waits for them
func (s *SHttp) ShutdownServers() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range s.servers {
		if err := srv.Shutdown(ctx); err != nil {
			s.log.Error("error on shutdown server", "error", err)
		}
	}
	if s.eg == nil {
		return nil
	}
	err := s.eg.Wait()
	if err != nil {
		s.log.Error("http server failed", "error", err)
	}
	return err
}

// Err is the first server error, valid after Done is closed
func (s *SHttp) Err() error {
	<-s.done
	return s.err
}
