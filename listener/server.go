package listener

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/httpconnector/errors"
	"github.com/kbukum/httpconnector/listener/middleware"
	"github.com/kbukum/httpconnector/logger"
	"github.com/kbukum/httpconnector/security"
)

// ServerSettings configure the socket and timeouts of a shared server.
type ServerSettings struct {
	Host         string
	Port         int
	TLS          *security.TLSConfig
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORS         *middleware.CORSConfig
}

// MetricsPath is skipped by the request logger.
const MetricsPath = "/metrics"

const shutdownTimeout = 5 * time.Second

var ginModeOnce sync.Once

// Server is a gin engine behind the connector middleware, served over
// HTTP/1.1 and h2c, or HTTP/2 with TLS. A stopped Server can be started again.
type Server struct {
	name     string
	settings ServerSettings
	engine   *gin.Engine
	mux      *http.ServeMux
	handler  http.Handler
	log      *logger.Logger

	mu         sync.Mutex
	httpServer *http.Server
	addr       net.Addr
}

// NewServer builds a stopped server.
func NewServer(name string, s ServerSettings) (*Server, error) {
	if s.TLS.IsEnabled() {
		if _, err := s.TLS.BuildServer(); err != nil {
			return nil, err
		}
	}
	ginModeOnce.Do(func() {
		if zerolog.GlobalLevel() <= zerolog.DebugLevel {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
	})

	log := logger.Get("listener").WithFields(logger.Fields("server", name))
	engine := gin.New()
	mux := http.NewServeMux()
	mux.Handle("/", engine)

	chain := []middleware.Middleware{middleware.Recovery(log), middleware.RequestID()}
	if s.CORS != nil {
		chain = append(chain, middleware.CORS(s.CORS))
	}
	chain = append(chain, middleware.RequestLogger(log, MetricsPath))

	return &Server{
		name:     name,
		settings: s,
		engine:   engine,
		mux:      mux,
		handler:  middleware.Chain(chain...)(mux),
		log:      log,
	}, nil
}

// Name returns the server name.
func (s *Server) Name() string { return s.name }

// Engine returns the gin engine listeners register routes on.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Mount serves h at pattern next to the gin engine.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
	s.log.Debug("handler mounted", logger.Fields(logger.FieldPath, pattern))
}

// Start binds the socket and serves in the background. It returns once the
// port is bound. Starting a running server is a no-op.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer != nil {
		return nil
	}

	addr := net.JoinHostPort(s.settings.Host, strconv.Itoa(s.settings.Port))
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listener: bind %s: %w", addr, err)
	}

	h2s := &http2.Server{MaxConcurrentStreams: 250, IdleTimeout: s.settings.IdleTimeout}
	srv := &http.Server{
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		IdleTimeout:  s.settings.IdleTimeout,
	}
	secure := s.settings.TLS.IsEnabled()
	if secure {
		tlsCfg, err := s.settings.TLS.BuildServer()
		if err != nil {
			_ = ln.Close()
			return err
		}
		srv.TLSConfig = tlsCfg
		srv.Handler = s.handler
		if err := http2.ConfigureServer(srv, h2s); err != nil {
			_ = ln.Close()
			return fmt.Errorf("listener: configure http2: %w", err)
		}
	} else {
		srv.Handler = h2c.NewHandler(s.handler, h2s)
	}

	go func() {
		var err error
		if secure {
			err = srv.ServeTLS(ln, "", "")
		} else {
			err = srv.Serve(ln)
		}
		if err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	s.httpServer, s.addr = srv, ln.Addr()
	s.log.Info("server started", logger.Fields("addr", s.addr.String(), "tls", secure))
	return nil
}

// Stop shuts the server down gracefully, waiting at most five seconds for
// in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer, s.addr = nil, nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error("server shutdown error", logger.Fields(logger.FieldError, err.Error()))
		return fmt.Errorf("listener: shutdown %s: %w", s.name, err)
	}
	s.log.Info("server stopped")
	return nil
}

// whileStopped runs fn under the server lock, refusing once the server is
// serving. Gin route trees are not safe to modify while requests are routed.
func (s *Server) whileStopped(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer != nil {
		return errors.InvalidInput("route", fmt.Sprintf("server %q is already serving", s.name))
	}
	fn()
	return nil
}

// Running reports whether the server is serving.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.httpServer != nil
}

// Addr returns the bound address while running, otherwise the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr != nil {
		return s.addr.String()
	}
	return net.JoinHostPort(s.settings.Host, strconv.Itoa(s.settings.Port))
}

// Secure reports whether the server uses TLS.
func (s *Server) Secure() bool { return s.settings.TLS.IsEnabled() }
