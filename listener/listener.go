package listener

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/httpconnector/errors"
	"github.com/kbukum/httpconnector/listener/middleware"
	"github.com/kbukum/httpconnector/logger"
	"github.com/kbukum/httpconnector/shared"
)

// Listener attaches routes under a base path to a shared Server. The server
// runs while at least one of its listeners is started.
type Listener struct {
	name     string
	basePath string
	handle   *shared.Handle[*Server]
	group    *gin.RouterGroup
	log      *logger.Logger
}

func newListener(cfg Config, h *shared.Handle[*Server]) *Listener {
	return &Listener{
		name:     cfg.Name,
		basePath: cfg.BasePath,
		handle:   h,
		group:    h.Resource().Engine().Group(cfg.BasePath),
		log: logger.Get("listener").WithFields(logger.Fields(
			logger.FieldListener, cfg.Name,
			"server", h.Key(),
		)),
	}
}

// Name returns the listener name.
func (l *Listener) Name() string { return l.name }

// BasePath returns the prefix of every route of the listener.
func (l *Listener) BasePath() string { return l.basePath }

// Server returns the shared server.
func (l *Listener) Server() *Server { return l.handle.Resource() }

// Handle registers handlers for method and path under the base path.
// Routes must be registered before the server starts serving; later calls
// and routes gin rejects, such as a duplicate, are reported as INVALID_INPUT.
func (l *Listener) Handle(method, path string, handlers ...gin.HandlerFunc) (err error) {
	if len(handlers) == 0 {
		return errors.InvalidInput("handlers", "at least one handler is required")
	}
	defer func() {
		if p := recover(); p != nil {
			err = errors.InvalidInput("path", fmt.Sprint(p))
		}
	}()
	if err := l.Server().whileStopped(func() { l.group.Handle(method, path, handlers...) }); err != nil {
		return err
	}
	l.log.Debug("route registered", logger.Fields(
		logger.FieldMethod, method,
		logger.FieldPath, l.group.BasePath()+path,
	))
	return nil
}

// Use applies net/http middleware to the routes of this listener only.
// Call it before registering the routes it should cover.
func (l *Listener) Use(mws ...middleware.Middleware) {
	for _, mw := range mws {
		l.group.Use(middleware.GinWrap(mw))
	}
}

// GET registers a GET route.
func (l *Listener) GET(path string, handlers ...gin.HandlerFunc) error {
	return l.Handle(http.MethodGet, path, handlers...)
}

// POST registers a POST route.
func (l *Listener) POST(path string, handlers ...gin.HandlerFunc) error {
	return l.Handle(http.MethodPost, path, handlers...)
}

// Start takes a reference on the shared server, starting it if needed.
func (l *Listener) Start(ctx context.Context) error {
	return l.handle.Start(ctx)
}

// Stop releases the reference taken by Start.
func (l *Listener) Stop(ctx context.Context) error {
	return l.handle.Stop(ctx)
}

// Close disposes the listener. Its routes stay on the server.
func (l *Listener) Close() { l.handle.Close() }
