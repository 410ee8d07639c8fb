package cli

import (
	"github.com/kbukum/httpconnector/bootstrap"
	"github.com/kbukum/httpconnector/listener"
	"github.com/kbukum/httpconnector/logger"
	"github.com/kbukum/httpconnector/observability"
	"github.com/kbukum/httpconnector/requester"
)

// Connector is the assembled set of listeners and requesters of one
// configuration, registered on a bootstrap App.
type Connector struct {
	App        *bootstrap.App[*ConnectorConfig]
	Listeners  map[string]*listener.Listener
	Requesters map[string]*requester.Client
}

// Build validates cfg and registers telemetry, listeners and requesters on
// a new App in that order. Nothing is started.
func Build(cfg *ConnectorConfig, opts ...bootstrap.Option) (*Connector, error) {
	app, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}
	conn := &Connector{
		App:        app,
		Listeners:  make(map[string]*listener.Listener, len(cfg.Listeners)),
		Requesters: make(map[string]*requester.Client, len(cfg.Requesters)),
	}

	telemetry, err := observability.NewTelemetry(cfg.Telemetry)
	if err != nil {
		return nil, err
	}
	if err := app.RegisterComponent(telemetry); err != nil {
		return nil, err
	}

	metrics := observability.DefaultMetrics()
	listeners := listener.NewProvider(cfg.Artifact)
	requesters := requester.NewProvider(cfg.Artifact, requester.WithMetrics(metrics))

	for _, lc := range cfg.Listeners {
		l, err := listeners.NewListener(lc)
		if err != nil {
			return nil, conn.discard(err)
		}
		conn.Listeners[lc.Name] = l
		if lc.Name == cfg.HealthListener {
			if err := l.GET("/health", listener.HealthHandler(cfg.Name, app.Components.HealthAll)); err != nil {
				return nil, conn.discard(err)
			}
			if h := telemetry.Handler(); h != nil {
				l.Server().Mount(telemetry.MetricsPath(), h)
			}
		}
		if err := app.RegisterComponent(listener.NewComponent(l)); err != nil {
			return nil, conn.discard(err)
		}
	}

	for _, rc := range cfg.Requesters {
		c, err := requesters.NewClient(rc)
		if err != nil {
			return nil, conn.discard(err)
		}
		conn.Requesters[rc.Name] = c
		if err := app.RegisterComponent(requester.NewComponent(c)); err != nil {
			return nil, conn.discard(err)
		}
	}

	app.Logger.Debug("connector assembled", logger.Fields(
		"artifact", cfg.Artifact,
		"listeners", len(conn.Listeners),
		"requesters", len(conn.Requesters),
	))
	return conn, nil
}

// discard closes everything built so far and returns err.
func (c *Connector) discard(err error) error {
	for _, l := range c.Listeners {
		l.Close()
	}
	for _, r := range c.Requesters {
		r.Close()
	}
	return err
}
