package listener

import (
	"github.com/kbukum/httpconnector/errors"
	"github.com/kbukum/httpconnector/logger"
	"github.com/kbukum/httpconnector/observability"
	"github.com/kbukum/httpconnector/shared"
)

// Provider creates Listeners for one artifact. Listeners naming the same
// server share it; the first configuration decides its settings.
type Provider struct {
	artifact string
	registry *shared.Registry[*Server]
	log      *logger.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithRegistry shares a server registry between providers.
func WithRegistry(r *shared.Registry[*Server]) ProviderOption {
	return func(p *Provider) { p.registry = r }
}

// NewProvider returns a provider for artifactID.
func NewProvider(artifactID string, opts ...ProviderOption) *Provider {
	p := &Provider{artifact: artifactID, log: logger.Get("listener")}
	for _, opt := range opts {
		opt(p)
	}
	if p.registry == nil {
		p.registry = shared.NewRegistry[*Server]("servers",
			shared.WithMetrics(observability.DefaultMetrics()),
			shared.WithErrors(errors.ServerConstruction, errors.ServerStart),
		)
	}
	return p
}

// Registry returns the server registry.
func (p *Provider) Registry() *shared.Registry[*Server] { return p.registry }

// NewListener validates cfg and returns a stopped Listener on the shared
// server cfg.Server.
func (p *Provider) NewListener(cfg Config) (*Listener, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	key := shared.Key(p.artifact, cfg.Server)
	settings := cfg.settings()
	h, err := p.registry.LookupOrCreate(key, func() (*Server, error) {
		return NewServer(key, settings)
	})
	if err != nil {
		return nil, err
	}
	l := newListener(cfg, h)
	p.log.Debug("listener created", logger.Fields(
		logger.FieldListener, cfg.Name,
		logger.FieldClientKey, key,
		logger.FieldPath, cfg.BasePath,
	))
	return l, nil
}
