package requester

import (
	"github.com/kbukum/httpconnector/auth"
	"github.com/kbukum/httpconnector/logger"
	"github.com/kbukum/httpconnector/observability"
	"github.com/kbukum/httpconnector/shared"
	"github.com/kbukum/httpconnector/transport"
)

// Key derives the transport key of a configuration within an artifact.
func Key(artifactID, configName string) string {
	return shared.Key(artifactID, configName)
}

// Provider creates Clients for one artifact. Clients whose configurations
// share a name share one transport, built from the settings of the first.
type Provider struct {
	artifact string
	registry *shared.Registry[transport.Transport]
	factory  transport.Factory
	metrics  *observability.ConnectorMetrics
	log      *logger.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithFactory replaces the transport factory.
func WithFactory(f transport.Factory) ProviderOption {
	return func(p *Provider) { p.factory = f }
}

// WithRegistry shares a registry between providers.
func WithRegistry(r *shared.Registry[transport.Transport]) ProviderOption {
	return func(p *Provider) { p.registry = r }
}

// WithMetrics replaces the connector metrics.
func WithMetrics(m *observability.ConnectorMetrics) ProviderOption {
	return func(p *Provider) { p.metrics = m }
}

// NewProvider returns a provider for artifactID.
func NewProvider(artifactID string, opts ...ProviderOption) *Provider {
	p := &Provider{
		artifact: artifactID,
		factory:  transport.DefaultFactory,
		log:      logger.Get("requester"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = observability.DefaultMetrics()
	}
	if p.registry == nil {
		p.registry = shared.NewRegistry[transport.Transport]("transports", shared.WithMetrics(p.metrics))
	}
	return p
}

// Registry returns the transport registry.
func (p *Provider) Registry() *shared.Registry[transport.Transport] { return p.registry }

// NewClient validates cfg and returns a stopped Client bound to the shared
// transport for cfg.Name.
func (p *Provider) NewClient(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	authn, err := auth.New(cfg.Auth)
	if err != nil {
		return nil, err
	}

	key := Key(p.artifact, cfg.Name)
	settings := cfg.Client
	settings.Name = key
	h, err := p.registry.LookupOrCreate(key, func() (transport.Transport, error) {
		return p.factory(settings)
	})
	if err != nil {
		return nil, err
	}

	c, err := newClient(cfg, h, authn, p.metrics)
	if err != nil {
		h.Close()
		return nil, err
	}
	p.log.Debug("requester client created", logger.Fields(
		logger.FieldClientKey, key,
		logger.FieldStrategy, strategyName(authn),
		logger.FieldRefCount, h.Registration().RefCount(),
	))
	return c, nil
}

func strategyName(a auth.Authenticator) string {
	if a == nil {
		return "none"
	}
	return a.Name()
}
