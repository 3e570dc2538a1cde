package enhancer

import (
	"enhancebot/internal/config"
	"enhancebot/internal/core/domain"
	"enhancebot/internal/core/port"
	"slices"

	"github.com/rs/zerolog/log"
)

// Factory builds an enhancer from a provider's configuration section and the selected model.
type Factory func(cfg config.Provider, model string) (port.ImageEnhancer, error)

var factories = map[domain.Provider]Factory{
	domain.TopazLabs: newTopazLabsFromConfig,
}

var catalog = map[domain.Provider][]domain.ModelInfo{
	domain.TopazLabs: {
		{Provider: domain.TopazLabs, ID: "Standard V2", DisplayName: "Standard V2", Default: true},
		{Provider: domain.TopazLabs, ID: "Low Resolution V2", DisplayName: "Low Resolution V2"},
		{Provider: domain.TopazLabs, ID: "CGI", DisplayName: "CGI"},
		{Provider: domain.TopazLabs, ID: "High Fidelity V2", DisplayName: "High Fidelity V2"},
		{Provider: domain.TopazLabs, ID: "Text Refine", DisplayName: "Text Refine"},
	},
}

func newTopazLabsFromConfig(cfg config.Provider, model string) (port.ImageEnhancer, error) {
	return NewTopazLabs(cfg.APIKey, model,
		WithBaseURL(cfg.BaseURL),
		WithPollInterval(cfg.PollInterval),
		WithPollTimeout(cfg.PollTimeout))
}

// Registry maps each supported provider to the constructor of its enhancer client.
type Registry struct {
	providers config.Providers
	factories map[domain.Provider]Factory
}

func NewRegistry(providers config.Providers) *Registry {
	return &Registry{providers: providers, factories: factories}
}

// Resolve validates the provider's configuration and returns an initialized enhancer. Unsupported providers and
// missing credentials are reported as *domain.ConfigError.
func (r *Registry) Resolve(provider domain.Provider, model string) (port.ImageEnhancer, error) {
	log.Debug().Str("provider", string(provider)).Str("model", model).Msg("resolving enhancer from registry")

	factory, ok := r.factories[provider]
	if !ok {
		return nil, &domain.ConfigError{Provider: string(provider), Err: domain.ErrUnsupportedProvider}
	}

	cfg, ok := r.providers.Lookup(provider)
	if !ok || cfg.APIKey == "" {
		return nil, &domain.ConfigError{Provider: string(provider), Err: domain.ErrMissingCredential}
	}

	if model == "" {
		model = cfg.Model
	}

	return factory(cfg, model)
}

// Providers returns the wired providers in sorted order.
func (r *Registry) Providers() []domain.Provider {
	providers := make([]domain.Provider, 0, len(r.factories))
	for p := range r.factories {
		providers = append(providers, p)
	}

	slices.Sort(providers)

	return providers
}

func (r *Registry) Models() []domain.ModelInfo {
	var models []domain.ModelInfo
	for _, p := range r.Providers() {
		models = append(models, catalog[p]...)
	}

	return models
}
