package service

import (
	"context"
	"enhancebot/internal/core/domain"
	"enhancebot/internal/core/port"
)

// Enhancer resolves the requested provider and runs a single enhancement job against it.
type Enhancer struct {
	resolver        port.EnhancerResolver
	defaultProvider domain.Provider
	defaultModel    string
}

func NewEnhancer(resolver port.EnhancerResolver, defaultProvider domain.Provider, defaultModel string) *Enhancer {
	return &Enhancer{resolver: resolver, defaultProvider: defaultProvider, defaultModel: defaultModel}
}

func (e *Enhancer) Enhance(ctx context.Context, req domain.EnhanceRequest) (domain.ImageArtifact, error) {
	if req.Provider == "" {
		req.Provider = e.defaultProvider
	}

	if req.Model == "" {
		req.Model = e.defaultModel
	}

	if req.Type == "" {
		req.Type = domain.Enhance
	}

	if req.ScaleFactor == 0 {
		req.ScaleFactor = domain.DefaultScaleFactor
	}

	if err := req.Validate(); err != nil {
		return domain.ImageArtifact{}, err
	}

	client, err := e.resolver.Resolve(req.Provider, req.Model)
	if err != nil {
		return domain.ImageArtifact{}, err
	}

	return client.Enhance(ctx, req.Image, req.Type, req.ScaleFactor)
}

func (e *Enhancer) EnhanceImage(ctx context.Context, image []byte, enhancementType string, scaleFactor int, model,
	provider string) ([]byte, map[string]string, error) {
	req := domain.EnhanceRequest{
		Image:       domain.NewImageArtifact(image, nil),
		ScaleFactor: scaleFactor,
		Model:       model,
	}

	var err error
	req.Type, err = domain.ParseEnhancementType(enhancementType)
	if err != nil {
		return nil, nil, err
	}

	if provider != "" {
		req.Provider, err = domain.ParseProvider(provider)
		if err != nil {
			return nil, nil, err
		}
	}

	result, err := e.Enhance(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	return result.Data(), result.Metadata(), nil
}

func (e *Enhancer) ListModels() []domain.ModelInfo {
	return e.resolver.Models()
}
