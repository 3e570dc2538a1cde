package port

import (
	"context"
	"enhancebot/internal/core/domain"
)

type ImageEnhancer interface {
	// Enhance submits the image to the remote provider, waits for the job to complete and returns the enhanced
	// image. The returned artifact's metadata records provider, model and enhancement type.
	Enhance(ctx context.Context, image domain.ImageArtifact, enhancementType domain.EnhancementType,
		scaleFactor int) (domain.ImageArtifact, error)
}

type EnhancerResolver interface {
	// Resolve returns a ready-to-use enhancer for the provider, using the provider's default model if model is empty.
	Resolve(provider domain.Provider, model string) (ImageEnhancer, error)
	// Models lists the model catalog of every wired provider.
	Models() []domain.ModelInfo
}

type EnhanceService interface {
	// EnhanceImage is the entry point for presentation layers. Empty provider, model and enhancement type fall back
	// to the configured defaults, a zero scale factor to domain.DefaultScaleFactor.
	EnhanceImage(ctx context.Context, image []byte, enhancementType string, scaleFactor int, model,
		provider string) ([]byte, map[string]string, error)
	// ListModels returns the model catalog of every wired provider.
	ListModels() []domain.ModelInfo
}

type FileDownloader interface {
	// Download fetches the content behind a URL, e.g. a Telegram file link.
	Download(ctx context.Context, url string) ([]byte, error)
}
