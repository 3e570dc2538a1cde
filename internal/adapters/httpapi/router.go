package httpapi

import (
	"enhancebot/internal/core/port"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// MaxUploadSize bounds the multipart body accepted by the enhance endpoint.
const MaxUploadSize = 20 << 20

type API struct {
	enhancer port.EnhanceService
	validate *validator.Validate
}

func NewAPI(enhancer port.EnhanceService) *API {
	return &API{enhancer: enhancer, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Router wires the enhancement endpoints with the usual chi middleware stack.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger,
		middleware.Recoverer,
	)

	r.Get("/healthz", a.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/enhance", a.Enhance)
		r.Get("/models", a.Models)
	})

	return r
}
