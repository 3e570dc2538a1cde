package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// MetadataHeaderPrefix prefixes every metadata entry returned alongside the enhanced image.
const MetadataHeaderPrefix = "X-Enhance-"

type enhanceForm struct {
	EnhancementType string `validate:"omitempty,oneof=enhance denoise sharpen"`
	ScaleFactor     int    `validate:"gte=0,lte=16"`
	Model           string `validate:"max=64"`
	Provider        string `validate:"omitempty,alphanum"`
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) Models(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{"models": a.enhancer.ListModels()})
}

// Enhance accepts a multipart upload, runs it through the enhancement service and streams the result back.
func (a *API) Enhance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := zerolog.Ctx(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("failed to parse form: %v", err))
		return
	}

	image, err := readImage(r)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	form, err := a.parseForm(r)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	l.Debug().
		Str("enhancementType", form.EnhancementType).
		Int("scaleFactor", form.ScaleFactor).
		Str("model", form.Model).
		Str("provider", form.Provider).
		Int("bytes", len(image)).
		Msg("enhance request")

	data, meta, err := a.enhancer.EnhanceImage(ctx, image, form.EnhancementType, form.ScaleFactor, form.Model,
		form.Provider)
	if err != nil {
		status, code := statusForError(err)
		l.Error().Err(err).Int("status", status).Msg("enhancement failed")
		writeError(ctx, w, status, code, err.Error())
		return
	}

	for k, v := range meta {
		w.Header().Set(metadataHeader(k), v)
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(data); err != nil {
		l.Error().Err(err).Msg("failed to write enhanced image")
	}
}

func (a *API) parseForm(r *http.Request) (enhanceForm, error) {
	form := enhanceForm{
		EnhancementType: strings.ToLower(strings.TrimSpace(r.FormValue("enhancement_type"))),
		Model:           strings.TrimSpace(r.FormValue("model")),
		Provider:        strings.TrimSpace(r.FormValue("provider")),
	}

	if raw := strings.TrimSpace(r.FormValue("scale_factor")); raw != "" {
		scale, err := strconv.Atoi(raw)
		if err != nil {
			return enhanceForm{}, fmt.Errorf("scale_factor must be an integer: %w", err)
		}
		form.ScaleFactor = scale
	}

	if err := a.validate.Struct(form); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			fe := validationErrors[0]
			return enhanceForm{}, fmt.Errorf("invalid field %s: failed on %s", fe.Field(), fe.Tag())
		}
		return enhanceForm{}, err
	}

	return form, nil
}

func readImage(r *http.Request) ([]byte, error) {
	f, _, err := r.FormFile("image")
	if err != nil {
		return nil, fmt.Errorf("missing image file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	if len(data) == 0 {
		return nil, errors.New("image file is empty")
	}

	return data, nil
}

// metadataHeader turns a metadata key like "enhancement_type" into "X-Enhance-Enhancement-Type".
func metadataHeader(key string) string {
	return http.CanonicalHeaderKey(MetadataHeaderPrefix + strings.ReplaceAll(key, "_", "-"))
}
