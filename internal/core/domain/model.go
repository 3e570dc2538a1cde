package domain

import (
	"maps"
	"strings"
)

type Provider string

const (
	TopazLabs Provider = "topazlabs"
)

// ParseProvider resolves a provider name case-insensitively.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	switch p {
	case TopazLabs:
		return p, nil
	default:
		return "", &ConfigError{Provider: name, Err: ErrUnsupportedProvider}
	}
}

type EnhancementType string

const (
	Enhance EnhancementType = "enhance"
	Denoise EnhancementType = "denoise"
	Sharpen EnhancementType = "sharpen"
)

var EnhancementTypes = []EnhancementType{Enhance, Denoise, Sharpen}

const DefaultScaleFactor = 2

func (t EnhancementType) Valid() bool {
	switch t {
	case Enhance, Denoise, Sharpen:
		return true
	default:
		return false
	}
}

// ParseEnhancementType returns Enhance for an empty value.
func ParseEnhancementType(s string) (EnhancementType, error) {
	if s == "" {
		return Enhance, nil
	}

	t := EnhancementType(strings.ToLower(s))
	if !t.Valid() {
		return "", &RequestError{Field: "enhancement_type", Reason: "must be one of enhance, denoise, sharpen"}
	}

	return t, nil
}

const (
	MetaProvider        = "provider"
	MetaModel           = "model"
	MetaEnhancementType = "enhancement_type"
	MetaScaleFactor     = "scale_factor"
)

// ImageArtifact bundles image bytes with descriptive metadata. It is never mutated after construction.
type ImageArtifact struct {
	data     []byte
	metadata map[string]string
}

func NewImageArtifact(data []byte, metadata map[string]string) ImageArtifact {
	a := ImageArtifact{data: make([]byte, len(data))}
	copy(a.data, data)

	if metadata != nil {
		a.metadata = maps.Clone(metadata)
	}

	return a
}

// Data returns a copy of the image bytes.
func (a ImageArtifact) Data() []byte {
	out := make([]byte, len(a.data))
	copy(out, a.data)
	return out
}

// Metadata returns a copy of the metadata, never nil.
func (a ImageArtifact) Metadata() map[string]string {
	if a.metadata == nil {
		return map[string]string{}
	}
	return maps.Clone(a.metadata)
}

func (a ImageArtifact) Len() int {
	return len(a.data)
}

type EnhanceRequest struct {
	Image       ImageArtifact
	Type        EnhancementType
	ScaleFactor int
	Model       string
	Provider    Provider
}

// Validate checks the request before any remote call is made. The scale factor is only checked for Enhance,
// other types carry it through untouched.
func (r EnhanceRequest) Validate() error {
	if r.Image.Len() == 0 {
		return &RequestError{Field: "image", Reason: "must not be empty"}
	}

	if !r.Type.Valid() {
		return &RequestError{Field: "enhancement_type", Reason: "must be one of enhance, denoise, sharpen"}
	}

	if r.Type == Enhance && r.ScaleFactor <= 0 {
		return &RequestError{Field: "scale_factor", Reason: "must be a positive integer"}
	}

	return nil
}

type ModelInfo struct {
	Provider    Provider `json:"provider"`
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Default     bool     `json:"default"`
}

type Message struct {
	ID       int
	ChatID   int64
	Username string
	ImageURL string
	Text     string
}

type Action string

const (
	Typing         Action = "typing"
	SendingPhoto   Action = "sending_photo"
	UploadDocument Action = "upload_document"
)
