package enhancer

import (
	"bytes"
	"context"
	"encoding/json"
	"enhancebot/internal/core/domain"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const (
	TopazLabsBaseURL      = "https://api.topazlabs.com/image/v1"
	TopazLabsDefaultModel = "Standard V2"

	DefaultPollInterval = 2 * time.Second
	DefaultPollTimeout  = 10 * time.Minute

	// DefaultMaxResponseSize caps every response body read, including the enhanced image.
	DefaultMaxResponseSize = 256 << 20

	apiKeyHeader    = "X-API-Key"
	statusCompleted = "Completed"
	statusFailed    = "Failed"
	statusCancelled = "Cancelled"

	maxErrorBody = 512
)

// TopazLabs is a client for the Topaz Labs asynchronous image enhancement API.
type TopazLabs struct {
	apiKey       string
	model        string
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
	pollTimeout  time.Duration
	maxResponse  int64
}

type Option func(*TopazLabs)

func WithBaseURL(baseURL string) Option {
	return func(t *TopazLabs) {
		if baseURL != "" {
			t.baseURL = baseURL
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(t *TopazLabs) {
		if client != nil {
			t.client = client
		}
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(t *TopazLabs) {
		if interval > 0 {
			t.pollInterval = interval
		}
	}
}

// WithPollTimeout bounds how long a job may stay pending before Enhance gives up with domain.ErrPollTimeout.
func WithPollTimeout(timeout time.Duration) Option {
	return func(t *TopazLabs) {
		if timeout > 0 {
			t.pollTimeout = timeout
		}
	}
}

func WithMaxResponseSize(size int64) Option {
	return func(t *TopazLabs) {
		if size > 0 {
			t.maxResponse = size
		}
	}
}

// NewTopazLabs fails fast with a configuration error if apiKey is empty. An empty model selects
// TopazLabsDefaultModel.
func NewTopazLabs(apiKey, model string, opts ...Option) (*TopazLabs, error) {
	if apiKey == "" {
		return nil, &domain.ConfigError{Provider: string(domain.TopazLabs), Err: domain.ErrMissingCredential}
	}

	if model == "" {
		model = TopazLabsDefaultModel
	}

	t := &TopazLabs{
		apiKey:       apiKey,
		model:        model,
		baseURL:      TopazLabsBaseURL,
		client:       &http.Client{},
		pollInterval: DefaultPollInterval,
		pollTimeout:  DefaultPollTimeout,
		maxResponse:  DefaultMaxResponseSize,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

func (t *TopazLabs) Model() string {
	return t.model
}

type submitResponse struct {
	ProcessID string `json:"process_id"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type downloadResponse struct {
	DownloadURL string `json:"download_url"`
}

func (t *TopazLabs) Enhance(ctx context.Context, image domain.ImageArtifact, enhancementType domain.EnhancementType,
	scaleFactor int) (domain.ImageArtifact, error) {
	req := domain.EnhanceRequest{Image: image, Type: enhancementType, ScaleFactor: scaleFactor}
	if err := req.Validate(); err != nil {
		return domain.ImageArtifact{}, err
	}

	l := zerolog.Ctx(ctx).With().
		Str("provider", string(domain.TopazLabs)).
		Str("model", t.model).
		Str("enhancementType", string(enhancementType)).
		Logger()

	processID, err := t.submit(ctx, image.Data(), enhancementType, scaleFactor)
	if err != nil {
		return domain.ImageArtifact{}, t.stepError(domain.StepSubmit, err)
	}

	l.Debug().Str("processId", processID).Msg("job submitted")

	polls, err := t.waitForCompletion(ctx, processID)
	if err != nil {
		return domain.ImageArtifact{}, t.stepError(domain.StepPoll, err)
	}

	l.Debug().Str("processId", processID).Int("polls", polls).Msg("job completed")

	downloadURL, err := t.downloadURL(ctx, processID)
	if err != nil {
		return domain.ImageArtifact{}, t.stepError(domain.StepDescriptor, err)
	}

	data, err := t.fetch(ctx, downloadURL)
	if err != nil {
		return domain.ImageArtifact{}, t.stepError(domain.StepFetch, err)
	}

	l.Debug().Str("processId", processID).Int("bytes", len(data)).Msg("result downloaded")

	return domain.NewImageArtifact(data, t.metadata(enhancementType, scaleFactor)), nil
}

func (t *TopazLabs) metadata(enhancementType domain.EnhancementType, scaleFactor int) map[string]string {
	meta := map[string]string{
		domain.MetaProvider:        string(domain.TopazLabs),
		domain.MetaModel:           t.model,
		domain.MetaEnhancementType: string(enhancementType),
	}

	if enhancementType == domain.Enhance {
		meta[domain.MetaScaleFactor] = strconv.Itoa(scaleFactor)
	}

	return meta
}

func (t *TopazLabs) submit(ctx context.Context, image []byte, enhancementType domain.EnhancementType,
	scaleFactor int) (string, error) {
	payload, contentType, err := encodeForm(t.model, scaleFactor, image)
	if err != nil {
		return "", fmt.Errorf("error encoding Topaz Labs request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/async", t.baseURL, enhancementType)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return "", fmt.Errorf("error creating POST request for Topaz Labs: %w", err)
	}

	req.Header.Set(apiKeyHeader, t.apiKey)
	req.Header.Set("Content-Type", contentType)

	body, err := t.do(req)
	if err != nil {
		return "", err
	}

	var result submitResponse
	if err := decode(body, &result); err != nil {
		return "", err
	}

	if result.ProcessID == "" {
		return "", fmt.Errorf("%w: missing process_id", domain.ErrMalformedResponse)
	}

	return result.ProcessID, nil
}

// waitForCompletion polls the job status until it reports Completed. The first poll is issued immediately, later
// ones after each poll interval. It returns the number of polls made.
func (t *TopazLabs) waitForCompletion(ctx context.Context, processID string) (int, error) {
	deadline := time.Now().Add(t.pollTimeout)
	endpoint := fmt.Sprintf("%s/status/%s", t.baseURL, url.PathEscape(processID))

	for polls := 1; ; polls++ {
		var result statusResponse
		if err := t.getJSON(ctx, endpoint, &result); err != nil {
			return polls, err
		}

		switch result.Status {
		case statusCompleted:
			return polls, nil
		case statusFailed, statusCancelled:
			return polls, fmt.Errorf("%w: job %s reported status %s", domain.ErrJobFailed, processID, result.Status)
		}

		if time.Now().Add(t.pollInterval).After(deadline) {
			return polls, fmt.Errorf("%w: job %s still %q after %d polls", domain.ErrPollTimeout, processID,
				result.Status, polls)
		}

		timer := time.NewTimer(t.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return polls, ctx.Err()
		case <-timer.C:
		}
	}
}

func (t *TopazLabs) downloadURL(ctx context.Context, processID string) (string, error) {
	endpoint := fmt.Sprintf("%s/download/%s", t.baseURL, url.PathEscape(processID))

	var result downloadResponse
	if err := t.getJSON(ctx, endpoint, &result); err != nil {
		return "", err
	}

	if result.DownloadURL == "" {
		return "", fmt.Errorf("%w: missing download_url", domain.ErrMalformedResponse)
	}

	return result.DownloadURL, nil
}

// fetch downloads the result exactly once. The download URL may be short-lived, so it carries no API key and is
// never stored.
func (t *TopazLabs) fetch(ctx context.Context, downloadURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid download_url: %w", domain.ErrMalformedResponse, err)
	}

	return t.do(req)
}

func (t *TopazLabs) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("error creating GET request for Topaz Labs: %w", err)
	}

	req.Header.Set(apiKeyHeader, t.apiKey)
	req.Header.Set("Accept", "application/json")

	body, err := t.do(req)
	if err != nil {
		return err
	}

	return decode(body, v)
}

func (t *TopazLabs) do(req *http.Request) ([]byte, error) {
	res, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}

	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, t.maxResponse+1))
	if err != nil {
		return nil, fmt.Errorf("%w: error reading response: %w", domain.ErrTransport, err)
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &domain.StatusError{Code: res.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	if int64(len(body)) > t.maxResponse {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", domain.ErrMalformedResponse, t.maxResponse)
	}

	return body, nil
}

func (t *TopazLabs) stepError(step domain.Step, err error) error {
	return &domain.StepError{Provider: domain.TopazLabs, Step: step, Err: err}
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	return nil
}

func encodeForm(model string, scaleFactor int, image []byte) (*bytes.Buffer, string, error) {
	payload := new(bytes.Buffer)
	w := multipart.NewWriter(payload)

	if err := w.WriteField("model", model); err != nil {
		return nil, "", err
	}

	if err := w.WriteField("scale", strconv.Itoa(scaleFactor)); err != nil {
		return nil, "", err
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="image.jpg"`)
	header.Set("Content-Type", "image/jpeg")

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}

	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return payload, w.FormDataContentType(), nil
}
