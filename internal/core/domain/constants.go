package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSendingReplyFailed = errors.New("failed to send reply")

	ErrUnsupportedProvider = errors.New("provider is not wired for image enhancement")
	ErrMissingCredential   = errors.New("missing provider credential")
	ErrInvalidRequest      = errors.New("invalid enhancement request")

	ErrTransport         = errors.New("transport error")
	ErrUnexpectedStatus  = errors.New("unexpected http status")
	ErrMalformedResponse = errors.New("malformed response")
	ErrJobFailed         = errors.New("enhancement job failed")
	ErrPollTimeout       = errors.New("timed out waiting for enhancement job")
)

// ConfigError reports an unsupported provider or an invalid provider configuration. It is never retried.
type ConfigError struct {
	Provider string
	Err      error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for provider '%s': %v", e.Provider, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// RequestError is returned for enhancement input that fails validation. It matches ErrInvalidRequest.
type RequestError struct {
	Field  string
	Reason string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrInvalidRequest, e.Field, e.Reason)
}

func (e *RequestError) Unwrap() error {
	return ErrInvalidRequest
}

// StatusError carries a non-success HTTP response. It matches ErrUnexpectedStatus.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v: %d", ErrUnexpectedStatus, e.Code)
	}
	return fmt.Sprintf("%v: %d: %s", ErrUnexpectedStatus, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

type Step string

const (
	StepSubmit     Step = "submit"
	StepPoll       Step = "poll"
	StepDescriptor Step = "descriptor"
	StepFetch      Step = "fetch"
)

// StepError identifies which stage of the remote job workflow failed.
type StepError struct {
	Provider Provider
	Step     Step
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s %s step failed: %v", e.Provider, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
