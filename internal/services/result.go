package services

import (
	"context"
	"errors"
	"net/http"
)

// CallKind classifies the outcome of a single call to the model service.
type CallKind int

const (
	CallSuccess CallKind = iota
	CallTransient
	CallPermanent
	CallUnexpected
)

func (k CallKind) String() string {
	switch k {
	case CallSuccess:
		return "success"
	case CallTransient:
		return "transient"
	case CallPermanent:
		return "permanent"
	default:
		return "unexpected"
	}
}

// CallResult is what one model call produced. Text is set only for
// CallSuccess (and may be empty); Err is set for every failure kind.
type CallResult struct {
	Kind CallKind
	Text string
	Err  error
}

func Success(text string) CallResult { return CallResult{Kind: CallSuccess, Text: text} }

func TransientFailure(err error) CallResult { return CallResult{Kind: CallTransient, Err: err} }

func PermanentFailure(err error) CallResult { return CallResult{Kind: CallPermanent, Err: err} }

func UnexpectedFailure(err error) CallResult { return CallResult{Kind: CallUnexpected, Err: err} }

// ModelClient submits a prompt to the external model and classifies the
// result. Implementations must be safe for concurrent use.
type ModelClient interface {
	Generate(ctx context.Context, prompt string) CallResult
}

// UpstreamError is the caller-visible failure of a chat request.
type UpstreamError struct {
	Status int
	Detail string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return e.Detail + ": " + e.Err.Error()
	}
	return e.Detail
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

const (
	NoResponsePlaceholder = "No response from model."

	DetailOverloaded     = "Gemini model is overloaded or temporarily unavailable. Try again later."
	DetailAPIErrorPrefix = "Gemini API error: "
	DetailInternal       = "Internal server error"
	DetailNoOutcome      = "Unexpected error after retries."
)

func errOverloaded(err error) *UpstreamError {
	return &UpstreamError{Status: http.StatusServiceUnavailable, Detail: DetailOverloaded, Err: err}
}

func errBadGateway(err error) *UpstreamError {
	if err == nil {
		err = errors.New("unknown error")
	}
	return &UpstreamError{Status: http.StatusBadGateway, Detail: DetailAPIErrorPrefix + err.Error(), Err: err}
}

func errInternal(err error) *UpstreamError {
	return &UpstreamError{Status: http.StatusInternalServerError, Detail: DetailInternal, Err: err}
}
