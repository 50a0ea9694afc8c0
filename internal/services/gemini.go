package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
)

// contentGenerator is the part of *genai.GenerativeModel the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiClient is the production ModelClient, bound to one API key and
// one model name for the life of the process.
type GeminiClient struct {
	client    *genai.Client
	model     contentGenerator
	modelName string
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		model:     client.GenerativeModel(modelName),
		modelName: modelName,
	}, nil
}

func (c *GeminiClient) ModelName() string {
	return c.modelName
}

func (c *GeminiClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Generate sends the prompt as a single text part and classifies the outcome.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) CallResult {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		kind := ClassifyError(err)
		if kind == CallSuccess {
			return Success("")
		}
		return CallResult{Kind: kind, Err: err}
	}
	if resp == nil {
		return UnexpectedFailure(errors.New("Gemini returned a nil response"))
	}
	return Success(extractText(resp))
}

// ClassifyError maps an error from the Gemini SDK onto a CallKind.
// Server-side conditions (HTTP 5xx or the equivalent gRPC codes) are
// transient and every other API-level rejection is permanent. Errors
// that never reached the API are unexpected.
//
// A safety block is a successful API call with no usable text, so it
// classifies as CallSuccess and the caller sees an empty reply.
func ClassifyError(err error) CallKind {
	if err == nil {
		return CallSuccess
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return CallSuccess
	}

	if apiErr, ok := apierror.FromError(err); ok {
		if code := apiErr.HTTPCode(); code > 0 {
			return classifyHTTPStatus(code)
		}
		if st := apiErr.GRPCStatus(); st != nil {
			return classifyGRPCCode(st.Code())
		}
		return CallPermanent
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return classifyHTTPStatus(gErr.Code)
	}

	return CallUnexpected
}

func classifyHTTPStatus(code int) CallKind {
	if code >= 500 {
		return CallTransient
	}
	return CallPermanent
}

func classifyGRPCCode(code codes.Code) CallKind {
	switch code {
	case codes.Unavailable, codes.Internal, codes.Unknown, codes.DataLoss:
		return CallTransient
	case codes.OK:
		return CallUnexpected
	default:
		return CallPermanent
	}
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
