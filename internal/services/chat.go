package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"gemini-relay/internal/metrics"
	"gemini-relay/internal/models"
)

// MaxRetries is the attempt ceiling for one chat request.
const MaxRetries = 3

// ChatService relays a conversation to the model and retries transient
// upstream failures.
type ChatService struct {
	client  ModelClient
	logger  *zap.Logger
	metrics *metrics.Metrics
	backoff time.Duration
}

type ChatOption func(*ChatService)

// WithRetryBackoff waits d before every retry. Zero (the default) retries
// immediately.
func WithRetryBackoff(d time.Duration) ChatOption {
	return func(s *ChatService) {
		s.backoff = d
	}
}

func NewChatService(client ModelClient, logger *zap.Logger, m *metrics.Metrics, opts ...ChatOption) *ChatService {
	s := &ChatService{
		client:  client,
		logger:  logger,
		metrics: m,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Chat renders the conversation into a prompt and returns the model's reply.
// Failures are always *UpstreamError.
func (s *ChatService) Chat(ctx context.Context, messages []models.ChatMessage) (string, error) {
	prompt := BuildPrompt(messages)

	reply, err := s.Reply(ctx, prompt)
	s.metrics.ChatReplies.WithLabelValues(outcomeLabel(err)).Inc()
	return reply, err
}

// Reply runs the retry loop for a single prompt.
func (s *ChatService) Reply(ctx context.Context, prompt string) (string, error) {
	for attempt := 1; attempt <= MaxRetries; attempt++ {
		start := time.Now()
		res := s.client.Generate(ctx, prompt)
		s.metrics.ModelCallDuration.Observe(time.Since(start).Seconds())
		s.metrics.ModelAttempts.WithLabelValues(res.Kind.String()).Inc()

		if res.Kind == CallSuccess {
			if res.Text == "" {
				return NoResponsePlaceholder, nil
			}
			return res.Text, nil
		}

		s.logger.Warn("Gemini call failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", MaxRetries),
			zap.Stringer("kind", res.Kind),
			zap.Error(res.Err),
		)

		switch res.Kind {
		case CallTransient:
			if attempt == MaxRetries {
				return "", errOverloaded(res.Err)
			}
			if err := s.wait(ctx); err != nil {
				s.logger.Warn("Retry wait interrupted", zap.Int("attempt", attempt), zap.Error(err))
				return "", errInternal(err)
			}
		case CallPermanent:
			return "", errBadGateway(res.Err)
		default:
			return "", errInternal(res.Err)
		}
	}

	s.logger.DPanic("Retry loop exited without a terminal outcome", zap.Int("max_attempts", MaxRetries))
	return "", &UpstreamError{Status: http.StatusInternalServerError, Detail: DetailNoOutcome}
}

func (s *ChatService) wait(ctx context.Context) error {
	if s.backoff <= 0 {
		return nil
	}
	t := time.NewTimer(s.backoff)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		return "internal"
	}
	switch upErr.Status {
	case http.StatusServiceUnavailable:
		return "unavailable"
	case http.StatusBadGateway:
		return "bad_gateway"
	default:
		return "internal"
	}
}
