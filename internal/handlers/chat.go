package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"gemini-relay/internal/middleware"
	"gemini-relay/internal/models"
	"gemini-relay/internal/services"
)

const maxChatBodyBytes = 1 << 20

var errInvalidChatRequest = errors.New("invalid chat request")

// chatRequestBody mirrors models.ChatRequest with pointer fields so that
// absent and null values can be told apart from empty ones.
type chatRequestBody struct {
	Messages *[]*chatMessageBody `json:"messages"`
}

type chatMessageBody struct {
	Role    *string `json:"role"`
	Content *string `json:"content"`
}

// decodeChatRequest reads exactly one JSON object. messages must be present
// and every item needs a role and content.
func decodeChatRequest(body io.Reader) (*models.ChatRequest, error) {
	dec := json.NewDecoder(body)

	var req chatRequestBody
	if err := dec.Decode(&req); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after request object", errInvalidChatRequest)
	}
	if req.Messages == nil {
		return nil, fmt.Errorf("%w: messages is required", errInvalidChatRequest)
	}

	messages := make([]models.ChatMessage, 0, len(*req.Messages))
	for i, m := range *req.Messages {
		if m == nil || m.Role == nil || m.Content == nil {
			return nil, fmt.Errorf("%w: message %d needs role and content", errInvalidChatRequest, i)
		}
		messages = append(messages, models.ChatMessage{Role: *m.Role, Content: *m.Content})
	}
	return &models.ChatRequest{Messages: messages}, nil
}

type chatService interface {
	Chat(ctx context.Context, messages []models.ChatMessage) (string, error)
}

type ChatHandler struct {
	chatService chatService
	logger      *zap.Logger
}

func NewChatHandler(chatService chatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// Chat relays the conversation history to the model and returns its reply.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(http.MaxBytesReader(w, r.Body, maxChatBodyBytes))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	reply, err := h.chatService.Chat(r.Context(), req.Messages)
	if err != nil {
		var upErr *services.UpstreamError
		if errors.As(err, &upErr) {
			writeDetail(w, upErr.Status, upErr.Detail)
			return
		}
		h.logger.Error("Chat failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
		writeDetail(w, http.StatusInternalServerError, services.DetailInternal)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{Reply: reply})
}
