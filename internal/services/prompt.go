package services

import (
	"strings"

	"gemini-relay/internal/models"
)

// MaxHistoryMessages is how many trailing messages make it into a prompt.
const MaxHistoryMessages = 10

// BuildPrompt renders the last MaxHistoryMessages messages as
// "{Prefix}: {content}" lines joined by newlines. Older messages are
// dropped silently.
func BuildPrompt(messages []models.ChatMessage) string {
	if len(messages) > MaxHistoryMessages {
		messages = messages[len(messages)-MaxHistoryMessages:]
	}

	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, rolePrefix(m.Role)+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

func rolePrefix(role string) string {
	switch strings.ToLower(role) {
	case models.RoleAssistant:
		return "Assistant"
	case models.RoleSystem:
		return "System"
	default:
		return "User"
	}
}
