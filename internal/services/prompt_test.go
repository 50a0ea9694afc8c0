package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"gemini-relay/internal/models"
)

func TestBuildPrompt_Empty(t *testing.T) {
	assert.Equal(t, "", BuildPrompt(nil))
	assert.Equal(t, "", BuildPrompt([]models.ChatMessage{}))
}

func TestBuildPrompt_KeepsShortConversationInOrder(t *testing.T) {
	msgs := []models.ChatMessage{
		{Role: "system", Content: "Be brief."},
		{Role: "user", Content: "Hi"},
		{Role: "assistant", Content: "Hello!"},
		{Role: "user", Content: "How are you?"},
	}

	want := "System: Be brief.\nUser: Hi\nAssistant: Hello!\nUser: How are you?"
	assert.Equal(t, want, BuildPrompt(msgs))
}

func TestBuildPrompt_TruncatesToLastTen(t *testing.T) {
	var msgs []models.ChatMessage
	for i := 0; i < 15; i++ {
		msgs = append(msgs, models.ChatMessage{Role: "user", Content: fmt.Sprintf("m%d", i)})
	}

	lines := strings.Split(BuildPrompt(msgs), "\n")
	if assert.Len(t, lines, MaxHistoryMessages) {
		assert.Equal(t, "User: m5", lines[0])
		assert.Equal(t, "User: m14", lines[9])
	}
	for i, line := range lines {
		assert.Equal(t, fmt.Sprintf("User: m%d", i+5), line)
	}

	// the caller's slice is left alone
	assert.Len(t, msgs, 15)
}

func TestBuildPrompt_ExactlyTen(t *testing.T) {
	var msgs []models.ChatMessage
	for i := 0; i < MaxHistoryMessages; i++ {
		msgs = append(msgs, models.ChatMessage{Role: "assistant", Content: fmt.Sprintf("a%d", i)})
	}

	lines := strings.Split(BuildPrompt(msgs), "\n")
	assert.Len(t, lines, MaxHistoryMessages)
	assert.Equal(t, "Assistant: a0", lines[0])
}

func TestRolePrefix(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{"assistant", "Assistant"},
		{"ASSISTANT", "Assistant"},
		{"Assistant", "Assistant"},
		{"system", "System"},
		{"SyStEm", "System"},
		{"user", "User"},
		{"USER", "User"},
		{"", "User"},
		{"tool", "User"},
		{" assistant", "User"},
	}

	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			assert.Equal(t, tc.want, rolePrefix(tc.role))
		})
	}
}

func TestBuildPrompt_PreservesMultilineContent(t *testing.T) {
	msgs := []models.ChatMessage{{Role: "user", Content: "line one\nline two"}}
	assert.Equal(t, "User: line one\nline two", BuildPrompt(msgs))
}
