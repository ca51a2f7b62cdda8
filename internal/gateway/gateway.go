package gateway

import (
	"context"
	"errors"
)

// #region messages

// Role tags one side of the conversation in a completion request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one role-tagged entry in the transcript sent upstream.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// System builds a system message.
func System(content string) ChatMessage { return ChatMessage{Role: RoleSystem, Content: content} }

// User builds a user message.
func User(content string) ChatMessage { return ChatMessage{Role: RoleUser, Content: content} }

// Assistant builds an assistant message.
func Assistant(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content}
}

// #endregion

// #region options

// Options tune a single completion call.
type Options struct {
	Model       string
	Temperature float64
}

// #endregion

// #region client

// ErrEmptyCompletion means the provider answered 2xx but carried no
// usable text.
var ErrEmptyCompletion = errors.New("gateway: empty completion")

// Client is the hosted-model collaborator. Implementations return the
// raw completion text or an explicit transport failure; they never
// retry on their own — contract-level retries are the dialogue
// machine's call.
type Client interface {
	Complete(ctx context.Context, messages []ChatMessage, opts Options) (string, error)
}

// #endregion
