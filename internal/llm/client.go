package llm

import (
	"context"
	"errors"
	"fmt"
)

// Package llm contains the model provider client used by generation jobs.
// The client speaks the OpenAI-compatible chat completions protocol, which
// covers OpenAI itself as well as gateway deployments for other providers
// through the configurable base URL.

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is a single chat message sent to the provider.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request carries one completion call.
type Request struct {
	Model    string
	Messages []Message
}

// Response is the provider's completion output.
type Response struct {
	Content      string
	FinishReason string
}

var (
	// ErrEmptyModel indicates the request is missing a model name.
	ErrEmptyModel = errors.New("model is required")
	// ErrNoMessages indicates the request has no messages.
	ErrNoMessages = errors.New("at least one message is required")
	// ErrEmptyCompletion indicates the provider returned no choices.
	ErrEmptyCompletion = errors.New("provider returned an empty completion")
)

// ProviderError is returned when the provider responds with a non-2xx status.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
}

// Client defines the completion call used by the generator service.
type Client interface {
	// Complete sends the chat messages and returns the model's reply.
	Complete(ctx context.Context, req Request) (*Response, error)
}
