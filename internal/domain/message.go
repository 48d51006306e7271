// Package domain contains core domain types for the Movi operator console.
package domain

import (
	"time"
)

// Role identifies the author of a transcript turn.
type Role string

const (
	// RoleUser marks a turn authored by the operator.
	RoleUser Role = "user"
	// RoleAssistant marks a turn authored by the assistant.
	RoleAssistant Role = "assistant"
)

// Message is one conversational turn in the assistant transcript.
// The persisted sequence of messages is append-only: once a turn is
// recorded it is never edited in place, only removed by a full clear.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	IsError   bool      `json:"isError,omitempty"`
}

// NewUserMessage creates an operator turn stamped at the current instant.
func NewUserMessage(text string) Message {
	return Message{
		Role:      RoleUser,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}

// NewAssistantMessage creates an assistant turn stamped at the current instant.
func NewAssistantMessage(text string) Message {
	return Message{
		Role:      RoleAssistant,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}

// NewErrorMessage creates an assistant turn synthesized locally after a
// transport failure. It is the only kind of turn carrying IsError.
func NewErrorMessage(text string) Message {
	return Message{
		Role:      RoleAssistant,
		Text:      text,
		Timestamp: time.Now().UTC(),
		IsError:   true,
	}
}
