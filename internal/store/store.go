// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/moviops/movi-console/internal/domain"
)

// Repository defines the interface for persisting assistant transcripts.
type Repository interface {
	// LoadTranscript retrieves the ordered message sequence for a history key.
	// A missing or corrupt record yields an empty sequence; corruption is
	// logged and discarded, never surfaced as an error.
	LoadTranscript(ctx context.Context, key string) ([]domain.Message, error)

	// AppendMessage appends one turn and re-persists the full updated
	// sequence before returning.
	AppendMessage(ctx context.Context, key string, msg domain.Message) error

	// ClearTranscript erases the persisted record for a history key.
	// Clearing an absent record is a no-op.
	ClearTranscript(ctx context.Context, key string) error

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
