package domain

import (
	"context"
	"time"
)

// CacheError represents an error originating from the cache.
type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

// ErrCacheMiss is returned when a key is not found in the cache.
const ErrCacheMiss = CacheError("cache: key not found")

// Cache defines the interface (port) for caching operations.
type Cache interface {
	// Get returns ErrCacheMiss if the key is not found.
	Get(ctx context.Context, key string) (string, error)

	// Set overwrites any existing value. An expiration of 0 keeps the key
	// until it is deleted.
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// SetNX stores value only if key does not exist and reports whether it did.
	SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error)

	// Delete does not fail when the key is absent.
	Delete(ctx context.Context, key string) error

	// DeleteIfValue removes key only while it still holds value and reports
	// whether it did. Lock holders use it so an expired lock taken over by
	// someone else is left alone.
	DeleteIfValue(ctx context.Context, key string, value string) (bool, error)

	Ping(ctx context.Context) error
}

// AttemptSessionStore keeps started attempts until they are submitted or expire.
type AttemptSessionStore interface {
	Save(ctx context.Context, session *AttemptSession, ttl time.Duration) error
	// Get returns (nil, nil) for unknown or expired sessions.
	Get(ctx context.Context, sessionID string) (*AttemptSession, error)
	// FindOpen returns the open session of a staff member for a quiz, if any.
	FindOpen(ctx context.Context, staffID, quizID string) (*AttemptSession, error)
	Delete(ctx context.Context, session *AttemptSession) error
}
