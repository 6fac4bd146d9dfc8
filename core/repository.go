package core

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// StateStore holds pending OAuth states between the login redirect and the
// provider callback. States are single-use and expire after a fixed TTL.
type StateStore interface {
	// PutState records a freshly issued state with its expiry.
	PutState(ctx context.Context, state string, expiresAt time.Time) error

	// ConsumeState atomically redeems a state. It returns true only for a
	// state that was issued, has not expired, and has not been redeemed
	// before. The state is gone afterwards either way.
	ConsumeState(ctx context.Context, state string) (bool, error)
}

// SessionStore persists server-side session records for the session
// credential strategy.
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error

	FindSession(ctx context.Context, id string) (*Session, error)

	DeleteSession(ctx context.Context, id string) error

	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// GroupStore persists group board entries.
type GroupStore interface {
	CreateGroup(ctx context.Context, group *Group) error

	ListGroups(ctx context.Context) ([]*Group, error)
}
