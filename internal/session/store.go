// Package session keeps per-browser view state between requests.
package session

import (
	"context"
	"time"

	"github.com/actuallystonmai/cinematch/internal/domain"
)

const (
	DefaultTTL     = 24 * time.Hour
	DefaultLockTTL = 2 * time.Minute
)

// Store persists sessions for their TTL and guards recommendation runs so
// only one runs per session at a time.
type Store interface {
	// Get returns domain.ErrSessionNotFound for unknown or expired ids.
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error

	// Update applies fn to the current session and saves the result as one
	// atomic step, so concurrent edits are never lost. Nothing is written
	// when fn returns an error.
	Update(ctx context.Context, id string, fn func(*domain.Session) error) (*domain.Session, error)

	// Acquire reports false when a run is already in flight for id. The
	// guard expires on its own after the lock TTL. The returned token must
	// be passed to Release; a stale token releases nothing.
	Acquire(ctx context.Context, id string) (token string, ok bool, err error)
	Release(ctx context.Context, id, token string) error
	Busy(ctx context.Context, id string) (bool, error)

	Ping(ctx context.Context) error
}

type Options struct {
	TTL     time.Duration
	LockTTL time.Duration
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.LockTTL <= 0 {
		o.LockTTL = DefaultLockTTL
	}
	return o
}
