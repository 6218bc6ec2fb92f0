// Package store persists user records. One interface, several backends,
// selected by configuration.
package store

import (
	"context"
	"time"

	"github.com/mathtutor/apiserver/types"
)

// UserStore handles persistence for user records.
//
// Email uniqueness is a store-layer concern: Put does not read before
// writing. The postgres backend enforces a unique index on user_email;
// the dynamo and memory backends accept duplicates, so concurrent signups
// with the same email can create two accounts there.
type UserStore interface {
	// Put persists a new user record in a single write.
	Put(ctx context.Context, user types.User) error

	// GetByID fetches a record by primary key.
	GetByID(ctx context.Context, uid string) (types.User, error)

	// GetByEmail fetches at most one record by its lower-cased email.
	GetByEmail(ctx context.Context, email string) (types.User, error)

	// UpdateLastLogin overwrites only the last-login timestamp of the
	// record, leaving every other attribute untouched.
	UpdateLastLogin(ctx context.Context, uid string, at time.Time) error
}
