package types

import "time"

// User represents one account in the record store.
type User struct {
	// UID is the opaque primary key, generated server-side at signup
	// and never assigned by the client.
	UID string `json:"uid" db:"uid"`

	// Email is stored lower-cased; lookups always use the lower-cased
	// form so matching is case-insensitive.
	Email string `json:"user_email" db:"user_email"`

	// Name is the display name chosen at signup.
	Name string `json:"user_name" db:"user_name"`

	// PasswordHash stores the salted hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Age is the age supplied at signup.
	Age int `json:"user_age" db:"user_age"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"date_created" db:"date_created"`

	// LastLoginAt is nil until the first successful login and is
	// overwritten on every successful login thereafter.
	LastLoginAt *time.Time `json:"last_logged_in,omitempty" db:"last_logged_in"`
}
