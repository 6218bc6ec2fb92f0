// Package events publishes fire-and-forget domain events to a broker.
// Delivery is best-effort: callers log a returned error and move on, a
// failed publish never fails the request that triggered it.
package events

import (
	"context"
	"time"
)

// Event names emitted by the auth flows.
const (
	UserSignedUp = "user.signed_up"
	UserLoggedIn = "user.logged_in"
)

// Event is the payload delivered to subscribers. It carries the uid only,
// never emails or credential material.
type Event struct {
	Name string    `json:"name"`
	UID  string    `json:"uid"`
	At   time.Time `json:"at"`
}

// Publisher delivers domain events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop discards all events. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

func (Noop) Close() error { return nil }
