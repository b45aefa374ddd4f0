// Package remote defines the contract between the collection store and the
// authoritative persistent store, plus a bolthold-backed implementation.
package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/amaumene/cinearchive/internal/models"
)

// ErrNotFound is wrapped by WriteError when an update targets a missing record
var ErrNotFound = models.ErrNotFound

// Adapter is the remote store contract consumed by the collection store
type Adapter interface {
	// Subscribe emits the complete collection of the user now and after
	// every remote change until the subscription is cancelled.
	Subscribe(ctx context.Context, userID string) (*Subscription, error)
	Create(ctx context.Context, userID string, record models.Record) (string, error)
	Update(ctx context.Context, userID, id string, update models.RecordUpdate) error
	Delete(ctx context.Context, userID, id string) error
}

// Resyncer is implemented by adapters able to re-emit a full snapshot on demand
type Resyncer interface {
	Resync(ctx context.Context, userID string) error
}

// Event is one delivery on a subscription: either a full snapshot or an error
type Event struct {
	Records []models.Record
	Err     error
}

// SubscriptionError reports a transport failure while streaming snapshots
type SubscriptionError struct {
	UserID string
	Err    error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription for user %s failed: %v", e.UserID, e.Err)
}

func (e *SubscriptionError) Unwrap() error {
	return e.Err
}

// WriteError reports a failed create, update or delete
type WriteError struct {
	Op     string
	UserID string
	ID     string
	Err    error
}

func (e *WriteError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("remote %s for user %s failed: %v", e.Op, e.UserID, e.Err)
	}
	return fmt.Sprintf("remote %s of %s for user %s failed: %v", e.Op, e.ID, e.UserID, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// IsWriteError reports whether err is (or wraps) a WriteError
func IsWriteError(err error) bool {
	var writeErr *WriteError
	return errors.As(err, &writeErr)
}

// Subscription delivers events for a single user. Only the most recent
// undelivered event is kept: snapshots are complete, so an older pending
// one is always superseded.
type Subscription struct {
	userID string
	events chan Event
	done   chan struct{}

	mu     sync.Mutex
	closed bool
	onStop func()
}

// NewSubscription creates an open subscription. onStop runs once on Unsubscribe.
func NewSubscription(userID string, onStop func()) *Subscription {
	return &Subscription{
		userID: userID,
		events: make(chan Event, 1),
		done:   make(chan struct{}),
		onStop: onStop,
	}
}

// UserID returns the user the subscription is scoped to
func (s *Subscription) UserID() string {
	return s.userID
}

// Events returns the delivery channel
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Done is closed once the subscription is cancelled
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Publish delivers evt, replacing any event the consumer has not picked up yet.
// It never blocks and is a no-op after Unsubscribe.
func (s *Subscription) Publish(evt Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	select {
	case <-s.events:
	default:
	}
	s.events <- evt
}

// Unsubscribe stops future deliveries. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	onStop := s.onStop
	s.mu.Unlock()

	if onStop != nil {
		onStop()
	}
}
