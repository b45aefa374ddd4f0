package remote

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/amaumene/cinearchive/internal/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxWriteRetries = 3

// BoltAdapter serves the remote store contract from the bolthold database and
// fans out a full snapshot to every subscriber of a user after each write
type BoltAdapter struct {
	db      *models.Database
	logger  *logrus.Logger
	tracer  trace.Tracer
	backoff func() backoff.BackOff

	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

// NewBoltAdapter creates a new adapter over db
func NewBoltAdapter(db *models.Database, logger *logrus.Logger) *BoltAdapter {
	return &BoltAdapter{
		db:     db,
		logger: logger,
		tracer: otel.Tracer("github.com/amaumene/cinearchive/internal/remote"),
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxInterval = time.Second
			return backoff.WithMaxRetries(b, maxWriteRetries)
		},
		subs: make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe registers a subscriber for the user and delivers the current snapshot
func (a *BoltAdapter) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sub *Subscription
	sub = NewSubscription(userID, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.subs[userID], sub)
		if len(a.subs[userID]) == 0 {
			delete(a.subs, userID)
		}
	})

	a.mu.Lock()
	if a.subs[userID] == nil {
		a.subs[userID] = make(map[*Subscription]struct{})
	}
	a.subs[userID][sub] = struct{}{}
	a.mu.Unlock()

	a.logger.WithField("user_id", userID).Debug("Subscriber registered")
	sub.Publish(a.snapshot(userID))
	return sub, nil
}

// Resync re-emits the current snapshot to every subscriber of the user
func (a *BoltAdapter) Resync(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.publish(userID)
	return nil
}

// Create persists a new record and returns its assigned ID
func (a *BoltAdapter) Create(ctx context.Context, userID string, record models.Record) (string, error) {
	var id string
	err := a.write(ctx, "create", userID, "", func() error {
		var err error
		id, err = a.db.CreateRecord(userID, record)
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Update merges the given fields into an existing record
func (a *BoltAdapter) Update(ctx context.Context, userID, id string, update models.RecordUpdate) error {
	return a.write(ctx, "update", userID, id, func() error {
		return a.db.UpdateRecord(userID, id, update)
	})
}

// Delete removes a record; deleting a missing record succeeds
func (a *BoltAdapter) Delete(ctx context.Context, userID, id string) error {
	return a.write(ctx, "delete", userID, id, func() error {
		return a.db.DeleteRecord(userID, id)
	})
}

// write runs op with retries, then notifies the user's subscribers
func (a *BoltAdapter) write(ctx context.Context, op, userID, id string, fn func() error) error {
	ctx, span := a.tracer.Start(ctx, "remote."+op, trace.WithAttributes(
		attribute.String("user_id", userID),
		attribute.String("record_id", id),
	))
	defer span.End()

	err := backoff.Retry(func() error {
		err := fn()
		if errors.Is(err, models.ErrNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(a.backoff(), ctx))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" failed")
		return &WriteError{Op: op, UserID: userID, ID: id, Err: err}
	}

	a.publish(userID)
	return nil
}

func (a *BoltAdapter) publish(userID string) {
	a.mu.Lock()
	subs := make([]*Subscription, 0, len(a.subs[userID]))
	for sub := range a.subs[userID] {
		subs = append(subs, sub)
	}
	a.mu.Unlock()

	if len(subs) == 0 {
		return
	}

	evt := a.snapshot(userID)
	for _, sub := range subs {
		sub.Publish(evt)
	}
}

func (a *BoltAdapter) snapshot(userID string) Event {
	records, err := a.db.GetRecordsByUser(userID)
	if err != nil {
		a.logger.WithError(err).WithField("user_id", userID).Error("Failed to load snapshot")
		return Event{Err: &SubscriptionError{UserID: userID, Err: err}}
	}
	return Event{Records: records}
}
