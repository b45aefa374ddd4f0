// Package collection keeps the in-memory mirror of a user's collection in
// step with the remote store and applies optimistic local mutations.
//
// The mirror is replaced wholesale by every snapshot the remote store emits.
// Mutations update the mirror first and then forward the write; a failed write
// is logged and returned but never rolled back, the next snapshot corrects it.
package collection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/amaumene/cinearchive/internal/metrics"
	"github.com/amaumene/cinearchive/internal/models"
	"github.com/amaumene/cinearchive/internal/remote"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotAttached is returned by mutations while no user is attached
	ErrNotAttached = errors.New("collection store is not attached")
	// ErrRecordNotFound is returned when the mirror has no record with the given ID
	ErrRecordNotFound = errors.New("record not found in collection")
	// ErrNotSynced is returned by creates issued before the first snapshot arrived
	ErrNotSynced = errors.New("collection has not received its first snapshot")
)

const defaultSyncWait = 10 * time.Second

// Store is the replicated collection store for one active user
type Store struct {
	adapter remote.Adapter
	metrics *metrics.Metrics
	logger  *logrus.Logger
	now     func() time.Time

	// attachMu serializes Attach and Detach
	attachMu sync.Mutex
	syncWait time.Duration

	mu           sync.Mutex
	userID       string
	sub          *remote.Subscription
	consumerDone chan struct{}
	synced       chan struct{} // closed once the first snapshot is applied
	records      []models.Record
	lastOrdinal  int

	updates chan struct{}
}

// NewStore creates a detached store
func NewStore(adapter remote.Adapter, m *metrics.Metrics, logger *logrus.Logger) *Store {
	return &Store{
		adapter:  adapter,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
		syncWait: defaultSyncWait,
		updates:  make(chan struct{}, 1),
	}
}

// Updates fires (coalesced) after every change to the mirror
func (s *Store) Updates() <-chan struct{} {
	return s.updates
}

// Attach subscribes to the user's collection. Attaching to another user
// detaches the current one first; re-attaching the same user is a no-op.
func (s *Store) Attach(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	s.attachMu.Lock()
	defer s.attachMu.Unlock()

	s.mu.Lock()
	if s.sub != nil && s.userID == userID {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.detach()

	sub, err := s.adapter.Subscribe(ctx, userID)
	if err != nil {
		s.metrics.SubscriptionFailed()
		return &remote.SubscriptionError{UserID: userID, Err: err}
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.userID = userID
	s.sub = sub
	s.consumerDone = done
	s.synced = make(chan struct{})
	s.records = nil
	s.lastOrdinal = 0
	s.mu.Unlock()

	go s.consume(sub, done)

	s.logger.WithField("user_id", userID).Info("Collection attached")
	return nil
}

// Detach cancels the subscription and clears the mirror. No-op when detached.
func (s *Store) Detach() {
	s.attachMu.Lock()
	defer s.attachMu.Unlock()
	s.detach()
}

func (s *Store) detach() {
	s.mu.Lock()
	sub := s.sub
	done := s.consumerDone
	userID := s.userID
	s.sub = nil
	s.consumerDone = nil
	s.synced = nil
	s.userID = ""
	s.records = nil
	s.lastOrdinal = 0
	s.mu.Unlock()

	if sub == nil {
		return
	}

	sub.Unsubscribe()
	<-done
	s.metrics.MirrorSize(0)
	s.notify()

	s.logger.WithField("user_id", userID).Info("Collection detached")
}

// Attached reports whether a user is attached
func (s *Store) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub != nil
}

// UserID returns the attached user, or "" when detached
func (s *Store) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Records returns a copy of the mirror in snapshot order
func (s *Store) Records() []models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Record returns a single record from the mirror
func (s *Store) Record(id string) (models.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return models.Record{}, false
	}
	return s.records[idx], true
}

// Resync asks the adapter to re-emit a full snapshot, if it supports it
func (s *Store) Resync(ctx context.Context) error {
	userID := s.UserID()
	if userID == "" {
		return ErrNotAttached
	}
	resyncer, ok := s.adapter.(remote.Resyncer)
	if !ok {
		return nil
	}
	return resyncer.Resync(ctx, userID)
}

func (s *Store) consume(sub *remote.Subscription, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-sub.Done():
			return
		case evt := <-sub.Events():
			s.apply(sub, evt)
		}
	}
}

// apply reconciles the mirror against one subscription event
func (s *Store) apply(sub *remote.Subscription, evt remote.Event) {
	s.mu.Lock()
	if s.sub != sub {
		s.mu.Unlock()
		return
	}

	if evt.Err != nil {
		userID := s.userID
		s.mu.Unlock()
		s.metrics.SubscriptionFailed()
		s.logger.WithError(evt.Err).WithField("user_id", userID).Error("Snapshot subscription failed, keeping last known collection")
		return
	}

	records := make([]models.Record, len(evt.Records))
	copy(records, evt.Records)
	s.records = records
	size := len(records)
	select {
	case <-s.synced:
	default:
		close(s.synced)
	}
	s.mu.Unlock()

	s.metrics.SnapshotApplied(size)
	s.notify()
	s.logger.WithField("count", size).Debug("Snapshot applied")
}

// CreateFromEnrichment assigns the creation defaults to the candidate, writes
// it to the remote store and inserts the confirmed record by ID. It waits for
// the first snapshot so the ordinal continues the stored sequence.
func (s *Store) CreateFromEnrichment(ctx context.Context, candidate models.Candidate) (models.Record, error) {
	sub, err := s.waitSynced(ctx)
	if err != nil {
		return models.Record{}, err
	}

	s.mu.Lock()
	if s.sub != sub {
		s.mu.Unlock()
		return models.Record{}, ErrNotAttached
	}
	userID := s.userID
	ordinal := s.nextOrdinal()
	s.mu.Unlock()

	record := models.NewRecord(candidate, ordinal, s.now())

	id, err := s.adapter.Create(ctx, userID, record)
	if err != nil {
		return models.Record{}, s.writeFailed("create", "", err)
	}
	record.ID = id
	record.UserID = userID

	s.mu.Lock()
	if s.sub == nil || s.userID != userID {
		s.mu.Unlock()
		return record, nil
	}
	// A snapshot may already carry the record; overwrite by ID so it never shows twice
	if idx := s.indexOf(id); idx >= 0 {
		s.records[idx] = record
	} else {
		s.records = append(s.records, record)
	}
	size := len(s.records)
	s.mu.Unlock()

	s.metrics.MirrorSize(size)
	s.notify()

	s.logger.WithFields(logrus.Fields{
		"id":      id,
		"title":   record.Title,
		"ordinal": record.Ordinal,
	}).Info("Record created")
	return record, nil
}

// SetProgress records the current season/episode of a series. Non-numeric
// or negative input is coerced to 0; movies are left untouched.
func (s *Store) SetProgress(ctx context.Context, id, season, episode string) (models.Record, error) {
	seasonN := CoerceProgress(season)
	episodeN := CoerceProgress(episode)

	s.mu.Lock()
	if s.sub == nil {
		s.mu.Unlock()
		return models.Record{}, ErrNotAttached
	}
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return models.Record{}, ErrRecordNotFound
	}
	if !s.records[idx].IsSeries() {
		record := s.records[idx]
		s.mu.Unlock()
		s.logger.WithField("id", id).Debug("Ignoring progress update for a movie")
		return record, nil
	}
	s.records[idx].CurrentSeason = seasonN
	s.records[idx].CurrentEpisode = episodeN
	record := s.records[idx]
	userID := s.userID
	s.mu.Unlock()

	s.notify()

	if seasonN == 0 && season != "0" || episodeN == 0 && episode != "0" {
		s.logger.WithFields(logrus.Fields{
			"season":  season,
			"episode": episode,
		}).Debug("Coerced progress input")
	}

	err := s.adapter.Update(ctx, userID, id, models.RecordUpdate{
		CurrentSeason:  &seasonN,
		CurrentEpisode: &episodeN,
	})
	if err != nil {
		return record, s.writeFailed("update", id, err)
	}
	return record, nil
}

// ToggleFavorite flips the favorite flag of a record
func (s *Store) ToggleFavorite(ctx context.Context, id string) (models.Record, error) {
	s.mu.Lock()
	if s.sub == nil {
		s.mu.Unlock()
		return models.Record{}, ErrNotAttached
	}
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return models.Record{}, ErrRecordNotFound
	}
	s.records[idx].IsFavorite = !s.records[idx].IsFavorite
	record := s.records[idx]
	userID := s.userID
	s.mu.Unlock()

	s.notify()

	favorite := record.IsFavorite
	if err := s.adapter.Update(ctx, userID, id, models.RecordUpdate{IsFavorite: &favorite}); err != nil {
		return record, s.writeFailed("update", id, err)
	}
	return record, nil
}

// RemoveRecord drops a record from the mirror and deletes it remotely.
// Removing an unknown ID still issues the (idempotent) remote delete.
func (s *Store) RemoveRecord(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.sub == nil {
		s.mu.Unlock()
		return ErrNotAttached
	}
	if idx := s.indexOf(id); idx >= 0 {
		s.records = append(s.records[:idx:idx], s.records[idx+1:]...)
	}
	size := len(s.records)
	userID := s.userID
	s.mu.Unlock()

	s.metrics.MirrorSize(size)
	s.notify()

	if err := s.adapter.Delete(ctx, userID, id); err != nil {
		return s.writeFailed("delete", id, err)
	}
	return nil
}

// waitSynced blocks until the current subscription has applied a snapshot
func (s *Store) waitSynced(ctx context.Context) (*remote.Subscription, error) {
	s.mu.Lock()
	sub := s.sub
	synced := s.synced
	s.mu.Unlock()

	if sub == nil {
		return nil, ErrNotAttached
	}

	timer := time.NewTimer(s.syncWait)
	defer timer.Stop()

	select {
	case <-synced:
		return sub, nil
	case <-sub.Done():
		return nil, ErrNotAttached
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrNotSynced
	}
}

func (s *Store) writeFailed(op, id string, err error) error {
	s.metrics.WriteFailed(op)
	s.logger.WithError(err).WithFields(logrus.Fields{
		"op": op,
		"id": id,
	}).Error("Remote write failed, local state kept until next snapshot")
	return err
}

// nextOrdinal must be called with s.mu held
func (s *Store) nextOrdinal() int {
	highest := s.lastOrdinal
	for _, r := range s.records {
		if r.Ordinal > highest {
			highest = r.Ordinal
		}
	}
	s.lastOrdinal = highest + 1
	return s.lastOrdinal
}

// indexOf must be called with s.mu held
func (s *Store) indexOf(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
