package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/cinearchive/internal/collection"
	"github.com/amaumene/cinearchive/internal/models"
	"github.com/amaumene/cinearchive/internal/view"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Collection is the part of the collection store the scheduled jobs use
type Collection interface {
	UserID() string
	Records() []models.Record
	Resync(ctx context.Context) error
}

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron           *cron.Cron
	collection     Collection
	resyncInterval time.Duration
	jobTimeout     time.Duration
	logger         *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(coll Collection, resyncInterval time.Duration, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:           cron.New(),
		collection:     coll,
		resyncInterval: resyncInterval,
		jobTimeout:     30 * time.Second,
		logger:         logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if s.resyncInterval < time.Second {
		return fmt.Errorf("invalid resync interval %s", s.resyncInterval)
	}
	s.logger.WithField("resync_interval", s.resyncInterval.String()).Info("Starting scheduler")

	// Periodically re-read the collection so a missed snapshot is recovered
	_, err := s.cron.AddFunc("@every "+s.resyncInterval.String(), func() {
		s.runResync()
	})
	if err != nil {
		return fmt.Errorf("failed to add resync job: %w", err)
	}

	// Every hour: log collection stats
	_, err = s.cron.AddFunc("0 * * * *", func() {
		s.runStats()
	})
	if err != nil {
		return fmt.Errorf("failed to add stats job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// runResync executes the resync job
func (s *Scheduler) runResync() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	err := s.collection.Resync(ctx)
	switch {
	case errors.Is(err, collection.ErrNotAttached):
		s.logger.Debug("Skipping resync, no user attached")
	case err != nil:
		s.logger.WithError(err).Error("Resync job failed")
	default:
		s.logger.WithField("user_id", s.collection.UserID()).Debug("Resync job completed")
	}
}

// runStats logs a summary of the mirrored collection
func (s *Scheduler) runStats() {
	stats := view.Summarize(s.collection.Records())
	s.logger.WithFields(logrus.Fields{
		"user_id":   s.collection.UserID(),
		"total":     stats.Total,
		"movies":    stats.Movies,
		"series":    stats.Series,
		"watching":  stats.Watching,
		"to_watch":  stats.ToWatch,
		"watched":   stats.Watched,
		"favorites": stats.Favorites,
	}).Info("Collection stats")
}
