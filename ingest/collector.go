package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/componentize/repodata/queue"
)

// Collector periodically sweeps the ingestion queue: requests past the
// attempt ceiling are discarded, and claims held longer than the maximum
// run time are released so another worker can pick them up.
type Collector struct {
	store       *queue.Store
	interval    time.Duration
	maxAttempts int
	maxRunTime  time.Duration
	logger      *zap.SugaredLogger
}

// NewCollector creates a queue garbage collector.
func NewCollector(store *queue.Store, interval time.Duration, maxAttempts int, maxRunTime time.Duration, logger *zap.SugaredLogger) *Collector {
	return &Collector{
		store:       store,
		interval:    interval,
		maxAttempts: maxAttempts,
		maxRunTime:  maxRunTime,
		logger:      logger,
	}
}

// Run sweeps immediately, then on a fixed interval until the context is
// cancelled. Sweep errors are logged and the next sweep is scheduled
// regardless.
func (c *Collector) Run(ctx context.Context) {
	c.logger.Infow("Queue collector started",
		"interval", c.interval,
		"max_attempts", c.maxAttempts,
		"max_run_time", c.maxRunTime,
	)

	// Sweep once at startup so claims orphaned by a crash are released
	// without waiting out a full interval.
	c.Sweep(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Infow("Queue collector stopped")
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Sweep runs both collection passes once. The passes are independent: a
// failure in one never prevents the other.
func (c *Collector) Sweep(ctx context.Context) {
	discarded, err := c.store.DiscardOverAttempted(ctx, c.maxAttempts)
	if err != nil {
		c.logger.Errorw("Failed to discard over-attempted ingestions", "error", err)
	}
	for _, ing := range discarded {
		c.logger.Warnw("Ingestion discarded after repeated failures",
			"ingestion_id", ing.ID,
			"url", ing.URL,
			"tag", ing.Tag,
			"attempts", ing.Attempts,
		)
	}

	cutoff := time.Now().Add(-c.maxRunTime)
	released, err := c.store.ReleaseStuck(ctx, cutoff)
	if err != nil {
		c.logger.Errorw("Failed to release stuck ingestions", "error", err)
	}
	for _, ing := range released {
		c.logger.Warnw("Stuck ingestion released",
			"ingestion_id", ing.ID,
			"url", ing.URL,
			"tag", ing.Tag,
			"attempts", ing.Attempts,
		)
	}
}
