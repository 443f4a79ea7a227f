package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/componentize/repodata/queue"
	"github.com/componentize/repodata/version"
)

// Notifier receives each successfully materialized version. It decides for
// itself whether to announce; its failures must never fail the ingestion.
type Notifier interface {
	Announce(ctx context.Context, v *version.Version) error
}

// LoopConfig holds the fetch loop cadence and retry policy
type LoopConfig struct {
	// PollInterval between ticks after a claim that found work, so a busy
	// queue drains quickly.
	PollInterval time.Duration
	// IdlePollInterval between ticks when the queue was empty.
	IdlePollInterval time.Duration
	// BackoffBase for per-request exponential retry delays.
	BackoffBase time.Duration
	// MaxAttempts above which requests stop being claimed.
	MaxAttempts int
}

// Loop is the single-flight fetch loop: claim, materialize, settle,
// re-arm. Exactly one claim+materialize+settle sequence is in flight per
// worker process; running multiple workers is safe because the claim is
// atomic at the store.
type Loop struct {
	store        *queue.Store
	materializer *Materializer
	notifier     Notifier
	config       LoopConfig
	logger       *zap.SugaredLogger
}

// NewLoop creates a fetch loop. notifier may be nil.
func NewLoop(store *queue.Store, materializer *Materializer, notifier Notifier, config LoopConfig, logger *zap.SugaredLogger) *Loop {
	return &Loop{
		store:        store,
		materializer: materializer,
		notifier:     notifier,
		config:       config,
		logger:       logger,
	}
}

// Run executes ticks until the context is cancelled. The delay before the
// next tick is the previous tick's outcome, threaded through the timer
// rather than shared state.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Infow("Fetch loop started",
		"poll_interval", l.config.PollInterval,
		"idle_poll_interval", l.config.IdlePollInterval,
		"max_attempts", l.config.MaxAttempts,
	)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Infow("Fetch loop stopped")
			return
		case <-timer.C:
			timer.Reset(l.Tick(ctx))
		}
	}
}

// Tick performs one claim+materialize+settle sequence and returns the
// delay before the next tick. Failures never propagate: every path settles
// the request and reschedules.
func (l *Loop) Tick(ctx context.Context) time.Duration {
	ing, found, err := l.store.Claim(ctx, l.config.MaxAttempts)
	if err != nil {
		l.logger.Errorw("Failed to claim ingestion", "error", err)
		return l.config.IdlePollInterval
	}
	if !found {
		return l.config.IdlePollInterval
	}

	l.logger.Infow("Ingestion attempt",
		"ingestion_id", ing.ID,
		"url", ing.URL,
		"tag", ing.Tag,
		"attempts", ing.Attempts,
	)

	v, err := l.materializer.Materialize(ctx, ing)
	if err != nil {
		return l.settleFailure(ctx, ing, err)
	}

	l.logger.Infow("Ingestion success",
		"ingestion_id", ing.ID,
		"url", ing.URL,
		"tag", ing.Tag,
		"version_id", v.ID,
	)
	if err := l.store.Settle(ctx, ing, queue.OutcomeSuccess, l.config.BackoffBase); err != nil {
		l.logger.Errorw("Failed to settle successful ingestion",
			"ingestion_id", ing.ID, "error", err)
	}

	if l.notifier != nil {
		if err := l.notifier.Announce(ctx, v); err != nil {
			l.logger.Errorw("Failed to announce new version",
				"version_id", v.ID, "error", err)
		}
	}

	return l.config.PollInterval
}

// settleFailure interprets the materializer's classification: recoverable
// failures re-queue with an incremented attempt count, permanent ones are
// discarded. A rate-limited failure widens the next poll until the
// upstream reset time.
func (l *Loop) settleFailure(ctx context.Context, ing *queue.Ingestion, materializeErr error) time.Duration {
	recoverable := IsRecoverable(materializeErr)

	l.logger.Warnw("Ingestion error",
		"ingestion_id", ing.ID,
		"url", ing.URL,
		"tag", ing.Tag,
		"attempts", ing.Attempts,
		"recoverable", recoverable,
		"error", materializeErr,
	)

	outcome := queue.OutcomeNonRecoverableFailure
	if recoverable {
		outcome = queue.OutcomeRecoverableFailure
	}
	if err := l.store.Settle(ctx, ing, outcome, l.config.BackoffBase); err != nil {
		l.logger.Errorw("Failed to settle errored ingestion",
			"ingestion_id", ing.ID, "error", err)
	}

	if resetAt, ok := RateLimitResetAt(materializeErr); ok {
		wait := time.Until(resetAt)
		if wait > l.config.PollInterval {
			l.logger.Infow("Rate limited, widening next poll",
				"next_poll_ms", wait.Milliseconds(),
				"reset_at", resetAt,
			)
			return wait
		}
	}

	return l.config.PollInterval
}
