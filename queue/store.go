package queue

import (
	"context"
	"database/sql"
	"time"

	"github.com/componentize/repodata/db"
	"github.com/componentize/repodata/errors"
)

// Store handles persistence of ingestion requests
type Store struct {
	db *sql.DB
}

// NewStore creates a new ingestion queue store
func NewStore(database *sql.DB) *Store {
	return &Store{db: database}
}

// Enqueue validates and inserts a new pending request. It fails with a
// conflict when the (url, tag) pair already exists in the queue or has
// already been materialized into a version.
func (s *Store) Enqueue(ctx context.Context, url, tag string) (*Ingestion, error) {
	ing, err := NewIngestion(url, tag)
	if err != nil {
		return nil, err
	}

	// Reject pairs that have already been materialized. The queue side of
	// the same invariant is enforced by the UNIQUE(url, tag) constraint on
	// the insert below.
	var exists bool
	err = s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM versions WHERE url = ? AND tag = ?)", url, tag,
	).Scan(&exists)
	if err != nil {
		return nil, errors.Wrap(err, "check existing version")
	}
	if exists {
		return nil, errors.NewConflictError("version already exists for %s at %s", url, tag)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ingestion_queue (id, url, tag, attempts, claimed_at, eligible_at, created_at, updated_at)
		VALUES (?, ?, ?, 0, NULL, ?, ?, ?)
	`, ing.ID, ing.URL, ing.Tag, ing.EligibleAt, ing.CreatedAt, ing.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, errors.NewConflictError("ingestion already queued for %s at %s", url, tag)
		}
		return nil, errors.Wrap(err, "enqueue ingestion")
	}

	return ing, nil
}

// Claim selects the next eligible request and marks it running. Among
// unclaimed requests with attempts below maxAttempts whose eligibility
// time has passed, the oldest-by-last-update wins. The mark-as-claimed
// write is a conditional update checked via RowsAffected, so two workers
// racing for the same row cannot both succeed; the loser re-selects.
// Returns found=false when no request is eligible.
func (s *Store) Claim(ctx context.Context, maxAttempts int) (*Ingestion, bool, error) {
	for {
		now := time.Now().UTC()

		row := s.db.QueryRowContext(ctx, `
			SELECT `+ingestionColumns+`
			FROM ingestion_queue
			WHERE claimed_at IS NULL AND attempts < ? AND eligible_at <= ?
			ORDER BY updated_at ASC
			LIMIT 1
		`, maxAttempts, now)
		ing, err := scanIngestion(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, errors.Wrap(err, "query claim candidate")
		}

		res, err := s.db.ExecContext(ctx, `
			UPDATE ingestion_queue
			SET claimed_at = ?, updated_at = ?
			WHERE id = ? AND claimed_at IS NULL
		`, now, now, ing.ID)
		if err != nil {
			return nil, false, errors.Wrapf(err, "claim ingestion %s", ing.ID)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, false, errors.Wrap(err, "claim rows affected")
		}
		if affected == 0 {
			// Another worker got there first, re-select
			continue
		}

		claimedAt := now
		ing.ClaimedAt = &claimedAt
		ing.UpdatedAt = now
		return ing, true, nil
	}
}

// Settle finishes a claimed request. Success and non-recoverable failure
// delete the request; recoverable failure re-queues it with an incremented
// attempt count, a cleared claim, and an eligibility time pushed out by
// backoffBase*2^attempts from creation.
func (s *Store) Settle(ctx context.Context, ing *Ingestion, outcome Outcome, backoffBase time.Duration) error {
	switch outcome {
	case OutcomeSuccess, OutcomeNonRecoverableFailure:
		if _, err := s.db.ExecContext(ctx,
			"DELETE FROM ingestion_queue WHERE id = ?", ing.ID,
		); err != nil {
			return errors.Wrapf(err, "delete settled ingestion %s", ing.ID)
		}
		return nil

	case OutcomeRecoverableFailure:
		now := time.Now().UTC()
		attempts := ing.Attempts + 1
		eligibleAt := backoffEligibleAt(ing.CreatedAt, attempts, backoffBase)
		if _, err := s.db.ExecContext(ctx, `
			UPDATE ingestion_queue
			SET attempts = ?, claimed_at = NULL, eligible_at = ?, updated_at = ?
			WHERE id = ?
		`, attempts, eligibleAt, now, ing.ID); err != nil {
			return errors.Wrapf(err, "requeue ingestion %s", ing.ID)
		}
		ing.Attempts = attempts
		ing.ClaimedAt = nil
		ing.EligibleAt = eligibleAt
		ing.UpdatedAt = now
		return nil

	default:
		return errors.Newf("unknown settle outcome %d", outcome)
	}
}

// DiscardOverAttempted deletes every request whose attempt count has
// reached maxAttempts and returns the discarded rows for logging.
func (s *Store) DiscardOverAttempted(ctx context.Context, maxAttempts int) ([]*Ingestion, error) {
	discarded, err := s.list(ctx,
		"SELECT "+ingestionColumns+" FROM ingestion_queue WHERE attempts >= ?", maxAttempts)
	if err != nil {
		return nil, errors.Wrap(err, "query over-attempted ingestions")
	}

	if len(discarded) == 0 {
		return nil, nil
	}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM ingestion_queue WHERE attempts >= ?", maxAttempts,
	); err != nil {
		return nil, errors.Wrap(err, "delete over-attempted ingestions")
	}

	return discarded, nil
}

// ReleaseStuck clears the claim on every request claimed before cutoff,
// returning it to pending without touching its attempt count. This
// recovers requests whose claiming worker crashed or hung.
func (s *Store) ReleaseStuck(ctx context.Context, cutoff time.Time) ([]*Ingestion, error) {
	stuck, err := s.list(ctx,
		"SELECT "+ingestionColumns+" FROM ingestion_queue WHERE claimed_at IS NOT NULL AND claimed_at < ?",
		cutoff.UTC())
	if err != nil {
		return nil, errors.Wrap(err, "query stuck ingestions")
	}

	if len(stuck) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, `
		UPDATE ingestion_queue
		SET claimed_at = NULL, updated_at = ?
		WHERE claimed_at IS NOT NULL AND claimed_at < ?
	`, now, cutoff.UTC()); err != nil {
		return nil, errors.Wrap(err, "release stuck ingestions")
	}

	for _, ing := range stuck {
		ing.ClaimedAt = nil
	}
	return stuck, nil
}

// Get retrieves a request by id
func (s *Store) Get(ctx context.Context, id string) (*Ingestion, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+ingestionColumns+" FROM ingestion_queue WHERE id = ?", id)
	ing, err := scanIngestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("no ingestion with id %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get ingestion %s", id)
	}
	return ing, nil
}

// List returns all queued requests ordered by creation time
func (s *Store) List(ctx context.Context) ([]*Ingestion, error) {
	return s.list(ctx,
		"SELECT "+ingestionColumns+" FROM ingestion_queue ORDER BY created_at ASC")
}

// Delete removes a request by id
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM ingestion_queue WHERE id = ?", id)
	if err != nil {
		return errors.Wrapf(err, "delete ingestion %s", id)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete rows affected")
	}
	if affected == 0 {
		return errors.NewNotFoundError("no ingestion with id %s", id)
	}
	return nil
}

func (s *Store) list(ctx context.Context, query string, args ...interface{}) ([]*Ingestion, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list ingestions")
	}
	defer rows.Close()

	var ingestions []*Ingestion
	for rows.Next() {
		ing, err := scanIngestion(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan ingestion")
		}
		ingestions = append(ingestions, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate ingestions")
	}
	return ingestions, nil
}
