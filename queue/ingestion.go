// Package queue provides the durable ingestion work queue: pending
// (url, tag) pairs waiting to be materialized into version records.
package queue

import (
	"net/url"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"

	"github.com/componentize/repodata/errors"
)

// Ingestion is a queued request to materialize one tagged release.
// A row is pending while ClaimedAt is nil and running while it is set.
// EligibleAt is the earliest time the request may be claimed; it starts at
// the creation time and moves out exponentially on recoverable failures.
type Ingestion struct {
	ID         string     `json:"id"`
	URL        string     `json:"url"`
	Tag        string     `json:"tag"`
	Attempts   int        `json:"attempts"`
	ClaimedAt  *time.Time `json:"claimed_at,omitempty"`
	EligibleAt time.Time  `json:"eligible_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewIngestion validates the (url, tag) pair and builds a pending request.
// The tag must be a valid semantic-version reference.
func NewIngestion(rawURL, tag string) (*Ingestion, error) {
	if rawURL == "" {
		return nil, errors.NewInvalidRequestError("url is required")
	}
	if tag == "" {
		return nil, errors.NewInvalidRequestError("tag is required")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme != "https" || parsed.Host == "" {
		return nil, errors.NewInvalidRequestError("url must be a valid https URL")
	}

	if _, err := semver.NewVersion(tag); err != nil {
		return nil, errors.NewInvalidRequestError("tag %q is not a valid semantic version", tag)
	}

	now := time.Now().UTC()
	return &Ingestion{
		ID:         uuid.NewString(),
		URL:        rawURL,
		Tag:        tag,
		EligibleAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// IsInProgress reports whether the request is currently claimed by a worker
func (i *Ingestion) IsInProgress() bool {
	return i.ClaimedAt != nil
}

// backoffEligibleAt returns the earliest claimable time for a request with
// the given attempt count: creation time plus base*2^attempts of
// exponential backoff.
func backoffEligibleAt(createdAt time.Time, attempts int, base time.Duration) time.Time {
	shift := attempts
	if shift > 20 {
		shift = 20
	}
	return createdAt.Add(base * time.Duration(1<<shift))
}

// Serialized is the external shape of a queue item, used by the HTTP
// surface and the CLI.
type Serialized struct {
	ID   string `json:"id"`
	Repo struct {
		URL string `json:"url"`
		Tag string `json:"tag"`
	} `json:"repo"`
	Progress struct {
		IsInProgress bool       `json:"isInProgress"`
		StartTime    *time.Time `json:"startTime"`
		Attempts     int        `json:"attempts"`
	} `json:"progress"`
	Created     time.Time `json:"created"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Serialize returns the external representation of the request
func (i *Ingestion) Serialize() Serialized {
	var s Serialized
	s.ID = i.ID
	s.Repo.URL = i.URL
	s.Repo.Tag = i.Tag
	s.Progress.IsInProgress = i.IsInProgress()
	s.Progress.StartTime = i.ClaimedAt
	s.Progress.Attempts = i.Attempts
	s.Created = i.CreatedAt
	s.LastUpdated = i.UpdatedAt
	return s
}

// Outcome describes how a claimed request settled
type Outcome int

const (
	// OutcomeSuccess deletes the request: the version was materialized.
	OutcomeSuccess Outcome = iota
	// OutcomeRecoverableFailure re-queues the request with an incremented
	// attempt count.
	OutcomeRecoverableFailure
	// OutcomeNonRecoverableFailure deletes the request: retrying cannot
	// help (unsupported host, missing tag, missing manifest).
	OutcomeNonRecoverableFailure
)
