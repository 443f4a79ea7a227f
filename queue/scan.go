package queue

import (
	"database/sql"
)

// ingestionColumns is the column list used by every ingestion SELECT
const ingestionColumns = "id, url, tag, attempts, claimed_at, eligible_at, created_at, updated_at"

// ingestionScanArgs holds the nullable targets needed when scanning an
// ingestion row.
type ingestionScanArgs struct {
	ClaimedAt sql.NullTime
}

// scanTargets returns scan destinations in ingestionColumns order
func scanTargets(ing *Ingestion, args *ingestionScanArgs) []interface{} {
	return []interface{}{
		&ing.ID,
		&ing.URL,
		&ing.Tag,
		&ing.Attempts,
		&args.ClaimedAt,
		&ing.EligibleAt,
		&ing.CreatedAt,
		&ing.UpdatedAt,
	}
}

// applyScanArgs copies nullable scan values onto the ingestion
func applyScanArgs(ing *Ingestion, args *ingestionScanArgs) {
	if args.ClaimedAt.Valid {
		claimedAt := args.ClaimedAt.Time
		ing.ClaimedAt = &claimedAt
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIngestion(row rowScanner) (*Ingestion, error) {
	var ing Ingestion
	var args ingestionScanArgs
	if err := row.Scan(scanTargets(&ing, &args)...); err != nil {
		return nil, err
	}
	applyScanArgs(&ing, &args)
	return &ing, nil
}
