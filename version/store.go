package version

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/componentize/repodata/db"
	"github.com/componentize/repodata/errors"
)

// semverOrder sorts newest-first the way semver ordering requires: major,
// then minor, then patch, then prerelease. NULLS FIRST keeps a stable
// release above prereleases of the same triple.
const semverOrder = `version_major DESC, version_minor DESC, version_patch DESC, version_prerelease DESC NULLS FIRST`

// Store handles persistence of materialized version records
type Store struct {
	db *sql.DB
}

// NewStore creates a new version store
func NewStore(database *sql.DB) *Store {
	return &Store{db: database}
}

// Create inserts a new version record. Duplicate (repository, tag) pairs
// fail with a conflict.
func (s *Store) Create(ctx context.Context, v *Version) error {
	manifestsJSON, err := json.Marshal(v.Manifests)
	if err != nil {
		return errors.Wrap(err, "marshal manifests")
	}
	markdownJSON, err := json.Marshal(v.Markdown)
	if err != nil {
		return errors.Wrap(err, "marshal markdown")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO versions (
			id, repo_id, name, url, type, tag, version,
			version_major, version_minor, version_patch, version_prerelease,
			support_status, support_email, support_channel,
			manifests, markdown, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		v.ID, v.RepoID, v.Name, v.URL, nullString(v.Type), v.Tag, v.Version,
		v.VersionMajor, v.VersionMinor, v.VersionPatch, nullString(v.VersionPrerelease),
		nullString(v.SupportStatus), nullString(v.SupportEmail), nullString(v.SupportChannel),
		string(manifestsJSON), string(markdownJSON), v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return errors.NewConflictError("version already exists for %s at %s", v.URL, v.Tag)
		}
		return errors.Wrap(err, "create version")
	}
	return nil
}

// ExistsByURLAndTag reports whether a version has been materialized for the
// (url, tag) pair.
func (s *Store) ExistsByURLAndTag(ctx context.Context, url, tag string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM versions WHERE url = ? AND tag = ?)", url, tag,
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "check version existence")
	}
	return exists, nil
}

// GetByURLAndTag retrieves the version for a (url, tag) pair
func (s *Store) GetByURLAndTag(ctx context.Context, url, tag string) (*Version, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+versionColumns+" FROM versions WHERE url = ? AND tag = ?", url, tag)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("no version for %s at %s", url, tag)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get version by url and tag")
	}
	return v, nil
}

// GetByRepoIDAndID retrieves one version of a repository
func (s *Store) GetByRepoIDAndID(ctx context.Context, repoID, id string) (*Version, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+versionColumns+" FROM versions WHERE repo_id = ? AND id = ?", repoID, id)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("no version %s for repo %s", id, repoID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get version")
	}
	return v, nil
}

// ListByRepoID returns all versions of a repository, newest first
func (s *Store) ListByRepoID(ctx context.Context, repoID string) ([]*Version, error) {
	return s.list(ctx,
		"SELECT "+versionColumns+" FROM versions WHERE repo_id = ? ORDER BY "+semverOrder,
		repoID)
}

// LatestByRepoID returns the newest version of a repository
func (s *Store) LatestByRepoID(ctx context.Context, repoID string) (*Version, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+versionColumns+" FROM versions WHERE repo_id = ? ORDER BY "+semverOrder+" LIMIT 1",
		repoID)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("no versions for repo %s", repoID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get latest version")
	}
	return v, nil
}

// ListRepos returns the latest stable version of every known repository.
// Prereleases are excluded so a repository's entry is its most recent
// stable release.
func (s *Store) ListRepos(ctx context.Context) ([]*Version, error) {
	versions, err := s.list(ctx, `
		SELECT `+versionColumns+`
		FROM versions
		WHERE version_prerelease IS NULL
		ORDER BY name ASC, `+semverOrder)
	if err != nil {
		return nil, err
	}

	// First row per name is its highest stable version
	var repos []*Version
	seen := map[string]bool{}
	for _, v := range versions {
		if seen[v.Name] {
			continue
		}
		seen[v.Name] = true
		repos = append(repos, v)
	}
	return repos, nil
}

func (s *Store) list(ctx context.Context, query string, args ...interface{}) ([]*Version, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list versions")
	}
	defer rows.Close()

	var versions []*Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan version")
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate versions")
	}
	return versions, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
