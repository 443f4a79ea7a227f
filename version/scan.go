package version

import (
	"database/sql"
	"encoding/json"

	"github.com/componentize/repodata/errors"
)

// versionColumns is the column list used by every version SELECT
const versionColumns = `id, repo_id, name, url, type, tag, version,
	version_major, version_minor, version_patch, version_prerelease,
	support_status, support_email, support_channel,
	manifests, markdown, created_at, updated_at`

// versionScanArgs holds the nullable and JSON-encoded targets needed when
// scanning a version row.
type versionScanArgs struct {
	Type              sql.NullString
	VersionPrerelease sql.NullString
	SupportStatus     sql.NullString
	SupportEmail      sql.NullString
	SupportChannel    sql.NullString
	ManifestsJSON     string
	MarkdownJSON      string
}

func scanTargets(v *Version, args *versionScanArgs) []interface{} {
	return []interface{}{
		&v.ID,
		&v.RepoID,
		&v.Name,
		&v.URL,
		&args.Type,
		&v.Tag,
		&v.Version,
		&v.VersionMajor,
		&v.VersionMinor,
		&v.VersionPatch,
		&args.VersionPrerelease,
		&args.SupportStatus,
		&args.SupportEmail,
		&args.SupportChannel,
		&args.ManifestsJSON,
		&args.MarkdownJSON,
		&v.CreatedAt,
		&v.UpdatedAt,
	}
}

func applyScanArgs(v *Version, args *versionScanArgs) error {
	v.Type = nullableString(args.Type)
	v.VersionPrerelease = nullableString(args.VersionPrerelease)
	v.SupportStatus = nullableString(args.SupportStatus)
	v.SupportEmail = nullableString(args.SupportEmail)
	v.SupportChannel = nullableString(args.SupportChannel)

	if err := json.Unmarshal([]byte(args.ManifestsJSON), &v.Manifests); err != nil {
		return errors.Wrapf(err, "unmarshal manifests for version %s", v.ID)
	}
	if err := json.Unmarshal([]byte(args.MarkdownJSON), &v.Markdown); err != nil {
		return errors.Wrapf(err, "unmarshal markdown for version %s", v.ID)
	}
	return nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	value := s.String
	return &value
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVersion(row rowScanner) (*Version, error) {
	var v Version
	var args versionScanArgs
	if err := row.Scan(scanTargets(&v, &args)...); err != nil {
		return nil, err
	}
	if err := applyScanArgs(&v, &args); err != nil {
		return nil, err
	}
	return &v, nil
}
