package ingest

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/componentize/repodata/errors"
	"github.com/componentize/repodata/version"
)

// Source is the source-host fetch interface the materializer depends on.
// FetchFile and FetchReadme return (nil, nil) when the document does not
// exist at the ref; any other failure is an error.
type Source interface {
	TagExists(ctx context.Context, owner, repo, tag string) (bool, error)
	FetchFile(ctx context.Context, owner, repo, ref, path string) ([]byte, error)
	FetchReadme(ctx context.Context, owner, repo, ref string) ([]byte, error)
}

// sourceURLPattern matches the supported source-host repository URLs.
// https only, mirroring the admission check at enqueue.
var sourceURLPattern = regexp.MustCompile(`(?i)^https://(www\.)?github\.com/([^/]+)/([^/]+)/?`)

// IsValidSourceURL reports whether a URL points at the supported source host
func IsValidSourceURL(url string) bool {
	return sourceURLPattern.MatchString(url)
}

// ExtractOwnerRepo resolves the owner and repository name from a source URL
func ExtractOwnerRepo(url string) (owner, repo string, err error) {
	matches := sourceURLPattern.FindStringSubmatch(url)
	if matches == nil {
		return "", "", errors.Newf("url %q is not a supported source repository", url)
	}
	return matches[2], matches[3], nil
}

// fetchManifest fetches and parses one JSON manifest at the ref. An absent
// file yields a nil manifest; malformed JSON is an error (transient by
// policy, the host may have served a partial response).
func fetchManifest(ctx context.Context, src Source, owner, repo, ref, path string) (version.Manifest, error) {
	content, err := src.FetchFile(ctx, owner, repo, ref, path)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", path)
	}
	if content == nil {
		return nil, nil
	}

	var manifest version.Manifest
	if err := json.Unmarshal(content, &manifest); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return manifest, nil
}

// fetchDocument fetches one long-form text document at the ref, returning
// nil when absent.
func fetchDocument(ctx context.Context, src Source, owner, repo, ref, path string) (*string, error) {
	content, err := src.FetchFile(ctx, owner, repo, ref, path)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", path)
	}
	if content == nil {
		return nil, nil
	}
	text := string(content)
	return &text, nil
}
