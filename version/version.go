// Package version defines the materialized version record: the normalized,
// immutable output of a successful ingestion.
package version

import (
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"

	"github.com/componentize/repodata/errors"
)

// Manifest is one fetched manifest document, parsed but not validated.
// Derived fields defensively re-check every type they read from it.
type Manifest map[string]interface{}

// Manifests is the bag of manifest documents fetched at the tag ref.
// Absent documents are nil.
type Manifests struct {
	Component Manifest `json:"component,omitempty"`
	About     Manifest `json:"about,omitempty"`
	Bower     Manifest `json:"bower,omitempty"`
	ImageSet  Manifest `json:"imageset,omitempty"`
	Package   Manifest `json:"package,omitempty"`
}

// Markdown is the bag of long-form text documents fetched at the tag ref.
// Absent documents are nil.
type Markdown struct {
	Readme           *string `json:"readme,omitempty"`
	DesignGuidelines *string `json:"designguidelines,omitempty"`
	Migration        *string `json:"migration,omitempty"`
}

// Version is one materialized release of a repository. Immutable once
// created apart from UpdatedAt bookkeeping.
type Version struct {
	ID     string  `json:"id"`
	RepoID string  `json:"repo_id"`
	Name   string  `json:"name"`
	URL    string  `json:"url"`
	Type   *string `json:"type"`

	Tag               string  `json:"tag"`
	Version           string  `json:"version"`
	VersionMajor      uint64  `json:"version_major"`
	VersionMinor      uint64  `json:"version_minor"`
	VersionPatch      uint64  `json:"version_patch"`
	VersionPrerelease *string `json:"version_prerelease"`

	SupportStatus  *string `json:"support_status"`
	SupportEmail   *string `json:"support_email"`
	SupportChannel *string `json:"support_channel"`

	Manifests Manifests `json:"manifests"`
	Markdown  Markdown  `json:"markdown"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RepoIDFromURL derives the deterministic repository identity from a source
// URL. The same URL always yields the same identity regardless of when or
// in which order versions are ingested.
func RepoIDFromURL(url string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String()
}

// NormalizeTag parses a semantic-version-shaped tag and returns its
// canonical form without any leading v.
func NormalizeTag(tag string) (*semver.Version, error) {
	parsed, err := semver.NewVersion(tag)
	if err != nil {
		return nil, errors.Wrapf(err, "tag %q is not a valid semantic version", tag)
	}
	return parsed, nil
}

// New builds a version record for a repository release, deriving the
// repository identity and the semver decomposition.
func New(name, url, tag string, typ, supportStatus, supportEmail, supportChannel *string, manifests Manifests, markdown Markdown) (*Version, error) {
	parsed, err := NormalizeTag(tag)
	if err != nil {
		return nil, err
	}

	var prerelease *string
	if pre := parsed.Prerelease(); pre != "" {
		prerelease = &pre
	}

	now := time.Now().UTC()
	return &Version{
		ID:                uuid.NewString(),
		RepoID:            RepoIDFromURL(url),
		Name:              name,
		URL:               url,
		Type:              typ,
		Tag:               tag,
		Version:           parsed.String(),
		VersionMajor:      parsed.Major(),
		VersionMinor:      parsed.Minor(),
		VersionPatch:      parsed.Patch(),
		VersionPrerelease: prerelease,
		SupportStatus:     supportStatus,
		SupportEmail:      supportEmail,
		SupportChannel:    supportChannel,
		Manifests:         manifests,
		Markdown:          markdown,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// IsPrerelease reports whether the version has a prerelease component
func (v *Version) IsPrerelease() bool {
	return v.VersionPrerelease != nil
}

// HasDefaultSupport reports whether the support contact resolved to the
// registry's default address, i.e. the component is looked after by the
// registry team rather than an external owner.
func (v *Version) HasDefaultSupport(defaultEmail string) bool {
	return v.SupportEmail != nil && *v.SupportEmail == defaultEmail
}
