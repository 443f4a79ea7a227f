package ingest

import (
	"context"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/componentize/repodata/errors"
	"github.com/componentize/repodata/queue"
	"github.com/componentize/repodata/version"
)

// Manifest and document paths fetched at the tag ref. The component
// manifest is required; everything else is stored as null when absent.
const (
	componentManifestPath = "component.json"
	aboutManifestPath     = "about.json"
	bowerManifestPath     = "bower.json"
	imageSetManifestPath  = "imageset.json"
	packageManifestPath   = "package.json"

	designGuidelinesPath = "designguidelines.md"
	migrationPath        = "migration.md"
)

// Materializer turns a claimed (url, tag) pair into a persisted version
// record. It classifies its own failures but performs no retries; retry
// policy belongs to the fetch loop and the queue.
type Materializer struct {
	source         Source
	versions       *version.Store
	defaultEmail   string
	defaultChannel string
}

// NewMaterializer creates a version materializer
func NewMaterializer(source Source, versions *version.Store, defaultEmail, defaultChannel string) *Materializer {
	return &Materializer{
		source:         source,
		versions:       versions,
		defaultEmail:   defaultEmail,
		defaultChannel: defaultChannel,
	}
}

// Materialize fetches and normalizes the release at the request's tag and
// persists the resulting version. Failures are marked non-recoverable when
// retrying cannot help: unsupported host, missing tag, missing component
// manifest. Everything else is left recoverable.
func (m *Materializer) Materialize(ctx context.Context, ing *queue.Ingestion) (*version.Version, error) {
	if !IsValidSourceURL(ing.URL) {
		return nil, NonRecoverablef("ingestion URL %q is not a supported source repository", ing.URL)
	}
	owner, repo, err := ExtractOwnerRepo(ing.URL)
	if err != nil {
		return nil, MarkNonRecoverable(err)
	}

	ref := url.PathEscape(ing.Tag)

	exists, err := m.source.TagExists(ctx, owner, repo, ref)
	if err != nil {
		return nil, errors.Wrap(err, "check tag existence")
	}
	if !exists {
		return nil, NonRecoverablef("repo or tag does not exist: %s/%s at %s", owner, repo, ing.Tag)
	}

	// The component manifest decides ingestibility, fetch it first
	componentManifest, err := fetchManifest(ctx, m.source, owner, repo, ref, componentManifestPath)
	if err != nil {
		return nil, err
	}
	if componentManifest == nil {
		return nil, NonRecoverablef("repo does not contain a component manifest")
	}

	support := normalizeManifest(componentManifest, m.defaultEmail, m.defaultChannel)

	// The secondary manifests and documents are independent, fetch them
	// concurrently. Absence of any of them is not an error.
	manifests := version.Manifests{Component: componentManifest}
	var markdown version.Markdown

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		manifests.About, err = fetchManifest(groupCtx, m.source, owner, repo, ref, aboutManifestPath)
		return err
	})
	group.Go(func() (err error) {
		manifests.Bower, err = fetchManifest(groupCtx, m.source, owner, repo, ref, bowerManifestPath)
		return err
	})
	group.Go(func() (err error) {
		manifests.ImageSet, err = fetchManifest(groupCtx, m.source, owner, repo, ref, imageSetManifestPath)
		return err
	})
	group.Go(func() (err error) {
		manifests.Package, err = fetchManifest(groupCtx, m.source, owner, repo, ref, packageManifestPath)
		return err
	})
	group.Go(func() error {
		content, err := m.source.FetchReadme(groupCtx, owner, repo, ref)
		if err != nil {
			return errors.Wrap(err, "fetch readme")
		}
		if content != nil {
			readme := string(content)
			markdown.Readme = &readme
		}
		return nil
	})
	group.Go(func() (err error) {
		markdown.DesignGuidelines, err = fetchDocument(groupCtx, m.source, owner, repo, ref, designGuidelinesPath)
		return err
	})
	group.Go(func() (err error) {
		markdown.Migration, err = fetchDocument(groupCtx, m.source, owner, repo, ref, migrationPath)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	v, err := version.New(repo, ing.URL, ing.Tag,
		support.Type, support.Status, support.Email, support.Channel,
		manifests, markdown)
	if err != nil {
		// The tag was validated at enqueue time, so a parse failure here
		// will not improve with retries.
		return nil, MarkNonRecoverable(err)
	}

	if err := m.versions.Create(ctx, v); err != nil {
		if errors.IsConflictError(err) {
			// Another worker materialized the pair first
			return nil, MarkNonRecoverable(err)
		}
		return nil, err
	}

	return v, nil
}
