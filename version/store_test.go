package version

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/componentize/repodata/errors"
	repotest "github.com/componentize/repodata/internal/testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(repotest.CreateTestDB(t))
}

func mustCreate(t *testing.T, store *Store, url, tag string) *Version {
	t.Helper()
	v, err := New("widget", url, tag, strPtr("module"), strPtr("active"),
		strPtr("team@x.com"), nil,
		Manifests{Component: Manifest{"description": "a widget"}},
		Markdown{Readme: strPtr("hello")})
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), v))
	return v
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created := mustCreate(t, store, "https://github.com/org/widget", "v1.2.3")

	loaded, err := store.GetByURLAndTag(ctx, "https://github.com/org/widget", "v1.2.3")
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
	assert.Equal(t, created.RepoID, loaded.RepoID)
	assert.Equal(t, "1.2.3", loaded.Version)
	require.NotNil(t, loaded.Type)
	assert.Equal(t, "module", *loaded.Type)
	require.NotNil(t, loaded.Markdown.Readme)
	assert.Equal(t, "hello", *loaded.Markdown.Readme)
	require.NotNil(t, loaded.Description())
	assert.Equal(t, "a widget", *loaded.Description())
}

func TestCreateDuplicateConflicts(t *testing.T) {
	store := newTestStore(t)

	mustCreate(t, store, "https://github.com/org/widget", "v1.2.3")

	dup, err := New("widget", "https://github.com/org/widget", "v1.2.3",
		nil, nil, nil, nil, Manifests{}, Markdown{})
	require.NoError(t, err)
	err = store.Create(context.Background(), dup)
	assert.True(t, errors.IsConflictError(err), "got %v", err)
}

func TestExistsByURLAndTag(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exists, err := store.ExistsByURLAndTag(ctx, "https://github.com/org/widget", "v1.2.3")
	require.NoError(t, err)
	assert.False(t, exists)

	mustCreate(t, store, "https://github.com/org/widget", "v1.2.3")

	exists, err = store.ExistsByURLAndTag(ctx, "https://github.com/org/widget", "v1.2.3")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestListByRepoIDOrdersBySemver(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, store, "https://github.com/org/widget", "v1.2.3")
	mustCreate(t, store, "https://github.com/org/widget", "v10.0.0")
	mustCreate(t, store, "https://github.com/org/widget", "v2.0.0")

	repoID := RepoIDFromURL("https://github.com/org/widget")
	versions, err := store.ListByRepoID(ctx, repoID)
	require.NoError(t, err)
	require.Len(t, versions, 3)

	// Numeric semver ordering, not lexicographic: 10 > 2 > 1
	assert.Equal(t, "10.0.0", versions[0].Version)
	assert.Equal(t, "2.0.0", versions[1].Version)
	assert.Equal(t, "1.2.3", versions[2].Version)

	latest, err := store.LatestByRepoID(ctx, repoID)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0", latest.Version)
}

func TestListReposLatestStablePerName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, store, "https://github.com/org/widget", "v1.0.0")
	mustCreate(t, store, "https://github.com/org/widget", "v2.0.0")
	mustCreate(t, store, "https://github.com/org/widget", "v3.0.0-beta.1")

	repos, err := store.ListRepos(ctx)
	require.NoError(t, err)
	require.Len(t, repos, 1)

	// The prerelease is newer but must not represent the repository
	assert.Equal(t, "2.0.0", repos[0].Version)
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetByURLAndTag(ctx, "https://github.com/org/none", "v1.0.0")
	assert.True(t, errors.IsNotFoundError(err))

	_, err = store.LatestByRepoID(ctx, "missing")
	assert.True(t, errors.IsNotFoundError(err))
}
