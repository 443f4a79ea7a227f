package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/componentize/repodata/errors"
	repotest "github.com/componentize/repodata/internal/testing"
	"github.com/componentize/repodata/queue"
	"github.com/componentize/repodata/version"
)

// fakeSource serves fetches from an in-memory file map. A nil entry means
// the file does not exist at the ref.
type fakeSource struct {
	tagExists bool
	tagErr    error
	files     map[string][]byte
	fileErrs  map[string]error
	readme    []byte
	readmeErr error
}

func (s *fakeSource) TagExists(ctx context.Context, owner, repo, tag string) (bool, error) {
	return s.tagExists, s.tagErr
}

func (s *fakeSource) FetchFile(ctx context.Context, owner, repo, ref, path string) ([]byte, error) {
	if err, ok := s.fileErrs[path]; ok {
		return nil, err
	}
	return s.files[path], nil
}

func (s *fakeSource) FetchReadme(ctx context.Context, owner, repo, ref string) ([]byte, error) {
	return s.readme, s.readmeErr
}

func newTestMaterializer(t *testing.T, source Source) (*Materializer, *version.Store) {
	t.Helper()
	versions := version.NewStore(repotest.CreateTestDB(t))
	return NewMaterializer(source, versions, testDefaultEmail, testDefaultChannel), versions
}

func testIngestion(t *testing.T, url, tag string) *queue.Ingestion {
	t.Helper()
	ing, err := queue.NewIngestion(url, tag)
	require.NoError(t, err)
	return ing
}

func TestMaterializer_Materialize(t *testing.T) {
	source := &fakeSource{
		tagExists: true,
		files: map[string][]byte{
			"component.json": []byte(`{"type":"module","supportStatus":"active","support":"team@example.com","keywords":"table, grid"}`),
			"bower.json":     []byte(`{"name":"o-table","main":"main.scss"}`),
		},
		readme: []byte("# o-table\n"),
	}
	m, versions := newTestMaterializer(t, source)

	ing := testIngestion(t, "https://github.com/componentize/o-table", "v1.2.3")
	v, err := m.Materialize(context.Background(), ing)
	require.NoError(t, err)

	assert.Equal(t, "o-table", v.Name)
	assert.Equal(t, "1.2.3", v.Version)
	assert.Equal(t, uint64(1), v.VersionMajor)
	require.NotNil(t, v.Type)
	assert.Equal(t, "module", *v.Type)
	require.NotNil(t, v.SupportEmail)
	assert.Equal(t, "team@example.com", *v.SupportEmail)
	assert.Nil(t, v.SupportChannel)
	require.NotNil(t, v.Markdown.Readme)
	assert.Equal(t, "# o-table\n", *v.Markdown.Readme)
	assert.NotNil(t, v.Manifests.Bower)
	assert.Nil(t, v.Manifests.About)

	// The version must be persisted under the request's repo identity
	stored, err := versions.GetByURLAndTag(context.Background(), ing.URL, ing.Tag)
	require.NoError(t, err)
	assert.Equal(t, v.ID, stored.ID)
	assert.Equal(t, version.RepoIDFromURL(ing.URL), stored.RepoID)
}

func TestMaterializer_Materialize_UnsupportedHost(t *testing.T) {
	m, _ := newTestMaterializer(t, &fakeSource{tagExists: true})

	ing := testIngestion(t, "https://gitlab.example.com/acme/o-table", "v1.0.0")
	_, err := m.Materialize(context.Background(), ing)
	require.Error(t, err)
	assert.False(t, IsRecoverable(err))
}

func TestMaterializer_Materialize_MissingTag(t *testing.T) {
	m, _ := newTestMaterializer(t, &fakeSource{tagExists: false})

	ing := testIngestion(t, "https://github.com/componentize/o-table", "v9.9.9")
	_, err := m.Materialize(context.Background(), ing)
	require.Error(t, err)
	assert.False(t, IsRecoverable(err))
}

func TestMaterializer_Materialize_MissingComponentManifest(t *testing.T) {
	source := &fakeSource{
		tagExists: true,
		files: map[string][]byte{
			"package.json": []byte(`{"name":"not-a-component"}`),
		},
	}
	m, _ := newTestMaterializer(t, source)

	ing := testIngestion(t, "https://github.com/componentize/not-a-component", "v1.0.0")
	_, err := m.Materialize(context.Background(), ing)
	require.Error(t, err)
	assert.False(t, IsRecoverable(err))
}

func TestMaterializer_Materialize_TransientFetchFailure(t *testing.T) {
	source := &fakeSource{
		tagExists: true,
		files: map[string][]byte{
			"component.json": []byte(`{"type":"module"}`),
		},
		fileErrs: map[string]error{
			"bower.json": errors.New("connection reset"),
		},
	}
	m, _ := newTestMaterializer(t, source)

	ing := testIngestion(t, "https://github.com/componentize/o-table", "v1.0.0")
	_, err := m.Materialize(context.Background(), ing)
	require.Error(t, err)
	assert.True(t, IsRecoverable(err))
}

func TestMaterializer_Materialize_TagCheckFailure(t *testing.T) {
	m, _ := newTestMaterializer(t, &fakeSource{tagErr: errors.New("upstream 502")})

	ing := testIngestion(t, "https://github.com/componentize/o-table", "v1.0.0")
	_, err := m.Materialize(context.Background(), ing)
	require.Error(t, err)
	assert.True(t, IsRecoverable(err))
}

func TestMaterializer_Materialize_MalformedManifest(t *testing.T) {
	source := &fakeSource{
		tagExists: true,
		files: map[string][]byte{
			"component.json": []byte(`{"type": mod`),
		},
	}
	m, _ := newTestMaterializer(t, source)

	ing := testIngestion(t, "https://github.com/componentize/o-table", "v1.0.0")
	_, err := m.Materialize(context.Background(), ing)
	require.Error(t, err)
	assert.True(t, IsRecoverable(err))
}

func TestMaterializer_Materialize_DuplicateVersion(t *testing.T) {
	source := &fakeSource{
		tagExists: true,
		files: map[string][]byte{
			"component.json": []byte(`{"type":"module"}`),
		},
	}
	m, _ := newTestMaterializer(t, source)

	ing := testIngestion(t, "https://github.com/componentize/o-table", "v1.0.0")
	_, err := m.Materialize(context.Background(), ing)
	require.NoError(t, err)

	// Materializing the same pair again hits the unique constraint
	_, err = m.Materialize(context.Background(), ing)
	require.Error(t, err)
	assert.False(t, IsRecoverable(err))
}

func TestFetchManifest_Absent(t *testing.T) {
	manifest, err := fetchManifest(context.Background(), &fakeSource{}, "acme", "o-table", "v1.0.0", "about.json")
	require.NoError(t, err)
	assert.Nil(t, manifest)
}

func TestIsValidSourceURL(t *testing.T) {
	assert.True(t, IsValidSourceURL("https://github.com/acme/o-table"))
	assert.True(t, IsValidSourceURL("https://www.github.com/acme/o-table/"))
	assert.False(t, IsValidSourceURL("http://github.com/acme/o-table"))
	assert.False(t, IsValidSourceURL("https://bitbucket.org/acme/o-table"))
	assert.False(t, IsValidSourceURL("github.com/acme/o-table"))
}

func TestExtractOwnerRepo(t *testing.T) {
	owner, repo, err := ExtractOwnerRepo("https://github.com/Acme/o-table")
	require.NoError(t, err)
	assert.Equal(t, "Acme", owner)
	assert.Equal(t, "o-table", repo)

	_, _, err = ExtractOwnerRepo("https://example.com/acme/o-table")
	assert.Error(t, err)
}
