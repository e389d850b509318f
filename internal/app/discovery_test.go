package app

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wwt-image-collection/hashgen/internal/config"
	"github.com/wwt-image-collection/hashgen/internal/domain"
)

func TestCheckMarker(t *testing.T) {
	t.Run("marker directory", func(t *testing.T) {
		fs := newCollection(t, nil)
		assert.NoError(t, CheckMarker(fs, testConfig(t)))
	})

	t.Run("marker file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{"/srv/hashgen": ""})
		assert.NoError(t, CheckMarker(fs, testConfig(t)))
	})

	t.Run("missing", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, fs.MkdirAll("/srv", 0o755))

		err := CheckMarker(fs, testConfig(t))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrMarkerMissing)
		var preErr *domain.PreconditionError
		assert.True(t, errors.As(err, &preErr))
	})
}

func TestDiscoverVersions(t *testing.T) {
	fs := newCollection(t, map[string]string{
		"/srv/10/root.wtml":  docA,
		"/srv/2/root.wtml":   docA,
		"/srv/3/root.wtml":   docA,
		"/srv/007/root.wtml": docA,
		"/srv/-1/root.wtml":  docA,
		"/srv/0/root.wtml":   docA,
		"/srv/v4/root.wtml":  docA,
		"/srv/5":             "not a directory",
	})

	t.Run("numeric order", func(t *testing.T) {
		versions, err := DiscoverVersions(fs, testConfig(t))
		require.NoError(t, err)
		assert.Equal(t, []domain.Version{"2", "3", "007", "10"}, versions)
	})

	t.Run("filtered", func(t *testing.T) {
		cfg := testConfig(t, func(c *config.Config) { c.Versions = []int{10, 3, 7, 42} })
		versions, err := DiscoverVersions(fs, cfg)
		require.NoError(t, err)
		assert.Equal(t, []domain.Version{"3", "007", "10"}, versions)
	})

	t.Run("padded directory name", func(t *testing.T) {
		fs := newCollection(t, map[string]string{"/srv/007/root.wtml": docA})
		versions, err := DiscoverVersions(fs, testConfig(t))
		require.NoError(t, err)
		require.Equal(t, []domain.Version{"007"}, versions)

		files, err := ManifestFiles(fs, testConfig(t), versions[0])
		require.NoError(t, err)
		assert.Equal(t, []string{"/srv/007/root.wtml"}, files)
	})

	t.Run("empty root", func(t *testing.T) {
		versions, err := DiscoverVersions(newCollection(t, nil), testConfig(t))
		require.NoError(t, err)
		assert.Empty(t, versions)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := DiscoverVersions(afero.NewMemMapFs(), testConfig(t))
		var preErr *domain.PreconditionError
		assert.True(t, errors.As(err, &preErr))
	})
}

func TestManifestFiles(t *testing.T) {
	fs := newCollection(t, map[string]string{
		"/srv/3/b.wtml":          docB,
		"/srv/3/a.wtml":          docA,
		"/srv/3/upper.WTML":      docA,
		"/srv/3/hash.md5":        "x",
		"/srv/3/notes.txt":       "x",
		"/srv/3/nested.wtml/c.x": "x",
	})

	files, err := ManifestFiles(fs, testConfig(t), "3")
	require.NoError(t, err)
	assert.Equal(t, []string{"/srv/3/a.wtml", "/srv/3/b.wtml", "/srv/3/upper.WTML"}, files)

	t.Run("extra extension", func(t *testing.T) {
		cfg := testConfig(t, func(c *config.Config) { c.Manifest.Extensions = []string{".wtml", ".txt"} })
		files, err := ManifestFiles(fs, cfg, "3")
		require.NoError(t, err)
		assert.Len(t, files, 4)
	})

	t.Run("empty version", func(t *testing.T) {
		require.NoError(t, fs.MkdirAll("/srv/4", 0o755))
		files, err := ManifestFiles(fs, testConfig(t), "4")
		require.NoError(t, err)
		assert.Empty(t, files)
	})
}
