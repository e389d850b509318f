package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wwt-image-collection/hashgen/internal/domain"
	"github.com/wwt-image-collection/hashgen/internal/fetcher"
	"github.com/wwt-image-collection/hashgen/internal/mocks"
	"github.com/wwt-image-collection/hashgen/internal/utils"
	"go.uber.org/mock/gomock"
	"golang.org/x/text/encoding/charmap"
)

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
}

func newTestResolver(fs afero.Fs, opts ...func(*Options)) *Resolver {
	o := Options{Fs: fs, Root: "/srv"}
	for _, fn := range opts {
		fn(&o)
	}
	return NewResolver(o)
}

func newTestFetcher(t *testing.T) *fetcher.Client {
	t.Helper()
	client, err := fetcher.NewClient(fetcher.DefaultClientOptions())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestResolver_SingleDocument(t *testing.T) {
	docA := `<Folder Name="A"></Folder>`
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/srv/3/root.wtml": docA})

	result, err := newTestResolver(fs).ResolveFile(context.Background(), "/srv/3/root.wtml")
	require.NoError(t, err)
	assert.Equal(t, docA, result.Content)
	assert.Equal(t, 1, result.Documents)
	assert.Equal(t, len(docA), result.Bytes())
}

func TestResolver_Recursion(t *testing.T) {
	docA := `<Folder Name="A"><Folder Url="child.wtml"/></Folder>`
	docB := `<Folder Name="B"/>`
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/srv/3/root.wtml":  docA,
		"/srv/3/child.wtml": docB,
	})

	result, err := newTestResolver(fs).ResolveFile(context.Background(), "/srv/3/root.wtml")
	require.NoError(t, err)
	assert.Equal(t, docA+docB, result.Content)
	assert.Equal(t, 2, result.Documents)
}

func TestResolver_DepthFirstOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/srv/3/root.wtml": `<Folder Name="root"><Folder Url="a.wtml"/><Folder Url="b.wtml"/></Folder>`,
		"/srv/3/a.wtml":    `<Folder Name="a"><Folder Url="a1.wtml"/></Folder>`,
		"/srv/3/a1.wtml":   `<Folder Name="a1"/>`,
		"/srv/3/b.wtml":    `<Folder Name="b"/>`,
	}
	writeFiles(t, fs, files)

	result, err := newTestResolver(fs).ResolveFile(context.Background(), "/srv/3/root.wtml")
	require.NoError(t, err)

	want := files["/srv/3/root.wtml"] + files["/srv/3/a.wtml"] + files["/srv/3/a1.wtml"] + files["/srv/3/b.wtml"]
	assert.Equal(t, want, result.Content)
	assert.Equal(t, 4, result.Documents)
}

func TestResolver_Deterministic(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/srv/3/root.wtml": `<Folder><Folder Url="a.wtml"/><Folder Url="b.wtml"/></Folder>`,
		"/srv/3/a.wtml":    `<Folder Name="a"/>`,
		"/srv/3/b.wtml":    `<Folder Name="b"/>`,
	})
	r := newTestResolver(fs)

	first, err := r.Resolve(context.Background(), "3/root.wtml")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "3/root.wtml")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolver_OrderSensitive(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/srv/3/ab.wtml": `<Folder><Folder Url="a.wtml"/><Folder Url="b.wtml"/></Folder>`,
		"/srv/3/ba.wtml": `<Folder><Folder Url="b.wtml"/><Folder Url="a.wtml"/></Folder>`,
		"/srv/3/a.wtml":  `<Folder Name="a"/>`,
		"/srv/3/b.wtml":  `<Folder Name="b"/>`,
	})
	r := newTestResolver(fs)

	ab, err := r.ResolveFile(context.Background(), "/srv/3/ab.wtml")
	require.NoError(t, err)
	ba, err := r.ResolveFile(context.Background(), "/srv/3/ba.wtml")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(ab.Content, `<Folder Name="a"/><Folder Name="b"/>`))
	assert.True(t, strings.HasSuffix(ba.Content, `<Folder Name="b"/><Folder Name="a"/>`))
}

func TestResolver_LeafReferencesAreInert(t *testing.T) {
	doc := `<Folder Name="A">
  <Folder Name="Leaf"/>
  <Folder Name="Empty" Url=""/>
  <Folder Name="Group"><Folder Url="http://example.com/deep.wtml"/></Folder>
</Folder>`
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/srv/3/root.wtml": doc})

	// No EXPECT: any fetch fails the test
	ctrl := gomock.NewController(t)
	mockFetcher := mocks.NewMockFetcher(ctrl)

	r := newTestResolver(fs, func(o *Options) { o.Fetcher = mockFetcher })
	result, err := r.ResolveFile(context.Background(), "/srv/3/root.wtml")
	require.NoError(t, err)
	assert.Equal(t, doc, result.Content)
	assert.Equal(t, 1, result.Documents)
}

func TestResolver_RepeatedReferencesAreNotDeduplicated(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/srv/3/root.wtml": `<Folder><Folder Url="a.wtml"/><Folder Url="b.wtml"/></Folder>`,
		"/srv/3/a.wtml":    `<Folder Name="a"><Folder Url="shared.wtml"/></Folder>`,
		"/srv/3/b.wtml":    `<Folder Name="b"><Folder Url="shared.wtml"/></Folder>`,
		"/srv/shared.wtml": `<Folder Name="shared"/>`,
	})

	result, err := newTestResolver(fs).ResolveFile(context.Background(), "/srv/3/root.wtml")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(result.Content, `<Folder Name="shared"/>`))
	assert.Equal(t, 5, result.Documents)
}

func TestResolver_StructuralErrors(t *testing.T) {
	tests := []struct {
		name        string
		files       map[string]string
		wantErr     error
		wantLocator string
	}{
		{
			name:        "root without folder",
			files:       map[string]string{"/srv/3/root.wtml": `<Place Name="A"/>`},
			wantErr:     domain.ErrNoRootFolder,
			wantLocator: "/srv/3/root.wtml",
		},
		{
			name:        "malformed root",
			files:       map[string]string{"/srv/3/root.wtml": `<Folder>`},
			wantErr:     domain.ErrMalformedDocument,
			wantLocator: "/srv/3/root.wtml",
		},
		{
			name: "child without folder",
			files: map[string]string{
				"/srv/3/root.wtml":  `<Folder><Folder Url="child.wtml"/></Folder>`,
				"/srv/3/child.wtml": `<Collection/>`,
			},
			wantErr:     domain.ErrNoRootFolder,
			wantLocator: "/srv/3/child.wtml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeFiles(t, fs, tt.files)

			result, err := newTestResolver(fs).ResolveFile(context.Background(), "/srv/3/root.wtml")
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)

			var structErr *domain.StructuralError
			require.True(t, errors.As(err, &structErr))
			assert.Equal(t, tt.wantLocator, structErr.Locator)
		})
	}
}

func TestResolver_TransportErrors(t *testing.T) {
	t.Run("missing root file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		_, err := newTestResolver(fs).ResolveFile(context.Background(), "/srv/3/root.wtml")

		var transportErr *domain.TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, "/srv/3/root.wtml", transportErr.Locator)
	})

	t.Run("unresolvable reference", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{
			"/srv/3/root.wtml": `<Folder><Folder Url="missing.wtml"/></Folder>`,
		})

		_, err := newTestResolver(fs).ResolveFile(context.Background(), "/srv/3/root.wtml")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrLocatorNotFound)
	})

	t.Run("url without fetcher", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{
			"/srv/3/root.wtml": `<Folder><Folder Url="http://example.com/a.wtml"/></Folder>`,
		})

		_, err := newTestResolver(fs).ResolveFile(context.Background(), "/srv/3/root.wtml")
		assert.ErrorIs(t, err, errNoFetcher)
	})

	t.Run("fetch failure", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{
			"/srv/3/root.wtml": `<Folder><Folder Url="http://example.com/a.wtml"/></Folder>`,
		})

		ctrl := gomock.NewController(t)
		mockFetcher := mocks.NewMockFetcher(ctrl)
		fetchErr := domain.NewFetchError("http://example.com/a.wtml", http.StatusNotFound, errors.New("HTTP 404"))
		mockFetcher.EXPECT().Get(gomock.Any(), "http://example.com/a.wtml").Return(nil, fetchErr)

		r := newTestResolver(fs, func(o *Options) { o.Fetcher = mockFetcher })
		_, err := r.ResolveFile(context.Background(), "/srv/3/root.wtml")

		var transportErr *domain.TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, "http://example.com/a.wtml", transportErr.Locator)
		assert.ErrorIs(t, err, fetchErr)
	})
}

func TestResolver_Cycles(t *testing.T) {
	t.Run("self reference", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{
			"/srv/3/root.wtml": `<Folder><Folder Url="root.wtml"/></Folder>`,
		})

		_, err := newTestResolver(fs).ResolveFile(context.Background(), "/srv/3/root.wtml")

		var cycleErr *domain.CycleError
		require.True(t, errors.As(err, &cycleErr))
		assert.Equal(t, "/srv/3/root.wtml", cycleErr.Locator)
		assert.Equal(t, []string{"file:/srv/3/root.wtml", "file:/srv/3/root.wtml"}, cycleErr.Chain)
	})

	t.Run("indirect cycle", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{
			"/srv/3/root.wtml": `<Folder><Folder Url="a.wtml"/></Folder>`,
			"/srv/3/a.wtml":    `<Folder><Folder Url="b.wtml"/></Folder>`,
			"/srv/3/b.wtml":    `<Folder><Folder Url="3/a.wtml"/></Folder>`,
		})

		_, err := newTestResolver(fs).ResolveFile(context.Background(), "/srv/3/root.wtml")

		var cycleErr *domain.CycleError
		require.True(t, errors.As(err, &cycleErr))
		assert.Equal(t, "/srv/3/a.wtml", cycleErr.Locator)
		assert.Len(t, cycleErr.Chain, 4)
	})

	t.Run("remote cycle", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/wwt/a.wtml", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<Folder Name="a"><Folder Url="b.wtml"/></Folder>`)
		})
		mux.HandleFunc("/wwt/b.wtml", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<Folder Name="b"><Folder Url="a.wtml#again"/></Folder>`)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		r := newTestResolver(afero.NewMemMapFs(), func(o *Options) { o.Fetcher = newTestFetcher(t) })
		_, err := r.Resolve(context.Background(), server.URL+"/wwt/a.wtml")

		var cycleErr *domain.CycleError
		assert.True(t, errors.As(err, &cycleErr))
	})
}

func TestResolver_MaxDepth(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/srv/3/root.wtml": `<Folder><Folder Url="a.wtml"/></Folder>`,
		"/srv/3/a.wtml":    `<Folder><Folder Url="b.wtml"/></Folder>`,
		"/srv/3/b.wtml":    `<Folder/>`,
	})

	r := newTestResolver(fs, func(o *Options) { o.MaxDepth = 2 })
	_, err := r.ResolveFile(context.Background(), "/srv/3/root.wtml")
	require.NoError(t, err)

	r = newTestResolver(fs, func(o *Options) { o.MaxDepth = 1 })
	_, err = r.ResolveFile(context.Background(), "/srv/3/root.wtml")

	var depthErr *domain.DepthError
	require.True(t, errors.As(err, &depthErr))
	assert.Equal(t, "/srv/3/b.wtml", depthErr.Locator)
	assert.Equal(t, 1, depthErr.MaxDepth)
}

func TestResolver_RemoteReferences(t *testing.T) {
	remoteA := `<Folder Name="remote"><Folder Url="sub/child.wtml"/></Folder>`
	remoteChild := `<Folder Name="remote child"/>`

	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/wwt/remote.wtml", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprint(w, remoteA)
	})
	mux.HandleFunc("/wwt/sub/child.wtml", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, remoteChild)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	local := fmt.Sprintf(`<Folder Name="local"><Folder Url="%s/wwt/remote.wtml"/></Folder>`, server.URL)
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/srv/3/root.wtml": local})

	r := newTestResolver(fs, func(o *Options) { o.Fetcher = newTestFetcher(t) })
	result, err := r.ResolveFile(context.Background(), "/srv/3/root.wtml")
	require.NoError(t, err)
	assert.Equal(t, local+remoteA+remoteChild, result.Content)
	assert.Equal(t, 3, result.Documents)
	assert.Equal(t, int32(2), hits.Load())
}

func TestResolver_RemoteNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	r := newTestResolver(afero.NewMemMapFs(), func(o *Options) { o.Fetcher = newTestFetcher(t) })
	_, err := r.Resolve(context.Background(), server.URL+"/missing.wtml")

	var transportErr *domain.TransportError
	require.True(t, errors.As(err, &transportErr))

	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}

func TestResolver_DiskAndNetworkDecodeIdentically(t *testing.T) {
	raw, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><Folder Name="Céu"/>`))
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write(raw)
	}))
	defer server.Close()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/srv/3/latin.wtml", raw, 0o644))

	r := newTestResolver(fs, func(o *Options) { o.Fetcher = newTestFetcher(t) })

	fromDisk, err := r.Resolve(context.Background(), "3/latin.wtml")
	require.NoError(t, err)
	fromNet, err := r.Resolve(context.Background(), server.URL+"/latin.wtml")
	require.NoError(t, err)

	assert.Equal(t, fromDisk, fromNet)
	assert.Contains(t, fromDisk, "C\uFFFDu")
}

func TestResolver_KeepsByteOrderMark(t *testing.T) {
	raw := "\xEF\xBB\xBF<Folder Name=\"A\"><Folder Url=\"child.wtml\"/></Folder>"
	child := "\xEF\xBB\xBF<Folder Name=\"B\"/>"
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/srv/3/root.wtml":  raw,
		"/srv/3/child.wtml": child,
	})

	result, err := newTestResolver(fs).ResolveFile(context.Background(), "/srv/3/root.wtml")
	require.NoError(t, err)
	assert.Equal(t, raw+child, result.Content)
	assert.Equal(t, len(raw)+len(child), result.Bytes())
}

func TestResolver_DeclaredCharsetKeepsUTF8(t *testing.T) {
	doc := `<?xml version="1.0" encoding="iso-8859-1"?><Folder Name="café"/>`
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/srv/3/root.wtml": doc})

	result, err := newTestResolver(fs).ResolveFile(context.Background(), "/srv/3/root.wtml")
	require.NoError(t, err)
	assert.Equal(t, doc, result.Content)
}

func TestResolver_LogsManifestName(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/srv/3/root.wtml": `<Folder Name="Sky Surveys"/>`})

	var buf bytes.Buffer
	logger := utils.NewLogger(utils.LoggerOptions{Level: "debug", Format: "json", Output: &buf})
	r := newTestResolver(fs, func(o *Options) { o.Logger = logger })

	_, err := r.ResolveFile(context.Background(), "/srv/3/root.wtml")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"name":"Sky Surveys"`)
	assert.Contains(t, buf.String(), `"message":"Loaded manifest"`)
}

func TestResolver_ConcurrentMatchesSequential(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string]string{}
	var root strings.Builder
	root.WriteString(`<Folder Name="root">`)
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&root, `<Folder Url="c%d.wtml"/>`, i)
		files[fmt.Sprintf("/srv/3/c%d.wtml", i)] = fmt.Sprintf(`<Folder Name="c%d"><Folder Url="g%d.wtml"/></Folder>`, i, i)
		files[fmt.Sprintf("/srv/3/g%d.wtml", i)] = fmt.Sprintf(`<Folder Name="g%d"/>`, i)
	}
	root.WriteString(`</Folder>`)
	files["/srv/3/root.wtml"] = root.String()
	writeFiles(t, fs, files)

	sequential, err := newTestResolver(fs).ResolveFile(context.Background(), "/srv/3/root.wtml")
	require.NoError(t, err)

	concurrent, err := newTestResolver(fs, func(o *Options) { o.Workers = 4 }).ResolveFile(context.Background(), "/srv/3/root.wtml")
	require.NoError(t, err)

	assert.Equal(t, sequential.Content, concurrent.Content)
	assert.Equal(t, sequential.Documents, concurrent.Documents)
	assert.Equal(t, 25, concurrent.Documents)
}

func TestResolver_ConcurrentFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/srv/3/root.wtml": `<Folder><Folder Url="a.wtml"/><Folder Url="bad.wtml"/><Folder Url="c.wtml"/></Folder>`,
		"/srv/3/a.wtml":    `<Folder/>`,
		"/srv/3/bad.wtml":  `<Place/>`,
		"/srv/3/c.wtml":    `<Folder/>`,
	})

	r := newTestResolver(fs, func(o *Options) { o.Workers = 3 })
	_, err := r.ResolveFile(context.Background(), "/srv/3/root.wtml")
	assert.ErrorIs(t, err, domain.ErrNoRootFolder)
}

func TestResolver_CancelledContext(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/srv/3/root.wtml": `<Folder/>`})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestResolver(fs).ResolveFile(ctx, "/srv/3/root.wtml")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAncestry(t *testing.T) {
	var root *ancestry
	assert.False(t, root.contains("a"))
	assert.Empty(t, root.chain())

	a := root.push("a")
	b := a.push("b")
	c := a.push("c")

	assert.Equal(t, 0, a.depth)
	assert.Equal(t, 1, b.depth)
	assert.True(t, b.contains("a"))
	assert.False(t, c.contains("b"))
	assert.Equal(t, []string{"a", "b"}, b.chain())
	assert.Equal(t, []string{"a", "c"}, c.chain())
}
