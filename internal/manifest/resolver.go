package manifest

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/afero"
	"github.com/wwt-image-collection/hashgen/internal/domain"
	"github.com/wwt-image-collection/hashgen/internal/utils"
	"golang.org/x/sync/errgroup"
)

// errNoFetcher is returned for URL locators when no fetcher is configured
var errNoFetcher = errors.New("no fetcher configured for remote manifests")

// Options contains options for creating a Resolver
type Options struct {
	// Fs is the filesystem local manifests are read from
	Fs afero.Fs
	// Root is the directory relative references are looked up in first
	Root string
	// Fetcher loads remote manifests; nil rejects URL locators
	Fetcher domain.Fetcher
	// Workers bounds concurrent sibling resolution; 1 or less is sequential
	Workers int
	// MaxDepth bounds nesting below the starting manifest; 0 is unlimited
	MaxDepth int
	Logger   *utils.Logger
}

// Result is the aggregated content of a manifest tree
type Result struct {
	Locator domain.Locator
	Content string
	// Documents counts every manifest loaded, including repeats reached
	// through different paths
	Documents int
}

// Bytes returns the size of the aggregated content in bytes
func (r *Result) Bytes() int {
	return len(r.Content)
}

// Resolver walks manifest trees
type Resolver struct {
	fs         afero.Fs
	classifier *Classifier
	fetcher    domain.Fetcher
	workers    int
	maxDepth   int
	logger     *utils.Logger
}

// NewResolver creates a new Resolver
func NewResolver(opts Options) *Resolver {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxDepth < 0 {
		opts.MaxDepth = 0
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewNopLogger()
	}

	return &Resolver{
		fs:         opts.Fs,
		classifier: NewClassifier(opts.Fs, opts.Root),
		fetcher:    opts.Fetcher,
		workers:    opts.Workers,
		maxDepth:   opts.MaxDepth,
		logger:     opts.Logger.WithComponent("resolver"),
	}
}

// Resolve returns the aggregated content of the manifest tree rooted at
// locator, which may be a file path or a URL
func (r *Resolver) Resolve(ctx context.Context, locator string) (string, error) {
	loc, err := r.classifier.Classify(locator, nil)
	if err != nil {
		return "", err
	}

	result, err := r.resolve(ctx, loc, nil)
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

// ResolveFile resolves the manifest tree rooted at a local file
func (r *Resolver) ResolveFile(ctx context.Context, path string) (*Result, error) {
	loc := domain.Locator{Raw: path, Kind: domain.LocatorFile, Path: path}
	return r.resolve(ctx, loc, nil)
}

// resolve loads one manifest and appends the content of its references
func (r *Resolver) resolve(ctx context.Context, loc domain.Locator, parent *ancestry) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := loc.Key()
	if parent.contains(key) {
		return nil, &domain.CycleError{Locator: loc.String(), Chain: append(parent.chain(), key)}
	}
	chain := parent.push(key)
	if r.maxDepth > 0 && chain.depth > r.maxDepth {
		return nil, &domain.DepthError{Locator: loc.String(), MaxDepth: r.maxDepth}
	}

	raw, contentType, err := r.load(ctx, loc)
	if err != nil {
		return nil, err
	}

	doc, err := ParseDocument(loc, raw, contentType)
	if err != nil {
		return nil, err
	}

	var refs []Reference
	for _, ref := range doc.References() {
		if !ref.IsLeaf() {
			refs = append(refs, ref)
		}
	}

	r.logger.WithLocator(loc.String()).Debug().
		Str("name", doc.Name()).
		Int("depth", chain.depth).
		Int("references", len(refs)).
		Msg("Loaded manifest")

	children, err := r.resolveChildren(ctx, loc, refs, chain)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	size := len(doc.Text)
	for _, child := range children {
		size += len(child.Content)
	}
	sb.Grow(size)
	sb.WriteString(doc.Text)

	result := &Result{Locator: loc, Documents: 1}
	for _, child := range children {
		sb.WriteString(child.Content)
		result.Documents += child.Documents
	}
	result.Content = sb.String()

	return result, nil
}

// resolveChildren resolves references in document order. With more than one
// worker siblings run concurrently, but results keep their index.
func (r *Resolver) resolveChildren(ctx context.Context, parent domain.Locator, refs []Reference, chain *ancestry) ([]*Result, error) {
	results := make([]*Result, len(refs))

	if r.workers <= 1 || len(refs) < 2 {
		for i, ref := range refs {
			res, err := r.resolveReference(ctx, parent, ref, chain)
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, ref := range refs {
		g.Go(func() error {
			res, err := r.resolveReference(gctx, parent, ref, chain)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Resolver) resolveReference(ctx context.Context, parent domain.Locator, ref Reference, chain *ancestry) (*Result, error) {
	loc, err := r.classifier.Classify(ref.URL, &parent)
	if err != nil {
		return nil, err
	}
	return r.resolve(ctx, loc, chain)
}

// load reads a manifest's bytes and, for fetched documents, its Content-Type
func (r *Resolver) load(ctx context.Context, loc domain.Locator) ([]byte, string, error) {
	if loc.IsFile() {
		data, err := afero.ReadFile(r.fs, loc.Path)
		if err != nil {
			return nil, "", domain.NewTransportError(loc.String(), err)
		}
		return data, "", nil
	}

	if r.fetcher == nil {
		return nil, "", domain.NewTransportError(loc.String(), errNoFetcher)
	}
	resp, err := r.fetcher.Get(ctx, loc.URL)
	if err != nil {
		return nil, "", domain.NewTransportError(loc.String(), err)
	}
	return resp.Body, resp.ContentType, nil
}
