// Package manifest resolves WTML manifest trees into a single aggregated
// text. A manifest is an XML document whose root element is a Folder; each
// direct child Folder with a Url attribute references another manifest,
// which may live on local disk or behind an HTTP(S) URL.
//
// # Aggregation
//
// The aggregated content of a manifest is its own decoded text followed by
// the aggregated content of every referenced manifest, depth-first, in
// document order:
//
//	resolver := manifest.NewResolver(manifest.Options{
//	    Fs:      afero.NewOsFs(),
//	    Root:    "/srv/collection",
//	    Fetcher: client,
//	})
//	result, err := resolver.ResolveFile(ctx, "/srv/collection/3/root.wtml")
//
// Child Folder elements without a Url, or with an empty one, are leaves and
// contribute nothing beyond the parent's own text.
//
// # Errors
//
// Resolution fails on the first problem found:
//   - *domain.StructuralError: malformed XML or no root Folder element
//   - *domain.TransportError: unreadable file, failed fetch or a locator
//     that is neither an existing file nor a URL
//   - *domain.CycleError: a manifest that references one of its ancestors
//   - *domain.DepthError: a tree deeper than Options.MaxDepth
package manifest
