package manifest

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/wwt-image-collection/hashgen/internal/domain"
	"github.com/wwt-image-collection/hashgen/internal/utils"
)

// Classifier turns raw reference strings into locators
type Classifier struct {
	fs   afero.Fs
	root string
}

// NewClassifier creates a classifier that looks up relative paths under root
func NewClassifier(fs afero.Fs, root string) *Classifier {
	return &Classifier{fs: fs, root: root}
}

// Classify decides whether raw names a local file or a URL. Local files win:
// raw is tried as given (relative paths under the root), then relative to
// the directory of a file parent. Otherwise raw must be an absolute
// http(s) URL, or a reference relative to a URL parent. parent may be nil.
func (c *Classifier) Classify(raw string, parent *domain.Locator) (domain.Locator, error) {
	for _, candidate := range c.candidates(raw, parent) {
		if c.isRegularFile(candidate) {
			return domain.Locator{Raw: raw, Kind: domain.LocatorFile, Path: candidate}, nil
		}
	}

	if utils.IsHTTPURL(raw) {
		return domain.Locator{Raw: raw, Kind: domain.LocatorURL, URL: raw}, nil
	}

	if parent != nil && !parent.IsFile() {
		resolved, err := utils.ResolveURL(parent.URL, raw)
		if err == nil && utils.IsHTTPURL(resolved) {
			return domain.Locator{Raw: raw, Kind: domain.LocatorURL, URL: resolved}, nil
		}
	}

	return domain.Locator{}, domain.NewTransportError(raw, fmt.Errorf("%w: %q", domain.ErrLocatorNotFound, raw))
}

// candidates lists local paths raw may name, in lookup order
func (c *Classifier) candidates(raw string, parent *domain.Locator) []string {
	var paths []string

	if filepath.IsAbs(raw) || c.root == "" {
		paths = append(paths, raw)
	} else {
		paths = append(paths, filepath.Join(c.root, raw))
	}

	if parent != nil && parent.IsFile() && !filepath.IsAbs(raw) {
		sibling := filepath.Join(filepath.Dir(parent.Path), raw)
		if sibling != paths[0] {
			paths = append(paths, sibling)
		}
	}

	return paths
}

func (c *Classifier) isRegularFile(path string) bool {
	info, err := c.fs.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
