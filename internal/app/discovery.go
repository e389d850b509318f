package app

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"github.com/wwt-image-collection/hashgen/internal/config"
	"github.com/wwt-image-collection/hashgen/internal/domain"
)

// CheckMarker fails with a PreconditionError unless the root holds the marker entry
func CheckMarker(fs afero.Fs, cfg *config.Config) error {
	ok, err := afero.Exists(fs, filepath.Join(cfg.Root, cfg.Marker))
	if err != nil {
		return &domain.PreconditionError{Root: cfg.Root, Err: err}
	}
	if !ok {
		return &domain.PreconditionError{
			Root: cfg.Root,
			Err:  fmt.Errorf("%w: %q", domain.ErrMarkerMissing, cfg.Marker),
		}
	}
	return nil
}

// DiscoverVersions lists the version directories of the root in numeric
// order, restricted to cfg.Versions when it is set. Versions keep their
// directory names, so "007" is version 7 and is filtered as 7.
func DiscoverVersions(fs afero.Fs, cfg *config.Config) ([]domain.Version, error) {
	entries, err := afero.ReadDir(fs, cfg.Root)
	if err != nil {
		return nil, &domain.PreconditionError{Root: cfg.Root, Err: err}
	}

	wanted := make(map[int]bool, len(cfg.Versions))
	for _, n := range cfg.Versions {
		wanted[n] = true
	}

	var versions []domain.Version
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		v, ok := domain.ParseVersion(entry.Name())
		if !ok {
			continue
		}
		if len(wanted) > 0 && !wanted[v.Number()] {
			continue
		}
		versions = append(versions, v)
	}

	sort.Slice(versions, func(i, j int) bool { return versions[i].Less(versions[j]) })
	return versions, nil
}

// ManifestFiles lists the manifest files of a version directory, sorted by name
func ManifestFiles(fs afero.Fs, cfg *config.Config, version domain.Version) ([]string, error) {
	dir := filepath.Join(cfg.Root, version.String())
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, domain.NewTransportError(dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Mode().IsRegular() || !cfg.HasManifestExtension(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}
