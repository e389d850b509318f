package state

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/wwt-image-collection/hashgen/internal/domain"
	"github.com/wwt-image-collection/hashgen/internal/utils"
)

// DefaultFileName is the per-version fingerprint file
const DefaultFileName = "hash.md5"

// Ensure Store implements domain.FingerprintStore
var _ domain.FingerprintStore = (*Store)(nil)

// Store keeps one fingerprint file inside each version directory
type Store struct {
	fs       afero.Fs
	root     string
	fileName string
	logger   *utils.Logger
}

// StoreOptions contains options for creating a Store
type StoreOptions struct {
	Fs       afero.Fs
	Root     string
	FileName string
	Logger   *utils.Logger
}

// NewStore creates a new fingerprint store
func NewStore(opts StoreOptions) *Store {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.FileName == "" {
		opts.FileName = DefaultFileName
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewNopLogger()
	}

	return &Store{
		fs:       opts.Fs,
		root:     opts.Root,
		fileName: opts.FileName,
		logger:   opts.Logger.WithComponent("state"),
	}
}

// Path returns the fingerprint file path of a version
func (s *Store) Path(version domain.Version) string {
	return filepath.Join(s.root, version.String(), s.fileName)
}

// Read returns the stored fingerprint of a version, or "" if none exists
func (s *Store) Read(version domain.Version) (string, error) {
	data, err := afero.ReadFile(s.fs, s.Path(version))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read fingerprint of version %s: %w", version, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Write replaces the stored fingerprint of a version. The file holds the
// fingerprint text only, without a trailing newline.
func (s *Store) Write(version domain.Version, fingerprint string) error {
	path := s.Path(version)
	if err := afero.WriteFile(s.fs, path, []byte(fingerprint), 0o644); err != nil {
		return fmt.Errorf("failed to write fingerprint of version %s: %w", version, err)
	}

	s.logger.Debug().
		Str("version", version.String()).
		Str("path", path).
		Msg("Fingerprint persisted")
	return nil
}
