// Package notify announces fingerprint changes to a chat channel.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/afero"
	"github.com/wwt-image-collection/hashgen/internal/domain"
	"github.com/wwt-image-collection/hashgen/internal/utils"
)

// Defaults for change messages
const (
	DefaultTokenFile = "token.txt"
	DefaultChannel   = "jenkins"
	DefaultHeader    = "WWT Image Collection"
	DefaultBaseURL   = "http://data.openspaceproject.com/wwt"
)

// Options contains options for creating a notifier
type Options struct {
	Fs afero.Fs
	// TokenFile holds the bot token; a missing or empty file disables posting
	TokenFile string
	Channel   string
	Header    string
	// APIURL overrides the Slack Web API endpoint
	APIURL string
	Logger *utils.Logger
}

// New creates a Slack notifier when a token is available and a no-op
// notifier otherwise
func New(opts Options) (domain.Notifier, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.TokenFile == "" {
		opts.TokenFile = DefaultTokenFile
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewNopLogger()
	}

	token, err := LoadToken(opts.Fs, opts.TokenFile)
	if err != nil {
		return nil, err
	}
	if token == "" {
		opts.Logger.Warn().
			Str("token_file", opts.TokenFile).
			Msg("No notification token, changes will only be logged")
		return NewNoopNotifier(opts.Logger), nil
	}

	return NewSlackNotifier(SlackOptions{
		Token:   token,
		Channel: opts.Channel,
		Header:  opts.Header,
		APIURL:  opts.APIURL,
		Logger:  opts.Logger,
	}), nil
}

// LoadToken reads a token file and trims surrounding whitespace.
// A missing file yields an empty token.
func LoadToken(fsys afero.Fs, path string) (string, error) {
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// FallbackText is the plain text of a change message
func FallbackText(n domain.Notification) string {
	return fmt.Sprintf("WWT-Images:  Updated hash of version %s", n.Version)
}

// SectionText is the body of a change message
func SectionText(n domain.Notification) string {
	return fmt.Sprintf("Updated hash of version %s  (%s)", n.Version, n.ReferenceURL)
}

// ReferenceURL returns where a version is published
func ReferenceURL(baseURL string, version domain.Version) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return utils.JoinURL(baseURL, version.String())
}

// NoopNotifier logs changes without posting them
type NoopNotifier struct {
	logger *utils.Logger
}

// NewNoopNotifier creates a notifier that only logs
func NewNoopNotifier(logger *utils.Logger) *NoopNotifier {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &NoopNotifier{logger: logger.WithComponent("notify")}
}

// Notify logs the change and never fails
func (n *NoopNotifier) Notify(ctx context.Context, note domain.Notification) error {
	n.logger.Info().
		Str("version", note.Version.String()).
		Str("fingerprint", note.Fingerprint).
		Msg(FallbackText(note))
	return nil
}
