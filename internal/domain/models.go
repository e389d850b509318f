package domain

import (
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LocatorKind tells how a manifest locator is loaded
type LocatorKind string

const (
	LocatorFile LocatorKind = "file"
	LocatorURL  LocatorKind = "url"
)

// Locator is a classified manifest reference: a local file or a remote URL
type Locator struct {
	// Raw is the reference string as written
	Raw  string      `json:"raw" yaml:"raw"`
	Kind LocatorKind `json:"kind" yaml:"kind"`
	Path string      `json:"path,omitempty" yaml:"path,omitempty"`
	URL  string      `json:"url,omitempty" yaml:"url,omitempty"`
}

// IsFile reports whether the locator names a local file
func (l Locator) IsFile() bool {
	return l.Kind == LocatorFile
}

// String returns the path or URL the locator is loaded from
func (l Locator) String() string {
	if l.IsFile() {
		return l.Path
	}
	return l.URL
}

// Key returns the identity of the locator. Two locators with the same key
// load the same document.
func (l Locator) Key() string {
	if l.IsFile() {
		p := l.Path
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		return "file:" + filepath.Clean(p)
	}

	u, err := url.Parse(l.URL)
	if err != nil {
		return l.URL
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return u.String()
}

// Version is the name of a numbered manifest collection directory, kept as
// found on disk
type Version string

// String returns the directory name of the version
func (v Version) String() string {
	return string(v)
}

// Number returns the numeric value of the version, 0 for a name that is
// not a version
func (v Version) Number() int {
	n, err := strconv.Atoi(string(v))
	if err != nil {
		return 0
	}
	return n
}

// Less orders versions by numeric value, then by name
func (v Version) Less(o Version) bool {
	if a, b := v.Number(), o.Number(); a != b {
		return a < b
	}
	return v < o
}

// ParseVersion parses a directory name as a version. Any name that parses
// as a base-10 integer greater than zero is a version; the name itself is
// kept, so "007" still maps back to its own directory.
func ParseVersion(name string) (Version, bool) {
	n, err := strconv.Atoi(name)
	if err != nil || n <= 0 {
		return "", false
	}
	return Version(name), true
}

// Notification describes a fingerprint change for one version
type Notification struct {
	Version      Version `json:"version" yaml:"version"`
	Fingerprint  string  `json:"fingerprint" yaml:"fingerprint"`
	Previous     string  `json:"previous" yaml:"previous"`
	ReferenceURL string  `json:"reference_url" yaml:"reference_url"`
}

// VersionResult is the outcome of processing one version
type VersionResult struct {
	Version     Version  `json:"version" yaml:"version"`
	Files       []string `json:"files" yaml:"files"`
	Documents   int      `json:"documents" yaml:"documents"`
	Bytes       int      `json:"bytes" yaml:"bytes"`
	Fingerprint string   `json:"fingerprint" yaml:"fingerprint"`
	Previous    string   `json:"previous,omitempty" yaml:"previous,omitempty"`
	Changed     bool     `json:"changed" yaml:"changed"`
	Notified    bool     `json:"notified" yaml:"notified"`
	Persisted   bool     `json:"persisted" yaml:"persisted"`
}

// RunReport summarizes one orchestrator run
type RunReport struct {
	Root       string          `json:"root" yaml:"root"`
	DryRun     bool            `json:"dry_run" yaml:"dry_run"`
	StartedAt  time.Time       `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time       `json:"finished_at" yaml:"finished_at"`
	Versions   []VersionResult `json:"versions" yaml:"versions"`
}

// Changed returns the versions whose fingerprint changed during the run
func (r *RunReport) Changed() []Version {
	var changed []Version
	for _, v := range r.Versions {
		if v.Changed {
			changed = append(changed, v.Version)
		}
	}
	return changed
}

// CacheEntry represents a cached network response
type CacheEntry struct {
	URL         string    `json:"url"`
	Content     []byte    `json:"content"`
	ContentType string    `json:"content_type"`
	FetchedAt   time.Time `json:"fetched_at"`
}
