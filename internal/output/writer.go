package output

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/wwt-image-collection/hashgen/internal/domain"
	"gopkg.in/yaml.v3"
)

// Format is a run report encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the report encoding from a file extension; JSON unless YAML
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode serializes a run report
func Encode(report *domain.RunReport, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(report)
	case FormatJSON:
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// Writer handles writing run reports to the filesystem
type Writer struct {
	fs afero.Fs
}

// WriterOptions contains options for the writer
type WriterOptions struct {
	Fs afero.Fs
}

// NewWriter creates a new report writer
func NewWriter(opts WriterOptions) *Writer {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	return &Writer{fs: opts.Fs}
}

// WriteReport saves a run report, creating parent directories as needed
func (w *Writer) WriteReport(path string, report *domain.RunReport) error {
	data, err := Encode(report, FormatFor(path))
	if err != nil {
		return err
	}

	if err := w.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return afero.WriteFile(w.fs, path, data, 0644)
}

// WriteSummary prints one line per version and a closing total
func WriteSummary(out io.Writer, report *domain.RunReport) error {
	for _, v := range report.Versions {
		status := "unchanged"
		switch {
		case v.Changed && report.DryRun:
			status = "changed (dry run)"
		case v.Changed:
			status = "updated"
		}
		if _, err := fmt.Fprintf(out, "version %-4s %-18s %s  (%d files, %d documents, %d bytes)\n",
			v.Version, status, v.Fingerprint, len(v.Files), v.Documents, v.Bytes); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(out, "%d versions processed, %d changed in %s\n",
		len(report.Versions), len(report.Changed()), report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	return err
}
