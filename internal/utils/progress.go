package utils

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Standard progress bar descriptions
const (
	DescFingerprinting = "Fingerprinting"
)

// NewProgressBar creates a consistently styled progress bar writing to w.
//
// Parameters:
//   - total: Total number of items. Zero or less means unknown (spinner mode).
//   - description: Text shown before the bar (e.g., DescFingerprinting).
//   - w: Destination; progress goes to stderr in the CLI so reports on stdout stay clean.
//
// Example:
//
//	bar := utils.NewProgressBar(len(versions), utils.DescFingerprinting, os.Stderr)
//	defer bar.Finish()
//
//	for _, v := range versions {
//	    // Process version
//	    bar.Add(1)
//	}
func NewProgressBar(total int, description string, w io.Writer) *progressbar.ProgressBar {
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	}

	// progressbar rejects a max of 0 on every Add and Finish
	if total <= 0 {
		total = -1
		opts = append(opts,
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	return progressbar.NewOptions(total, opts...)
}
