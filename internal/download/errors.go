package download

import "errors"

var ErrFileNotFound = errors.New("file not found")

type (
	// AnalysisError is returned when media information for a URL could not
	// be extracted. Message is suitable for display to a user, and the
	// underlying cause is available via errors.Unwrap.
	AnalysisError struct {
		Message string
		Err     error
	}

	// DownloadError is returned when a download (or its post-processing) fails.
	DownloadError struct {
		Message string
		Err     error
	}
)

func (e *AnalysisError) Error() string { return e.Message }
func (e *AnalysisError) Unwrap() error { return e.Err }

func (e *DownloadError) Error() string { return e.Message }
func (e *DownloadError) Unwrap() error { return e.Err }
