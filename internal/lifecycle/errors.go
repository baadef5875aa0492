package lifecycle

import "errors"

var (
	// ErrInstallRootMissing is returned when the installation root directory does not exist.
	ErrInstallRootMissing = errors.New("lifecycle: installation root missing")

	// ErrMissingDownloadURL is returned by install and update without a download URL.
	ErrMissingDownloadURL = errors.New("lifecycle: download URL is required")

	// ErrInvalidDownloadURL is returned when the download URL is not an https URL.
	ErrInvalidDownloadURL = errors.New("lifecycle: invalid download URL")
)
