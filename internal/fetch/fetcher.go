// Package fetch retrieves the service executable from a remote location.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/INNERJOINT/svcctl/internal/command"
	"github.com/INNERJOINT/svcctl/internal/fsutil"
)

// ExecutableMode is applied to every fetched artifact.
const ExecutableMode os.FileMode = 0o755

var (
	// ErrNoTransport is returned when none of the configured transports is usable.
	ErrNoTransport = errors.New("fetch: no supported transport available")

	// ErrFetchFailed is returned when a download fails or produces no file.
	ErrFetchFailed = errors.New("fetch: download failed")
)

// Fetcher downloads artifacts with the first available Transport.
type Fetcher struct {
	transports []Transport
	logger     *slog.Logger
}

// New builds a Fetcher from the transport names in cfg.
func New(cfg Config, runner command.Runner, logger *slog.Logger) (*Fetcher, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transports := make([]Transport, 0, len(cfg.Transports))
	for _, name := range cfg.Transports {
		switch name {
		case TransportHTTP:
			transports = append(transports, NewHTTPTransport(cfg))
		case TransportCurl:
			transports = append(transports, NewCurlTransport(runner))
		case TransportWget:
			transports = append(transports, NewWgetTransport(runner))
		}
	}
	return NewWithTransports(transports, logger), nil
}

// NewWithTransports creates a Fetcher that tries transports in order.
func NewWithTransports(transports []Transport, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		transports: transports,
		logger:     logger.With("component", "fetch"),
	}
}

// selectTransport returns the first available transport.
func (f *Fetcher) selectTransport() (Transport, error) {
	for _, t := range f.transports {
		if t.Available() {
			return t, nil
		}
		f.logger.Debug("transport unavailable", "transport", t.Name())
	}
	return nil, ErrNoTransport
}

// Fetch downloads url into dest and marks it executable. It fails with
// ErrNoTransport if no transport is usable, or ErrFetchFailed if the download
// errors or dest does not exist afterwards.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) error {
	t, err := f.selectTransport()
	if err != nil {
		return err
	}

	f.logger.Info("downloading artifact", "url", url, "dest", dest, "transport", t.Name())
	if err := t.Fetch(ctx, url, dest); err != nil {
		return fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("%w: %s missing after download via %s", ErrFetchFailed, dest, t.Name())
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrFetchFailed, dest)
	}

	if err := os.Chmod(dest, ExecutableMode); err != nil {
		return fmt.Errorf("fetch: chmod %s: %w", dest, err)
	}
	f.logger.Info("artifact downloaded", "dest", dest, "bytes", info.Size())
	return nil
}

// FetchAndPromote downloads url into staged and renames it over live. The
// live path is only replaced once staged is complete; on failure the staged
// file is removed and live is left untouched. staged must be on the same
// filesystem as live.
func (f *Fetcher) FetchAndPromote(ctx context.Context, url, staged, live string) error {
	// A staged file left behind by an interrupted run is simply overwritten.
	if _, err := fsutil.RemoveIfExists(staged); err != nil {
		return err
	}

	if err := f.Fetch(ctx, url, staged); err != nil {
		if _, rmErr := fsutil.RemoveIfExists(staged); rmErr != nil {
			f.logger.Warn("remove staged artifact", "path", staged, "error", rmErr)
		}
		return err
	}

	if err := fsutil.Promote(staged, live); err != nil {
		return fmt.Errorf("fetch: promote artifact: %w", err)
	}
	f.logger.Info("artifact promoted", "path", live)
	return nil
}
