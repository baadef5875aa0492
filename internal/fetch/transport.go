package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/INNERJOINT/svcctl/internal/command"
)

// Transport names accepted in Config.Transports.
const (
	TransportHTTP = "http"
	TransportCurl = "curl"
	TransportWget = "wget"
)

// maxErrorBody is the maximum number of bytes read from an error response body.
const maxErrorBody = 512

// Transport retrieves a remote resource into a local file.
type Transport interface {
	// Name identifies the transport in logs.
	Name() string

	// Available reports whether the transport can be used on this host.
	Available() bool

	// Fetch downloads url into dest, creating or truncating it.
	Fetch(ctx context.Context, url, dest string) error
}

// HTTPTransport downloads with the Go HTTP client. It is always available.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates an HTTPTransport using the timeouts in cfg.
func NewHTTPTransport(cfg Config) *HTTPTransport {
	cfg.ApplyDefaults()
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
	}
	return &HTTPTransport{
		client: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
	}
}

// NewHTTPTransportWithClient creates an HTTPTransport around an existing client.
func NewHTTPTransportWithClient(client *http.Client) *HTTPTransport {
	return &HTTPTransport{client: client}
}

func (t *HTTPTransport) Name() string { return TransportHTTP }

func (t *HTTPTransport) Available() bool { return true }

func (t *HTTPTransport) Fetch(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("fetch: build request: %w", err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("fetch: GET %s: HTTP %d: %s", url, resp.StatusCode, body)
	}

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("fetch: create %s: %w", dest, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return fmt.Errorf("fetch: write %s: %w", dest, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("fetch: sync %s: %w", dest, err)
	}
	return f.Close()
}

// CommandTransport downloads by shelling out to an external program.
type CommandTransport struct {
	program string
	args    func(url, dest string) []string
	runner  command.Runner
}

// NewCurlTransport returns a CommandTransport that uses curl.
func NewCurlTransport(runner command.Runner) *CommandTransport {
	return &CommandTransport{
		program: TransportCurl,
		args: func(url, dest string) []string {
			return []string{"-fsSL", "--proto", "=https", "-o", dest, url}
		},
		runner: runner,
	}
}

// NewWgetTransport returns a CommandTransport that uses wget.
func NewWgetTransport(runner command.Runner) *CommandTransport {
	return &CommandTransport{
		program: TransportWget,
		args: func(url, dest string) []string {
			return []string{"-q", "-O", dest, url}
		},
		runner: runner,
	}
}

func (t *CommandTransport) Name() string { return t.program }

func (t *CommandTransport) Available() bool { return t.runner.Has(t.program) }

func (t *CommandTransport) Fetch(ctx context.Context, url, dest string) error {
	if _, err := t.runner.Run(ctx, t.program, t.args(url, dest)...); err != nil {
		return fmt.Errorf("fetch: %s: %w", t.program, err)
	}
	return nil
}
