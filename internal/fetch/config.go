package fetch

import (
	"errors"
	"fmt"
	"time"
)

// DefaultTransports is the default transport preference order.
var DefaultTransports = []string{TransportHTTP, TransportCurl, TransportWget}

// DefaultConnectTimeout bounds TCP connection setup for the http transport.
const DefaultConnectTimeout = 30 * time.Second

// DefaultRequestTimeout bounds a whole download for the http transport.
const DefaultRequestTimeout = 10 * time.Minute

// Config holds artifact retrieval settings.
type Config struct {
	// Transports lists transport names in preference order.
	// Default: [http, curl, wget]
	Transports []string `yaml:"transports"`

	// ConnectTimeout is the TCP connect timeout of the http transport.
	// Default: 30s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// RequestTimeout is the overall timeout of an http transport download.
	// Default: 10m
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if len(c.Transports) == 0 {
		c.Transports = append([]string(nil), DefaultTransports...)
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

// Validate checks that transport names are known and timeouts are positive.
func (c *Config) Validate() error {
	if len(c.Transports) == 0 {
		return errors.New("fetch: config: at least one transport is required")
	}
	for _, name := range c.Transports {
		switch name {
		case TransportHTTP, TransportCurl, TransportWget:
		default:
			return fmt.Errorf("fetch: config: unknown transport %q", name)
		}
	}
	if c.ConnectTimeout < 0 {
		return errors.New("fetch: config: ConnectTimeout must not be negative")
	}
	if c.RequestTimeout < 0 {
		return errors.New("fetch: config: RequestTimeout must not be negative")
	}
	return nil
}
