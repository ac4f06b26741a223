// Package sentry reports crashes and fatal errors when a DSN is configured.
package sentry

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/NeverVane/historic/internal/config"
	"github.com/NeverVane/historic/internal/logger"
)

const closeFlushTimeout = 2 * time.Second

// Client wraps the Sentry hub with the scrubbing and tags historic needs
type Client struct {
	hub         *sentry.Hub
	config      config.SentryConfig
	logger      *logger.Logger
	initialized bool
	version     string
}

// NewClient creates a client. It is a no-op unless reporting is enabled and
// a DSN is set.
func NewClient(cfg *config.Config, version string) (*Client, error) {
	client := &Client{
		logger:  logger.GetLogger().WithComponent("sentry"),
		version: version,
	}
	if cfg != nil {
		client.config = cfg.Sentry
	}

	if err := client.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize Sentry client: %w", err)
	}

	return client, nil
}

func (c *Client) initialize() error {
	if !c.config.Enabled {
		c.logger.Debug().Msg("Sentry monitoring disabled")
		return nil
	}

	if c.config.DSN == "" {
		c.logger.Debug().Msg("Sentry DSN not configured, monitoring disabled")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              c.config.DSN,
		Environment:      c.config.Environment,
		Release:          "historic@" + c.version,
		SampleRate:       c.config.SampleRate,
		Debug:            c.config.Debug,
		AttachStacktrace: true,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			return scrubEvent(event)
		},
		BeforeBreadcrumb: func(breadcrumb *sentry.Breadcrumb, hint *sentry.BreadcrumbHint) *sentry.Breadcrumb {
			return scrubBreadcrumb(breadcrumb)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Sentry SDK: %w", err)
	}

	c.hub = sentry.CurrentHub().Clone()
	c.hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("app.name", "historic")
		scope.SetTag("app.version", c.version)
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)
		scope.SetTag("go_version", runtime.Version())
	})

	c.initialized = true
	c.logger.Info().
		Str("environment", c.config.Environment).
		Float64("sample_rate", c.config.SampleRate).
		Msg("Sentry monitoring initialized")

	return nil
}

// CaptureError reports err tagged with where it happened
func (c *Client) CaptureError(err error, component, operation string) {
	if !c.initialized || err == nil {
		return
	}

	c.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		scope.SetTag("operation", operation)
		c.hub.CaptureException(err)
	})

	c.logger.Debug().
		Str("component", component).
		Str("operation", operation).
		Err(err).
		Msg("Error captured by Sentry")
}

// RecoverPanic reports a recovered panic value
func (c *Client) RecoverPanic(r interface{}) {
	if !c.initialized || r == nil {
		return
	}
	c.hub.Recover(r)
}

// Flush flushes pending events
func (c *Client) Flush(timeout time.Duration) bool {
	if !c.initialized {
		return true
	}
	return c.hub.Flush(timeout)
}

// Close flushes and disables the client
func (c *Client) Close() {
	if c.initialized {
		c.Flush(closeFlushTimeout)
		c.initialized = false
		c.logger.Debug().Msg("Sentry client closed")
	}
}

// IsEnabled returns whether Sentry monitoring is enabled
func (c *Client) IsEnabled() bool {
	return c.initialized
}

var (
	globalMu     sync.RWMutex
	globalClient *Client
)

// Initialize sets up the process-wide client
func Initialize(cfg *config.Config, version string) error {
	client, err := NewClient(cfg, version)
	if err != nil {
		return err
	}

	globalMu.Lock()
	globalClient = client
	globalMu.Unlock()
	return nil
}

func current() *Client {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalClient
}

// CaptureError reports err through the process-wide client, if any
func CaptureError(err error, component, operation string) {
	if c := current(); c != nil {
		c.CaptureError(err, component, operation)
	}
}

// RecoverPanic reports r through the process-wide client, if any
func RecoverPanic(r interface{}) {
	if c := current(); c != nil {
		c.RecoverPanic(r)
	}
}

// Flush flushes the process-wide client
func Flush(timeout time.Duration) bool {
	if c := current(); c != nil {
		return c.Flush(timeout)
	}
	return true
}

// Close closes the process-wide client
func Close() {
	globalMu.Lock()
	c := globalClient
	globalClient = nil
	globalMu.Unlock()

	if c != nil {
		c.Close()
	}
}
