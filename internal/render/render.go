// Package render fetches fully rendered HTML for a URL.
package render

import (
	"context"
	"fmt"
	"time"
)

// Defaults shared by the renderers.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultSettleDelay  = 1500 * time.Millisecond
	DefaultViewportW    = 1920
	DefaultViewportH    = 1080
	DefaultUserAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultMaxBodyBytes = 10 * 1024 * 1024
)

// Renderer returns the HTML of a page after client-side rendering settled.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// FetchError reports a page that could not be rendered.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("render %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Options configures a renderer.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	// SettleDelay is waited after navigation before the DOM is read.
	SettleDelay time.Duration
	// ReadySelector, when set, is polled for after navigation and before the
	// settle delay. Pages that never show it are still returned.
	ReadySelector string
	// ExecPath overrides the browser binary.
	ExecPath string
}

// WithDefaults returns a copy with unset fields filled in.
func (o Options) WithDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
	return o
}
