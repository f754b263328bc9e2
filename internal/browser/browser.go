// Package browser is the thin driver layer between page objects and a real
// browser. Page is the only surface page objects and the wait layer touch;
// playwright-go backs all three engines and chromedp offers a CDP-only
// Chrome alternative.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrElementNotFound is returned when a selector matches nothing an action
// needs.
var ErrElementNotFound = errors.New("element not found")

// Page is one browser tab owned by a single scenario.
type Page interface {
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)
	// Evaluate runs a JavaScript expression and decodes its JSON result
	// into out. out may be nil.
	Evaluate(ctx context.Context, expression string, out any) error
	// WaitForNetworkIdle blocks until no request has been in flight for
	// the driver's quiet window.
	WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	ClickNth(ctx context.Context, selector string, index int) error
	Fill(ctx context.Context, selector, value string) error
	Clear(ctx context.Context, selector string) error
	SelectOption(ctx context.Context, selector, label string) error
	Texts(ctx context.Context, selector string) ([]string, error)
	IsVisible(ctx context.Context, selector string) (bool, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// Launcher opens pages on one shared browser process.
type Launcher interface {
	NewPage(ctx context.Context) (Page, error)
	// Name is the engine actually running, for the report header.
	Name() string
	Close() error
}

// Driver selects the automation library.
type Driver string

const (
	DriverPlaywright Driver = "playwright"
	DriverChromedp   Driver = "chromedp"
)

// Options configure a Launcher.
type Options struct {
	Driver       Driver
	Browser      string
	Headless     bool
	ExecPath     string
	WindowWidth  int
	WindowHeight int
	// ActionTimeout bounds single driver actions such as a click.
	ActionTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Driver == "" {
		o.Driver = DriverPlaywright
	}
	if o.Browser == "" {
		o.Browser = "chromium"
	}
	if o.WindowWidth == 0 {
		o.WindowWidth = 1920
	}
	if o.WindowHeight == 0 {
		o.WindowHeight = 1080
	}
	if o.ActionTimeout == 0 {
		o.ActionTimeout = 30 * time.Second
	}
	return o
}

// NormalizeBrowser maps the configured browser name to an engine name.
func NormalizeBrowser(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "chromium", "chrome":
		return "chromium", nil
	case "firefox":
		return "firefox", nil
	case "webkit", "safari":
		return "webkit", nil
	default:
		return "", fmt.Errorf("unsupported browser %q", name)
	}
}

// Launch starts a browser for the configured driver.
func Launch(ctx context.Context, opts Options) (Launcher, error) {
	opts = opts.withDefaults()
	engine, err := NormalizeBrowser(opts.Browser)
	if err != nil {
		return nil, err
	}
	opts.Browser = engine

	switch opts.Driver {
	case DriverPlaywright:
		return launchPlaywright(opts)
	case DriverChromedp:
		if engine != "chromium" {
			return nil, fmt.Errorf("driver %s only supports chromium, got %s", opts.Driver, engine)
		}
		return launchChromedp(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown driver %q", opts.Driver)
	}
}
