package waits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotelbooker/internal/browser"
	"hotelbooker/pkg/logging"
)

const (
	DefaultTimeout = 30 * time.Second
	ShortTimeout   = 10 * time.Second
	LongTimeout    = 60 * time.Second

	// DefaultPollInterval is how often a predicate is re-evaluated.
	DefaultPollInterval = 100 * time.Millisecond

	settleDelay     = 500 * time.Millisecond
	formSubmitDelay = time.Second
)

// SpinnerSelectors are the loading indicators WaitForSpinnerToDisappear
// checks, in order.
var SpinnerSelectors = []string{
	".spinner",
	".loading",
	".loader",
	"[class*='spin']",
	"[class*='load']",
	".fa-spinner",
	".fa-circle-o-notch",
}

// Timeouts are the three wait budgets.
type Timeouts struct {
	Default time.Duration
	Short   time.Duration
	Long    time.Duration
}

// DefaultTimeouts returns 30s / 10s / 60s.
func DefaultTimeouts() Timeouts {
	return Timeouts{Default: DefaultTimeout, Short: ShortTimeout, Long: LongTimeout}
}

func (t Timeouts) withDefaults() Timeouts {
	d := DefaultTimeouts()
	if t.Default <= 0 {
		t.Default = d.Default
	}
	if t.Short <= 0 {
		t.Short = d.Short
	}
	if t.Long <= 0 {
		t.Long = d.Long
	}
	return t
}

// Coordinator runs waits against one page.
type Coordinator struct {
	page     browser.Page
	clock    Clock
	timeouts Timeouts
	interval time.Duration
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock replaces the real clock.
func WithClock(c Clock) Option {
	return func(co *Coordinator) { co.clock = c }
}

// WithTimeouts replaces the default budgets; zero fields keep their default.
func WithTimeouts(t Timeouts) Option {
	return func(co *Coordinator) { co.timeouts = t.withDefaults() }
}

// WithPollInterval changes how often predicates are re-evaluated.
func WithPollInterval(d time.Duration) Option {
	return func(co *Coordinator) {
		if d > 0 {
			co.interval = d
		}
	}
}

// New returns a Coordinator for page.
func New(page browser.Page, opts ...Option) *Coordinator {
	c := &Coordinator{
		page:     page,
		clock:    RealClock{},
		timeouts: DefaultTimeouts(),
		interval: DefaultPollInterval,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Timeouts returns the budgets in use.
func (c *Coordinator) Timeouts() Timeouts {
	return c.timeouts
}

func pick(def time.Duration, override []time.Duration) time.Duration {
	if len(override) > 0 && override[0] > 0 {
		return override[0]
	}
	return def
}

// poll evaluates check until it reports true, the timeout elapses, or ctx
// ends. Evaluation errors are retried; the page may be mid-navigation.
func (c *Coordinator) poll(ctx context.Context, predicate string, timeout time.Duration, check func(context.Context) (bool, error)) error {
	start := c.clock.Now()
	var lastErr error
	for {
		ok, err := check(ctx)
		if err == nil && ok {
			return nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			lastErr = err
		}

		elapsed := c.clock.Now().Sub(start)
		if elapsed >= timeout {
			return &TimeoutError{Predicate: predicate, Elapsed: elapsed, Timeout: timeout, LastErr: lastErr}
		}
		wait := c.interval
		if left := timeout - elapsed; left < wait {
			wait = left
		}
		if err := c.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// until polls a boolean JavaScript expression.
func (c *Coordinator) until(ctx context.Context, predicate, expr string, timeout time.Duration) error {
	return c.poll(ctx, predicate, timeout, func(ctx context.Context) (bool, error) {
		var ok bool
		if err := c.page.Evaluate(ctx, expr, &ok); err != nil {
			return false, err
		}
		return ok, nil
	})
}

func (c *Coordinator) networkIdle(ctx context.Context, timeout time.Duration) error {
	start := c.clock.Now()
	err := c.page.WaitForNetworkIdle(ctx, timeout)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &TimeoutError{Predicate: "network idle", Elapsed: c.clock.Now().Sub(start), Timeout: timeout, LastErr: err}
}

func (c *Coordinator) settle(ctx context.Context, d time.Duration) error {
	return c.clock.Sleep(ctx, d)
}

// WaitForJavaScriptToComplete waits for document.readyState to be complete
// and, when jQuery is on the page, for its request queue to drain.
func (c *Coordinator) WaitForJavaScriptToComplete(ctx context.Context) error {
	if err := c.until(ctx, "document ready state complete", documentCompleteExpr, c.timeouts.Default); err != nil {
		return err
	}
	return c.until(ctx, "jQuery requests to finish", jQueryIdleExpr, c.timeouts.Short)
}

// WaitForPageLoad waits for network idle, then for JavaScript to complete.
func (c *Coordinator) WaitForPageLoad(ctx context.Context) error {
	if err := c.networkIdle(ctx, c.timeouts.Default); err != nil {
		return err
	}
	return c.WaitForJavaScriptToComplete(ctx)
}

// WaitForNetworkIdle waits for network idle with the long budget.
func (c *Coordinator) WaitForNetworkIdle(ctx context.Context) error {
	return c.networkIdle(ctx, c.timeouts.Long)
}

// WaitForElementVisible waits for the first match of selector to be visible.
func (c *Coordinator) WaitForElementVisible(ctx context.Context, selector string, timeout ...time.Duration) error {
	return c.until(ctx, fmt.Sprintf("element %s to be visible", selector), browser.VisibleExpr(selector), pick(c.timeouts.Default, timeout))
}

// WaitForElementClickable waits for the first match of selector to be
// visible and enabled.
func (c *Coordinator) WaitForElementClickable(ctx context.Context, selector string, timeout ...time.Duration) error {
	return c.until(ctx, fmt.Sprintf("element %s to be clickable", selector), clickableExpr(selector), pick(c.timeouts.Default, timeout))
}

// WaitForElementToDisappear waits until selector matches nothing visible.
func (c *Coordinator) WaitForElementToDisappear(ctx context.Context, selector string, timeout ...time.Duration) error {
	return c.until(ctx, fmt.Sprintf("element %s to disappear", selector), hiddenExpr(selector), pick(c.timeouts.Default, timeout))
}

// WaitForTextInElement waits until the element's text contains text.
func (c *Coordinator) WaitForTextInElement(ctx context.Context, selector, text string, timeout ...time.Duration) error {
	return c.until(ctx, fmt.Sprintf("text %q in element %s", text, selector), textInElementExpr(selector, text), pick(c.timeouts.Default, timeout))
}

// WaitForDropdownOptionsToLoad waits until a select has more than one option.
func (c *Coordinator) WaitForDropdownOptionsToLoad(ctx context.Context, selector string, timeout ...time.Duration) error {
	return c.until(ctx, fmt.Sprintf("options of %s to load", selector), dropdownLoadedExpr(selector), pick(c.timeouts.Default, timeout))
}

// WaitForAjaxCallsToComplete waits for jQuery and fetch traffic to drain.
// The first call on a page installs the fetch counter; later calls reuse it.
func (c *Coordinator) WaitForAjaxCallsToComplete(ctx context.Context) error {
	if err := c.until(ctx, "jQuery requests to finish", jQueryIdleExpr, c.timeouts.Default); err != nil {
		return err
	}
	var installed bool
	if err := c.page.Evaluate(ctx, installFetchCounterExpr, &installed); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("install fetch counter: %w", err)
	}
	if installed {
		logging.DebugCtx(ctx, "Waits", "Installed fetch counter")
	}
	return c.until(ctx, "fetch requests to finish", fetchIdleExpr, c.timeouts.Default)
}

// WaitForModalToLoad waits for a modal to be visible and laid out.
func (c *Coordinator) WaitForModalToLoad(ctx context.Context, selector string) error {
	if err := c.WaitForElementVisible(ctx, selector); err != nil {
		return err
	}
	if err := c.settle(ctx, settleDelay); err != nil {
		return err
	}
	return c.until(ctx, fmt.Sprintf("modal %s to be displayed", selector), displayedExpr(selector), c.timeouts.Default)
}

// WaitForSearchResultsToLoad waits for a results container to show, for
// AJAX to drain, and for the container to have content.
func (c *Coordinator) WaitForSearchResultsToLoad(ctx context.Context, selector string) error {
	if err := c.WaitForElementVisible(ctx, selector); err != nil {
		return err
	}
	if err := c.WaitForAjaxCallsToComplete(ctx); err != nil {
		return err
	}
	return c.until(ctx, fmt.Sprintf("results in %s", selector), hasChildrenExpr(selector), c.timeouts.Long)
}

// WaitForFormSubmission waits for AJAX and scripts to settle after a submit.
func (c *Coordinator) WaitForFormSubmission(ctx context.Context) error {
	if err := c.WaitForAjaxCallsToComplete(ctx); err != nil {
		return err
	}
	if err := c.WaitForJavaScriptToComplete(ctx); err != nil {
		return err
	}
	return c.settle(ctx, formSubmitDelay)
}

// WaitForDatepickerToLoad waits for the date picker widget to be shown.
func (c *Coordinator) WaitForDatepickerToLoad(ctx context.Context) error {
	if err := c.WaitForElementVisible(ctx, ".datepicker"); err != nil {
		return err
	}
	return c.until(ctx, "datepicker to be displayed", displayedExpr(".datepicker"), c.timeouts.Short)
}

// WaitForCondition polls an arbitrary boolean JavaScript expression.
func (c *Coordinator) WaitForCondition(ctx context.Context, expr string, timeout time.Duration) error {
	return c.until(ctx, fmt.Sprintf("condition %q", expr), expr, pick(c.timeouts.Default, []time.Duration{timeout}))
}

// WaitForElementCount waits until selector matches exactly n elements.
func (c *Coordinator) WaitForElementCount(ctx context.Context, selector string, n int) error {
	return c.until(ctx, fmt.Sprintf("%d elements matching %s", n, selector), elementCountExpr(selector, n), c.timeouts.Default)
}

// WaitForSpinnerToDisappear tries every known loading indicator with the
// short budget. A spinner that stays up is logged and skipped; only
// context cancellation ends the sweep early.
func (c *Coordinator) WaitForSpinnerToDisappear(ctx context.Context) error {
	for _, sel := range SpinnerSelectors {
		err := c.WaitForElementToDisappear(ctx, sel, c.timeouts.Short)
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		logging.DebugCtx(ctx, "Waits", "Ignoring loading indicator %s: %v", sel, err)
	}
	return nil
}

// WaitForPageStability waits for page load, AJAX, spinners, and network
// idle, then pauses briefly.
func (c *Coordinator) WaitForPageStability(ctx context.Context) error {
	if err := c.WaitForPageLoad(ctx); err != nil {
		return err
	}
	if err := c.WaitForAjaxCallsToComplete(ctx); err != nil {
		return err
	}
	if err := c.WaitForSpinnerToDisappear(ctx); err != nil {
		return err
	}
	if err := c.WaitForNetworkIdle(ctx); err != nil {
		return err
	}
	return c.settle(ctx, settleDelay)
}
